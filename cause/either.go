package cause

// Either holds a Left or a Right value, never both.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

func Left[L, R any](l L) Either[L, R] {
	return Either[L, R]{left: l}
}

func Right[L, R any](r R) Either[L, R] {
	return Either[L, R]{right: r, isRight: true}
}

func (e Either[L, R]) IsLeft() bool  { return !e.isRight }
func (e Either[L, R]) IsRight() bool { return e.isRight }

func (e Either[L, R]) GetLeft() (L, bool) {
	return e.left, !e.isRight
}

func (e Either[L, R]) GetRight() (R, bool) {
	return e.right, e.isRight
}

func MatchEither[L, R, Z any](e Either[L, R], onLeft func(L) Z, onRight func(R) Z) Z {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}

// Option holds a value or nothing.
type Option[A any] struct {
	value A
	ok    bool
}

func Some[A any](a A) Option[A] {
	return Option[A]{value: a, ok: true}
}

func None[A any]() Option[A] {
	return Option[A]{}
}

func (o Option[A]) Get() (A, bool) { return o.value, o.ok }
func (o Option[A]) IsSome() bool   { return o.ok }

// SequenceCauseEither returns Right with the first Right failure payload of c,
// or Left with every Fail payload narrowed to its Left value.
func SequenceCauseEither[E, A any](c Cause[Either[E, A]]) Either[Cause[E], A] {
	a, ok := Find(c, func(n Cause[Either[E, A]]) (A, bool) {
		if f, isFail := n.(Fail[Either[E, A]]); isFail {
			return f.Error.GetRight()
		}
		var zero A
		return zero, false
	})
	if ok {
		return Right[Cause[E]](a)
	}
	return Left[Cause[E], A](Map(c, func(e Either[E, A]) E {
		l, _ := e.GetLeft()
		return l
	}))
}

// SequenceCauseOption treats Fail(None) as the absence of a cause. It returns
// None when c holds such a leaf that nothing else accounts for.
func SequenceCauseOption[E any](c Cause[Option[E]]) Option[Cause[E]] {
	switch c := c.(type) {
	case nil, Empty[Option[E]]:
		return Some(EmptyOf[E]())
	case Fail[Option[E]]:
		if e, ok := c.Error.Get(); ok {
			return Some(FailOf(e))
		}
		return None[Cause[E]]()
	case Die[Option[E]]:
		return Some(DieOf[E](c.Defect))
	case Interrupt[Option[E]]:
		return Some(InterruptOf[E](c.FiberID))
	case Then[Option[E]]:
		return combineOption(SequenceCauseOption(c.Left), SequenceCauseOption(c.Right), ThenOf[E])
	case Both[Option[E]]:
		return combineOption(SequenceCauseOption(c.Left), SequenceCauseOption(c.Right), BothOf[E])
	default:
		panic(exhaustive(c))
	}
}

// combineOption treats Some(empty) as neutral, so None survives composition
// with Empty subtrees.
func combineOption[E any](l, r Option[Cause[E]], combine func(Cause[E], Cause[E]) Cause[E]) Option[Cause[E]] {
	lc, lok := l.Get()
	rc, rok := r.Get()
	lfull := lok && !IsEmpty(lc)
	rfull := rok && !IsEmpty(rc)
	switch {
	case lfull && rfull:
		return Some(combine(lc, rc))
	case lfull:
		return l
	case rfull:
		return r
	case lok && rok:
		return Some(combine(lc, rc))
	default:
		return None[Cause[E]]()
	}
}
