package cause

// Folder holds one function per Cause variant. Every field must be set.
type Folder[E, Z any] struct {
	Empty     func() Z
	Fail      func(E) Z
	Die       func(error) Z
	Interrupt func(FiberID) Z
	Then      func(Z, Z) Z
	Both      func(Z, Z) Z
}

// FoldCause replaces every leaf of c by the matching Folder function and every
// composition by Then or Both.
func FoldCause[E, Z any](c Cause[E], f Folder[E, Z]) Z {
	switch c := c.(type) {
	case nil, Empty[E]:
		return f.Empty()
	case Fail[E]:
		return f.Fail(c.Error)
	case Die[E]:
		return f.Die(c.Defect)
	case Interrupt[E]:
		return f.Interrupt(c.FiberID)
	case Then[E]:
		return f.Then(FoldCause(c.Left, f), FoldCause(c.Right, f))
	case Both[E]:
		return f.Both(FoldCause(c.Left, f), FoldCause(c.Right, f))
	default:
		panic(exhaustive(c))
	}
}

// FoldLeft visits every node of c, parents before children and left before
// right, threading an accumulator through f.
func FoldLeft[E, Z any](c Cause[E], z Z, f func(Z, Cause[E]) Z) Z {
	c = orEmpty(c)
	z = f(z, c)
	switch c := c.(type) {
	case Empty[E], Fail[E], Die[E], Interrupt[E]:
		return z
	case Then[E]:
		return FoldLeft(c.Right, FoldLeft(c.Left, z, f), f)
	case Both[E]:
		return FoldLeft(c.Right, FoldLeft(c.Left, z, f), f)
	default:
		panic(exhaustive(c))
	}
}

// Find returns the first result of f over the nodes of c, in FoldLeft order.
func Find[E, Z any](c Cause[E], f func(Cause[E]) (Z, bool)) (Z, bool) {
	c = orEmpty(c)
	if z, ok := f(c); ok {
		return z, true
	}
	switch c := c.(type) {
	case Empty[E], Fail[E], Die[E], Interrupt[E]:
		var zero Z
		return zero, false
	case Then[E]:
		if z, ok := Find(c.Left, f); ok {
			return z, true
		}
		return Find(c.Right, f)
	case Both[E]:
		if z, ok := Find(c.Left, f); ok {
			return z, true
		}
		return Find(c.Right, f)
	default:
		panic(exhaustive(c))
	}
}

// Map transforms every Fail payload, keeping the shape of c.
func Map[E, E2 any](c Cause[E], f func(E) E2) Cause[E2] {
	return FoldCause(c, Folder[E, Cause[E2]]{
		Empty:     EmptyOf[E2],
		Fail:      func(e E) Cause[E2] { return FailOf(f(e)) },
		Die:       DieOf[E2],
		Interrupt: InterruptOf[E2],
		Then:      ThenOf[E2],
		Both:      BothOf[E2],
	})
}

// FlatMap replaces every Fail leaf by the cause f returns for its payload.
func FlatMap[E, E2 any](c Cause[E], f func(E) Cause[E2]) Cause[E2] {
	return FoldCause(c, Folder[E, Cause[E2]]{
		Empty:     EmptyOf[E2],
		Fail:      f,
		Die:       DieOf[E2],
		Interrupt: InterruptOf[E2],
		Then:      ThenOf[E2],
		Both:      BothOf[E2],
	})
}

func FailureOption[E any](c Cause[E]) (E, bool) {
	return Find(c, func(n Cause[E]) (E, bool) {
		if f, ok := n.(Fail[E]); ok {
			return f.Error, true
		}
		var zero E
		return zero, false
	})
}

func DieOption[E any](c Cause[E]) (error, bool) {
	return Find(c, func(n Cause[E]) (error, bool) {
		if d, ok := n.(Die[E]); ok {
			return d.Defect, true
		}
		return nil, false
	})
}

func InterruptOption[E any](c Cause[E]) (FiberID, bool) {
	return Find(c, func(n Cause[E]) (FiberID, bool) {
		if i, ok := n.(Interrupt[E]); ok {
			return i.FiberID, true
		}
		return NoFiber, false
	})
}

func Failed[E any](c Cause[E]) bool {
	_, ok := FailureOption(c)
	return ok
}

func Died[E any](c Cause[E]) bool {
	_, ok := DieOption(c)
	return ok
}

func Interrupted[E any](c Cause[E]) bool {
	_, ok := InterruptOption(c)
	return ok
}

// InterruptedOnly reports whether interruption is the only thing c records.
func InterruptedOnly[E any](c Cause[E]) bool {
	return Interrupted(c) && !Failed(c) && !Died(c)
}

func Failures[E any](c Cause[E]) []E {
	return FoldLeft(c, []E(nil), func(acc []E, n Cause[E]) []E {
		if f, ok := n.(Fail[E]); ok {
			return append(acc, f.Error)
		}
		return acc
	})
}

func Defects[E any](c Cause[E]) []error {
	return FoldLeft(c, []error(nil), func(acc []error, n Cause[E]) []error {
		if d, ok := n.(Die[E]); ok {
			return append(acc, d.Defect)
		}
		return acc
	})
}

// Interruptors lists the distinct interrupting fibers in first seen order.
func Interruptors[E any](c Cause[E]) []FiberID {
	seen := map[FiberID]struct{}{}
	return FoldLeft(c, []FiberID(nil), func(acc []FiberID, n Cause[E]) []FiberID {
		i, ok := n.(Interrupt[E])
		if !ok {
			return acc
		}
		if _, dup := seen[i.FiberID]; dup {
			return acc
		}
		seen[i.FiberID] = struct{}{}
		return append(acc, i.FiberID)
	})
}

// StripFailures replaces every Fail leaf with Empty.
func StripFailures[E any](c Cause[E]) Cause[E] {
	return keep(c, func(n Cause[E]) bool {
		_, ok := n.(Fail[E])
		return !ok
	})
}

// StripInterrupts replaces every Interrupt leaf with Empty.
func StripInterrupts[E any](c Cause[E]) Cause[E] {
	return keep(c, func(n Cause[E]) bool {
		_, ok := n.(Interrupt[E])
		return !ok
	})
}

// StripInterruptsBy replaces the Interrupt leaves raised by id with Empty.
func StripInterruptsBy[E any](c Cause[E], id FiberID) Cause[E] {
	return keep(c, func(n Cause[E]) bool {
		i, ok := n.(Interrupt[E])
		return !ok || i.FiberID != id
	})
}

// KeepDefects replaces every leaf but Die with Empty.
func KeepDefects[E any](c Cause[E]) Cause[E] {
	return keep(c, func(n Cause[E]) bool {
		_, ok := n.(Die[E])
		return ok
	})
}

func keep[E any](c Cause[E], pred func(Cause[E]) bool) Cause[E] {
	leaf := func(n Cause[E]) Cause[E] {
		if pred(n) {
			return n
		}
		return Empty[E]{}
	}
	return FoldCause(c, Folder[E, Cause[E]]{
		Empty:     EmptyOf[E],
		Fail:      func(e E) Cause[E] { return leaf(FailOf(e)) },
		Die:       func(err error) Cause[E] { return leaf(DieOf[E](err)) },
		Interrupt: func(id FiberID) Cause[E] { return leaf(InterruptOf[E](id)) },
		Then:      ThenOf[E],
		Both:      BothOf[E],
	})
}
