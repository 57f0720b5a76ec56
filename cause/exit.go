package cause

import "fmt"

// Exit is the settled outcome of a fiber: a value or a Cause.
//
// Exit is opaque. Inspect it with FoldExit, Fold or the predicate methods.
type Exit[E, A any] struct {
	value A
	cause Cause[E]
	done  bool
}

func Done[E, A any](a A) Exit[E, A] {
	return Exit[E, A]{value: a, done: true}
}

func FromCause[E, A any](c Cause[E]) Exit[E, A] {
	return Exit[E, A]{cause: orEmpty(c)}
}

func Failure[E, A any](e E) Exit[E, A] {
	return FromCause[E, A](FailOf(e))
}

func Defect[E, A any](err error) Exit[E, A] {
	return FromCause[E, A](DieOf[E](err))
}

func InterruptedBy[E, A any](id FiberID) Exit[E, A] {
	return FromCause[E, A](InterruptOf[E](id))
}

// FoldExit is the elimination form of Exit.
func FoldExit[E, A, Z any](e Exit[E, A], onCause func(Cause[E]) Z, onDone func(A) Z) Z {
	if e.done {
		return onDone(e.value)
	}
	return onCause(e.cause)
}

// Fold classifies a failed Exit by the most important leaf of its cause, in
// the same order as Squash: failure, then interruption, then defect.
func Fold[E, A, Z any](
	e Exit[E, A],
	onFailure func(E) Z,
	onDefect func(error) Z,
	onInterrupt func([]FiberID) Z,
	onDone func(A) Z,
) Z {
	if e.done {
		return onDone(e.value)
	}
	if err, ok := FailureOption(e.cause); ok {
		return onFailure(err)
	}
	if ids := Interruptors(e.cause); len(ids) > 0 {
		return onInterrupt(ids)
	}
	if d, ok := DieOption(e.cause); ok {
		return onDefect(d)
	}
	return onInterrupt(nil)
}

func (e Exit[E, A]) IsDone() bool  { return e.done }
func (e Exit[E, A]) IsCause() bool { return !e.done }

// IsRaise reports a failed Exit whose cause holds a Fail.
func (e Exit[E, A]) IsRaise() bool { return !e.done && Failed(e.cause) }

// IsAbort reports a failed Exit whose cause holds a Die.
func (e Exit[E, A]) IsAbort() bool { return !e.done && Died(e.cause) }

func (e Exit[E, A]) IsInterrupt() bool { return !e.done && Interrupted(e.cause) }

func (e Exit[E, A]) Value() (A, bool) {
	return e.value, e.done
}

func (e Exit[E, A]) Cause() (Cause[E], bool) {
	if e.done {
		return nil, false
	}
	return e.cause, true
}

func (e Exit[E, A]) String() string {
	if e.done {
		return fmt.Sprintf("Done(%v)", e.value)
	}
	return fmt.Sprintf("Cause(%v)", e.cause)
}

func MapExit[E, A, B any](e Exit[E, A], f func(A) B) Exit[E, B] {
	if e.done {
		return Done[E](f(e.value))
	}
	return FromCause[E, B](e.cause)
}

// ToError is nil for a done Exit and the squashed cause otherwise.
func ToError[E, A any](e Exit[E, A], f func(E) error) error {
	if e.done {
		return nil
	}
	return Squash(e.cause, f)
}
