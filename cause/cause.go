package cause

import (
	"errors"
	"fmt"
)

// Cause is the complete account of why a computation did not produce a value.
//
// Cause is sealed: Empty, Fail, Die, Interrupt, Then and Both are its only
// variants. Then and Both form a monoid with Empty as identity, Then is
// associative and Both is associative and commutative. Equal decides equality
// modulo those laws; the raw tree shape is never significant.
type Cause[E any] interface {
	fmt.Stringer
	sealedCause(E)
}

// Empty is the cause of nothing.
type Empty[E any] struct{}

// Fail is an expected, domain level failure.
type Fail[E any] struct {
	Error E
}

// Die is a defect: an unexpected error or a recovered panic.
type Die[E any] struct {
	Defect error
}

// Interrupt records cooperative cancellation requested by FiberID.
type Interrupt[E any] struct {
	FiberID FiberID
}

// Then is a cause followed by another cause.
type Then[E any] struct {
	Left, Right Cause[E]
}

// Both is two causes that happened concurrently.
type Both[E any] struct {
	Left, Right Cause[E]
}

func (Empty[E]) sealedCause(E)     {}
func (Fail[E]) sealedCause(E)      {}
func (Die[E]) sealedCause(E)       {}
func (Interrupt[E]) sealedCause(E) {}
func (Then[E]) sealedCause(E)      {}
func (Both[E]) sealedCause(E)      {}

func (Empty[E]) String() string       { return "Empty" }
func (c Fail[E]) String() string      { return fmt.Sprintf("Fail(%v)", c.Error) }
func (c Die[E]) String() string       { return fmt.Sprintf("Die(%v)", c.Defect) }
func (c Interrupt[E]) String() string { return fmt.Sprintf("Interrupt(%s)", c.FiberID) }
func (c Then[E]) String() string      { return fmt.Sprintf("Then(%v, %v)", c.Left, c.Right) }
func (c Both[E]) String() string      { return fmt.Sprintf("Both(%v, %v)", c.Left, c.Right) }

var ErrNilDefect = errors.New("nil defect")

func EmptyOf[E any]() Cause[E] {
	return Empty[E]{}
}

func FailOf[E any](e E) Cause[E] {
	return Fail[E]{Error: e}
}

func DieOf[E any](defect error) Cause[E] {
	if defect == nil {
		defect = ErrNilDefect
	}
	return Die[E]{Defect: defect}
}

func InterruptOf[E any](id FiberID) Cause[E] {
	return Interrupt[E]{FiberID: id}
}

// ThenOf builds a Then node as is. Use Sequential to drop Empty operands.
func ThenOf[E any](left, right Cause[E]) Cause[E] {
	return Then[E]{Left: orEmpty(left), Right: orEmpty(right)}
}

// BothOf builds a Both node as is. Use Parallel to drop Empty operands.
func BothOf[E any](left, right Cause[E]) Cause[E] {
	return Both[E]{Left: orEmpty(left), Right: orEmpty(right)}
}

// Sequential composes left then right, eliminating Empty operands.
func Sequential[E any](left, right Cause[E]) Cause[E] {
	switch {
	case IsEmpty(left):
		return orEmpty(right)
	case IsEmpty(right):
		return left
	}
	return Then[E]{Left: left, Right: right}
}

// Parallel composes left and right as concurrent, eliminating Empty operands.
func Parallel[E any](left, right Cause[E]) Cause[E] {
	switch {
	case IsEmpty(left):
		return orEmpty(right)
	case IsEmpty(right):
		return left
	}
	return Both[E]{Left: left, Right: right}
}

// IsEmpty reports whether c contains no Fail, Die or Interrupt leaf.
func IsEmpty[E any](c Cause[E]) bool {
	switch c := c.(type) {
	case nil, Empty[E]:
		return true
	case Fail[E], Die[E], Interrupt[E]:
		return false
	case Then[E]:
		return IsEmpty(c.Left) && IsEmpty(c.Right)
	case Both[E]:
		return IsEmpty(c.Left) && IsEmpty(c.Right)
	default:
		panic(exhaustive(c))
	}
}

func orEmpty[E any](c Cause[E]) Cause[E] {
	if c == nil {
		return Empty[E]{}
	}
	return c
}

func exhaustive(c any) string {
	return fmt.Sprintf("exhaustive match fallback, cause type: %T", c)
}
