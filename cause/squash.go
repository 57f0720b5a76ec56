package cause

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/multierr"
)

var ErrInterrupted = errors.New("interrupted")

// InterruptedError is the error form of an interruption.
type InterruptedError struct {
	FiberIDs []FiberID
}

func (e *InterruptedError) Error() string {
	if len(e.FiberIDs) == 0 {
		return ErrInterrupted.Error()
	}
	ids := make([]string, len(e.FiberIDs))
	for i, id := range e.FiberIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s by %s", ErrInterrupted, strings.Join(ids, ", "))
}

func (e *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

// PanicError is the defect recorded for a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func NewPanicError(value any) *PanicError {
	return &PanicError{Value: value, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Squash reduces c to the single most important error: the first failure,
// else an InterruptedError naming every interruptor, else the first defect.
// It never returns nil.
func Squash[E any](c Cause[E], f func(E) error) error {
	if e, ok := FailureOption(c); ok {
		if err := f(e); err != nil {
			return err
		}
	}
	if ids := Interruptors(c); len(ids) > 0 {
		return &InterruptedError{FiberIDs: ids}
	}
	if d, ok := DieOption(c); ok {
		return d
	}
	return &InterruptedError{}
}

// SquashAll combines every leaf of c into one multierr error, in FoldLeft
// order. It never returns nil.
func SquashAll[E any](c Cause[E], f func(E) error) error {
	errs := FoldLeft(c, []error(nil), func(acc []error, n Cause[E]) []error {
		switch n := n.(type) {
		case Fail[E]:
			return append(acc, f(n.Error))
		case Die[E]:
			return append(acc, n.Defect)
		case Interrupt[E]:
			return append(acc, &InterruptedError{FiberIDs: []FiberID{n.FiberID}})
		}
		return acc
	})
	if err := multierr.Combine(errs...); err != nil {
		return err
	}
	return &InterruptedError{}
}
