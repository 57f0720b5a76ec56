package fiber

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/on-the-ground/fiber_ive_go/internal/helper"
	"go.uber.org/zap"
)

var (
	ErrNilEffect   = errors.New("nil effect")
	ErrEnvironment = errors.New("environment mismatch")
)

// Effect describes a computation that produces an A, fails with an error,
// dies with a defect or is interrupted. Nothing happens until a Runtime runs
// it, and the same Effect may run any number of times.
type Effect[A any] struct {
	i instr
}

func (e Effect[A]) node() instr {
	if e.i == nil {
		return failInstr{cause: cause.DieOf[error](ErrNilEffect)}
	}
	return e.i
}

// Succeed produces a without suspending.
func Succeed[A any](a A) Effect[A] {
	return Effect[A]{i: pureInstr{value: a}}
}

// Unit succeeds with the empty struct.
func Unit() Effect[struct{}] {
	return Succeed(struct{}{})
}

// Fail fails with err as an expected failure.
func Fail[A any](err error) Effect[A] {
	return FailCause[A](cause.FailOf(err))
}

func FailCause[A any](c cause.Cause[error]) Effect[A] {
	return Effect[A]{i: failInstr{cause: c}}
}

// Die fails with a defect rather than an expected error.
func Die[A any](defect error) Effect[A] {
	return FailCause[A](cause.DieOf[error](defect))
}

// Suspend defers building the effect until it runs.
func Suspend[A any](thunk func() Effect[A]) Effect[A] {
	return Effect[A]{i: suspendInstr{thunk: func() instr { return thunk().node() }}}
}

// Sync runs a side effect that cannot fail. A panic in f becomes a defect.
func Sync[A any](f func() A) Effect[A] {
	return Effect[A]{i: suspendInstr{thunk: func() instr { return pureInstr{value: f()} }}}
}

// Try runs a side effect that may fail.
func Try[A any](f func() (A, error)) Effect[A] {
	return Effect[A]{i: suspendInstr{thunk: func() instr {
		a, err := f()
		if err != nil {
			return failInstr{cause: cause.FailOf(err)}
		}
		return pureInstr{value: a}
	}}}
}

// Async suspends the fiber until resume is called. Only the first resume
// counts. The optional cancel thunk runs if the fiber is interrupted while it
// waits.
func Async[A any](register func(resume func(Effect[A])) (cancel func())) Effect[A] {
	return Effect[A]{i: asyncInstr{register: func(resume func(instr)) func() {
		return register(func(eff Effect[A]) { resume(eff.node()) })
	}}}
}

// Callback adapts a Go style callback API.
func Callback[A any](register func(cb func(A, error)) (cancel func())) Effect[A] {
	return Async(func(resume func(Effect[A])) func() {
		return register(func(a A, err error) {
			if err != nil {
				resume(Fail[A](err))
				return
			}
			resume(Succeed(a))
		})
	})
}

// FlatMap runs eff, then the effect k builds from its value. Failures skip k.
func FlatMap[A, B any](eff Effect[A], k func(A) Effect[B]) Effect[B] {
	return Effect[B]{i: chainInstr{
		effect: eff.node(),
		k:      func(v any) instr { return k(cast[A](v)).node() },
	}}
}

// Map transforms the value of eff with f.
func Map[A, B any](eff Effect[A], f func(A) B) Effect[B] {
	return Effect[B]{i: mapInstr{
		effect: eff.node(),
		f:      func(v any) any { return f(cast[A](v)) },
	}}
}

// FoldCause handles both outcomes of eff. onFailure sees the full cause.
func FoldCause[A, B any](
	eff Effect[A],
	onFailure func(cause.Cause[error]) Effect[B],
	onSuccess func(A) Effect[B],
) Effect[B] {
	return Effect[B]{i: foldInstr{
		effect:    eff.node(),
		onFailure: func(c cause.Cause[error]) instr { return onFailure(c).node() },
		onSuccess: func(v any) instr { return onSuccess(cast[A](v)).node() },
	}}
}

// Interruptible lets eff be interrupted, even inside an uninterruptible region.
func Interruptible[A any](eff Effect[A]) Effect[A] {
	return Effect[A]{i: regionInstr{effect: eff.node(), interruptible: true}}
}

// Uninterruptible defers interruption until eff leaves the region.
func Uninterruptible[A any](eff Effect[A]) Effect[A] {
	return Effect[A]{i: regionInstr{effect: eff.node(), interruptible: false}}
}

// Environment reads the innermost provided environment as an R. A missing
// or mistyped environment is a defect.
func Environment[R any]() Effect[R] {
	return Effect[R]{i: chainInstr{
		effect: accessEnvInstr{},
		k: func(v any) instr {
			r, err := helper.Cast[R](v)
			if err != nil {
				return failInstr{cause: cause.DieOf[error](fmt.Errorf("%w: %w", ErrEnvironment, err))}
			}
			return pureInstr{value: r}
		},
	}}
}

// Provide runs eff with env as its environment. The outer environment is
// restored however eff ends.
func Provide[A any](env any, eff Effect[A]) Effect[A] {
	return Effect[A]{i: provideEnvInstr{effect: eff.node(), env: env}}
}

// Fork starts eff on a new fiber that shares the current environment.
func Fork[A any](eff Effect[A]) Effect[*Fiber[A]] {
	return ForkNamed("", false, eff)
}

// ForkSupervised is Fork with the child tied to the current fiber: the
// current fiber does not settle until the child has, interrupting it first.
func ForkSupervised[A any](eff Effect[A]) Effect[*Fiber[A]] {
	return ForkNamed("", true, eff)
}

func ForkNamed[A any](name string, supervised bool, eff Effect[A]) Effect[*Fiber[A]] {
	return Effect[*Fiber[A]]{i: forkInstr{
		effect:     eff.node(),
		name:       name,
		supervised: supervised,
		wrap:       func(d *driver) any { return &Fiber[A]{d: d} },
	}}
}

// Descriptor is a snapshot of the running fiber.
type Descriptor struct {
	ID            cause.FiberID
	Name          string
	Parent        cause.FiberID
	Interrupted   bool
	Interruptible bool
	Logger        *zap.Logger
}

func GetDescriptor() Effect[Descriptor] {
	return Effect[Descriptor]{i: descriptorInstr{}}
}

func ID() Effect[cause.FiberID] {
	return Map(GetDescriptor(), func(d Descriptor) cause.FiberID { return d.ID })
}

// Logger is the runtime logger annotated with the current fiber.
func Logger() Effect[*zap.Logger] {
	return Map(GetDescriptor(), func(d Descriptor) *zap.Logger { return d.Logger })
}
