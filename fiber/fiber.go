package fiber

import (
	"context"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/rickb777/date/v2/timespan"
)

// Fiber is a handle to a running or finished effect.
type Fiber[A any] struct {
	d *driver
}

// ID is the fiber's identity, as recorded in Interrupt causes.
func (f *Fiber[A]) ID() cause.FiberID {
	return f.d.id
}

// Name is the name given at fork, empty if none.
func (f *Fiber[A]) Name() string {
	return f.d.name
}

// Wait suspends until the fiber settles. Every call observes the same Exit.
func (f *Fiber[A]) Wait() Effect[cause.Exit[error, A]] {
	return Map(f.d.wait(), castExit[A])
}

// Interrupt asks the fiber to stop and waits for its exit. Interrupting a
// settled fiber returns its original exit.
func (f *Fiber[A]) Interrupt() Effect[cause.Exit[error, A]] {
	return FlatMap(ID(), func(self cause.FiberID) Effect[cause.Exit[error, A]] {
		return ZipRight(
			Sync(func() struct{} {
				f.d.observed.Store(true)
				f.d.interrupt(self)
				return struct{}{}
			}),
			f.Wait(),
		)
	})
}

// Join waits for the fiber and adopts its outcome.
func (f *Fiber[A]) Join() Effect[A] {
	return FlatMap(f.Wait(), func(exit cause.Exit[error, A]) Effect[A] {
		return cause.FoldExit(exit, FailCause[A], Succeed[A])
	})
}

// Poll returns the exit without suspending. It reports false while the fiber runs.
func (f *Fiber[A]) Poll() (cause.Exit[error, A], bool) {
	exit, ok := f.d.poll()
	if !ok {
		return cause.Exit[error, A]{}, false
	}
	return castExit[A](exit), true
}

// IsComplete reports whether the fiber has an exit.
func (f *Fiber[A]) IsComplete() bool {
	_, ok := f.d.poll()
	return ok
}

// Suspensions counts how often the fiber parked on an asynchronous boundary.
func (f *Fiber[A]) Suspensions() int64 {
	return f.d.suspensions.Load()
}

// Lifetime is the span from the fiber's creation to its exit. It reports
// false while the fiber is still running.
func (f *Fiber[A]) Lifetime() (timespan.TimeSpan, bool) {
	start, end, ok := f.d.lifetime()
	if !ok {
		return timespan.TimeSpan{}, false
	}
	return timespan.BetweenTimes(start, end), true
}

// Await blocks the calling goroutine until the fiber settles or ctx ends.
func (f *Fiber[A]) Await(ctx context.Context) (cause.Exit[error, A], error) {
	settled := make(chan cause.Exit[error, any], 1)
	l := f.d.onDone(func(exit cause.Exit[error, any]) {
		settled <- exit
	})
	select {
	case exit := <-settled:
		return castExit[A](exit), nil
	case <-ctx.Done():
		f.d.removeListener(l)
		return cause.Exit[error, A]{}, ctx.Err()
	}
}

func (d *driver) wait() Effect[cause.Exit[error, any]] {
	return Suspend(func() Effect[cause.Exit[error, any]] {
		d.observed.Store(true)
		if exit, ok := d.poll(); ok {
			return Succeed(exit)
		}
		return Async(func(resume func(Effect[cause.Exit[error, any]])) func() {
			l := d.onDone(func(exit cause.Exit[error, any]) {
				resume(Succeed(exit))
			})
			if l == nil {
				return nil
			}
			return func() { d.removeListener(l) }
		})
	})
}

func castExit[A any](exit cause.Exit[error, any]) cause.Exit[error, A] {
	return cause.MapExit(exit, cast[A])
}

func cast[A any](v any) A {
	if v == nil {
		var zero A
		return zero
	}
	return v.(A)
}
