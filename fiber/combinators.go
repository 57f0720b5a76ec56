package fiber

import (
	"time"

	"github.com/on-the-ground/fiber_ive_go/cause"
)

func As[A, B any](eff Effect[A], b B) Effect[B] {
	return Map(eff, func(A) B { return b })
}

func AsUnit[A any](eff Effect[A]) Effect[struct{}] {
	return As(eff, struct{}{})
}

type Pair[A, B any] struct {
	First  A
	Second B
}

func ZipWith[A, B, C any](left Effect[A], right Effect[B], f func(A, B) C) Effect[C] {
	return FlatMap(left, func(a A) Effect[C] {
		return Map(right, func(b B) C { return f(a, b) })
	})
}

func Zip[A, B any](left Effect[A], right Effect[B]) Effect[Pair[A, B]] {
	return ZipWith(left, right, func(a A, b B) Pair[A, B] { return Pair[A, B]{First: a, Second: b} })
}

// ZipRight runs left then right, keeping right's value.
func ZipRight[A, B any](left Effect[A], right Effect[B]) Effect[B] {
	return FlatMap(left, func(A) Effect[B] { return right })
}

// ZipLeft runs left then right, keeping left's value.
func ZipLeft[A, B any](left Effect[A], right Effect[B]) Effect[A] {
	return FlatMap(left, func(a A) Effect[A] { return As(right, a) })
}

// ForEach runs f over items in order and collects the results.
func ForEach[A, B any](items []A, f func(A) Effect[B]) Effect[[]B] {
	return Suspend(func() Effect[[]B] {
		results := make([]B, 0, len(items))
		var loop func(i int) Effect[[]B]
		loop = func(i int) Effect[[]B] {
			if i == len(items) {
				return Succeed(results)
			}
			return FlatMap(f(items[i]), func(b B) Effect[[]B] {
				results = append(results, b)
				return loop(i + 1)
			})
		}
		return loop(0)
	})
}

// Fold handles expected failures and success. Defects and interruptions pass
// through untouched.
func Fold[A, B any](eff Effect[A], onFailure func(error) Effect[B], onSuccess func(A) Effect[B]) Effect[B] {
	return FoldCause(eff,
		func(c cause.Cause[error]) Effect[B] {
			if err, ok := cause.FailureOption(c); ok {
				return onFailure(err)
			}
			return FailCause[B](c)
		},
		onSuccess,
	)
}

func CatchAll[A any](eff Effect[A], h func(error) Effect[A]) Effect[A] {
	return Fold(eff, h, Succeed[A])
}

func CatchAllCause[A any](eff Effect[A], h func(cause.Cause[error]) Effect[A]) Effect[A] {
	return FoldCause(eff, h, Succeed[A])
}

func OrElse[A any](eff, that Effect[A]) Effect[A] {
	return CatchAll(eff, func(error) Effect[A] { return that })
}

// Either moves an expected failure into the value channel.
func Either[A any](eff Effect[A]) Effect[cause.Either[error, A]] {
	return Fold(eff,
		func(err error) Effect[cause.Either[error, A]] { return Succeed(cause.Left[error, A](err)) },
		func(a A) Effect[cause.Either[error, A]] { return Succeed(cause.Right[error](a)) },
	)
}

func FromEither[A any](e cause.Either[error, A]) Effect[A] {
	return cause.MatchEither(e, Fail[A], Succeed[A])
}

// Exit runs eff and returns its settled outcome as a value, so defects and
// interruptions of eff can be inspected.
func Exit[A any](eff Effect[A]) Effect[cause.Exit[error, A]] {
	return FoldCause(eff,
		func(c cause.Cause[error]) Effect[cause.Exit[error, A]] {
			return Succeed(cause.FromCause[error, A](c))
		},
		func(a A) Effect[cause.Exit[error, A]] {
			return Succeed(cause.Done[error](a))
		},
	)
}

// OnError runs cleanup when eff fails for any reason, then fails with the
// same cause.
func OnError[A any](eff Effect[A], cleanup func(cause.Cause[error]) Effect[struct{}]) Effect[A] {
	return BracketExit(
		Unit(),
		func(_ struct{}, exit cause.Exit[error, A]) Effect[struct{}] {
			return cause.FoldExit(exit, cleanup, func(A) Effect[struct{}] { return Unit() })
		},
		func(struct{}) Effect[A] { return eff },
	)
}

// Ensuring runs finalizer after eff however eff ends. eff runs interruptibly.
func Ensuring[A any](eff Effect[A], finalizer Effect[struct{}]) Effect[A] {
	return Bracket(Unit(), func(struct{}) Effect[struct{}] { return finalizer }, func(struct{}) Effect[A] { return eff })
}

// Bracket acquires a resource, uses it and releases it. acquire and release
// are uninterruptible, use is interruptible, and release runs exactly once
// whenever acquire succeeded.
func Bracket[R, A any](
	acquire Effect[R],
	release func(R) Effect[struct{}],
	use func(R) Effect[A],
) Effect[A] {
	return BracketExit(acquire, func(r R, _ cause.Exit[error, A]) Effect[struct{}] { return release(r) }, use)
}

// BracketExit is Bracket with release seeing how use ended. A failing
// release is sequenced after the cause of use.
func BracketExit[R, A any](
	acquire Effect[R],
	release func(R, cause.Exit[error, A]) Effect[struct{}],
	use func(R) Effect[A],
) Effect[A] {
	return Uninterruptible(FlatMap(acquire, func(r R) Effect[A] {
		return FoldCause(Interruptible(Suspend(func() Effect[A] { return use(r) })),
			func(c cause.Cause[error]) Effect[A] {
				return FoldCause(release(r, cause.FromCause[error, A](c)),
					func(rc cause.Cause[error]) Effect[A] { return FailCause[A](cause.Sequential(c, rc)) },
					func(struct{}) Effect[A] { return FailCause[A](c) },
				)
			},
			func(a A) Effect[A] {
				return As(release(r, cause.Done[error](a)), a)
			},
		)
	}))
}

// Yield gives the scheduler a chance to run other work.
func Yield() Effect[struct{}] {
	return Async(func(resume func(Effect[struct{}])) func() {
		resume(Unit())
		return nil
	})
}

// Never suspends forever. Only interruption ends it.
func Never[A any]() Effect[A] {
	return Async(func(func(Effect[A])) func() { return nil })
}

// Sleep suspends the fiber for d.
func Sleep(d time.Duration) Effect[struct{}] {
	return Async(func(resume func(Effect[struct{}])) func() {
		timer := time.AfterFunc(d, func() { resume(Unit()) })
		return func() { timer.Stop() }
	})
}
