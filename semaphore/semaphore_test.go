package semaphore_test

import (
	"context"
	"testing"
	"time"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/on-the-ground/fiber_ive_go/fiber"
	"github.com/on-the-ground/fiber_ive_go/scheduler"
	"github.com/on-the-ground/fiber_ive_go/semaphore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run[A any](t *testing.T, eff fiber.Effect[A]) A {
	t.Helper()
	m := scheduler.NewManual()
	rt := fiber.NewRuntime(fiber.WithScheduler(m))
	_, f, _ := fiber.RunSync(rt, eff)
	m.Drain()
	exit, ok := f.Poll()
	require.True(t, ok, "fiber did not settle")
	v, ok := exit.Value()
	require.True(t, ok, "want done, got %v", exit)
	return v
}

func TestSemaphore_InterruptedWaiterKeepsPermits(t *testing.T) {
	prog := fiber.FlatMap(semaphore.Make(1), func(s *semaphore.Semaphore) fiber.Effect[int64] {
		return fiber.FlatMap(fiber.Fork(s.Acquire(2)), func(f *fiber.Fiber[struct{}]) fiber.Effect[int64] {
			return fiber.FlatMap(fiber.ZipRight(fiber.Yield(), f.Interrupt()), func(exit cause.Exit[error, struct{}]) fiber.Effect[int64] {
				assert.True(t, exit.IsInterrupt())
				return s.Available()
			})
		})
	})
	assert.EqualValues(t, 1, run(t, prog))
}

func TestSemaphore_ReleaseWakesWaitersInOrder(t *testing.T) {
	var order []int
	record := func(n int) fiber.Effect[struct{}] {
		return fiber.Sync(func() struct{} { order = append(order, n); return struct{}{} })
	}

	prog := fiber.FlatMap(semaphore.Make(0), func(s *semaphore.Semaphore) fiber.Effect[int64] {
		first := fiber.ZipRight(s.Acquire(1), record(1))
		second := fiber.ZipRight(s.Acquire(1), record(2))
		return fiber.FlatMap(fiber.Fork(first), func(f1 *fiber.Fiber[struct{}]) fiber.Effect[int64] {
			return fiber.FlatMap(fiber.Fork(second), func(f2 *fiber.Fiber[struct{}]) fiber.Effect[int64] {
				return fiber.ZipRight(
					fiber.ZipRight(fiber.Yield(), s.Release(2)),
					fiber.ZipRight(f1.Join(), fiber.ZipRight(f2.Join(), s.Available())),
				)
			})
		})
	})

	assert.EqualValues(t, 0, run(t, prog))
	assert.Equal(t, []int{1, 2}, order)
}

func TestSemaphore_HeadOfLineBlocks(t *testing.T) {
	prog := fiber.FlatMap(semaphore.Make(1), func(s *semaphore.Semaphore) fiber.Effect[bool] {
		return fiber.FlatMap(fiber.Fork(s.Acquire(2)), func(*fiber.Fiber[struct{}]) fiber.Effect[bool] {
			return fiber.ZipRight(fiber.Yield(), s.TryAcquire(1))
		})
	})
	assert.False(t, run(t, prog), "a queued waiter takes priority")
}

func TestWithPermits_ReleasesOnFailure(t *testing.T) {
	prog := fiber.FlatMap(semaphore.Make(2), func(s *semaphore.Semaphore) fiber.Effect[int64] {
		inner := fiber.FlatMap(s.Available(), func(n int64) fiber.Effect[int] {
			assert.EqualValues(t, 0, n)
			return fiber.Fail[int](assert.AnError)
		})
		return fiber.ZipRight(fiber.Either(semaphore.WithPermits(s, 2, inner)), s.Available())
	})
	assert.EqualValues(t, 2, run(t, prog))
}

func TestWithPermits_InterruptAfterGrantReturnsPermits(t *testing.T) {
	prog := fiber.FlatMap(semaphore.Make(0), func(s *semaphore.Semaphore) fiber.Effect[int64] {
		return fiber.FlatMap(fiber.Fork(semaphore.WithPermits(s, 1, fiber.Unit())), func(f *fiber.Fiber[struct{}]) fiber.Effect[int64] {
			grantThenInterrupt := fiber.ZipRight(fiber.Yield(), fiber.ZipRight(s.Release(1), f.Interrupt()))
			return fiber.FlatMap(grantThenInterrupt, func(exit cause.Exit[error, struct{}]) fiber.Effect[int64] {
				assert.True(t, exit.IsInterrupt())
				return s.Available()
			})
		})
	})
	assert.EqualValues(t, 1, run(t, prog))
}

func TestWithPermits_NoLeakUnderConcurrentInterrupts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rt := fiber.NewRuntime(fiber.WithScheduler(scheduler.NewPartitionedQueue(ctx, 4, 8)))

	for round := 0; round < 50; round++ {
		prog := fiber.FlatMap(semaphore.Make(0), func(s *semaphore.Semaphore) fiber.Effect[int64] {
			forks := fiber.ForEach([]int{1, 2, 3}, func(int) fiber.Effect[*fiber.Fiber[struct{}]] {
				return fiber.Fork(semaphore.WithPermits(s, 1, fiber.Yield()))
			})
			return fiber.FlatMap(forks, func(fs []*fiber.Fiber[struct{}]) fiber.Effect[int64] {
				interruptAll := fiber.ForEach(fs, func(f *fiber.Fiber[struct{}]) fiber.Effect[cause.Exit[error, struct{}]] {
					return f.Interrupt()
				})
				return fiber.ZipRight(fiber.ZipRight(s.Release(3), interruptAll), s.Available())
			})
		})

		exit := fiber.RunWith(ctx, rt, prog)
		v, ok := exit.Value()
		require.True(t, ok, "round %d: %v", round, exit)
		require.EqualValues(t, 3, v, "round %d", round)
	}
}

func TestSemaphore_InvalidPermits(t *testing.T) {
	_, err := semaphore.New(-1)
	assert.ErrorIs(t, err, semaphore.ErrInvalidPermits)

	s, err := semaphore.New(1)
	require.NoError(t, err)
	m := scheduler.NewManual()
	rt := fiber.NewRuntime(fiber.WithScheduler(m))
	exit, _, ok := fiber.RunSync(rt, s.Acquire(-1))
	require.True(t, ok)
	assert.True(t, exit.IsAbort())
}
