package semaphore

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"github.com/on-the-ground/fiber_ive_go/fiber"
)

var ErrInvalidPermits = errors.New("invalid permit count")

// Semaphore is a counting semaphore for fibers. Waiters are served in
// arrival order, and a waiter that is interrupted gives up its place without
// taking any permits.
type Semaphore struct {
	mu      sync.Mutex
	permits int64
	waiters *list.List // of *waiter
}

type waiter struct {
	n       int64
	resume  func(fiber.Effect[struct{}])
	granted bool
}

// New creates a semaphore holding permits.
func New(permits int64) (*Semaphore, error) {
	if permits < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPermits, permits)
	}
	return &Semaphore{permits: permits, waiters: list.New()}, nil
}

// Make creates a semaphore when the effect runs.
func Make(permits int64) fiber.Effect[*Semaphore] {
	return fiber.Try(func() (*Semaphore, error) { return New(permits) })
}

// Available reads the number of free permits.
func (s *Semaphore) Available() fiber.Effect[int64] {
	return fiber.Sync(func() int64 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.permits
	})
}

// Acquire takes n permits, suspending until they are available.
func (s *Semaphore) Acquire(n int64) fiber.Effect[struct{}] {
	if n < 0 {
		return fiber.Die[struct{}](fmt.Errorf("%w: %d", ErrInvalidPermits, n))
	}
	return fiber.Suspend(func() fiber.Effect[struct{}] {
		return s.acquire(&waiter{n: n})
	})
}

// acquire suspends until w is granted. w.granted is set under mu at the
// moment the permits leave the pool.
func (s *Semaphore) acquire(w *waiter) fiber.Effect[struct{}] {
	return fiber.Async(func(resume func(fiber.Effect[struct{}])) func() {
		s.mu.Lock()
		if s.waiters.Len() == 0 && s.permits >= w.n {
			s.permits -= w.n
			w.granted = true
			s.mu.Unlock()
			resume(fiber.Unit())
			return nil
		}
		w.resume = resume
		elem := s.waiters.PushBack(w)
		s.mu.Unlock()

		return func() { s.cancel(elem, w) }
	})
}

// TryAcquire takes n permits only if that does not require waiting.
func (s *Semaphore) TryAcquire(n int64) fiber.Effect[bool] {
	return fiber.Sync(func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if n < 0 || s.waiters.Len() > 0 || s.permits < n {
			return false
		}
		s.permits -= n
		return true
	})
}

// Release returns n permits and wakes the waiters they satisfy, in order.
func (s *Semaphore) Release(n int64) fiber.Effect[struct{}] {
	if n < 0 {
		return fiber.Die[struct{}](fmt.Errorf("%w: %d", ErrInvalidPermits, n))
	}
	return fiber.Sync(func() struct{} {
		s.mu.Lock()
		s.permits += n
		woken := s.grant()
		s.mu.Unlock()

		s.wake(woken)
		return struct{}{}
	})
}

// grant hands permits to waiters at the head of the queue. Callers hold mu.
func (s *Semaphore) grant() []*waiter {
	var woken []*waiter
	for front := s.waiters.Front(); front != nil; front = s.waiters.Front() {
		w := front.Value.(*waiter)
		if w.n > s.permits {
			break
		}
		s.permits -= w.n
		w.granted = true
		s.waiters.Remove(front)
		woken = append(woken, w)
	}
	return woken
}

// cancel runs when a waiting fiber is interrupted. Permits granted to it
// after the interruption won are put back.
func (s *Semaphore) cancel(elem *list.Element, w *waiter) {
	s.mu.Lock()
	if w.granted {
		s.permits += w.n
		w.granted = false
	} else {
		s.waiters.Remove(elem)
	}
	woken := s.grant()
	s.mu.Unlock()

	s.wake(woken)
}

// giveBack returns w's permits if it still holds them.
func (s *Semaphore) giveBack(w *waiter) fiber.Effect[struct{}] {
	return fiber.Sync(func() struct{} {
		s.mu.Lock()
		if !w.granted {
			s.mu.Unlock()
			return struct{}{}
		}
		w.granted = false
		s.permits += w.n
		woken := s.grant()
		s.mu.Unlock()

		s.wake(woken)
		return struct{}{}
	})
}

func (s *Semaphore) wake(woken []*waiter) {
	for _, w := range woken {
		w.resume(fiber.Unit())
	}
}

// WithPermits runs eff holding n permits. Waiting for the permits can be
// interrupted. Permits are owned from the moment they are granted, so they
// are given back even when the interruption lands between the grant and the
// waiter resuming.
func WithPermits[A any](s *Semaphore, n int64, eff fiber.Effect[A]) fiber.Effect[A] {
	if n < 0 {
		return fiber.Die[A](fmt.Errorf("%w: %d", ErrInvalidPermits, n))
	}
	return fiber.Suspend(func() fiber.Effect[A] {
		w := &waiter{n: n}
		release := s.giveBack(w)
		acquire := fiber.FoldCause(fiber.Interruptible(s.acquire(w)),
			func(c cause.Cause[error]) fiber.Effect[struct{}] {
				return fiber.ZipRight(release, fiber.FailCause[struct{}](c))
			},
			func(struct{}) fiber.Effect[struct{}] { return fiber.Unit() },
		)
		return fiber.Uninterruptible(fiber.FlatMap(acquire, func(struct{}) fiber.Effect[A] {
			return fiber.FoldCause(fiber.Interruptible(eff),
				func(c cause.Cause[error]) fiber.Effect[A] {
					return fiber.ZipRight(release, fiber.FailCause[A](c))
				},
				func(a A) fiber.Effect[A] {
					return fiber.As(release, a)
				},
			)
		}))
	})
}
