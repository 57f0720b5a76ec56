package ref

import (
	"sync"

	"github.com/on-the-ground/fiber_ive_go/fiber"
)

// Ref is a mutable cell shared between fibers. Every operation is atomic.
type Ref[A any] struct {
	mu    sync.Mutex
	value A
}

func New[A any](a A) *Ref[A] {
	return &Ref[A]{value: a}
}

// Make allocates a Ref when the effect runs, so each run gets a fresh cell.
func Make[A any](a A) fiber.Effect[*Ref[A]] {
	return fiber.Sync(func() *Ref[A] { return New(a) })
}

func (r *Ref[A]) Get() fiber.Effect[A] {
	return Modify(r, func(a A) (A, A) { return a, a })
}

func (r *Ref[A]) Set(a A) fiber.Effect[struct{}] {
	return Modify(r, func(A) (struct{}, A) { return struct{}{}, a })
}

func (r *Ref[A]) GetAndSet(a A) fiber.Effect[A] {
	return Modify(r, func(old A) (A, A) { return old, a })
}

func (r *Ref[A]) Update(f func(A) A) fiber.Effect[struct{}] {
	return Modify(r, func(a A) (struct{}, A) { return struct{}{}, f(a) })
}

func (r *Ref[A]) UpdateAndGet(f func(A) A) fiber.Effect[A] {
	return Modify(r, func(a A) (A, A) {
		next := f(a)
		return next, next
	})
}

// Modify replaces the value with the second result of f and returns the
// first.
func Modify[A, B any](r *Ref[A], f func(A) (B, A)) fiber.Effect[B] {
	return fiber.Sync(func() B {
		r.mu.Lock()
		defer r.mu.Unlock()
		b, next := f(r.value)
		r.value = next
		return b
	})
}

// CompareAndSwap sets the value to next only if it currently equals old.
func CompareAndSwap[A comparable](r *Ref[A], old, next A) fiber.Effect[bool] {
	return Modify(r, func(a A) (bool, A) {
		if a != old {
			return false, a
		}
		return true, next
	})
}
