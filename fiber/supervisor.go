package fiber

import (
	"slices"
	"sync"

	"github.com/on-the-ground/fiber_ive_go/cause"
	"go.uber.org/zap"
)

// supervisor tracks the children a fiber forked with supervision.
//
// When the parent's own evaluation settles, the supervisor:
//   - interrupts every child still running, in fork order,
//   - waits for each to terminate before moving to the next,
//   - folds unobserved child failures into the parent's exit.
//
// Children that finish successfully are forgotten as soon as they finish.
type supervisor struct {
	mu       sync.Mutex
	children []*driver
}

func (s *supervisor) add(child *driver) {
	s.mu.Lock()
	s.children = append(s.children, child)
	s.mu.Unlock()

	child.onDone(func(exit cause.Exit[error, any]) {
		if exit.IsDone() {
			s.remove(child)
		}
	})
}

func (s *supervisor) remove(child *driver) {
	s.mu.Lock()
	s.children = slices.DeleteFunc(s.children, func(c *driver) bool { return c == child })
	s.mu.Unlock()
}

func (s *supervisor) next() *driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.children) == 0 {
		return nil
	}
	child := s.children[0]
	s.children[0] = nil
	s.children = s.children[1:]
	return child
}

// drain settles parent once every child has terminated. Children already
// done are folded in a loop; the first live one is interrupted and drain
// resumes from its completion listener.
func (s *supervisor) drain(parent *driver, exit cause.Exit[error, any]) {
	for {
		child := s.next()
		if child == nil {
			parent.complete(exit)
			return
		}
		if childExit, ok := child.poll(); ok {
			exit = parent.absorb(child, exit, childExit)
			continue
		}

		child.interrupt(parent.id)
		pending := exit
		child.onDone(func(childExit cause.Exit[error, any]) {
			s.drain(parent, parent.absorb(child, pending, childExit))
		})
		return
	}
}

// absorb folds an unobserved child failure into the parent's exit. The
// interruption the parent itself issued is not a failure.
func (d *driver) absorb(child *driver, exit, childExit cause.Exit[error, any]) cause.Exit[error, any] {
	if child.observed.Load() {
		return exit
	}
	c, failed := childExit.Cause()
	if !failed {
		return exit
	}
	c = cause.StripInterruptsBy(c, d.id)
	if cause.IsEmpty(c) {
		return exit
	}

	d.rt.logger.Warn("supervised fiber failed",
		append(d.fields(), zap.Stringer("child_id", child.id), zap.Stringer("cause", c))...)

	return cause.FoldExit(exit,
		func(parentCause cause.Cause[error]) cause.Exit[error, any] {
			return cause.FromCause[error, any](cause.Parallel(parentCause, c))
		},
		func(any) cause.Exit[error, any] {
			return cause.FromCause[error, any](c)
		},
	)
}
