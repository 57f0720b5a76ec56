package fiber

import (
	"sync"

	"github.com/on-the-ground/fiber_ive_go/cause"
)

type frameKind uint8

const (
	chainFrame frameKind = iota
	mapFrame
	foldFrame
	regionFrame
	envFrame
)

// frame is one pending continuation. Frames form a singly linked stack owned
// by a single driver, so evaluation depth never grows the goroutine stack.
type frame struct {
	kind      frameKind
	next      *frame
	k         func(any) instr
	f         func(any) any
	onFailure func(cause.Cause[error]) instr
}

var framePool = sync.Pool{
	New: func() any { return new(frame) },
}

func acquireFrame(kind frameKind) *frame {
	f := framePool.Get().(*frame)
	f.kind = kind
	return f
}

func releaseFrame(f *frame) {
	*f = frame{}
	framePool.Put(f)
}

type stack struct {
	top   *frame
	depth int
}

func (s *stack) push(f *frame) {
	f.next = s.top
	s.top = f
	s.depth++
}

func (s *stack) pop() *frame {
	f := s.top
	if f == nil {
		return nil
	}
	s.top = f.next
	f.next = nil
	s.depth--
	return f
}

func (s *stack) empty() bool {
	return s.top == nil
}
