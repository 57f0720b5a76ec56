package scheduler

import (
	"sync"

	"github.com/on-the-ground/fiber_ive_go/model"
)

// Manual queues tasks until the caller runs them. It makes interleavings
// deterministic in tests.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

var _ Scheduler = (*Manual)(nil)

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(_ model.Partitionable, task func()) {
	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()
}

func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunNext runs the oldest queued task and reports whether there was one.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.tasks[0]
	m.tasks[0] = nil
	m.tasks = m.tasks[1:]
	m.mu.Unlock()

	task()
	return true
}

// Drain runs tasks, including ones scheduled while draining, until none are
// left. It returns how many ran.
func (m *Manual) Drain() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}
