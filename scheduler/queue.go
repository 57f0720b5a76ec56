package scheduler

import (
	"context"
	"sync"

	"github.com/on-the-ground/fiber_ive_go/model"
)

// lane is an unbounded FIFO drained by one worker goroutine. It never blocks
// the submitter, so a task may schedule work onto its own lane.
type lane struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	closed bool
}

func newLane(bufferSize int) *lane {
	return &lane{
		tasks: make([]func(), 0, bufferSize),
		wake:  make(chan struct{}, 1),
	}
}

func (l *lane) push(task func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosedScheduler
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

func (l *lane) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task, true
}

// close refuses further pushes and hands back the tasks already accepted.
func (l *lane) close() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	left := l.tasks
	l.tasks = nil
	return left
}

// run drains the lane until ctx ends. Tasks accepted before that still run.
func (l *lane) run(ctx context.Context) {
	for {
		if task, ok := l.pop(); ok {
			task()
			continue
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			for _, task := range l.close() {
				task()
			}
			return
		}
	}
}

// Queue runs tasks on a fixed set of worker goroutines, one per lane.
type Queue struct {
	lanes []*lane
}

var _ Scheduler = (*Queue)(nil)
var _ TryScheduler = (*Queue)(nil)

func (q *Queue) Schedule(owner model.Partitionable, task func()) {
	_ = q.TrySchedule(owner, task)
}

func (q *Queue) TrySchedule(owner model.Partitionable, task func()) error {
	return q.lanes[getIndexByHash(owner, len(q.lanes))].push(task)
}

// NewSingleQueue runs every task on one worker goroutine.
func NewSingleQueue(ctx context.Context, bufferSize int) *Queue {
	return newQueue(ctx, 1, bufferSize)
}

// NewPartitionedQueue spreads tasks over numWorkers goroutines by the hash of
// their partition key.
func NewPartitionedQueue(ctx context.Context, numWorkers, bufferSize int) *Queue {
	return newQueue(ctx, numWorkers, bufferSize)
}

func newQueue(ctx context.Context, numWorkers, bufferSize int) *Queue {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	lanes := make([]*lane, numWorkers)
	ready := sync.WaitGroup{}
	for i := range lanes {
		ready.Add(1)
		l := newLane(bufferSize)
		go func(l *lane) {
			ready.Done()
			l.run(ctx)
		}(l)
		lanes[i] = l
	}
	ready.Wait()
	return &Queue{lanes: lanes}
}
