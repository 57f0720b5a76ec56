package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/fiber_ive_go/model"
)

// Scheduler runs tasks submitted by fibers. Tasks submitted with the same
// partition key run one at a time, in submission order.
type Scheduler interface {
	Schedule(owner model.Partitionable, task func())
}

// TryScheduler is implemented by schedulers that can refuse work.
type TryScheduler interface {
	TrySchedule(owner model.Partitionable, task func()) error
}

var ErrClosedScheduler = errors.New("scheduler is closed")

// Func adapts a plain function to Scheduler.
type Func func(owner model.Partitionable, task func())

func (f Func) Schedule(owner model.Partitionable, task func()) {
	f(owner, task)
}

// New builds the scheduler described by cfg. Worker goroutines stop when ctx
// is done. Manual is not configurable: nothing would drain it.
func New(ctx context.Context, cfg model.RuntimeConfig) Scheduler {
	cfg = model.NewRuntimeConfig(cfg.BufferSize, cfg.NumWorkers, cfg.Scheduler)
	switch cfg.Scheduler {
	case model.SchedulerSingle:
		return NewSingleQueue(ctx, cfg.BufferSize)
	case model.SchedulerPartitioned:
		return NewPartitionedQueue(ctx, cfg.NumWorkers, cfg.BufferSize)
	default:
		panic(fmt.Sprintf("exhaustive match fallback, scheduler kind: %s", cfg.Scheduler))
	}
}
