package scheduler_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/fiber_ive_go/model"
	"github.com/on-the-ground/fiber_ive_go/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleQueue_RunsTasksInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		called []int
		wg     sync.WaitGroup
	)
	q := scheduler.NewSingleQueue(ctx, 10)
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		q.Schedule(model.PartitionKey("k"), func() {
			defer wg.Done()
			mu.Lock()
			called = append(called, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, called)
}

func TestSingleQueue_TaskMaySelfSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := scheduler.NewSingleQueue(ctx, 1)
	done := make(chan int, 1)
	var step func(n int)
	step = func(n int) {
		if n == 100 {
			done <- n
			return
		}
		q.Schedule(model.PartitionKey("self"), func() { step(n + 1) })
	}
	q.Schedule(model.PartitionKey("self"), func() { step(0) })

	select {
	case n := <-done:
		assert.Equal(t, 100, n)
	case <-time.After(time.Second):
		t.Fatal("self scheduling lane stalled")
	}
}

func TestPartitionedQueue_KeepsOrderPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		hits = map[string][]int{}
		wg   sync.WaitGroup
	)
	q := scheduler.NewPartitionedQueue(ctx, 4, 10)
	for _, key := range []string{"a", "b", "c"} {
		key := key
		for i := 0; i < 20; i++ {
			i := i
			wg.Add(1)
			q.Schedule(model.PartitionKey(key), func() {
				defer wg.Done()
				mu.Lock()
				hits[key] = append(hits[key], i)
				mu.Unlock()
			})
		}
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for key, got := range hits {
		assert.True(t, slices.IsSorted(got), "key %s out of order: %v", key, got)
		assert.Len(t, got, 20)
	}
}

func TestQueue_RefusesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := scheduler.NewSingleQueue(ctx, 1)
	cancel()

	require.Eventually(t, func() bool {
		return q.TrySchedule(model.PartitionKey("k"), func() {}) != nil
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, q.TrySchedule(model.PartitionKey("k"), func() {}), scheduler.ErrClosedScheduler)
}

func TestQueue_RunsAcceptedTasksAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := scheduler.NewSingleQueue(ctx, 1)

	block := make(chan struct{})
	ran := make(chan struct{})
	require.NoError(t, q.TrySchedule(model.PartitionKey("k"), func() { <-block }))
	require.NoError(t, q.TrySchedule(model.PartitionKey("k"), func() { close(ran) }))
	cancel()
	close(block)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("accepted task was discarded")
	}
}

func TestManual_DrainRunsNestedTasks(t *testing.T) {
	m := scheduler.NewManual()
	var order []string
	m.Schedule(model.PartitionKey("x"), func() {
		order = append(order, "first")
		m.Schedule(model.PartitionKey("x"), func() { order = append(order, "nested") })
	})
	m.Schedule(model.PartitionKey("y"), func() { order = append(order, "second") })

	assert.Equal(t, 2, m.Pending())
	assert.Equal(t, 3, m.Drain())
	assert.Equal(t, []string{"first", "second", "nested"}, order)
	assert.False(t, m.RunNext())
}

func TestNew_FollowsConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.IsType(t, &scheduler.Queue{}, scheduler.New(ctx, model.RuntimeConfig{NumWorkers: 3}))
	assert.Panics(t, func() {
		scheduler.New(ctx, model.RuntimeConfig{Scheduler: "bogus"})
	})
	assert.Panics(t, func() {
		scheduler.New(ctx, model.RuntimeConfig{Scheduler: "manual"})
	})
}

func TestFunc_Adapter(t *testing.T) {
	var got string
	var s scheduler.Scheduler = scheduler.Func(func(owner model.Partitionable, task func()) {
		got = owner.PartitionKey()
		task()
	})
	ran := false
	s.Schedule(model.PartitionKey("key"), func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, "key", got)
}
