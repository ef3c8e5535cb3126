package laneq

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patheras/prometheus-core/internal/errs"
)

func sleepTask(d time.Duration, result interface{}) Task {
	return func(ctx context.Context) (interface{}, error) {
		time.Sleep(d)
		return result, nil
	}
}

// TestLaneSerializationEnforcesOneAtATime checks that a lane with
// max_concurrency=1 runs three 100ms tasks back to back: the third future
// resolves no earlier than t=300ms, and active_count never exceeds 1.
func TestLaneSerializationEnforcesOneAtATime(t *testing.T) {
	q := NewQueue(map[string]int{"x": 1}, 10_000)
	ctx := context.Background()

	var maxActive int64
	var active int64
	track := func(d time.Duration) Task {
		return func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt64(&active, 1)
			for {
				cur := atomic.LoadInt64(&maxActive)
				if n <= cur || atomic.CompareAndSwapInt64(&maxActive, cur, n) {
					break
				}
			}
			time.Sleep(d)
			atomic.AddInt64(&active, -1)
			return nil, nil
		}
	}

	start := time.Now()
	f1 := q.Enqueue(ctx, "x", track(100*time.Millisecond), EnqueueOptions{})
	f2 := q.Enqueue(ctx, "x", track(100*time.Millisecond), EnqueueOptions{})
	f3 := q.Enqueue(ctx, "x", track(100*time.Millisecond), EnqueueOptions{})

	_, err := f3.Wait(ctx)
	require.NoError(t, err)
	elapsed := time.Since(start)

	_, _ = f1.Wait(ctx)
	_, _ = f2.Wait(ctx)

	assert.GreaterOrEqual(t, elapsed.Milliseconds(), int64(290))
	assert.LessOrEqual(t, atomic.LoadInt64(&maxActive), int64(1))
}

// TestLaneConcurrencyCapNeverExceedsMax checks a burst of tasks against a
// lane with max_concurrency=3.
func TestLaneConcurrencyCapNeverExceedsMax(t *testing.T) {
	q := NewQueue(map[string]int{"y": 3}, 10_000)
	ctx := context.Background()

	var active int64
	var maxActive int64
	var mu sync.Mutex
	track := func() Task {
		return func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt64(&active, 1)
			mu.Lock()
			if n > maxActive {
				maxActive = n
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&active, -1)
			return nil, nil
		}
	}

	var futures []*Future
	for i := 0; i < 10; i++ {
		futures = append(futures, q.Enqueue(ctx, "y", track(), EnqueueOptions{}))
	}
	for _, f := range futures {
		_, err := f.Wait(ctx)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxActive, int64(3))
}

// TestTaskCompletionObservableThroughFuture checks that a completed task's
// result and the lane's resulting idle status are both observable.
func TestTaskCompletionObservableThroughFuture(t *testing.T) {
	q := NewQueue(map[string]int{"z": 2}, 10_000)
	ctx := context.Background()

	f := q.Enqueue(ctx, "z", func(ctx context.Context) (interface{}, error) {
		return "done", nil
	}, EnqueueOptions{})

	result, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", result)

	status := q.Status("z")
	assert.Equal(t, int64(0), status.ActiveCount)
	assert.Equal(t, 0, status.QueueDepth)
}

func TestFailingTaskDoesNotBlockLane(t *testing.T) {
	q := NewQueue(map[string]int{"x": 1}, 10_000)
	ctx := context.Background()

	failing := q.Enqueue(ctx, "x", func(ctx context.Context) (interface{}, error) {
		return nil, errs.New(errs.CodeFatal, "boom")
	}, EnqueueOptions{})
	next := q.Enqueue(ctx, "x", func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	}, EnqueueOptions{})

	_, err := failing.Wait(ctx)
	assert.Error(t, err)

	result, err := next.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestDefaultConcurrencyFallsBackToSerialForUnknownLane(t *testing.T) {
	q := NewQueue(map[string]int{"main": 1, "index": 2}, 10_000)
	assert.Equal(t, int64(1), q.defaultConcurrencyFor("unknown-lane"))
	assert.Equal(t, int64(2), q.defaultConcurrencyFor("index-codebase"))
}

func TestSetLaneConcurrencyEnforcesMinimumOfOne(t *testing.T) {
	q := NewQueue(nil, 10_000)
	q.SetLaneConcurrency("x", 0)
	assert.Equal(t, int64(1), q.Status("x").MaxConcurrent)

	q.SetLaneConcurrency("x", 5)
	assert.Equal(t, int64(5), q.Status("x").MaxConcurrent)
}

func TestOnWaitFiresWhenThresholdExceeded(t *testing.T) {
	q := NewQueue(map[string]int{"x": 1}, 10_000)
	ctx := context.Background()

	blocker := q.Enqueue(ctx, "x", sleepTask(50*time.Millisecond, nil), EnqueueOptions{})

	var fired int32
	warned := q.Enqueue(ctx, "x", func(ctx context.Context) (interface{}, error) { return nil, nil },
		EnqueueOptions{WarnAfterMs: 1, OnWait: func(waitedMs int64, queueAhead int) {
			atomic.StoreInt32(&fired, 1)
		}})

	_, _ = blocker.Wait(ctx)
	_, _ = warned.Wait(ctx)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

// TestDrainCompletelyWaitsForQueueAndActiveToEmpty exercises drain_completely.
func TestDrainCompletelyWaitsForQueueAndActiveToEmpty(t *testing.T) {
	q := NewQueue(map[string]int{"x": 2}, 10_000)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		q.Enqueue(ctx, "x", sleepTask(30*time.Millisecond, nil), EnqueueOptions{})
	}

	require.NoError(t, q.DrainCompletely(ctx, "x"))
	status := q.Status("x")
	assert.Equal(t, 0, status.QueueDepth)
	assert.Equal(t, int64(0), status.ActiveCount)
}

func TestDrainCompletelyRespectsContextCancellation(t *testing.T) {
	q := NewQueue(map[string]int{"x": 1}, 10_000)
	ctx := context.Background()
	q.Enqueue(ctx, "x", sleepTask(200*time.Millisecond, nil), EnqueueOptions{})

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := q.DrainCompletely(shortCtx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestClearAllLanesRejectsPendingEntries exercises clear_all_lanes's
// LaneCleared rejection of still-queued work.
func TestClearAllLanesRejectsPendingEntries(t *testing.T) {
	q := NewQueue(map[string]int{"x": 1}, 10_000)
	ctx := context.Background()

	blocker := q.Enqueue(ctx, "x", sleepTask(100*time.Millisecond, nil), EnqueueOptions{})
	queued := q.Enqueue(ctx, "x", func(ctx context.Context) (interface{}, error) { return "never", nil }, EnqueueOptions{})

	time.Sleep(20 * time.Millisecond) // let blocker claim the lane's single slot
	q.ClearAllLanes()

	_, err := queued.Wait(ctx)
	assert.True(t, errs.Is(err, errs.CodeUserAbort))

	_, err = blocker.Wait(ctx)
	assert.NoError(t, err, "already-active tasks are not canceled by ClearAllLanes")
}

func TestSnapshotReflectsLaneState(t *testing.T) {
	q := NewQueue(map[string]int{"x": 1}, 10_000)
	ctx := context.Background()
	q.Enqueue(ctx, "x", sleepTask(30*time.Millisecond, nil), EnqueueOptions{})

	assert.Eventually(t, func() bool {
		for _, s := range q.Snapshot() {
			if s.Name == "x" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLaneNamesSortedAndPopulatedOnUse(t *testing.T) {
	q := NewQueue(nil, 10_000)
	ctx := context.Background()
	q.Enqueue(ctx, "b-lane", func(ctx context.Context) (interface{}, error) { return nil, nil }, EnqueueOptions{})
	q.Enqueue(ctx, "a-lane", func(ctx context.Context) (interface{}, error) { return nil, nil }, EnqueueOptions{})

	assert.Eventually(t, func() bool {
		names := q.laneNames()
		return len(names) == 2 && names[0] == "a-lane" && names[1] == "b-lane"
	}, time.Second, 5*time.Millisecond)
}
