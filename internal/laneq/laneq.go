// Package laneq implements process-wide concurrency shaping: named lanes,
// each with its own FIFO and bounded concurrency, so that a burst of work
// on one lane never steals capacity from another.
package laneq

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/logging"
)

// Task is the unit of work a lane executes. ctx carries the caller's
// cancellation and is the same context passed to Enqueue.
type Task func(ctx context.Context) (interface{}, error)

// OnWait is invoked once an entry has waited at least its warn threshold,
// immediately before it starts executing.
type OnWait func(waitedMs int64, queueAhead int)

// EnqueueOptions configures one Enqueue call.
type EnqueueOptions struct {
	// WarnAfterMs overrides the queue-wide default for this entry.
	WarnAfterMs int64
	OnWait      OnWait
}

// LaneStatus is a snapshot of one lane's queue state.
type LaneStatus struct {
	QueueDepth    int
	ActiveCount   int64
	MaxConcurrent int64
	AvgWaitMs     float64
	IsDraining    bool
}

type entry struct {
	id          string
	ctx         context.Context
	task        Task
	enqueuedAt  time.Time
	warnAfterMs int64
	onWait      OnWait
	future      *Future
}

// Future completes with a task's result or fault.
type Future struct {
	done   chan struct{}
	mu     sync.Mutex
	result interface{}
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(result interface{}, err error) {
	f.mu.Lock()
	f.result, f.err = result, err
	f.mu.Unlock()
	close(f.done)
}

// Wait blocks until the task completes or ctx is canceled.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type lane struct {
	name string

	mu             sync.Mutex
	cond           *sync.Cond
	sem            *semaphore.Weighted
	maxConcurrency int64
	pending        []*entry
	active         int64
	draining       bool
	sumWaitMs      int64
	waitSamples    int64
}

func newLane(name string, maxConcurrency int64) *lane {
	l := &lane{name: name, maxConcurrency: maxConcurrency, sem: semaphore.NewWeighted(maxConcurrency)}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Queue is the process-wide lane registry.
type Queue struct {
	mu           sync.Mutex
	lanes        map[string]*lane
	laneDefaults map[string]int
	warnAfterMs  int64
	logger       *logging.EnhancedLogger
}

// NewQueue builds a Queue from the prefix-keyed lane-default table and the
// default warn threshold; both come from config.QueueConfig.
func NewQueue(laneDefaults map[string]int, warnAfterMs int64) *Queue {
	defaults := make(map[string]int, len(laneDefaults))
	for k, v := range laneDefaults {
		defaults[k] = v
	}
	return &Queue{
		lanes:        make(map[string]*lane),
		laneDefaults: defaults,
		warnAfterMs:  warnAfterMs,
		logger:       logging.LaneQLogger,
	}
}

// defaultConcurrencyFor resolves a lane's starting concurrency using the
// longest matching prefix in the lane-default table; unknown lanes default
// to 1 (serial).
func (q *Queue) defaultConcurrencyFor(name string) int64 {
	best := ""
	for prefix := range q.laneDefaults {
		if strings.HasPrefix(name, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return 1
	}
	return int64(q.laneDefaults[best])
}

func (q *Queue) getOrCreateLane(name string) *lane {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[name]; ok {
		return l
	}
	l := newLane(name, q.defaultConcurrencyFor(name))
	q.lanes[name] = l
	return l
}

// Enqueue appends task to lane's FIFO and triggers a drain, returning a
// Future that completes with the task's result or fault.
func (q *Queue) Enqueue(ctx context.Context, laneName string, task Task, opts EnqueueOptions) *Future {
	l := q.getOrCreateLane(laneName)

	warnAfterMs := opts.WarnAfterMs
	if warnAfterMs == 0 {
		warnAfterMs = q.warnAfterMs
	}

	e := &entry{
		id: laneName + "-" + time.Now().UTC().Format("20060102150405.000000000"),
		ctx: ctx, task: task, enqueuedAt: time.Now(),
		warnAfterMs: warnAfterMs, onWait: opts.OnWait, future: newFuture(),
	}

	l.mu.Lock()
	l.pending = append(l.pending, e)
	l.mu.Unlock()

	go l.drain(q.logger)
	return e.future
}

// SetLaneConcurrency sets lane's maximum concurrent tasks (minimum 1) and
// triggers a drain. The semaphore is swapped under the lane's mutex: tasks
// already holding a permit on the old semaphore are unaffected, so a
// concurrency decrease takes full effect only once they complete.
func (q *Queue) SetLaneConcurrency(laneName string, n int) {
	if n < 1 {
		n = 1
	}
	l := q.getOrCreateLane(laneName)

	l.mu.Lock()
	l.maxConcurrency = int64(n)
	l.sem = semaphore.NewWeighted(int64(n))
	l.mu.Unlock()

	go l.drain(q.logger)
}

// Status snapshots lane's current queue state.
func (q *Queue) Status(laneName string) LaneStatus {
	l := q.getOrCreateLane(laneName)
	l.mu.Lock()
	defer l.mu.Unlock()

	avg := 0.0
	if l.waitSamples > 0 {
		avg = float64(l.sumWaitMs) / float64(l.waitSamples)
	}
	return LaneStatus{
		QueueDepth: len(l.pending), ActiveCount: l.active,
		MaxConcurrent: l.maxConcurrency, AvgWaitMs: avg, IsDraining: l.draining,
	}
}

// DrainCompletely blocks until lane's queue is empty and no task is active.
func (q *Queue) DrainCompletely(ctx context.Context, laneName string) error {
	l := q.getOrCreateLane(laneName)
	done := make(chan struct{})

	go func() {
		l.mu.Lock()
		for len(l.pending) != 0 || l.active != 0 {
			l.cond.Wait()
		}
		l.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClearAllLanes is a test utility: it rejects every pending entry in every
// lane with an errs.CodeUserAbort fault whose message is "lane cleared" (errs
// has no separate lane-cleared code) and empties their queues. Active tasks
// are left to finish; they are not canceled.
func (q *Queue) ClearAllLanes() {
	q.mu.Lock()
	lanes := make([]*lane, 0, len(q.lanes))
	for _, l := range q.lanes {
		lanes = append(lanes, l)
	}
	q.mu.Unlock()

	laneCleared := errs.New(errs.CodeUserAbort, "lane cleared")
	for _, l := range lanes {
		l.mu.Lock()
		pending := l.pending
		l.pending = nil
		l.cond.Broadcast()
		l.mu.Unlock()

		for _, e := range pending {
			e.future.complete(nil, laneCleared)
		}
	}
}

// drain is the pump: while active < max_concurrent and the queue is
// non-empty, pop the front entry, warn if it has waited past its
// threshold, acquire a concurrency permit, and spawn the task. The
// draining guard prevents two goroutines from running this loop at once on
// the same lane; a task's completion callback calls drain again so the
// reentrant guard never blocks forward progress.
func (l *lane) drain(logger *logging.EnhancedLogger) {
	l.mu.Lock()
	if l.draining {
		l.mu.Unlock()
		return
	}
	l.draining = true
	l.mu.Unlock()

	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.draining = false
			l.mu.Unlock()
			return
		}
		sem := l.sem
		l.mu.Unlock()

		if !sem.TryAcquire(1) {
			l.mu.Lock()
			l.draining = false
			l.mu.Unlock()
			// A task may have released its permit after the failed TryAcquire
			// and returned from drain because draining was still set; pump
			// again if a permit is free now so that release is not lost.
			if sem.TryAcquire(1) {
				sem.Release(1)
				go l.drain(logger)
			}
			return
		}

		l.mu.Lock()
		if len(l.pending) == 0 {
			l.draining = false
			l.mu.Unlock()
			sem.Release(1)
			return
		}
		e := l.pending[0]
		l.pending = l.pending[1:]
		waited := time.Since(e.enqueuedAt)
		queueAhead := len(l.pending)
		l.active++
		l.sumWaitMs += waited.Milliseconds()
		l.waitSamples++
		l.mu.Unlock()

		if waited.Milliseconds() >= e.warnAfterMs {
			onWait := e.onWait
			if onWait == nil {
				onWait = l.defaultOnWait(logger)
			}
			onWait(waited.Milliseconds(), queueAhead)
		}

		go l.runEntry(e, sem, logger)
	}
}

func (l *lane) defaultOnWait(logger *logging.EnhancedLogger) OnWait {
	return func(waitedMs int64, queueAhead int) {
		logger.Warn("task waited past threshold", "lane", l.name, "waited_ms", waitedMs, "queue_ahead", queueAhead)
	}
}

func (l *lane) runEntry(e *entry, sem *semaphore.Weighted, logger *logging.EnhancedLogger) {
	result, err := e.task(e.ctx)
	e.future.complete(result, err)
	sem.Release(1)

	l.mu.Lock()
	l.active--
	l.cond.Broadcast()
	l.mu.Unlock()

	l.drain(logger)
}

// Snapshot reports every known lane's current depth and average wait time,
// in the shape internal/logging's OpenTelemetry gauge callback expects.
func (q *Queue) Snapshot() []logging.LaneSnapshot {
	q.mu.Lock()
	lanes := make([]*lane, 0, len(q.lanes))
	for _, l := range q.lanes {
		lanes = append(lanes, l)
	}
	q.mu.Unlock()

	out := make([]logging.LaneSnapshot, 0, len(lanes))
	for _, l := range lanes {
		status := q.Status(l.name)
		out = append(out, logging.LaneSnapshot{Name: l.name, QueueDepth: status.QueueDepth, AvgWaitMs: status.AvgWaitMs})
	}
	return out
}

// laneNames returns all lane names currently known to q, sorted, purely for
// diagnostics and tests.
func (q *Queue) laneNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, 0, len(q.lanes))
	for name := range q.lanes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
