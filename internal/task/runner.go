// Package task runs persistence work detached from the event path. Event
// handlers must return immediately, so every repository call is submitted
// here and executed by a small worker pool. A task gets exactly one
// attempt; failures are logged and dropped, never retried or propagated.
package task

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

type job struct {
	name string
	fn   func(context.Context) error
}

type Runner struct {
	queue chan job
	wg    sync.WaitGroup

	workers int

	startOnce sync.Once
	stopOnce  sync.Once

	submitted atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

func NewRunner(queueSize, workers int) *Runner {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		queue:   make(chan job, queueSize),
		workers: workers,
	}
}

func (r *Runner) Start() {
	r.startOnce.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go r.work()
		}
	})
}

// Stop closes the queue and waits for queued tasks to finish. In-flight
// writes run to completion; room teardown never aborts them.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

// Submit enqueues a task without blocking. When the queue is full the task
// is dropped and logged; callers on the event path must never stall.
func (r *Runner) Submit(name string, fn func(context.Context) error) bool {
	select {
	case r.queue <- job{name: name, fn: fn}:
		r.submitted.Add(1)
		return true
	default:
		r.dropped.Add(1)
		slog.Warn("task queue full, dropping task", "task", name)
		return false
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for j := range r.queue {
		if err := j.fn(context.Background()); err != nil {
			r.failed.Add(1)
			slog.Error("background task failed", "task", j.name, "error", err)
		}
	}
}

type Counters struct {
	Submitted int64
	Dropped   int64
	Failed    int64
}

func (r *Runner) Stats() Counters {
	return Counters{
		Submitted: r.submitted.Load(),
		Dropped:   r.dropped.Load(),
		Failed:    r.failed.Load(),
	}
}
