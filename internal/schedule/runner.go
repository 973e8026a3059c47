package schedule

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Runner executes a task on a fixed period with at most one run in flight.
// A trigger that fires while the previous run is still going is dropped,
// not queued.
type Runner struct {
	task     Task
	interval time.Duration
	running  atomic.Bool
}

func NewRunner(task Task, interval time.Duration) *Runner {
	return &Runner{
		task:     task,
		interval: interval,
	}
}

// Start runs the task immediately, then on every tick, until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	r.Trigger(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Trigger(ctx)
		}
	}
}

// Trigger starts one run unless the previous one is still in flight, in
// which case it reports false and does nothing.
func (r *Runner) Trigger(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		slog.Warn("previous run still in flight, dropping trigger", "task", r.task.Name())
		return false
	}
	go func() {
		defer r.running.Store(false)
		if err := r.task.Run(ctx); err != nil {
			slog.Error("task run failed", "task", r.task.Name(), "error", err)
		}
	}()
	return true
}
