// Package scheduler provides the single-goroutine event loop that owns all
// console state, plus cancellable timers and refresh coalescing on top of it.
package scheduler

import (
	"sync/atomic"
	"time"
)

// Scheduler runs closures on the owning goroutine.
type Scheduler interface {
	// Now returns the scheduler's clock.
	Now() time.Time
	// AfterFunc runs fn on the owning goroutine once d has elapsed, unless
	// the returned task is cancelled first.
	AfterFunc(d time.Duration, fn func()) *Task
	// Post queues fn to run on the owning goroutine. Safe from any goroutine.
	Post(fn func())
}

// Task is a scheduled continuation.
type Task struct {
	canceled atomic.Bool
	fired    atomic.Bool
	stop     func() bool
}

// Cancel prevents the task from running. Cancelling a fired or nil task is a no-op.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.canceled.Store(true)
	if t.stop != nil {
		t.stop()
	}
}

// Canceled reports whether Cancel was called.
func (t *Task) Canceled() bool {
	return t != nil && t.canceled.Load()
}

// Pending reports whether the task has neither fired nor been cancelled.
func (t *Task) Pending() bool {
	return t != nil && !t.canceled.Load() && !t.fired.Load()
}

// run executes fn unless the task was cancelled in the meantime.
func (t *Task) run(fn func()) {
	if t.canceled.Load() {
		return
	}
	t.fired.Store(true)
	fn()
}
