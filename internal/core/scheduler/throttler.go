package scheduler

import "time"

// Throttler coalesces bursts of scheduled work. Every Schedule call is
// followed by at least one run of the most recently scheduled function.
type Throttler struct {
	sched    Scheduler
	interval time.Duration
	task     *Task
	next     func()
}

// NewThrottler creates a throttler that runs at most once per interval.
func NewThrottler(sched Scheduler, interval time.Duration) *Throttler {
	return &Throttler{sched: sched, interval: interval}
}

// Schedule records fn as the work to run when the current interval ends.
func (t *Throttler) Schedule(fn func()) {
	t.next = fn
	if t.task.Pending() {
		return
	}
	t.task = t.sched.AfterFunc(t.interval, t.fire)
}

// Flush runs pending work immediately.
func (t *Throttler) Flush() {
	if !t.task.Pending() {
		return
	}
	t.task.Cancel()
	t.fire()
}

// Pending reports whether work is waiting to run.
func (t *Throttler) Pending() bool {
	return t.task.Pending()
}

// Stop drops pending work.
func (t *Throttler) Stop() {
	t.task.Cancel()
	t.next = nil
}

func (t *Throttler) fire() {
	fn := t.next
	t.next = nil
	if fn != nil {
		fn()
	}
}
