package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by an explicit clock. Timers
// fire only from Advance, posted closures only from Drain or Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
	posted []func()
	notify chan struct{}

	// Step advances the clock on every Now call. It lets time-boxed work
	// observe elapsed time without real sleeping.
	Step time.Duration
}

type manualTimer struct {
	at   time.Time
	seq  int
	task *Task
	fn   func()
}

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		notify: make(chan struct{}, 1),
	}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now
	m.now = m.now.Add(m.Step)
	return t
}

func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := &Task{}
	m.seq++
	m.timers = append(m.timers, &manualTimer{at: m.now.Add(d), seq: m.seq, task: task, fn: fn})
	return task
}

// WaitForPost blocks until some goroutine posts a closure or timeout elapses.
func (m *Manual) WaitForPost(timeout time.Duration) bool {
	m.mu.Lock()
	if len(m.posted) > 0 {
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	select {
	case <-m.notify:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Drain runs posted closures until none are left.
func (m *Manual) Drain() {
	for {
		m.mu.Lock()
		batch := m.posted
		m.posted = nil
		m.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// Advance moves the clock forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.Drain()
	for {
		next := m.popDue(target)
		if next == nil {
			break
		}
		next.task.run(next.fn)
		m.Drain()
	}

	m.mu.Lock()
	if m.now.Before(target) {
		m.now = target
	}
	m.mu.Unlock()
}

// Pending returns the number of timers that have not fired or been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.task.Canceled() {
			n++
		}
	}
	return n
}

func (m *Manual) popDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.task.Canceled() {
			live = append(live, t)
		}
	}
	m.timers = live

	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if len(m.timers) == 0 || m.timers[0].at.After(target) {
		return nil
	}
	next := m.timers[0]
	m.timers = m.timers[1:]
	if next.at.After(m.now) {
		m.now = next.at
	}
	return next
}
