package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-dirac-console/internal/util"
)

// Loop is the production Scheduler: a goroutine draining an unbounded queue.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	running bool
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn. It never blocks, so it is safe to call from the loop itself.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc schedules fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Task {
	task := &Task{}
	timer := time.AfterFunc(d, func() {
		l.Post(func() { task.run(fn) })
	})
	task.stop = timer.Stop
	return task
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to run on console loop: %w", ctx.Err())
	}
}

// Run drains the queue until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("loop already running")
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			l.runSafely(fn)
		}
	}
}

func (l *Loop) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			util.LogErrorf("Recovered panic on console loop: %v", r)
		}
	}()
	fn()
}
