package console

import (
	"context"
	"time"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/core/search"
	"github.com/penwyp/go-dirac-console/internal/data/feed"
	"github.com/penwyp/go-dirac-console/internal/data/settings"
)

// Headless drives a console synchronously on a manual clock. Batch commands
// and tests use it instead of a running loop.
type Headless struct {
	*Console
	Clock *scheduler.Manual
}

// NewHeadless creates a console whose scheduled work only runs from Apply,
// Settle or Advance.
func NewHeadless(ctx context.Context, st *settings.Store, evaluator command.Evaluator) *Headless {
	clock := scheduler.NewManual(time.Now())
	return &Headless{Console: New(ctx, clock, st, evaluator), Clock: clock}
}

// Apply dispatches events in order and runs everything they posted.
func (h *Headless) Apply(events ...feed.Event) {
	for _, ev := range events {
		h.Console.Apply(ev)
		h.Clock.Drain()
	}
}

// Advance moves the clock, firing due timers.
func (h *Headless) Advance(d time.Duration) {
	h.Clock.Advance(d)
}

// SearchAll runs a search to completion and returns its matches.
func (h *Headless) SearchAll(cfg search.Config) []search.Match {
	h.Search(cfg, false, false)
	for h.SearchIndex().Searching() {
		h.Clock.Advance(constants.SearchRescheduleDelay)
	}
	return h.SearchIndex().Matches()
}

// Settle waits until every in-flight evaluation delivered its result or
// timeout elapses. It reports whether nothing is left pending.
func (h *Headless) Settle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	h.Clock.Drain()
	for h.Channel().PendingCount() > 0 {
		left := time.Until(deadline)
		if left <= 0 || !h.Clock.WaitForPost(left) {
			return false
		}
		h.Clock.Drain()
	}
	return true
}
