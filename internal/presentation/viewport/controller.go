package viewport

import (
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Scroller is the scrolling component driven by the controller.
type Scroller interface {
	IsScrolledToBottom() bool
	ScrollToEnd()
	Refresh()
}

// Syncer applies deferred rebuilds of the visible list.
type Syncer interface {
	Sync() bool
	MarkNeedsFullUpdate()
}

// Controller coalesces viewport refreshes and implements stick-to-bottom.
// While the user holds the list (mouse down, page keys) refreshes are
// muted; a refresh requested during that time fires once after release.
type Controller struct {
	sched     scheduler.Scheduler
	list      Syncer
	scroller  Scroller
	throttler *scheduler.Throttler

	stick  bool
	muted  bool
	dirty  bool
	settle *scheduler.Task

	refreshes int
}

// NewController creates a controller that starts stuck to the bottom.
func NewController(sched scheduler.Scheduler, list Syncer, scroller Scroller) *Controller {
	return &Controller{
		sched:     sched,
		list:      list,
		scroller:  scroller,
		throttler: scheduler.NewThrottler(sched, constants.ViewportRefreshInterval),
		stick:     true,
	}
}

// ScheduleRefresh queues a refresh. Bursts collapse into one.
func (c *Controller) ScheduleRefresh() {
	if c.muted {
		c.dirty = true
		return
	}
	c.throttler.Schedule(c.invalidate)
}

// RefreshNow runs a pending or fresh refresh immediately.
func (c *Controller) RefreshNow() {
	c.throttler.Stop()
	c.invalidate()
}

func (c *Controller) invalidate() {
	if c.muted {
		c.dirty = true
		return
	}
	if c.list.Sync() {
		util.LogDebug("Viewport refresh rebuilt the visible list")
	}
	if c.stick {
		c.scroller.ScrollToEnd()
	}
	c.refreshes++
	c.scroller.Refresh()
}

// Appended is called after an entry joined the end of the visible list.
func (c *Controller) Appended() {
	if c.stick && !c.muted {
		c.scroller.ScrollToEnd()
	}
	c.ScheduleRefresh()
}

// PromptTextChanged keeps the prompt in view while typing.
func (c *Controller) PromptTextChanged() {
	if c.stick {
		c.scroller.ScrollToEnd()
	}
	c.ScheduleRefresh()
}

// MarkNeedsFullUpdate defers a rebuild to the next refresh.
func (c *Controller) MarkNeedsFullUpdate() {
	c.list.MarkNeedsFullUpdate()
	c.ScheduleRefresh()
}

// MouseDown starts a manual scroll.
func (c *Controller) MouseDown() {
	c.settle.Cancel()
	c.settle = nil
	c.muted = true
	c.stick = false
}

// MouseUp ends a manual scroll. Stick-to-bottom is re-sampled once
// scrolling has settled.
func (c *Controller) MouseUp() {
	c.settle.Cancel()
	c.settle = c.sched.AfterFunc(constants.StickToBottomSettleDelay, c.settled)
}

func (c *Controller) settled() {
	c.settle = nil
	c.muted = false
	c.stick = c.scroller.IsScrolledToBottom()
	if c.dirty {
		c.dirty = false
		c.invalidate()
	}
}

// Wheel is a complete manual scroll gesture.
func (c *Controller) Wheel() {
	c.MouseDown()
	c.MouseUp()
}

// ScrollToEnd jumps to the newest entry and sticks there.
func (c *Controller) ScrollToEnd() {
	c.settle.Cancel()
	c.settle = nil
	c.muted = false
	c.stick = true
	c.dirty = false
	c.RefreshNow()
}

func (c *Controller) StickToBottom() bool {
	return c.stick
}

func (c *Controller) Muted() bool {
	return c.muted
}

// Refreshes counts the refreshes applied so far.
func (c *Controller) Refreshes() int {
	return c.refreshes
}

// Stop drops pending work.
func (c *Controller) Stop() {
	c.throttler.Stop()
	c.settle.Cancel()
}
