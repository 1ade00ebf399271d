package viewport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-dirac-console/internal/core/collapse"
	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/core/store"
	"github.com/penwyp/go-dirac-console/internal/core/view"
	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
)

type fakeScroller struct {
	atBottom  bool
	toEnd     int
	refreshes int
}

func (s *fakeScroller) IsScrolledToBottom() bool { return s.atBottom }
func (s *fakeScroller) ScrollToEnd()             { s.toEnd++; s.atBottom = true }
func (s *fakeScroller) Refresh()                 { s.refreshes++ }

type fakeList struct {
	needs bool
	syncs int
}

func (l *fakeList) Sync() bool {
	if !l.needs {
		return false
	}
	l.needs = false
	l.syncs++
	return true
}

func (l *fakeList) MarkNeedsFullUpdate() { l.needs = true }

func newController() (*Controller, *scheduler.Manual, *fakeScroller, *fakeList) {
	sched := scheduler.NewManual(time.Unix(0, 0))
	sc := &fakeScroller{atBottom: true}
	l := &fakeList{}
	return NewController(sched, l, sc), sched, sc, l
}

func TestRefreshesAreCoalesced(t *testing.T) {
	c, sched, sc, _ := newController()

	for i := 0; i < 10; i++ {
		c.Appended()
	}
	assert.Equal(t, 0, sc.refreshes)
	assert.Equal(t, 10, sc.toEnd, "each append scrolls immediately while sticking")

	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, sc.refreshes)
	assert.Equal(t, 1, c.Refreshes())

	c.ScheduleRefresh()
	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, 2, sc.refreshes, "the last scheduled refresh is never dropped")
}

func TestMarkNeedsFullUpdateRebuildsOnRefresh(t *testing.T) {
	c, sched, _, l := newController()

	c.MarkNeedsFullUpdate()
	assert.Equal(t, 0, l.syncs)
	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, l.syncs)
}

func TestManualScrollMutesAndCatchesUpOnce(t *testing.T) {
	c, sched, sc, _ := newController()

	c.MouseDown()
	assert.False(t, c.StickToBottom())
	assert.True(t, c.Muted())

	sc.atBottom = false
	c.Appended()
	c.Appended()
	c.ScheduleRefresh()
	sched.Advance(time.Second)
	assert.Equal(t, 0, sc.refreshes, "muted while held")
	assert.Equal(t, 0, sc.toEnd)

	c.MouseUp()
	sched.Advance(199 * time.Millisecond)
	assert.True(t, c.Muted(), "settle delay has not elapsed")

	sched.Advance(time.Millisecond)
	assert.False(t, c.Muted())
	assert.False(t, c.StickToBottom(), "released away from the bottom")
	assert.Equal(t, 1, sc.refreshes, "exactly one catch-up refresh")

	c.Appended()
	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, 0, sc.toEnd, "no longer sticking")
}

func TestReleaseAtBottomSticksAgain(t *testing.T) {
	c, sched, sc, _ := newController()

	c.Wheel()
	assert.False(t, c.StickToBottom())
	sched.Advance(200 * time.Millisecond)
	assert.True(t, c.StickToBottom())
	assert.Equal(t, 0, sc.refreshes, "nothing was dirtied")
}

func TestMouseDownCancelsPendingSettle(t *testing.T) {
	c, sched, _, _ := newController()

	c.MouseDown()
	c.MouseUp()
	sched.Advance(100 * time.Millisecond)
	c.MouseDown()
	sched.Advance(time.Second)
	assert.True(t, c.Muted(), "second press keeps the list held")
	assert.False(t, c.StickToBottom())
}

func TestScrollToEndResumesSticking(t *testing.T) {
	c, _, sc, _ := newController()

	c.MouseDown()
	c.ScrollToEnd()
	assert.True(t, c.StickToBottom())
	assert.False(t, c.Muted())
	assert.Equal(t, 1, sc.refreshes)
	assert.Equal(t, 1, sc.toEnd)
}

func TestPromptTextChanged(t *testing.T) {
	c, sched, sc, _ := newController()
	c.PromptTextChanged()
	assert.Equal(t, 1, sc.toEnd)
	sched.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, sc.refreshes)
}

func TestAdapterCoversVisibleListOnly(t *testing.T) {
	f := filter.NewEngine(nil)
	list := view.New(store.New(), f, collapse.New(false))
	list.Add(&model.LogMessage{Level: model.LevelInfo, Text: "abcdef", Timestamp: 1})
	list.Add(&model.LogMessage{Level: model.LevelVerbose, Text: "hidden", Timestamp: 2})
	list.Add(&model.LogMessage{Level: model.LevelError, Text: "x", Timestamp: 3})

	a := NewAdapter(list, formatter.NewRenderer(false, false), 4)
	assert.Equal(t, 2, a.Count(), "verbose is filtered by default")
	assert.Equal(t, "x", a.EntryAt(1).Message.Text)
	assert.Equal(t, 2, a.EstimatedHeight(0))
	assert.Equal(t, 1, a.EstimatedHeight(1))
	assert.Equal(t, 1, a.EstimatedHeight(5), "out of range falls back to the minimum")
	assert.Equal(t, []string{"abcd", "ef"}, a.Rows(0))

	a.SetWidth(80)
	assert.Equal(t, 1, a.EstimatedHeight(0))
	assert.Equal(t, 1, a.MinimumRowHeight())
}
