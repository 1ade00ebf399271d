// Package console composes the message pipeline, the prompts and the
// persisted settings into one console that feeds and front-ends drive.
package console

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/penwyp/go-dirac-console/internal/core/collapse"
	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/core/search"
	"github.com/penwyp/go-dirac-console/internal/core/store"
	"github.com/penwyp/go-dirac-console/internal/core/view"
	"github.com/penwyp/go-dirac-console/internal/data/export"
	"github.com/penwyp/go-dirac-console/internal/data/feed"
	"github.com/penwyp/go-dirac-console/internal/data/settings"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Refresher is told when the visible list changed.
type Refresher interface {
	Appended()
	MarkNeedsFullUpdate()
	ScheduleRefresh()
}

// Console owns every piece of console state. All methods must run on the
// scheduler goroutine.
type Console struct {
	ID string

	sched    scheduler.Scheduler
	settings *settings.Store

	store     *store.Store
	filter    *filter.Engine
	collapser *collapse.Collapser
	list      *view.List
	search    *search.Index
	channel   *command.Channel

	pageURL    string
	refresher  Refresher
	rebuilding bool
	onAppended []func(*model.ViewEntry)
	onRebuilt  []func()
	onFeedback []func(string)
}

// New creates a console and restores its prompts and filters from st.
// evaluator may be nil.
func New(ctx context.Context, sched scheduler.Scheduler, st *settings.Store, evaluator command.Evaluator) *Console {
	if st == nil {
		st = settings.NewMemory()
	}
	values := st.Values()

	c := &Console{
		ID:       uuid.NewString(),
		sched:    sched,
		settings: st,
		store:    store.New(),
		filter:   filter.NewEngine(nil),
	}
	c.collapser = collapse.New(values.ConsoleTimestampsEnabled)
	c.list = view.New(c.store, c.filter, c.collapser)
	c.search = search.NewIndex(sched, c.list)
	c.list.Observe(c.search)
	c.list.Observe(listObserver{c})

	c.channel = command.New(ctx, sched, c, evaluator)
	c.channel.RestoreHistory(constants.PromptJS, values.ConsoleHistory)
	c.channel.RestoreHistory(constants.PromptDirac, values.DiracHistory)
	c.channel.RestorePromptIndex(values.ConsolePromptIndex)
	c.channel.SetPersister(st)
	c.channel.OnFeedback(func(text string) {
		for _, fn := range c.onFeedback {
			fn(text)
		}
	})

	c.filter.Restore(values.Persisted)
	c.filter.SetOnChange(c.filterChanged)
	return c
}

type listObserver struct{ c *Console }

func (o listObserver) VisibleReset() { o.c.rebuilding = true }

func (o listObserver) VisibleAppended(_ int, e *model.ViewEntry) {
	if o.c.rebuilding {
		return
	}
	if o.c.refresher != nil {
		o.c.refresher.Appended()
	}
	for _, fn := range o.c.onAppended {
		fn(e)
	}
}

func (o listObserver) VisibleRebuilt() {
	o.c.rebuilding = false
	for _, fn := range o.c.onRebuilt {
		fn()
	}
}

// SetRefresher routes list changes to a viewport. Without one, deferred
// rebuilds run immediately.
func (c *Console) SetRefresher(r Refresher) {
	c.refresher = r
}

// OnAppended registers a hook for entries appended to the visible list.
func (c *Console) OnAppended(fn func(*model.ViewEntry)) {
	c.onAppended = append(c.onAppended, fn)
}

// OnRebuilt registers a hook for full rebuilds of the visible list.
func (c *Console) OnRebuilt(fn func()) {
	c.onRebuilt = append(c.onRebuilt, fn)
}

// OnFeedback registers a hook for prompt feedback lines.
func (c *Console) OnFeedback(fn func(string)) {
	c.onFeedback = append(c.onFeedback, fn)
}

func (c *Console) needsRebuild() {
	if c.refresher != nil {
		c.refresher.MarkNeedsFullUpdate()
		return
	}
	c.list.MarkNeedsFullUpdate()
	c.list.Sync()
}

// rebuilt schedules a redraw after the list rebuilt itself.
func (c *Console) rebuilt() {
	if c.refresher != nil {
		c.refresher.ScheduleRefresh()
	}
}

func (c *Console) filterChanged() {
	c.needsRebuild()
	c.settings.SaveFilters(c.filter.Persisted())
}

// Append stores msg and makes it visible. Out-of-order messages defer a
// rebuild. Every appended message is reported to prompt feedback.
func (c *Console) Append(msg *model.LogMessage) *model.ViewEntry {
	c.channel.MessageFeedback(msg)
	entry, appended := c.list.Add(msg)
	if !appended {
		c.needsRebuild()
	}
	return entry
}

// LookupMessage finds a stored entry by its protocol message id.
func (c *Console) LookupMessage(messageID string) (*model.ViewEntry, bool) {
	return c.store.LookupMessage(messageID)
}

// AddMessage handles a console message coming from the inspected page.
// Dirac REPL output is rewritten and linked to its request first.
func (c *Console) AddMessage(msg *model.LogMessage) *model.ViewEntry {
	if command.IsDiracLog(msg) {
		return c.channel.AppendDiracLog(msg)
	}
	return c.Append(msg)
}

// Apply dispatches one feed event.
func (c *Console) Apply(ev feed.Event) {
	switch ev.Kind {
	case feed.KindMessageAdded:
		c.AddMessage(ev.Message)
	case feed.KindMessageUpdated:
		if !c.list.Update(ev.Message) {
			util.LogDebugf("Ignoring update for unknown message %q", ev.Message.MessageID)
			return
		}
		c.rebuilt()
	case feed.KindConsoleCleared:
		c.Clear()
	case feed.KindCommandEvaluated:
		c.channel.OnCommandEvaluated(*ev.Evaluated)
	case feed.KindDiracMessage:
		c.channel.HandleDiracMessage(ev.Message)
	case feed.KindJobStarted:
		c.channel.OnJobStarted(ev.RequestID)
	case feed.KindJobEnded:
		c.channel.OnJobEnded(ev.RequestID)
	case feed.KindExecutionContextChanged:
		c.SetExecutionContext(ev.ExecutionContextID)
	default:
		util.LogWarnf("Unhandled feed event %q", ev.Kind)
	}
}

// Clear drops every message. Prompt histories survive.
func (c *Console) Clear() {
	c.list.Clear()
	c.rebuilt()
	util.LogInfo("Console cleared")
}

// SetExecutionContext selects the evaluation target for both the filter and
// the prompts.
func (c *Console) SetExecutionContext(id int) {
	c.filter.SetExecutionContext(id)
	c.channel.SetExecutionContext(id)
}

// SetPageURL names the inspected page, used for export file names.
func (c *Console) SetPageURL(url string) {
	c.pageURL = url
}

// SetShowTimestamps toggles timestamps. Repeats with different timestamps
// stop collapsing while they are shown.
func (c *Console) SetShowTimestamps(show bool) {
	if c.collapser.ShowTimestamps() == show {
		return
	}
	c.collapser.SetShowTimestamps(show)
	c.needsRebuild()
	c.settings.SaveTimestamps(show)
}

func (c *Console) ShowTimestamps() bool {
	return c.collapser.ShowTimestamps()
}

// Search starts a search over the visible list.
func (c *Console) Search(cfg search.Config, jump, backwards bool) *search.Job {
	return c.search.Start(cfg, jump, backwards)
}

// Submit evaluates text in the given prompt.
func (c *Console) Submit(surface, text string) (int, bool) {
	return c.channel.Submit(surface, text, 0)
}

// ToggleGroup expands or collapses the group starting at visible index i.
func (c *Console) ToggleGroup(i int) bool {
	if !c.list.ToggleGroupAt(i) {
		return false
	}
	c.rebuilt()
	return true
}

// Entries returns a copy of the visible entries.
func (c *Console) Entries() []*model.ViewEntry {
	return append([]*model.ViewEntry(nil), c.list.Entries()...)
}

// ExportName returns the file name Save uses at the current time.
func (c *Console) ExportName() string {
	return export.FileName(c.pageURL, c.sched.Now())
}

// ExportLines snapshots the visible list for saving.
func (c *Console) ExportLines() []string {
	return export.Lines(c.list)
}

// Save writes the visible list through opener. It snapshots on the calling
// goroutine and writes synchronously.
func (c *Console) Save(ctx context.Context, opener export.Opener, progress *export.Progress) (string, int, error) {
	name := c.ExportName()
	n, err := export.Save(ctx, c.ExportLines(), opener, name, progress)
	if err != nil {
		return name, n, fmt.Errorf("failed to save console: %w", err)
	}
	util.LogInfof("Saved %d entries to %s", n, name)
	return name, n, nil
}

// WelcomeDirac prints the Dirac welcome banner.
func (c *Console) WelcomeDirac(version string) {
	c.channel.DisplayWelcome(version)
}

func (c *Console) List() *view.List               { return c.list }
func (c *Console) Store() *store.Store            { return c.store }
func (c *Console) Filter() *filter.Engine         { return c.filter }
func (c *Console) SearchIndex() *search.Index     { return c.search }
func (c *Console) Channel() *command.Channel      { return c.channel }
func (c *Console) Settings() *settings.Store      { return c.settings }
func (c *Console) Scheduler() scheduler.Scheduler { return c.sched }
