package console

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/search"
	"github.com/penwyp/go-dirac-console/internal/data/export"
	"github.com/penwyp/go-dirac-console/internal/presentation/display"
	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
	"github.com/penwyp/go-dirac-console/internal/presentation/interaction"
	"github.com/penwyp/go-dirac-console/internal/presentation/viewport"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Mode selects what typed keys edit.
type Mode int

const (
	ModePrompt Mode = iota
	ModeSearch
)

// UI is the terminal front-end of a console. It runs on the console's
// scheduler goroutine.
type UI struct {
	console  *Console
	display  *display.TerminalDisplay
	renderer *formatter.Renderer
	adapter  *viewport.Adapter
	view     *display.Viewport
	ctrl     *viewport.Controller

	mode      Mode
	query     search.Config
	notice    string
	exportDir string
	saving    *export.Progress
}

// NewUI attaches a terminal front-end to c.
func NewUI(c *Console, td *display.TerminalDisplay, color bool, exportDir string) *UI {
	u := &UI{console: c, display: td, exportDir: exportDir}
	u.renderer = formatter.NewRenderer(c.ShowTimestamps(), color)
	u.adapter = viewport.NewAdapter(c.List(), u.renderer, td.Width())
	u.view = display.NewViewport(u.adapter, td.BodyHeight())
	u.view.OnRefresh(u.render)
	u.ctrl = viewport.NewController(c.Scheduler(), c.List(), u.view)
	c.SetRefresher(u.ctrl)

	idx := c.SearchIndex()
	idx.OnJump(u.jumpTo)
	idx.OnStatus(func(search.Status) { u.ctrl.ScheduleRefresh() })
	c.OnFeedback(func(text string) { u.notice = text })
	return u
}

// Start draws the first frame.
func (u *UI) Start() {
	u.display.EnterAlternateScreen()
	u.ctrl.RefreshNow()
}

// Stop drops pending refreshes and restores the screen.
func (u *UI) Stop() {
	u.ctrl.Stop()
	u.display.ExitAlternateScreen()
}

func (u *UI) Mode() Mode                       { return u.mode }
func (u *UI) Notice() string                   { return u.notice }
func (u *UI) Viewport() *display.Viewport      { return u.view }
func (u *UI) Controller() *viewport.Controller { return u.ctrl }

// Resize re-reads the terminal size.
func (u *UI) Resize() {
	if !u.display.UpdateSize() {
		return
	}
	u.adapter.SetWidth(u.display.Width())
	u.view.SetHeight(u.display.BodyHeight())
	u.ctrl.RefreshNow()
}

// HandleKey applies one key press and reports whether the user asked to quit.
func (u *UI) HandleKey(ev interaction.KeyEvent) bool {
	var quit bool
	if u.mode == ModeSearch {
		u.handleSearchKey(ev)
	} else {
		quit = u.handlePromptKey(ev)
	}
	if !quit && !u.ctrl.Muted() {
		u.ctrl.RefreshNow()
	}
	return quit
}

func (u *UI) handlePromptKey(ev interaction.KeyEvent) bool {
	ch := u.console.Channel()
	switch ev.Type {
	case interaction.KeyEscape:
		if u.saving != nil {
			u.saving.Cancel()
			u.notice = "cancelling save"
			return false
		}
		return true
	case interaction.KeyEnter:
		if _, ok := ch.SubmitActive(); !ok && ch.ExecutionContext() == 0 && ch.Active().Text != "" {
			u.notice = "no execution context"
		}
		u.ctrl.ScrollToEnd()
	case interaction.KeyTab:
		ch.SelectNext()
	case interaction.KeyBackTab:
		ch.SelectPrev()
	case interaction.KeyUp:
		ch.HistoryPrevious()
		u.ctrl.PromptTextChanged()
	case interaction.KeyDown:
		ch.HistoryNext()
		u.ctrl.PromptTextChanged()
	case interaction.KeyPageUp:
		u.scroll(-u.view.Height())
	case interaction.KeyPageDown:
		u.scroll(u.view.Height())
	case interaction.KeyHome:
		u.scroll(-u.adapter.Count())
	case interaction.KeyEnd:
		u.ctrl.ScrollToEnd()
	case interaction.KeyBackspace:
		ch.SetText(dropLastRune(ch.Active().Text))
		u.ctrl.PromptTextChanged()
	case interaction.KeyChar:
		ch.SetText(ch.Active().Text + string(ev.Key))
		u.ctrl.PromptTextChanged()
	case interaction.KeyCtrl:
		u.handleCtrl(ev.Key)
	}
	return false
}

func (u *UI) handleCtrl(key rune) {
	c := u.console
	switch key {
	case 'f':
		u.mode = ModeSearch
	case 'n':
		c.SearchIndex().Next()
	case 'p':
		c.SearchIndex().Previous()
	case 'l':
		c.Clear()
	case 's':
		u.save()
	case 'g':
		u.toggleGroup()
	case 't':
		c.SetShowTimestamps(!c.ShowTimestamps())
		u.renderer.Timestamps = c.ShowTimestamps()
	case 'u':
		c.Channel().SetText("")
	}
}

func (u *UI) handleSearchKey(ev interaction.KeyEvent) {
	idx := u.console.SearchIndex()
	switch ev.Type {
	case interaction.KeyEscape:
		u.mode = ModePrompt
	case interaction.KeyEnter:
		idx.Next()
	case interaction.KeyBackspace:
		u.query.Query = dropLastRune(u.query.Query)
		u.startSearch()
	case interaction.KeyChar:
		u.query.Query += string(ev.Key)
		u.startSearch()
	case interaction.KeyCtrl:
		switch ev.Key {
		case 'f':
			u.mode = ModePrompt
		case 'n':
			idx.Next()
		case 'p':
			idx.Previous()
		case 'r':
			u.query.IsRegex = !u.query.IsRegex
			u.startSearch()
		case 'e':
			u.query.CaseSensitive = !u.query.CaseSensitive
			u.startSearch()
		}
	}
}

func (u *UI) startSearch() {
	u.console.Search(u.query, true, false)
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// scroll moves the viewport by delta items as a manual scroll gesture.
func (u *UI) scroll(delta int) {
	u.ctrl.MouseDown()
	u.view.ScrollBy(delta)
	u.render()
	u.ctrl.MouseUp()
}

func (u *UI) jumpTo(index int) {
	u.ctrl.MouseDown()
	u.view.ScrollItemIntoView(index)
	u.render()
	u.ctrl.MouseUp()
}

// cursor is the entry group toggling applies to: the current search match,
// or the newest entry on screen.
func (u *UI) cursor() int {
	idx := u.console.SearchIndex()
	if cur := idx.Current(); cur >= 0 && cur < idx.Count() {
		return idx.Matches()[cur].MessageIndex
	}
	if u.ctrl.StickToBottom() {
		return u.adapter.Count() - 1
	}
	return u.view.Top()
}

func (u *UI) toggleGroup() {
	for i := u.cursor(); i >= 0; i-- {
		if e := u.adapter.EntryAt(i); e != nil && e.Kind == model.KindGroupStart {
			u.console.ToggleGroup(i)
			return
		}
	}
}

func (u *UI) save() {
	if u.saving != nil {
		u.notice = "save in progress, Esc cancels it"
		return
	}
	c := u.console
	name := c.ExportName()
	lines := c.ExportLines()
	opener := export.DirOpener{Dir: u.exportDir}
	path := filepath.Join(u.exportDir, name)
	progress := &export.Progress{}
	u.saving = progress
	u.notice = "saving " + path

	go func() {
		n, err := export.Save(context.Background(), lines, opener, name, progress)
		c.Scheduler().Post(func() { u.saved(progress, path, n, err) })
	}()
}

// saved reports the outcome of the save tracked by progress.
func (u *UI) saved(progress *export.Progress, path string, n int, err error) {
	if u.saving == progress {
		u.saving = nil
	}
	switch {
	case err != nil:
		util.LogErrorf("Failed to save console: %v", err)
		u.notice = "save failed: " + err.Error()
	case progress.Canceled():
		u.notice = fmt.Sprintf("save cancelled after %d entries (%s)", n, path)
	default:
		u.notice = fmt.Sprintf("saved %d entries to %s", n, path)
	}
	u.ctrl.ScheduleRefresh()
}

func (u *UI) status() string {
	c := u.console
	var parts []string
	if s := c.List().FilterStatus(); s != "" {
		parts = append(parts, s)
	}
	idx := c.SearchIndex()
	switch {
	case idx.Regex() == nil:
	case idx.Searching():
		parts = append(parts, "searching…")
	case idx.Count() == 0:
		parts = append(parts, "no matches")
	case idx.Current() >= 0:
		parts = append(parts, fmt.Sprintf("match %d of %d", idx.Current()+1, idx.Count()))
	default:
		parts = append(parts, fmt.Sprintf("%d matches", idx.Count()))
	}
	if c.Channel().Busy() {
		parts = append(parts, "evaluating…")
	}
	if !u.ctrl.StickToBottom() {
		parts = append(parts, "scrolled")
	}
	return strings.Join(parts, " | ")
}

func (u *UI) frame() display.Frame {
	ch := u.console.Channel()
	active := ch.Active()
	f := display.Frame{
		Rows:        u.view.Window(),
		Status:      u.status(),
		Notice:      u.notice,
		PromptLabel: active.ID,
		Prompt:      active.Text,
	}
	if active.ID == constants.PromptDirac {
		d := ch.Dirac()
		f.Placeholder = d.Placeholder()
		if d.StatusContent != "" {
			f.Notice = d.StatusContent
		}
	} else if ch.ExecutionContext() == 0 {
		f.Placeholder = "no execution context"
	}
	if u.mode == ModeSearch {
		f.PromptLabel = "search"
		f.Prompt = u.query.Query
		f.Placeholder = ""
	}
	return f
}

func (u *UI) render() {
	u.display.Render(u.frame())
}
