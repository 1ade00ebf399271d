// Package filter decides which console entries are visible.
package filter

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// AllContexts selects messages from every sidebar context.
const AllContexts = ""

// State is the current filter configuration.
type State struct {
	BlockedURLs              map[string]bool
	Levels                   map[model.Level]bool
	Text                     string
	Context                  string
	ExecutionContextID       int
	HideNetwork              bool
	FilterByExecutionContext bool
	ConsoleAPIOnly           bool
}

// DefaultLevels enables every level except verbose.
func DefaultLevels() map[model.Level]bool {
	levels := AllLevels()
	levels[model.LevelVerbose] = false
	return levels
}

// AllLevels enables every level.
func AllLevels() map[model.Level]bool {
	levels := make(map[model.Level]bool, len(model.Levels))
	for _, l := range model.Levels {
		levels[l] = true
	}
	return levels
}

// Engine evaluates State against entries and reports changes.
type Engine struct {
	state    State
	regex    *regexp.Regexp
	onChange func()
}

// NewEngine creates an engine with default state. onChange is invoked after
// every effective mutation and may be nil.
func NewEngine(onChange func()) *Engine {
	e := &Engine{onChange: onChange}
	e.state = State{
		BlockedURLs: make(map[string]bool),
		Levels:      DefaultLevels(),
	}
	return e
}

// SetOnChange replaces the change callback.
func (e *Engine) SetOnChange(fn func()) {
	e.onChange = fn
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

// Visible applies the filters in fixed order; each step may veto.
func (e *Engine) Visible(entry *model.ViewEntry) bool {
	msg := entry.Message
	s := &e.state

	if s.FilterByExecutionContext && s.ExecutionContextID != 0 {
		if msg.ExecutionContextID != 0 && msg.ExecutionContextID != s.ExecutionContextID {
			return false
		}
	}
	if s.HideNetwork && msg.Source == model.SourceNetwork {
		return false
	}
	if msg.IsGroupMarker() {
		return true
	}
	if msg.IsCommandOrResult() {
		return true
	}
	if msg.URL != "" && s.BlockedURLs[msg.URL] {
		return false
	}
	if !s.Levels[msg.Level] {
		return false
	}
	if e.regex != nil {
		if !e.regex.MatchString(msg.Text) && !e.regex.MatchString(msg.URL) {
			return false
		}
	} else if s.Text != "" {
		if !containsFold(msg.Text, s.Text) && !containsFold(msg.URL, s.Text) {
			return false
		}
	}
	if s.ConsoleAPIOnly && msg.Source != model.SourceConsoleAPI {
		return false
	}
	if s.Context != AllContexts && msg.Context != s.Context {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// State returns a copy of the current configuration.
func (e *Engine) State() State {
	out := e.state
	out.BlockedURLs = make(map[string]bool, len(e.state.BlockedURLs))
	for k, v := range e.state.BlockedURLs {
		out.BlockedURLs[k] = v
	}
	out.Levels = make(map[model.Level]bool, len(e.state.Levels))
	for k, v := range e.state.Levels {
		out.Levels[k] = v
	}
	return out
}

// Regex returns the compiled text filter, nil when the text is plain.
func (e *Engine) Regex() *regexp.Regexp {
	return e.regex
}

// AddURLFilter hides messages from url.
func (e *Engine) AddURLFilter(url string) {
	if url == "" || e.state.BlockedURLs[url] {
		return
	}
	e.state.BlockedURLs[url] = true
	e.changed()
}

// RemoveURLFilter unhides url. An empty url unhides everything.
func (e *Engine) RemoveURLFilter(url string) {
	if url == "" {
		e.state.BlockedURLs = make(map[string]bool)
	} else {
		delete(e.state.BlockedURLs, url)
	}
	e.changed()
}

// BlockedURLs returns the blocked URLs sorted.
func (e *Engine) BlockedURLs() []string {
	urls := make([]string, 0, len(e.state.BlockedURLs))
	for u := range e.state.BlockedURLs {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// SetLevel enables or disables one level.
func (e *Engine) SetLevel(level model.Level, enabled bool) {
	if e.state.Levels[level] == enabled {
		return
	}
	e.state.Levels[level] = enabled
	e.changed()
}

// ToggleLevel flips one level.
func (e *Engine) ToggleLevel(level model.Level) {
	e.SetLevel(level, !e.state.Levels[level])
}

// SetLevels replaces the whole level set.
func (e *Engine) SetLevels(levels map[model.Level]bool) {
	next := make(map[model.Level]bool, len(model.Levels))
	for _, l := range model.Levels {
		next[l] = levels[l]
	}
	e.state.Levels = next
	e.changed()
}

// SetText sets the text query. Text wrapped in slashes is a
// case-insensitive regular expression; if it does not compile the text is
// matched literally.
func (e *Engine) SetText(text string) {
	e.state.Text = text
	e.regex = nil
	if len(text) >= 2 && strings.HasPrefix(text, "/") && strings.HasSuffix(text, "/") {
		if re, err := regexp.Compile("(?i)" + text[1:len(text)-1]); err == nil {
			e.regex = re
		}
	}
	e.changed()
}

// SetHideNetwork toggles hiding network-sourced messages.
func (e *Engine) SetHideNetwork(hide bool) {
	if e.state.HideNetwork == hide {
		return
	}
	e.state.HideNetwork = hide
	e.changed()
}

// SetFilterByExecutionContext toggles showing only the selected context's messages.
func (e *Engine) SetFilterByExecutionContext(enabled bool) {
	if e.state.FilterByExecutionContext == enabled {
		return
	}
	e.state.FilterByExecutionContext = enabled
	e.changed()
}

// SetConsoleAPIOnly toggles showing only console API messages.
func (e *Engine) SetConsoleAPIOnly(enabled bool) {
	if e.state.ConsoleAPIOnly == enabled {
		return
	}
	e.state.ConsoleAPIOnly = enabled
	e.changed()
}

// SetContext selects a sidebar context; AllContexts selects every one.
func (e *Engine) SetContext(context string) {
	if e.state.Context == context {
		return
	}
	e.state.Context = context
	e.changed()
}

// SetExecutionContext records the currently selected execution context.
// It only affects visibility while FilterByExecutionContext is enabled.
func (e *Engine) SetExecutionContext(id int) {
	if e.state.ExecutionContextID == id {
		return
	}
	e.state.ExecutionContextID = id
	if e.state.FilterByExecutionContext {
		e.changed()
	}
}

// Reset restores defaults. The selected execution context is kept since it
// is not a filter setting.
func (e *Engine) Reset() {
	e.state = State{
		BlockedURLs:        make(map[string]bool),
		Levels:             DefaultLevels(),
		ExecutionContextID: e.state.ExecutionContextID,
	}
	e.regex = nil
	e.changed()
}

// LevelMenuText describes the level set the way the level menu button shows it.
func (e *Engine) LevelMenuText() string {
	all, def := AllLevels(), DefaultLevels()
	isAll, isDefault := true, true
	text := ""
	for _, l := range model.Levels {
		enabled := e.state.Levels[l]
		isAll = isAll && enabled == all[l]
		isDefault = isDefault && enabled == def[l]
		if enabled {
			if text != "" {
				text = "Custom levels"
			} else {
				text = fmt.Sprintf("%s only", l.Title())
			}
		}
	}
	switch {
	case isAll:
		return "All levels"
	case isDefault:
		return "Default levels"
	case text == "":
		return "Hide all"
	}
	return text
}

// URLMenuItem is one entry of the "hide messages from" menu.
type URLMenuItem struct {
	URL   string
	Label string
	Count int
}

// URLMenu lists the blocked URLs with the number of messages each produced.
func (e *Engine) URLMenu(counts map[string]int) []URLMenuItem {
	items := make([]URLMenuItem, 0, len(e.state.BlockedURLs))
	for _, u := range e.BlockedURLs() {
		items = append(items, URLMenuItem{
			URL:   u,
			Label: fmt.Sprintf("%s (%d)", DisplayName(u), counts[u]),
			Count: counts[u],
		})
	}
	return items
}

// DisplayName shortens a URL to its last path segment, or its host when
// the path is empty.
func DisplayName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
		return base
	}
	return u.Host
}
