// Package view derives the visible console list from the message store.
package view

import (
	"fmt"
	"sort"

	"github.com/penwyp/go-dirac-console/internal/core/collapse"
	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/group"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/store"
)

// Observer is told how the visible list changes.
type Observer interface {
	// VisibleReset is called before a rebuild empties the list.
	VisibleReset()
	// VisibleAppended is called for every entry pushed onto the list.
	VisibleAppended(index int, entry *model.ViewEntry)
	// VisibleRebuilt is called once a rebuild has re-appended everything.
	VisibleRebuilt()
}

// List is the ordered list of entries that pass the filter, are not inside a
// collapsed group and were not folded into a repeat.
type List struct {
	store     *store.Store
	filter    *filter.Engine
	collapser *collapse.Collapser
	groups    *group.Tracker

	visible         []*model.ViewEntry
	collapseTarget  *model.ViewEntry
	hiddenByFilter  int
	contexts        map[string]bool
	needsFullUpdate bool
	observers       []Observer
}

// New creates a list over st.
func New(st *store.Store, f *filter.Engine, c *collapse.Collapser) *List {
	return &List{
		store:     st,
		filter:    f,
		collapser: c,
		groups:    group.NewTracker(),
		contexts:  make(map[string]bool),
	}
}

// Observe registers an observer.
func (l *List) Observe(o Observer) {
	l.observers = append(l.observers, o)
}

// Add stores msg. When it lands at the end of the store it is appended
// incrementally and appended reports true; otherwise a full rebuild is
// pending until Sync.
func (l *List) Add(msg *model.LogMessage) (entry *model.ViewEntry, appended bool) {
	entry, atEnd := l.store.Insert(msg)
	if !atEnd {
		l.needsFullUpdate = true
		return entry, false
	}
	if l.needsFullUpdate {
		return entry, false
	}
	l.appendToEnd(entry)
	return entry, true
}

// Update replaces a stored message revision and rebuilds.
func (l *List) Update(msg *model.LogMessage) bool {
	if _, ok := l.store.Update(msg); !ok {
		return false
	}
	l.Rebuild()
	return true
}

// NeedsFullUpdate reports whether a rebuild is pending.
func (l *List) NeedsFullUpdate() bool {
	return l.needsFullUpdate
}

// MarkNeedsFullUpdate defers a rebuild to the next Sync.
func (l *List) MarkNeedsFullUpdate() {
	l.needsFullUpdate = true
}

// Sync runs a pending rebuild and reports whether one ran.
func (l *List) Sync() bool {
	if !l.needsFullUpdate {
		return false
	}
	l.Rebuild()
	return true
}

// Rebuild recomputes the list from the store. The result depends only on
// the store contents, the filter state and the collapsed flags.
func (l *List) Rebuild() {
	l.needsFullUpdate = false
	for _, o := range l.observers {
		o.VisibleReset()
	}

	l.groups.Reset()
	l.visible = l.visible[:0]
	l.collapseTarget = nil
	l.hiddenByFilter = 0
	entries := l.store.Entries()
	for _, e := range entries {
		e.ResetCounters()
	}
	for _, e := range entries {
		l.appendToEnd(e)
	}

	for _, o := range l.observers {
		o.VisibleRebuilt()
	}
}

// Clear empties the store and every derived structure.
func (l *List) Clear() {
	l.store.Clear()
	l.contexts = make(map[string]bool)
	l.Rebuild()
}

func (l *List) appendToEnd(e *model.ViewEntry) {
	msg := e.Message
	e.NestingLevel = l.groups.Depth()
	if msg.Context != "" {
		l.contexts[msg.Context] = true
	}

	if !l.filter.Visible(e) {
		l.hiddenByFilter++
		l.collapseTarget = nil
		return
	}
	if l.collapser.TryCollapse(e, l.collapseTarget) {
		return
	}

	last := l.lastVisible()
	if msg.Type == model.TypeEndGroup {
		if last != nil && !l.groups.Hidden() {
			last.CloseGroupDecorations++
		}
		l.groups.Exit()
		l.collapseTarget = nil
		return
	}

	if l.groups.Hidden() {
		l.collapseTarget = nil
	} else {
		if last != nil && msg.OriginatingID() != 0 && msg.OriginatingID() == last.ID {
			last.AdjacentResult = true
		}
		l.visible = append(l.visible, e)
		l.collapseTarget = e
		for _, o := range l.observers {
			o.VisibleAppended(len(l.visible)-1, e)
		}
	}

	if msg.IsGroupStart() {
		l.groups.Enter(e)
	}
}

func (l *List) lastVisible() *model.ViewEntry {
	if len(l.visible) == 0 {
		return nil
	}
	return l.visible[len(l.visible)-1]
}

// Len returns the number of visible entries.
func (l *List) Len() int {
	return len(l.visible)
}

// At returns the visible entry at i.
func (l *List) At(i int) *model.ViewEntry {
	if i < 0 || i >= len(l.visible) {
		return nil
	}
	return l.visible[i]
}

// Entries returns the visible entries. The slice must not be modified.
func (l *List) Entries() []*model.ViewEntry {
	return l.visible
}

// IndexOf returns the visible index of e, or -1.
func (l *List) IndexOf(e *model.ViewEntry) int {
	for i, v := range l.visible {
		if v == e {
			return i
		}
	}
	return -1
}

// SetGroupCollapsed collapses or expands a group-start entry.
func (l *List) SetGroupCollapsed(e *model.ViewEntry, collapsed bool) bool {
	if e == nil || !e.Message.IsGroupStart() || e.Collapsed == collapsed {
		return false
	}
	e.Collapsed = collapsed
	l.Rebuild()
	return true
}

// ToggleGroupAt flips the group-start entry at visible index i.
func (l *List) ToggleGroupAt(i int) bool {
	e := l.At(i)
	if e == nil {
		return false
	}
	return l.SetGroupCollapsed(e, !e.Collapsed)
}

// HiddenByFilter returns how many stored entries the filter rejected.
func (l *List) HiddenByFilter() int {
	return l.hiddenByFilter
}

// FilterStatus describes the filter-hidden count for the status bar.
func (l *List) FilterStatus() string {
	switch l.hiddenByFilter {
	case 0:
		return ""
	case 1:
		return "1 item hidden by filters"
	}
	return fmt.Sprintf("%d items hidden by filters", l.hiddenByFilter)
}

// Contexts returns the sidebar contexts seen since the last clear.
func (l *List) Contexts() []string {
	out := make([]string, 0, len(l.contexts))
	for c := range l.contexts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Store returns the backing store.
func (l *List) Store() *store.Store {
	return l.store
}

// Filter returns the filter engine.
func (l *List) Filter() *filter.Engine {
	return l.filter
}

// Collapser returns the collapser.
func (l *List) Collapser() *collapse.Collapser {
	return l.collapser
}
