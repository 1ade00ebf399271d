// Package group tracks console.group nesting while the visible list is built.
package group

import "github.com/penwyp/go-dirac-console/internal/core/model"

// Group is one level of console.group nesting. Children point at their
// parent; parents never reference children.
type Group struct {
	parent *Group
	level  int
	hidden bool
	start  *model.ViewEntry
}

// Level returns the nesting level. The root group is level 0.
func (g *Group) Level() int { return g.level }

// Hidden reports whether entries in this group are suppressed.
func (g *Group) Hidden() bool { return g.hidden }

// Start returns the entry that opened the group, nil for the root.
func (g *Group) Start() *model.ViewEntry { return g.start }

// Tracker is the current position in the group tree.
type Tracker struct {
	root    *Group
	current *Group
}

// NewTracker creates a tracker positioned at the root group.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset discards every group and returns to a fresh root.
func (t *Tracker) Reset() {
	t.root = &Group{}
	t.current = t.root
}

// Enter opens a group for a group-start entry. The new group is hidden when
// the entry is collapsed or its parent is hidden.
func (t *Tracker) Enter(start *model.ViewEntry) *Group {
	g := &Group{
		parent: t.current,
		level:  t.current.level + 1,
		hidden: start.Collapsed || t.current.hidden,
		start:  start,
	}
	t.current = g
	return g
}

// Exit closes the current group. At the root it does nothing and reports false.
func (t *Tracker) Exit() bool {
	if t.current.parent == nil {
		return false
	}
	t.current = t.current.parent
	return true
}

// Hidden reports whether entries appended now are suppressed.
func (t *Tracker) Hidden() bool {
	return t.current.hidden
}

// Depth returns the nesting level of the current group.
func (t *Tracker) Depth() int {
	return t.current.level
}

// Current returns the innermost open group.
func (t *Tracker) Current() *Group {
	return t.current
}
