// Package viewport exposes the visible console list to a scrolling
// component and keeps that component pinned to the newest entry.
package viewport

import (
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
)

// Items is the visible list.
type Items interface {
	Len() int
	At(i int) *model.ViewEntry
}

// Adapter provides count, item and height lookups over the visible list
// only, never the whole store.
type Adapter struct {
	items    Items
	renderer *formatter.Renderer
	width    int
}

// NewAdapter creates an adapter that measures entries at width columns.
func NewAdapter(items Items, r *formatter.Renderer, width int) *Adapter {
	return &Adapter{items: items, renderer: r, width: width}
}

// SetWidth changes the wrap width used by EstimatedHeight.
func (a *Adapter) SetWidth(width int) {
	a.width = width
}

func (a *Adapter) Width() int {
	return a.width
}

func (a *Adapter) Count() int {
	return a.items.Len()
}

func (a *Adapter) EntryAt(i int) *model.ViewEntry {
	return a.items.At(i)
}

// EstimatedHeight returns the rows entry i takes at the current width.
func (a *Adapter) EstimatedHeight(i int) int {
	e := a.items.At(i)
	if e == nil {
		return a.MinimumRowHeight()
	}
	return max(a.renderer.Height(e, a.width), a.MinimumRowHeight())
}

func (a *Adapter) MinimumRowHeight() int {
	return constants.MinimumRowHeight
}

// Rows renders entry i.
func (a *Adapter) Rows(i int) []string {
	e := a.items.At(i)
	if e == nil {
		return nil
	}
	return a.renderer.Rows(e, a.width)
}
