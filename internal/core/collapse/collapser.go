// Package collapse folds consecutive identical console messages into a repeat count.
package collapse

import "github.com/penwyp/go-dirac-console/internal/core/model"

// Collapser merges a candidate into the last visible entry when both carry
// the same message. Repeats are never folded while timestamps are shown,
// since each occurrence then has distinct output.
type Collapser struct {
	showTimestamps bool
}

// New creates a collapser.
func New(showTimestamps bool) *Collapser {
	return &Collapser{showTimestamps: showTimestamps}
}

// SetShowTimestamps changes whether timestamps are displayed.
func (c *Collapser) SetShowTimestamps(show bool) {
	c.showTimestamps = show
}

// ShowTimestamps reports whether timestamps are displayed.
func (c *Collapser) ShowTimestamps() bool {
	return c.showTimestamps
}

// TryCollapse increments last's repeat count and returns true when candidate
// repeats it.
func (c *Collapser) TryCollapse(candidate, last *model.ViewEntry) bool {
	if c.showTimestamps || last == nil || candidate == nil {
		return false
	}
	if candidate.Message.IsGroupMarker() || last.Message.IsGroupMarker() {
		return false
	}
	if !candidate.Message.Equal(last.Message) {
		return false
	}
	last.RepeatCount++
	return true
}
