package collapse

import (
	"testing"

	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func newEntry(typ model.Type, text string) *model.ViewEntry {
	return model.NewViewEntry(1, &model.LogMessage{Type: typ, Text: text}, 0)
}

func TestTryCollapse(t *testing.T) {
	tests := []struct {
		name       string
		timestamps bool
		candidate  *model.ViewEntry
		last       *model.ViewEntry
		want       bool
	}{
		{"equal messages", false, newEntry(model.TypeLog, "a"), newEntry(model.TypeLog, "a"), true},
		{"different text", false, newEntry(model.TypeLog, "a"), newEntry(model.TypeLog, "b"), false},
		{"timestamps shown", true, newEntry(model.TypeLog, "a"), newEntry(model.TypeLog, "a"), false},
		{"no last entry", false, newEntry(model.TypeLog, "a"), nil, false},
		{"group start candidate", false, newEntry(model.TypeStartGroup, "g"), newEntry(model.TypeStartGroup, "g"), false},
		{"group end last", false, newEntry(model.TypeEndGroup, ""), newEntry(model.TypeEndGroup, ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.timestamps)
			assert.Equal(t, tt.want, c.TryCollapse(tt.candidate, tt.last))
			if tt.last != nil {
				want := 1
				if tt.want {
					want = 2
				}
				assert.Equal(t, want, tt.last.RepeatCount)
			}
		})
	}
}

func TestRepeatedCollapseCounts(t *testing.T) {
	c := New(false)
	last := newEntry(model.TypeLog, "x")
	for i := 0; i < 9; i++ {
		assert.True(t, c.TryCollapse(newEntry(model.TypeLog, "x"), last))
	}
	assert.Equal(t, 10, last.RepeatCount)
}
