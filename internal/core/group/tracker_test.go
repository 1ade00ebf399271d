package group

import (
	"testing"

	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func start(collapsed bool) *model.ViewEntry {
	typ := model.TypeStartGroup
	if collapsed {
		typ = model.TypeStartGroupCollapsed
	}
	return model.NewViewEntry(1, &model.LogMessage{Type: typ}, 0)
}

func TestTrackerNesting(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, 0, tr.Depth())
	assert.False(t, tr.Hidden())

	tr.Enter(start(false))
	assert.Equal(t, 1, tr.Depth())
	tr.Enter(start(false))
	assert.Equal(t, 2, tr.Depth())

	assert.True(t, tr.Exit())
	assert.True(t, tr.Exit())
	assert.Equal(t, 0, tr.Depth())
}

func TestUnmatchedExitIsNoop(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.Exit())
	assert.False(t, tr.Exit())
	assert.Equal(t, 0, tr.Depth())
	assert.Nil(t, tr.Current().Start())
}

func TestHiddenIsInheritedDownTheTree(t *testing.T) {
	tests := []struct {
		name       string
		collapsed  []bool
		wantHidden []bool
	}{
		{"expanded chain", []bool{false, false, false}, []bool{false, false, false}},
		{"collapsed outer", []bool{true, false, false}, []bool{true, true, true}},
		{"collapsed middle", []bool{false, true, false}, []bool{false, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			for i, c := range tt.collapsed {
				g := tr.Enter(start(c))
				assert.Equal(t, tt.wantHidden[i], g.Hidden())
				assert.Equal(t, tt.wantHidden[i], tr.Hidden())
				assert.Equal(t, i+1, g.Level())
			}
		})
	}
}

func TestResetReturnsToRoot(t *testing.T) {
	tr := NewTracker()
	tr.Enter(start(true))
	tr.Reset()
	assert.Equal(t, 0, tr.Depth())
	assert.False(t, tr.Hidden())
}
