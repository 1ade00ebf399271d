package command

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryPush(t *testing.T) {
	h := NewHistory(3)
	for _, s := range []string{"a", "", "b", "b", "c", "d"} {
		h.Push(s)
	}
	assert.Equal(t, []string{"b", "c", "d"}, h.Items())
	assert.Equal(t, []string{"c", "d"}, h.Tail(2))
	assert.Equal(t, []string{"b", "c", "d"}, h.Tail(10))

	h.Push("c")
	assert.Equal(t, []string{"c", "d", "c"}, h.Items(), "only immediate repeats are skipped")
}

func TestHistoryRestoreKeepsNewest(t *testing.T) {
	h := NewHistory(300)
	var items []string
	for i := 0; i < 310; i++ {
		items = append(items, fmt.Sprint(i))
	}
	h.Restore(items)
	assert.Equal(t, 300, h.Len())
	assert.Equal(t, "10", h.Items()[0])

	h.Clear()
	assert.Zero(t, h.Len())
	_, ok := h.Previous("")
	assert.False(t, ok)
}

func TestHistoryNavigationResetsOnPush(t *testing.T) {
	h := NewHistory(10)
	h.Push("one")
	h.Push("two")

	got, _ := h.Previous("")
	assert.Equal(t, "two", got)
	h.Push("three")

	got, _ = h.Previous("typing")
	assert.Equal(t, "three", got)
	got, _ = h.Next()
	assert.Equal(t, "typing", got)
}
