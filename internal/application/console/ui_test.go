package console

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/data/export"
	"github.com/penwyp/go-dirac-console/internal/presentation/display"
	"github.com/penwyp/go-dirac-console/internal/presentation/interaction"
)

func newTestUI(t *testing.T, eval command.Evaluator) (*UI, *Headless, *bytes.Buffer) {
	t.Helper()
	h := NewHeadless(context.Background(), nil, eval)
	var out bytes.Buffer
	u := NewUI(h.Console, display.NewWriterDisplay(&out, 40, 8), false, t.TempDir())
	u.Start()
	return u, h, &out
}

func typeText(u *UI, text string) {
	for _, r := range text {
		u.HandleKey(interaction.KeyEvent{Type: interaction.KeyChar, Key: r})
	}
}

func press(u *UI, typ interaction.KeyType) bool {
	return u.HandleKey(interaction.KeyEvent{Type: typ})
}

func ctrl(u *UI, key rune) bool {
	return u.HandleKey(interaction.KeyEvent{Type: interaction.KeyCtrl, Key: key})
}

func TestUISubmitsTypedCommand(t *testing.T) {
	u, h, out := newTestUI(t, calculator())
	h.SetExecutionContext(1)

	typeText(u, "1+2x")
	press(u, interaction.KeyBackspace)
	press(u, interaction.KeyBackspace)
	typeText(u, "1")
	assert.Equal(t, "1+1", u.frame().Prompt)

	press(u, interaction.KeyEnter)
	require.True(t, h.Settle(2*time.Second))
	h.Advance(constants.ViewportRefreshInterval)

	assert.Empty(t, u.frame().Prompt)
	assert.Equal(t, []visible{{"1+1", 1}, {"2", 1}}, visibleOf(h))
	assert.Contains(t, out.String(), "< 2")
}

func TestUIPromptNavigation(t *testing.T) {
	u, h, _ := newTestUI(t, nil)
	h.SetExecutionContext(1)
	h.Submit(constants.PromptJS, "first")
	h.Submit(constants.PromptJS, "second")

	press(u, interaction.KeyUp)
	assert.Equal(t, "second", u.frame().Prompt)
	press(u, interaction.KeyUp)
	assert.Equal(t, "first", u.frame().Prompt)
	press(u, interaction.KeyDown)
	assert.Equal(t, "second", u.frame().Prompt)

	press(u, interaction.KeyTab)
	f := u.frame()
	assert.Equal(t, constants.PromptDirac, f.PromptLabel)
	assert.Empty(t, f.Prompt)
	assert.Equal(t, "switched console prompt to 'dirac'", u.Notice())

	press(u, interaction.KeyBackTab)
	assert.Equal(t, constants.PromptJS, u.frame().PromptLabel)
}

func TestUIPlaceholderWithoutExecutionContext(t *testing.T) {
	u, _, _ := newTestUI(t, nil)

	assert.Equal(t, "no execution context", u.frame().Placeholder)

	typeText(u, "x")
	press(u, interaction.KeyEnter)
	assert.Equal(t, "no execution context", u.Notice())
}

func TestUISearchMode(t *testing.T) {
	u, h, _ := newTestUI(t, nil)
	h.Apply(added(logAt(1, "apple")), added(logAt(2, "banana")), added(logAt(3, "cherry")))

	ctrl(u, 'f')
	require.Equal(t, ModeSearch, u.Mode())
	typeText(u, "an")

	f := u.frame()
	assert.Equal(t, "search", f.PromptLabel)
	assert.Equal(t, "an", f.Prompt)
	assert.Contains(t, f.Status, "match 1 of 2")

	press(u, interaction.KeyEnter)
	assert.Contains(t, u.frame().Status, "match 2 of 2")

	assert.False(t, press(u, interaction.KeyEscape))
	assert.Equal(t, ModePrompt, u.Mode())
	assert.Equal(t, constants.PromptJS, u.frame().PromptLabel)
}

func TestUIEscapeQuits(t *testing.T) {
	u, _, _ := newTestUI(t, nil)
	assert.True(t, press(u, interaction.KeyEscape))
}

func TestUIPageUpUnsticks(t *testing.T) {
	u, h, _ := newTestUI(t, nil)
	for i := 0; i < 20; i++ {
		h.Apply(added(logAt(float64(i), fmt.Sprintf("line %d", i))))
	}
	h.Advance(constants.ViewportRefreshInterval)
	require.True(t, u.Viewport().IsScrolledToBottom())

	press(u, interaction.KeyPageUp)
	h.Advance(constants.StickToBottomSettleDelay)

	assert.False(t, u.Controller().StickToBottom())
	assert.Contains(t, u.frame().Status, "scrolled")
	assert.Equal(t, "line 8", u.frame().Rows[0])

	press(u, interaction.KeyEnd)
	assert.True(t, u.Controller().StickToBottom())
	assert.True(t, u.Viewport().IsScrolledToBottom())
	assert.NotContains(t, u.frame().Status, "scrolled")
}

func TestUIToggleGroupAndTimestamps(t *testing.T) {
	u, h, _ := newTestUI(t, nil)
	h.Apply(
		added(&model.LogMessage{Source: model.SourceConsoleAPI, Type: model.TypeStartGroup, Level: model.LevelInfo, Text: "group", Timestamp: 1}),
		added(logAt(2, "inside")),
	)
	require.Equal(t, 2, h.List().Len())

	ctrl(u, 'g')
	assert.Equal(t, []visible{{"group", 1}}, visibleOf(h))

	ctrl(u, 't')
	assert.True(t, h.ShowTimestamps())
	assert.True(t, h.Settings().Values().ConsoleTimestampsEnabled)
}

func TestUIClearAndSave(t *testing.T) {
	u, h, _ := newTestUI(t, nil)
	h.Apply(added(logAt(1, "kept")))

	ctrl(u, 's')
	require.True(t, h.Clock.WaitForPost(2*time.Second))
	h.Clock.Drain()
	assert.Contains(t, u.Notice(), "saved 1 entries")
	assert.Nil(t, u.saving)

	files, err := filepath.Glob(filepath.Join(u.exportDir, "console-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data))

	ctrl(u, 'l')
	assert.Empty(t, h.Entries())
}

func TestUIEscapeCancelsSave(t *testing.T) {
	u, _, _ := newTestUI(t, nil)
	progress := &export.Progress{}
	u.saving = progress

	assert.False(t, press(u, interaction.KeyEscape), "Esc cancels the save instead of quitting")
	assert.True(t, progress.Canceled())
	assert.Equal(t, "cancelling save", u.Notice())

	ctrl(u, 's')
	assert.Contains(t, u.Notice(), "save in progress")
	assert.Same(t, progress, u.saving)

	u.saved(progress, "out.log", 350, nil)
	assert.Nil(t, u.saving)
	assert.Equal(t, "save cancelled after 350 entries (out.log)", u.Notice())
	assert.True(t, press(u, interaction.KeyEscape))
}

func TestUIResizeIsNoopForWriterDisplay(t *testing.T) {
	u, _, out := newTestUI(t, nil)
	before := out.Len()
	u.Resize()
	assert.Equal(t, before, out.Len())
}
