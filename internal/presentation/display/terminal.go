package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/penwyp/go-dirac-console/internal/util"
)

// Frame is one screen: the console rows, a status bar and the prompt line.
type Frame struct {
	Rows        []string
	Status      string
	Notice      string
	PromptLabel string
	Prompt      string
	Placeholder string
}

type TerminalDisplay struct {
	out               io.Writer
	fd                int
	width             int
	height            int
	inAlternateScreen bool
	previousScreen    []string

	statusStyle      lipgloss.Style
	labelStyle       lipgloss.Style
	placeholderStyle lipgloss.Style
}

// NewTerminalDisplay draws on f, sizing itself from the terminal.
func NewTerminalDisplay(f *os.File) *TerminalDisplay {
	td := newTerminalDisplay(f, 80, 24)
	td.fd = int(f.Fd())
	td.UpdateSize()
	return td
}

// NewWriterDisplay draws on w with a fixed size.
func NewWriterDisplay(w io.Writer, width, height int) *TerminalDisplay {
	return newTerminalDisplay(w, width, height)
}

func newTerminalDisplay(w io.Writer, width, height int) *TerminalDisplay {
	return &TerminalDisplay{
		out:              w,
		fd:               -1,
		width:            width,
		height:           height,
		statusStyle:      lipgloss.NewStyle().Reverse(true),
		labelStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		placeholderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
	}
}

// UpdateSize re-reads the terminal size and reports whether it changed.
func (td *TerminalDisplay) UpdateSize() bool {
	if td.fd < 0 {
		return false
	}
	w, h, err := term.GetSize(td.fd)
	if err != nil || w <= 0 || h <= 0 {
		util.LogDebugf("Failed to read terminal size: %v", err)
		return false
	}
	if w == td.width && h == td.height {
		return false
	}
	td.width, td.height = w, h
	td.previousScreen = nil
	return true
}

func (td *TerminalDisplay) Width() int {
	return td.width
}

// BodyHeight is the number of rows left for console entries.
func (td *TerminalDisplay) BodyHeight() int {
	return max(td.height-2, 1)
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.EnterAlternateScreen+util.ClearScreen+util.MoveCursorHome+
		util.ClearScrollback+util.ResetScrollRegion+util.DisableScrollback)
	td.inAlternateScreen = true
	td.previousScreen = nil
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen+util.MoveCursorHome+util.EnableScrollback+
		util.ShowCursor+util.ExitAlternateScreen)
	td.inAlternateScreen = false
}

// Render draws f, rewriting only the lines that changed since the last
// frame, and leaves the cursor at the end of the prompt.
func (td *TerminalDisplay) Render(f Frame) {
	lines := td.compose(f)

	full := td.previousScreen == nil

	var b strings.Builder
	b.WriteString(util.HideCursor)
	for i, line := range lines {
		if i < len(td.previousScreen) && td.previousScreen[i] == line {
			continue
		}
		b.WriteString(util.MoveCursor(i+1, 1))
		b.WriteString(line)
		b.WriteString(util.ClearLineFromCursor)
	}
	// A full redraw also wipes rows left over from a taller frame.
	if full {
		b.WriteString(util.ClearToEndOfScreen)
	}
	col := util.GetDisplayWidth(promptPrefix(f.PromptLabel)) + util.GetDisplayWidth(f.Prompt) + 1
	b.WriteString(util.MoveCursor(len(lines), min(col, td.width)))
	b.WriteString(util.ShowCursor)

	td.previousScreen = lines
	fmt.Fprint(td.out, b.String())
}

func promptPrefix(label string) string {
	return label + "> "
}

func (td *TerminalDisplay) compose(f Frame) []string {
	body := td.BodyHeight()
	lines := make([]string, 0, body+2)
	rows := f.Rows
	if len(rows) > body {
		rows = rows[len(rows)-body:]
	}
	lines = append(lines, rows...)
	for len(lines) < body {
		lines = append(lines, "")
	}

	status := f.Status
	if f.Notice != "" {
		gap := td.width - util.GetDisplayWidth(status) - util.GetDisplayWidth(f.Notice)
		if gap < 1 {
			status = util.Truncate(status, max(td.width-util.GetDisplayWidth(f.Notice)-1, 0))
			gap = 1
		}
		status += strings.Repeat(" ", gap) + f.Notice
	}
	lines = append(lines, td.statusStyle.Render(util.PadRight(util.Truncate(status, td.width), td.width)))

	prompt := td.labelStyle.Render(promptPrefix(f.PromptLabel))
	if f.Prompt == "" && f.Placeholder != "" {
		prompt += td.placeholderStyle.Render(f.Placeholder)
	} else {
		prompt += f.Prompt
	}
	return append(lines, prompt)
}

// Invalidate forces the next Render to redraw every line.
func (td *TerminalDisplay) Invalidate() {
	td.previousScreen = nil
}
