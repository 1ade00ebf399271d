package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	EnterAlternateScreen = "\033[?1049h"
	ExitAlternateScreen  = "\033[?1049l"
	ClearScreen          = "\033[2J"     // Clear entire screen
	ClearLineFromCursor  = "\033[0K"     // Clear from cursor to end of line
	ClearToEndOfScreen   = "\033[J"      // Clear from cursor to end of screen
	ClearScrollback      = "\033[3J"     // Clear scrollback buffer
	ResetScrollRegion    = "\033[r"      // Reset scroll region
	DisableScrollback    = "\033[?1007h" // Disable scrollback
	EnableScrollback     = "\033[?1007l" // Enable scrollback
	MoveCursorHome       = "\033[H"      // Move cursor to home position
	HideCursor           = "\033[?25l"   // Hide cursor
	ShowCursor           = "\033[?25h"   // Show cursor
)

// GetDisplayWidth calculates the actual display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate cuts text to width columns, ending with an ellipsis when cut.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// PadRight fills text with spaces up to width columns.
func PadRight(text string, width int) string {
	if n := width - runewidth.StringWidth(text); n > 0 {
		return text + strings.Repeat(" ", n)
	}
	return text
}

// MoveCursor returns ANSI sequence to move cursor to specific position
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}
