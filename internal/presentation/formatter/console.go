package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/util"
)

const timestampLayout = "15:04:05.000"

// Styles holds the colours used for console entries.
type Styles struct {
	Verbose   lipgloss.Style
	Info      lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Command   lipgloss.Style
	Dirac     lipgloss.Style
	Markup    lipgloss.Style
	Meta      lipgloss.Style
	Badge     lipgloss.Style
	Match     lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Verbose:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
		Info:      lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Command:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Dirac:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		Markup:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Italic(true),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
		Badge:     lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("245")),
		Match:     lipgloss.NewStyle().Background(lipgloss.Color("58")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("220")),
	}
}

// Text returns the style of the entry's message text.
func (s Styles) Text(e *model.ViewEntry) lipgloss.Style {
	switch e.Kind {
	case model.KindCommand:
		return s.Command
	case model.KindDiracCommand:
		return s.Dirac
	case model.KindDiracMarkup:
		return s.Markup
	}
	switch e.Message.Level {
	case model.LevelVerbose:
		return s.Verbose
	case model.LevelWarning:
		return s.Warning
	case model.LevelError:
		return s.Error
	}
	return s.Info
}

type segment struct {
	text  string
	style lipgloss.Style
	plain bool
}

// Renderer turns view entries into terminal rows.
type Renderer struct {
	Styles     Styles
	Timestamps bool
	Color      bool
}

// NewRenderer creates a renderer with the default styles.
func NewRenderer(timestamps, color bool) *Renderer {
	return &Renderer{Styles: DefaultStyles(), Timestamps: timestamps, Color: color}
}

func marker(e *model.ViewEntry) string {
	switch e.Kind {
	case model.KindCommand:
		return "> "
	case model.KindDiracCommand:
		return "λ "
	case model.KindResult:
		return "< "
	case model.KindGroupStart:
		if e.Collapsed {
			return "▸ "
		}
		return "▾ "
	}
	return ""
}

// segments lays the entry out as one logical text: head, message text with
// search ranges split out, and the source location.
func (r *Renderer) segments(e *model.ViewEntry) []segment {
	var head strings.Builder
	if r.Timestamps && e.Message.Timestamp > 0 {
		head.WriteString(util.GetTimeProvider().FormatMillis(e.Message.Timestamp, timestampLayout))
		head.WriteString(" ")
	}
	head.WriteString(strings.Repeat("  ", e.NestingLevel))
	head.WriteString(marker(e))
	indent := strings.Repeat(" ", runewidth.StringWidth(head.String()))

	segs := []segment{{text: head.String(), style: r.Styles.Meta}}
	if e.RepeatCount > 1 {
		segs = append(segs,
			segment{text: fmt.Sprintf(" %d ", e.RepeatCount), style: r.Styles.Badge},
			segment{text: " ", plain: true})
	}

	text := e.Message.Text
	base := r.Styles.Text(e)
	pos := 0
	emit := func(s string, style lipgloss.Style) {
		for i, line := range strings.Split(s, "\n") {
			if i > 0 {
				segs = append(segs, segment{text: "\n" + indent, plain: true})
			}
			if line != "" {
				segs = append(segs, segment{text: line, style: style})
			}
		}
	}
	for i, rg := range e.SearchRanges {
		if rg.Start < pos || rg.End > len(text) {
			continue
		}
		emit(text[pos:rg.Start], base)
		style := r.Styles.Match
		if i == e.HighlightedMatch {
			style = r.Styles.Highlight
		}
		emit(text[rg.Start:rg.End], style)
		pos = rg.End
	}
	emit(text[pos:], base)

	if e.Message.URL != "" {
		loc := filter.DisplayName(e.Message.URL)
		if e.Message.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Message.Line)
		}
		segs = append(segs, segment{text: "  " + loc, style: r.Styles.Meta})
	}
	return segs
}

// Plain renders the entry without colour and without wrapping.
func (r *Renderer) Plain(e *model.ViewEntry) string {
	var b strings.Builder
	for _, s := range r.segments(e) {
		b.WriteString(s.text)
	}
	return b.String()
}

// Rows renders the entry wrapped to width columns.
func (r *Renderer) Rows(e *model.ViewEntry, width int) []string {
	var rows []string
	for _, row := range wrap(r.segments(e), width) {
		var b strings.Builder
		for _, s := range row {
			if r.Color && !s.plain {
				b.WriteString(s.style.Render(s.text))
			} else {
				b.WriteString(s.text)
			}
		}
		rows = append(rows, b.String())
	}
	return rows
}

// Height returns how many rows the entry occupies at width.
func (r *Renderer) Height(e *model.ViewEntry, width int) int {
	return len(wrap(r.segments(e), width))
}

// wrap splits segments into rows of at most width columns, breaking at
// newlines and wherever a rune would overflow.
func wrap(segs []segment, width int) [][]segment {
	rows := [][]segment{nil}
	col := 0
	for _, s := range segs {
		var cur strings.Builder
		flush := func() {
			if cur.Len() > 0 {
				rows[len(rows)-1] = append(rows[len(rows)-1], segment{text: cur.String(), style: s.style, plain: s.plain})
				cur.Reset()
			}
		}
		for _, c := range s.text {
			if c == '\n' {
				flush()
				rows = append(rows, nil)
				col = 0
				continue
			}
			w := runewidth.RuneWidth(c)
			if width > 0 && col+w > width && col > 0 {
				flush()
				rows = append(rows, nil)
				col = 0
			}
			cur.WriteRune(c)
			col += w
		}
		flush()
	}
	return rows
}
