package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/util"
)

var tableLevels = []model.Level{model.LevelVerbose, model.LevelInfo, model.LevelWarning, model.LevelError}

// TableWriter summarizes entries per source URL, with one column per level.
// Collapsed repeats count once per occurrence.
type TableWriter struct{}

func NewTableWriter() *TableWriter {
	return &TableWriter{}
}

type sourceRow struct {
	name   string
	counts [4]int
	total  int
}

func (f *TableWriter) Write(w io.Writer, entries []*model.ViewEntry) error {
	rows := summarize(entries)

	headers := []string{"Source", "Verbose", "Info", "Warning", "Error", "Total"}
	var totals sourceRow
	totals.name = "Total"
	for _, r := range rows {
		for i := range r.counts {
			totals.counts[i] += r.counts[i]
		}
		totals.total += r.total
	}

	widths := make([]int, len(headers))
	measure := func(values []string) {
		for i, v := range values {
			if n := runewidth.StringWidth(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(r.values())
	}
	measure(totals.values())

	var b strings.Builder
	printBorder(&b, widths, "top")
	printRow(&b, headers, widths)
	printBorder(&b, widths, "middle")
	for _, r := range rows {
		printRow(&b, r.values(), widths)
	}
	printBorder(&b, widths, "middle")
	printRow(&b, totals.values(), widths)
	printBorder(&b, widths, "bottom")

	_, err := io.WriteString(w, b.String())
	return err
}

func summarize(entries []*model.ViewEntry) []sourceRow {
	byName := make(map[string]*sourceRow)
	for _, e := range entries {
		if e.Kind == model.KindGroupEnd {
			continue
		}
		name := "(console)"
		if e.Message.URL != "" {
			name = filter.DisplayName(e.Message.URL)
		}
		r, ok := byName[name]
		if !ok {
			r = &sourceRow{name: name}
			byName[name] = r
		}
		n := e.RepeatCount
		if n < 1 {
			n = 1
		}
		for i, l := range tableLevels {
			if e.Message.Level == l {
				r.counts[i] += n
			}
		}
		r.total += n
	}

	rows := make([]sourceRow, 0, len(byName))
	for _, r := range byName {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].total != rows[j].total {
			return rows[i].total > rows[j].total
		}
		return rows[i].name < rows[j].name
	})
	return rows
}

func (r sourceRow) values() []string {
	values := []string{r.name}
	for _, c := range r.counts {
		values = append(values, util.FormatNumber(c))
	}
	return append(values, util.FormatNumber(r.total))
}

// printBorder prints table borders (top, middle, bottom)
func printBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right + "\n")
}

// printRow left-aligns the first column and right-aligns the counts.
func printRow(b *strings.Builder, values []string, widths []int) {
	b.WriteString("│")
	for i, value := range values {
		pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(value))
		if i == 0 {
			fmt.Fprintf(b, " %s%s │", value, pad)
		} else {
			fmt.Fprintf(b, " %s%s │", pad, value)
		}
	}
	b.WriteString("\n")
}
