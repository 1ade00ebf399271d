package formatter

import (
	"io"

	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// Record is the flat shape of a view entry written by the JSON writer.
type Record struct {
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	Level       string  `json:"level"`
	Source      string  `json:"source"`
	Text        string  `json:"text"`
	URL         string  `json:"url,omitempty"`
	Line        int     `json:"line,omitempty"`
	Timestamp   float64 `json:"timestamp"`
	Repeat      int     `json:"repeat"`
	Nesting     int     `json:"nesting,omitempty"`
	Originating int64   `json:"originating,omitempty"`
	Matches     int     `json:"matches,omitempty"`
}

// NewRecord flattens e.
func NewRecord(e *model.ViewEntry) Record {
	return Record{
		ID:          e.ID,
		Kind:        e.Kind.String(),
		Level:       e.Message.Level.String(),
		Source:      e.Message.Source.String(),
		Text:        e.Message.Text,
		URL:         e.Message.URL,
		Line:        e.Message.Line,
		Timestamp:   e.Message.Timestamp,
		Repeat:      e.RepeatCount,
		Nesting:     e.NestingLevel,
		Originating: e.Message.OriginatingID(),
		Matches:     len(e.SearchRanges),
	}
}

// Writer prints a batch of visible entries.
type Writer interface {
	Write(w io.Writer, entries []*model.ViewEntry) error
}

// NewWriter returns the writer for format: "text", "json" or "table".
func NewWriter(format string, r *Renderer) (Writer, bool) {
	switch format {
	case "", "text":
		return &TextWriter{Renderer: r}, true
	case "json":
		return &JSONWriter{}, true
	case "table":
		return &TableWriter{}, true
	}
	return nil, false
}
