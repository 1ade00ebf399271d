package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// JSONWriter writes one Record per line.
type JSONWriter struct{}

func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

func (f *JSONWriter) Write(w io.Writer, entries []*model.ViewEntry) error {
	encoder := sonic.ConfigStd.NewEncoder(w)
	for _, e := range entries {
		if err := encoder.Encode(NewRecord(e)); err != nil {
			return err
		}
	}
	return nil
}

// TextWriter writes each entry through the renderer without wrapping.
type TextWriter struct {
	Renderer *Renderer
}

func (f *TextWriter) Write(w io.Writer, entries []*model.ViewEntry) error {
	for _, e := range entries {
		if _, err := io.WriteString(w, f.line(e)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextWriter) line(e *model.ViewEntry) string {
	if !f.Renderer.Color {
		return f.Renderer.Plain(e)
	}
	rows := f.Renderer.Rows(e, 0)
	out := rows[0]
	for _, row := range rows[1:] {
		out += "\n" + row
	}
	return out
}
