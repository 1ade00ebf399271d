package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
)

type entries []*model.ViewEntry

func (s entries) Len() int                  { return len(s) }
func (s entries) At(i int) *model.ViewEntry { return s[i] }

// countingWriter cancels the export after its first write.
type countingWriter struct {
	bytes.Buffer
	writes   int
	progress *Progress
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.progress != nil {
		w.progress.Cancel()
	}
	return w.Buffer.Write(p)
}

type failingOpener struct{}

func (failingOpener) Open(string) (io.WriteCloser, error) { return nil, errors.New("denied") }

func makeLines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprint(i)
	}
	return out
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com:8080/app", "example.com-1700000000123.log"},
		{"", "console-1700000000123.log"},
		{"not a url", "console-1700000000123.log"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.url, now))
		})
	}
}

func TestLinesExpandRepeats(t *testing.T) {
	e := model.NewViewEntry(1, &model.LogMessage{Text: "again"}, 0)
	e.RepeatCount = 3
	src := entries{model.NewViewEntry(2, &model.LogMessage{Text: "once"}, 0), e}
	assert.Equal(t, []string{"once", "again\nagain\nagain"}, Lines(src))
}

func TestSaveWritesChunks(t *testing.T) {
	lines := makeLines(constants.ExportChunkSize*2 + 10)
	w := &countingWriter{}
	p := &Progress{}

	n, err := Save(context.Background(), lines, WriterOpener{W: w}, "x.log", p)
	require.NoError(t, err)
	assert.Equal(t, len(lines), n)
	assert.Equal(t, 3, w.writes)
	assert.Equal(t, strings.Join(lines, "\n")+"\n", w.String())

	total, worked, done := p.Snapshot()
	assert.Equal(t, len(lines), total)
	assert.Equal(t, len(lines), worked)
	assert.True(t, done)
}

func TestSaveStopsWhenCancelled(t *testing.T) {
	lines := makeLines(constants.ExportChunkSize * 3)
	p := &Progress{}
	w := &countingWriter{progress: p}

	n, err := Save(context.Background(), lines, WriterOpener{W: w}, "x.log", p)
	require.NoError(t, err)
	assert.Equal(t, constants.ExportChunkSize, n)
	assert.Equal(t, 1, w.writes)
}

func TestSaveOpenFailure(t *testing.T) {
	p := &Progress{}
	n, err := Save(context.Background(), makeLines(3), failingOpener{}, "x.log", p)
	assert.Error(t, err)
	assert.Zero(t, n)
	_, _, done := p.Snapshot()
	assert.True(t, done)
}

func TestDirOpener(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	_, err := Save(context.Background(), []string{"a", "b"}, DirOpener{Dir: dir}, "c.log", nil)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "c.log"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}
