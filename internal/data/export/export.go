// Package export writes the visible console log to a text sink.
package export

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Source is the list being exported.
type Source interface {
	Len() int
	At(i int) *model.ViewEntry
}

// Opener creates the sink for an export.
type Opener interface {
	Open(name string) (io.WriteCloser, error)
}

// DirOpener creates files in a directory.
type DirOpener struct {
	Dir string
}

func (o DirOpener) Open(name string) (io.WriteCloser, error) {
	dir := o.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(dir, name))
}

// WriterOpener hands out a fixed writer, which is not closed.
type WriterOpener struct {
	W io.Writer
}

func (o WriterOpener) Open(string) (io.WriteCloser, error) {
	return nopCloser{o.W}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Progress tracks an export and lets another goroutine cancel it.
type Progress struct {
	mu       sync.Mutex
	total    int
	worked   int
	canceled bool
	done     bool
}

func (p *Progress) Cancel() {
	p.mu.Lock()
	p.canceled = true
	p.mu.Unlock()
}

func (p *Progress) Canceled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canceled
}

// Snapshot returns total, worked and done.
func (p *Progress) Snapshot() (total, worked int, done bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total, p.worked, p.done
}

func (p *Progress) set(fn func(p *Progress)) {
	p.mu.Lock()
	fn(p)
	p.mu.Unlock()
}

// FileName builds "<host>-<unix ms>.log", or "console-<unix ms>.log" when
// the inspected page has no host.
func FileName(pageURL string, now time.Time) string {
	host := "console"
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return fmt.Sprintf("%s-%d.log", host, now.UnixMilli())
}

// Lines snapshots the export text of every entry of src, one element per
// entry; collapsed repeats expand to several lines inside the element.
func Lines(src Source) []string {
	lines := make([]string, src.Len())
	for i := range lines {
		lines[i] = src.At(i).ExportString()
	}
	return lines
}

// Save writes lines to a sink opened under name, in chunks. It stops early
// when ctx is done or progress is cancelled; chunks already written stay.
// It returns the number of entries written.
func Save(ctx context.Context, lines []string, opener Opener, name string, progress *Progress) (int, error) {
	if progress == nil {
		progress = &Progress{}
	}
	progress.set(func(p *Progress) { p.total = len(lines) })
	defer progress.set(func(p *Progress) { p.done = true })

	w, err := opener.Open(name)
	if err != nil {
		return 0, fmt.Errorf("failed to open export %s: %w", name, err)
	}
	defer w.Close()

	written := 0
	for written < len(lines) {
		if ctx.Err() != nil || progress.Canceled() {
			util.LogInfof("Export of %s cancelled after %d entries", name, written)
			break
		}
		end := written + constants.ExportChunkSize
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.Join(lines[written:end], "\n") + "\n"
		if _, err := io.WriteString(w, chunk); err != nil {
			return written, fmt.Errorf("failed to write export %s: %w", name, err)
		}
		written = end
		progress.set(func(p *Progress) { p.worked = written })
	}
	return written, nil
}
