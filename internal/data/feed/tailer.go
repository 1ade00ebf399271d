package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-dirac-console/internal/util"
)

// Tailer follows feed files matching a set of globs. Existing content is
// replayed first; appended lines are emitted as they are written.
type Tailer struct {
	patterns []string
	emit     Handler
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]*tailedFile
}

type tailedFile struct {
	info    *util.FileInfo
	offset  int64
	partial []byte
}

// NewTailer creates a tailer for patterns. Events go to emit from the
// tailer's goroutine.
func NewTailer(patterns []string, emit Handler) (*Tailer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Tailer{
		patterns: patterns,
		emit:     emit,
		watcher:  watcher,
		files:    make(map[string]*tailedFile),
	}, nil
}

// Start replays matching files and then follows them until ctx is done.
func (t *Tailer) Start(ctx context.Context) error {
	defer t.watcher.Close()

	dirs := make(map[string]bool)
	for _, pattern := range t.patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		dirs[filepath.FromSlash(base)] = true

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		for _, m := range matches {
			dirs[filepath.Dir(m)] = true
			t.readNew(m)
		}
	}
	for dir := range dirs {
		if err := t.watcher.Add(dir); err != nil {
			util.LogWarnf("Cannot watch %s: %v", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			t.handle(ev)
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (t *Tailer) handle(ev fsnotify.Event) {
	if !t.matches(ev.Name) {
		return
	}
	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		t.readNew(ev.Name)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		t.mu.Lock()
		delete(t.files, ev.Name)
		t.mu.Unlock()
	}
}

func (t *Tailer) matches(path string) bool {
	for _, pattern := range t.patterns {
		if pattern == path {
			return true
		}
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
	}
	return false
}

// readNew emits the complete lines written since the last read. A trailing
// line without newline is kept until it is completed.
func (t *Tailer) readNew(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tf, ok := t.files[path]
	if !ok {
		tf = &tailedFile{}
		t.files[path] = tf
	}

	f, err := os.Open(path)
	if err != nil {
		util.LogDebugf("Cannot open %s: %v", path, err)
		return
	}
	defer f.Close()

	if stat, err := f.Stat(); err == nil {
		info, err := util.NewFileInfo(stat)
		switch {
		case err != nil:
		case tf.info != nil && !tf.info.SameFile(info):
			util.LogInfof("Feed %s was replaced, reading from the start", path)
			tf.offset = 0
			tf.partial = nil
		case info.Size < tf.offset:
			util.LogInfof("Feed %s was truncated, reading from the start", path)
			tf.offset = 0
			tf.partial = nil
		}
		if err == nil {
			tf.info = info
		}
	}
	if _, err := f.Seek(tf.offset, io.SeekStart); err != nil {
		util.LogDebugf("Cannot seek %s: %v", path, err)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		util.LogDebugf("Read error on %s: %v", path, err)
	}
	tf.offset += int64(len(data))

	buf := append(tf.partial, data...)
	tf.partial = nil
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(buf[:i])
		buf = buf[i+1:]
		if len(line) == 0 {
			continue
		}
		ev, err := Decode(line)
		if err != nil {
			util.LogDebugf("Skip invalid event in %s - %v", path, err)
			continue
		}
		t.emit(ev)
	}
	if len(buf) > 0 {
		tf.partial = append([]byte(nil), buf...)
	}
}

// Offset returns how many bytes of path have been consumed.
func (t *Tailer) Offset(path string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tf, ok := t.files[path]; ok {
		return tf.offset - int64(len(tf.partial))
	}
	return 0
}
