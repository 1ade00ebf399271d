package feed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/penwyp/go-dirac-console/internal/util"
)

const maxLineSize = 10 * 1024 * 1024

// Reader loads JSONL feeds.
type Reader struct {
	concurrency int
}

// ReadResult is the outcome of reading one file.
type ReadResult struct {
	File   string
	Events []Event
	Error  error
}

// NewReader creates a reader that parses up to concurrency files at once.
func NewReader(concurrency int) *Reader {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Reader{concurrency: concurrency}
}

// Scan decodes every line of r and hands valid events to emit. Invalid lines
// are skipped. It returns the number of events emitted.
func Scan(r io.Reader, name string, emit Handler) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineCount := 0
	valid := 0
	for scanner.Scan() {
		lineCount++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := Decode(line)
		if err != nil {
			util.LogDebugf("Skip invalid event %s:%d - %v", name, lineCount, err)
			continue
		}
		emit(ev)
		valid++
	}
	if err := scanner.Err(); err != nil {
		return valid, fmt.Errorf("failed to scan %s: %w", name, err)
	}
	return valid, nil
}

// ReadFile returns the events of one feed file in order.
func (r *Reader) ReadFile(path string) ([]Event, error) {
	util.LogDebugf("Start reading feed: %s", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed %s: %w", path, err)
	}
	defer file.Close()

	var events []Event
	if _, err := Scan(file, path, func(ev Event) { events = append(events, ev) }); err != nil {
		return nil, err
	}
	return events, nil
}

// ReadFiles parses files concurrently. Results arrive in completion order.
func (r *Reader) ReadFiles(files []string) <-chan ReadResult {
	start := time.Now()
	results := make(chan ReadResult, len(files))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			events, err := r.ReadFile(f)
			if err != nil {
				util.LogDebugf("Feed read failed: %s - %v", f, err)
			}
			results <- ReadResult{File: f, Events: events, Error: err}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebugf("Read %d feeds in %v", len(files), time.Since(start))
	}()
	return results
}

// ReadAll expands patterns and returns the events of every matching file,
// files in lexical order and events in file order.
func (r *Reader) ReadAll(patterns []string) ([]Event, error) {
	files, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	byFile := make(map[string][]Event, len(files))
	for res := range r.ReadFiles(files) {
		if res.Error != nil {
			return nil, res.Error
		}
		byFile[res.File] = res.Events
	}
	var all []Event
	for _, f := range files {
		all = append(all, byFile[f]...)
	}
	return all, nil
}

// Expand resolves plain paths and doublestar globs ("logs/**/*.jsonl") to
// a sorted, de-duplicated file list.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			return nil, fmt.Errorf("feed not found: %s", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
