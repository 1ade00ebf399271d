// Package fixtures writes console feeds for tests.
package fixtures

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/data/feed"
)

// FeedGenerator builds console events with increasing timestamps and writes
// them as JSONL feeds.
type FeedGenerator struct {
	baseDir string
	clock   float64
	nextID  int
}

// NewFeedGenerator creates a generator writing under baseDir. Timestamps
// start at one second past the epoch.
func NewFeedGenerator(baseDir string) *FeedGenerator {
	return &FeedGenerator{baseDir: baseDir, clock: 1000}
}

// Tick advances the timestamp of the following messages by ms.
func (g *FeedGenerator) Tick(ms float64) {
	g.clock += ms
}

// Message returns a messageAdded event at the current timestamp.
func (g *FeedGenerator) Message(source model.Source, level model.Level, text string) feed.Event {
	g.nextID++
	return feed.Event{
		Kind: feed.KindMessageAdded,
		Message: &model.LogMessage{
			MessageID: fmt.Sprintf("m%d", g.nextID),
			Source:    source,
			Level:     level,
			Type:      model.TypeLog,
			Text:      text,
			Timestamp: g.clock,
		},
	}
}

// Log returns a console API message at info level.
func (g *FeedGenerator) Log(text string) feed.Event {
	return g.Message(model.SourceConsoleAPI, model.LevelInfo, text)
}

// Network returns a failed request message from url.
func (g *FeedGenerator) Network(url, text string) feed.Event {
	ev := g.Message(model.SourceNetwork, model.LevelError, text)
	ev.Message.URL = url
	return ev
}

// Group returns the start and end markers around body.
func (g *FeedGenerator) Group(title string, body ...feed.Event) []feed.Event {
	start := g.Log(title)
	start.Message.Type = model.TypeStartGroup
	events := append([]feed.Event{start}, body...)
	end := g.Log("")
	end.Message.Type = model.TypeEndGroup
	return append(events, end)
}

// Session returns a short recorded page session: a repeated boot log, a
// failed request, a warning and a verbose trace.
func (g *FeedGenerator) Session() []feed.Event {
	boot := g.Log("booted")
	again := g.Log("booted")
	g.Tick(1000)
	failed := g.Network("http://example.com/x", "GET /x 404")
	g.Tick(1000)
	slow := g.Message(model.SourceConsoleAPI, model.LevelWarning, "slow frame")
	g.Tick(1000)
	trace := g.Message(model.SourceConsoleAPI, model.LevelVerbose, "trace detail")
	return []feed.Event{boot, again, failed, slow, trace}
}

// Write encodes events into baseDir/name and returns the file path.
func (g *FeedGenerator) Write(name string, events ...feed.Event) (string, error) {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, ev := range events {
		data, err := feed.Encode(ev)
		if err != nil {
			return "", err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, nil
}

// GetBaseDir returns the base directory for test data
func (g *FeedGenerator) GetBaseDir() string {
	return g.baseDir
}
