package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/model"
)

const (
	lineA = `{"event":"messageAdded","message":{"source":"console-api","level":"warning","type":"log","text":"a","timestamp":1}}`
	lineB = `{"event":"messageAdded","message":{"source":"network","level":"error","type":"log","text":"b","url":"http://x/y.js","timestamp":2}}`
	lineC = `{"event":"consoleCleared"}`
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) add(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, ev := range c.events {
		if ev.Message != nil {
			out = append(out, ev.Message.Text)
		} else {
			out = append(out, string(ev.Kind))
		}
	}
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
	}{
		{"message", lineA, false},
		{"clear", lineC, false},
		{"job", `{"event":"jobStarted","requestId":3}`, false},
		{"evaluated", `{"event":"commandEvaluated","evaluated":{"requestId":1,"result":{"text":"2"}}}`, false},
		{"unknown kind", `{"event":"reload"}`, true},
		{"message missing", `{"event":"messageAdded"}`, true},
		{"evaluation missing", `{"event":"commandEvaluated"}`, true},
		{"not json", `{"event":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	ev, err := Decode([]byte(lineB))
	require.NoError(t, err)
	assert.Equal(t, model.SourceNetwork, ev.Message.Source)
	assert.Equal(t, model.LevelError, ev.Message.Level)
	assert.Equal(t, "http://x/y.js", ev.Message.URL)

	bare, err := Decode([]byte(`{"event":"messageAdded","message":{"text":"hello","timestamp":1}}`))
	require.NoError(t, err)
	assert.Equal(t, model.SourceOther, bare.Message.Source)
	assert.Equal(t, model.LevelInfo, bare.Message.Level)
}

func TestScanSkipsInvalidLines(t *testing.T) {
	input := strings.Join([]string{lineA, "garbage", "", `{"event":"nope"}`, lineB, lineC}, "\n")
	c := &collector{}
	n, err := Scan(strings.NewReader(input), "test", c.add)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "consoleCleared"}, c.texts())
}

func TestReadAllExpandsGlobs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "1.jsonl"), []byte(lineA+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "2.jsonl"), []byte(lineB+"\n"+lineC+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "skip.txt"), []byte(lineA+"\n"), 0o644))

	r := NewReader(2)
	events, err := r.ReadAll([]string{filepath.Join(dir, "**", "*.jsonl")})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "a", events[0].Message.Text)
	assert.Equal(t, KindConsoleCleared, events[2].Kind)

	_, err = r.ReadAll([]string{filepath.Join(dir, "missing.jsonl")})
	assert.Error(t, err)
}

func TestTailerFollowsAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lineA+"\n"), 0o644))

	c := &collector{}
	tailer, err := NewTailer([]string{filepath.Join(dir, "*.jsonl")}, c.add)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tailer.Start(ctx) }()

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	half := len(lineB) / 2
	_, err = f.WriteString(lineB[:half])
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, c.len(), "incomplete lines are held back")

	_, err = f.WriteString(lineB[half:] + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return c.len() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, c.texts())
	assert.Equal(t, int64(len(lineA)+len(lineB)+2), tailer.Offset(path))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tailer did not stop")
	}
}

func TestTailerRereadsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lineA+"\n"), 0o644))

	c := &collector{}
	tailer, err := NewTailer([]string{path}, c.add)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tailer.Start(ctx) }()

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	// The replacement is longer than what was consumed, so only the inode
	// tells it apart from an append.
	tmp := filepath.Join(dir, "feed.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(lineB+"\n"+lineC+"\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return c.len() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "consoleCleared"}, c.texts())
}

func TestWSClientRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	frames := make(chan map[string]any, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(lineA))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not an event"))

		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		frames <- frame
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"event":"commandEvaluated","evaluated":{"requestId":5,"result":{"text":"ok"}}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	c := &collector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := DialWS(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), c.add)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	require.Eventually(t, func() bool { return c.len() == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := client.Evaluate(ctx, command.Request{ID: 5, Surface: "js", Code: "1+1"})
	require.NoError(t, err)
	assert.Nil(t, res)

	select {
	case frame := <-frames:
		assert.Equal(t, "evaluate", frame["method"])
		assert.EqualValues(t, 5, frame["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("evaluate frame not received")
	}

	require.Eventually(t, func() bool { return c.len() == 2 }, 2*time.Second, 10*time.Millisecond)
	c.mu.Lock()
	ev := c.events[1]
	c.mu.Unlock()
	assert.Equal(t, KindCommandEvaluated, ev.Kind)
	assert.Equal(t, 5, ev.Evaluated.RequestID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}
