package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-dirac-console/internal/application/console"
	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
)

type fixture struct {
	t       *testing.T
	loop    *scheduler.Loop
	console *console.Console
	server  *Server
}

func newFixture(t *testing.T, eval command.Evaluator) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := scheduler.NewLoop()
	go loop.Run(ctx)

	f := &fixture{t: t, loop: loop}
	require.NoError(t, loop.Call(ctx, func() {
		f.console = console.New(ctx, loop, nil, eval)
	}))
	srv, err := New(ctx, f.console, loop, "127.0.0.1:0")
	require.NoError(t, err)
	f.server = srv
	return f
}

func (f *fixture) run(fn func(c *console.Console)) {
	f.t.Helper()
	require.NoError(f.t, f.loop.Call(context.Background(), func() { fn(f.console) }))
}

func (f *fixture) add(ts float64, level model.Level, text string) {
	f.run(func(c *console.Console) {
		c.AddMessage(&model.LogMessage{
			Source:    model.SourceConsoleAPI,
			Level:     level,
			Type:      model.TypeLog,
			Text:      text,
			URL:       "https://example.com/app.js",
			Timestamp: ts,
		})
	})
}

func (f *fixture) do(method, target, body string) (int, map[string]any) {
	f.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(f.t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestMessagesPagination(t *testing.T) {
	f := newFixture(t, nil)
	f.add(1, model.LevelInfo, "a")
	f.add(2, model.LevelInfo, "b")
	f.add(3, model.LevelInfo, "c")

	code, out := f.do(http.MethodGet, "/api/messages?offset=1&limit=1", "")

	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, out["total"])
	assert.Equal(t, true, out["hasMore"])
	msgs := out["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "b", msgs[0].(map[string]any)["text"])
}

func TestSearchWaitsForCompletion(t *testing.T) {
	f := newFixture(t, nil)
	f.add(1, model.LevelInfo, "needle one")
	f.add(2, model.LevelInfo, "hay")
	f.add(3, model.LevelInfo, "needle two needle")

	code, out := f.do(http.MethodGet, "/api/search?q=needle", "")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["done"])
	assert.Len(t, out["matches"], 3)
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newFixture(t, nil)
	code, _ := f.do(http.MethodGet, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCommandSubmission(t *testing.T) {
	eval := command.EvaluatorFunc(func(_ context.Context, req command.Request) (*command.Result, error) {
		return &command.Result{Text: "2"}, nil
	})
	f := newFixture(t, eval)

	code, out := f.do(http.MethodPost, "/api/commands", `{"text":"1+1"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "no execution context", out["error"])

	code, _ = f.do(http.MethodPost, "/api/commands", `{"surface":"cljs","text":"1"}`)
	assert.Equal(t, http.StatusNotFound, code)

	f.run(func(c *console.Console) { c.SetExecutionContext(1) })
	code, out = f.do(http.MethodPost, "/api/commands", `{"text":"1+1"}`)
	require.Equal(t, http.StatusAccepted, code)
	assert.EqualValues(t, 1, out["requestId"])

	require.Eventually(t, func() bool {
		var n int
		f.run(func(c *console.Console) { n = c.List().Len() })
		return n == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFiltersApplyAndPersist(t *testing.T) {
	f := newFixture(t, nil)
	f.add(1, model.LevelInfo, "info")
	f.add(2, model.LevelError, "error")

	code, out := f.do(http.MethodPost, "/api/filters",
		`{"levels":{"info":false},"blockUrls":["https://example.com/app.js"]}`)
	require.Equal(t, http.StatusOK, code)
	blocked := out["blocked"].([]any)
	require.Len(t, blocked, 1)
	assert.EqualValues(t, 2, blocked[0].(map[string]any)["Count"])

	_, msgs := f.do(http.MethodGet, "/api/messages", "")
	assert.EqualValues(t, 0, msgs["total"])

	_, out = f.do(http.MethodPost, "/api/filters", `{"unblockUrls":["https://example.com/app.js"]}`)
	_, msgs = f.do(http.MethodGet, "/api/messages", "")
	assert.EqualValues(t, 1, msgs["total"])

	persisted := out["persisted"].(map[string]any)
	assert.Equal(t, false, persisted["messageLevelFilters"].(map[string]any)["info"])
}

func TestClearAndHistory(t *testing.T) {
	f := newFixture(t, nil)
	f.add(1, model.LevelInfo, "a")
	f.run(func(c *console.Console) {
		c.SetExecutionContext(1)
		c.Submit("js", "window.x")
	})

	code, out := f.do(http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"window.x"}, out["items"])

	code, _ = f.do(http.MethodPost, "/api/clear", "")
	require.Equal(t, http.StatusOK, code)
	_, msgs := f.do(http.MethodGet, "/api/messages", "")
	assert.EqualValues(t, 0, msgs["total"])

	_, out = f.do(http.MethodGet, "/api/history?surface=js", "")
	assert.Equal(t, []any{"window.x"}, out["items"])

	code, _ = f.do(http.MethodDelete, "/api/history?surface=js", "")
	require.Equal(t, http.StatusOK, code)
	_, out = f.do(http.MethodGet, "/api/history?surface=js", "")
	assert.Empty(t, out["items"])

	code, _ = f.do(http.MethodGet, "/api/history?surface=nope", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	f.add(1, model.LevelInfo, "a")

	code, out := f.do(http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
	assert.EqualValues(t, 1, out["visible"])
	assert.Equal(t, f.console.ID, out["console"])
}

func TestWebSocketStreamsAppendedEntries(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.server.Hub().Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	f.add(1, model.LevelWarning, "streamed")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, sonic.Unmarshal(data, &frame))
	assert.Equal(t, "entry", frame.Type)
	require.NotNil(t, frame.Entry)
	assert.Equal(t, "streamed", frame.Entry.Text)
	assert.Equal(t, "warning", frame.Entry.Level)
}
