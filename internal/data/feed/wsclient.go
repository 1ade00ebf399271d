package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/util"
)

const writeWait = 10 * time.Second

// evaluateFrame asks the host to evaluate a command. The answer comes back
// as a commandEvaluated event carrying the same request id.
type evaluateFrame struct {
	Method string          `json:"method"`
	ID     int             `json:"id"`
	Params command.Request `json:"params"`
}

// WSClient receives events from an inspector host over WebSocket and sends
// evaluation requests back on the same connection.
type WSClient struct {
	url  string
	emit Handler

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// DialWS connects to url.
func DialWS(ctx context.Context, url string, emit Handler) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	util.LogInfof("Connected to inspector feed %s", url)
	return &WSClient{url: url, emit: emit, conn: conn}, nil
}

// Run reads events until the connection closes or ctx is done.
func (c *WSClient) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read from %s: %w", c.url, err)
		}
		ev, err := Decode(data)
		if err != nil {
			util.LogDebugf("Skip invalid frame from %s - %v", c.url, err)
			continue
		}
		c.emit(ev)
	}
}

// Evaluate sends the request to the host. The result is delivered later
// through the feed, so it always returns a nil result.
func (c *WSClient) Evaluate(ctx context.Context, req command.Request) (*command.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(evaluateFrame{Method: "evaluate", ID: req.ID, Params: req}); err != nil {
		return nil, fmt.Errorf("failed to send request %d: %w", req.ID, err)
	}
	return nil, nil
}

// Close sends a close frame and closes the connection.
func (c *WSClient) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := c.conn.Close()
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
