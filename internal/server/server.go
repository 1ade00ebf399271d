// Package server exposes a console over HTTP: a JSON API for reading,
// searching and driving it, and a websocket live stream of new entries.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/penwyp/go-dirac-console/internal/application/console"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Runner executes closures on the console goroutine.
type Runner interface {
	Call(ctx context.Context, fn func()) error
}

// Server holds the Gin engine and the console it serves.
type Server struct {
	engine  *gin.Engine
	hub     *Hub
	console *console.Console
	runner  Runner
	addr    string

	// searchPoll is how often a pending search is checked for completion.
	searchPoll time.Duration
}

// Frame is one live-stream message.
type Frame struct {
	Type  string            `json:"type"`
	Entry *formatter.Record `json:"entry,omitempty"`
}

// New creates a server for c and subscribes the live stream to it.
func New(ctx context.Context, c *console.Console, runner Runner, addr string) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        NewHub(),
		console:    c,
		runner:     runner,
		addr:       addr,
		searchPoll: 10 * time.Millisecond,
	}

	err := runner.Call(ctx, func() {
		c.OnAppended(func(e *model.ViewEntry) {
			rec := formatter.NewRecord(e)
			s.broadcast(Frame{Type: "entry", Entry: &rec})
		})
		c.OnRebuilt(func() { s.broadcast(Frame{Type: "reset"}) })
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to console: %w", err)
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) broadcast(f Frame) {
	data, err := sonic.Marshal(f)
	if err != nil {
		util.LogErrorf("Failed to encode live frame: %v", err)
		return
	}
	s.hub.Broadcast(data)
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/messages", s.handleMessages)
	api.GET("/search", s.handleSearch)
	api.POST("/commands", s.handleCommand)
	api.GET("/filters", s.handleGetFilters)
	api.POST("/filters", s.handleSetFilters)
	api.POST("/clear", s.handleClear)
	api.GET("/history", s.handleHistory)
	api.DELETE("/history", s.handleClearHistory)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the live-stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	util.LogInfof("Serving console API on %s", s.addr)

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// onLoop runs fn on the console goroutine, answering 503 when it cannot.
func (s *Server) onLoop(c *gin.Context, fn func()) bool {
	if err := s.runner.Call(c.Request.Context(), fn); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	var entries, stored int
	if !s.onLoop(c, func() {
		entries = s.console.List().Len()
		stored = s.console.Store().Len()
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"console":     s.console.ID,
		"visible":     entries,
		"stored":      stored,
		"subscribers": s.hub.Subscribers(),
		"dropped":     s.hub.Dropped(),
	})
}
