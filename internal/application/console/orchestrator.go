package console

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/data/evaluator"
	"github.com/penwyp/go-dirac-console/internal/data/feed"
	"github.com/penwyp/go-dirac-console/internal/data/settings"
	"github.com/penwyp/go-dirac-console/internal/presentation/display"
	"github.com/penwyp/go-dirac-console/internal/presentation/interaction"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// localContextID is the execution context used when commands run through a
// local evaluator rather than an inspector connection.
const localContextID = 1

// Orchestrator coordinates all components of the interactive console
type Orchestrator struct {
	config *Config

	loop     *scheduler.Loop
	settings *settings.Store
	console  *Console
	ui       *UI

	display  *display.TerminalDisplay
	keyboard *interaction.KeyboardReader

	ws     *feed.WSClient
	tailer *feed.Tailer

	closeOnce sync.Once
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *Config) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loop := scheduler.NewLoop()
	st, err := settings.Open(config.SettingsPath, loop)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return &Orchestrator{config: config, loop: loop, settings: st}, nil
}

// Console returns the console once Start has built it.
func (o *Orchestrator) Console() *Console { return o.console }

// Loop returns the goroutine that owns the console.
func (o *Orchestrator) Loop() *scheduler.Loop { return o.loop }

// Start runs the event loop, connects the evaluator and starts every event
// source. The returned stop function halts the loop and saves settings.
func (o *Orchestrator) Start(ctx context.Context) (<-chan error, func(), error) {
	if err := util.InitializeTimeProvider(o.config.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize timezone: %w", err)
	}

	// The loop outlives ctx so that shutdown can still restore the screen.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- o.loop.Run(loopCtx) }()
	stop := func() {
		o.Close()
		stopLoop()
	}

	eval, err := o.connect(ctx)
	if err != nil {
		stop()
		return nil, nil, err
	}
	if err := o.loop.Call(ctx, func() { o.build(ctx, eval) }); err != nil {
		stop()
		return nil, nil, fmt.Errorf("failed to build console: %w", err)
	}
	if err := o.replay(); err != nil {
		stop()
		return nil, nil, err
	}
	if err := o.startFeeds(ctx); err != nil {
		stop()
		return nil, nil, err
	}
	return loopDone, stop, nil
}

// Run starts the interactive console and blocks until the user quits or
// ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting Dirac console...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone, stop, err := o.Start(ctx)
	if err != nil {
		return err
	}
	defer stop()

	// Terminal
	keyboard, err := interaction.NewKeyboardReader(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	o.keyboard = keyboard
	defer o.keyboard.Close()

	o.display = display.NewTerminalDisplay(os.Stdout)
	if err := o.loop.Call(ctx, func() {
		o.ui = NewUI(o.console, o.display, !o.config.NoColor, o.config.ExportDir)
		o.ui.Start()
	}); err != nil {
		return fmt.Errorf("failed to start display: %w", err)
	}
	defer o.shutdownUI()

	// Main event loop
	resizeTicker := time.NewTicker(250 * time.Millisecond)
	defer resizeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down Dirac console...")
			return nil

		case err := <-loopDone:
			if err != nil {
				return fmt.Errorf("event loop stopped: %w", err)
			}
			return nil

		case <-resizeTicker.C:
			o.loop.Post(o.ui.Resize)

		case keyEvent := <-o.keyboard.Events():
			var quit bool
			if err := o.loop.Call(ctx, func() { quit = o.ui.HandleKey(keyEvent) }); err != nil {
				return nil
			}
			if quit {
				util.LogInfo("Exit requested")
				return nil
			}
		}
	}
}

// connect picks the evaluator: the inspector websocket when configured,
// otherwise a local command.
func (o *Orchestrator) connect(ctx context.Context) (command.Evaluator, error) {
	if o.config.WSURL != "" {
		ws, err := feed.DialWS(ctx, o.config.WSURL, o.emit)
		if err != nil {
			return nil, err
		}
		o.ws = ws
		return ws, nil
	}
	if o.config.EvalCmd != "" {
		exec, err := evaluator.NewExec(o.config.EvalCmd)
		if err != nil {
			return nil, fmt.Errorf("failed to create evaluator: %w", err)
		}
		exec.Timeout = o.config.EvalTimeout
		return exec, nil
	}
	return nil, nil
}

func (o *Orchestrator) build(ctx context.Context, eval command.Evaluator) {
	o.console = New(ctx, o.loop, o.settings, eval)
	o.console.SetPageURL(o.config.PageURL)
	if _, local := eval.(*evaluator.Exec); local {
		o.console.SetExecutionContext(localContextID)
	}
	if o.config.Timestamps {
		o.console.SetShowTimestamps(true)
	}
	o.console.WelcomeDirac(o.config.Version)
}

// replay loads recorded feeds before live sources start.
func (o *Orchestrator) replay() error {
	if len(o.config.ReplayFiles) == 0 {
		return nil
	}
	events, err := feed.NewReader(o.config.Concurrency).ReadAll(o.config.ReplayFiles)
	if err != nil {
		return fmt.Errorf("failed to replay feeds: %w", err)
	}
	util.LogInfo("Replayed feeds", util.F("events", len(events)))
	for _, ev := range events {
		o.emit(ev)
	}
	return nil
}

// emit hands a feed event to the console goroutine.
func (o *Orchestrator) emit(ev feed.Event) {
	o.loop.Post(func() { o.console.Apply(ev) })
}

func (o *Orchestrator) startFeeds(ctx context.Context) error {
	if len(o.config.FeedPatterns) > 0 {
		tailer, err := feed.NewTailer(o.config.FeedPatterns, o.emit)
		if err != nil {
			return fmt.Errorf("failed to create feed tailer: %w", err)
		}
		o.tailer = tailer
		go func() {
			if err := tailer.Start(ctx); err != nil {
				util.LogErrorf("Feed tailer stopped: %v", err)
			}
		}()
	}
	if o.ws != nil {
		go func() {
			if err := o.ws.Run(ctx); err != nil {
				util.LogErrorf("Inspector feed stopped: %v", err)
				o.loop.Post(func() {
					if o.ui != nil {
						o.ui.notice = "disconnected: " + err.Error()
						o.ui.ctrl.ScheduleRefresh()
					}
				})
			}
		}()
	}
	return nil
}

func (o *Orchestrator) shutdownUI() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := o.loop.Call(ctx, o.ui.Stop); err != nil {
		util.LogWarnf("Failed to restore terminal: %v", err)
	}
}

// Close flushes pending settings and closes the inspector connection.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(o.close)
}

func (o *Orchestrator) close() {
	if o.ws != nil {
		_ = o.ws.Close()
	}
	if err := o.settings.Flush(); err != nil {
		util.LogErrorf("Failed to save settings: %v", err)
	}
}
