package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-dirac-console/internal/application/console"
	"github.com/penwyp/go-dirac-console/internal/server"
	"github.com/penwyp/go-dirac-console/internal/util"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [feed...]",
	Short: "Expose the console over HTTP and a websocket stream",
	Long: `Runs the console without a terminal and serves it over HTTP.

Recorded feeds given as arguments are replayed first; --feed and --ws keep
adding messages while the server runs. Clients read and filter messages,
search, submit commands and follow /ws for new entries.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8089",
		"Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	orchestrator, err := console.NewOrchestrator(buildConfig(args))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	loopDone, stop, err := orchestrator.Start(ctx)
	if err != nil {
		return err
	}
	defer stop()

	srv, err := server.New(ctx, orchestrator.Console(), orchestrator.Loop(), serveAddr)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	go func() {
		if err := <-loopDone; err != nil {
			util.LogErrorf("Event loop stopped: %v", err)
		}
		cancel()
	}()
	return srv.Start(ctx)
}
