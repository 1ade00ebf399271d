package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-dirac-console/internal/application/console"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Version is set at build time.
var Version = "dev"

var (
	// Logging related
	debug   bool
	logFile string

	// Configuration
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "go-dirac-console [flags]",
		Short: "Terminal DevTools console with a Dirac REPL prompt",
		Long: `go-dirac-console shows the console messages of a page or a recorded session
and evaluates JavaScript or ClojureScript (Dirac) commands against it.

Messages come from JSONL feeds (followed as they grow) or from an inspector
websocket. Commands go to the inspector, or to a local evaluator command.

Examples:
  go-dirac-console --ws ws://127.0.0.1:9222/devtools/page/1   # Attach to a page
  go-dirac-console --feed "logs/**/*.jsonl"                   # Follow recorded feeds
  go-dirac-console --feed app.jsonl --eval-cmd "node -p"      # Evaluate locally
  go-dirac-console replay session.jsonl --output table        # Summarize a recording
  go-dirac-console serve session.jsonl --addr :8089           # Expose the console over HTTP`,
		PersistentPreRunE: setup,
		RunE:              runConsole,
		SilenceUsage:      true,
	}
)

const (
	defaultLogFile      = "~/.go-dirac-console/logs/app.log"
	defaultSettingsFile = "~/.go-dirac-console/settings.json"
	defaultConfigName   = ".go-dirac-console"
	envPrefix           = "DIRAC_CONSOLE"
)

func init() {
	// System and debugging
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default $HOME/.go-dirac-console.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile,
		"Log file path")

	// Persistence
	rootCmd.PersistentFlags().String("settings", defaultSettingsFile,
		"Settings file holding histories, filters and the active prompt")
	rootCmd.PersistentFlags().String("timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")
	rootCmd.PersistentFlags().Bool("timestamps", false,
		"Show message timestamps")

	// Event sources and evaluation
	rootCmd.PersistentFlags().StringSlice("feed", nil,
		"JSONL feed files or globs to follow (repeatable)")
	rootCmd.PersistentFlags().String("ws", "",
		"Inspector websocket URL")
	rootCmd.PersistentFlags().String("eval-cmd", "",
		"Local command that evaluates prompt input read from stdin")
	rootCmd.PersistentFlags().Duration("eval-timeout", 0,
		"Evaluation timeout for --eval-cmd (0 = default)")
	rootCmd.PersistentFlags().String("page-url", "",
		"Page URL used to name saved console files")

	// Display
	rootCmd.Flags().Bool("no-color", false,
		"Disable colored output")
	rootCmd.Flags().String("export-dir", ".",
		"Directory that Ctrl-S writes console files to")

	for _, name := range []string{"settings", "timezone", "timestamps", "feed", "ws", "eval-cmd", "eval-timeout", "page-url"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	for _, name := range []string{"no-color", "export-dir"} {
		_ = viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

// setup loads configuration and logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}
	return initLogging()
}

// initConfig reads a .env file, the config file and DIRAC_CONSOLE_* variables.
func initConfig() error {
	// A missing .env is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(defaultConfigName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}
	util.LogDebugf("Using config file: %s", viper.ConfigFileUsed())
	return nil
}

func initLogging() error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	opts := util.LogOptions{Level: logLevel, File: expandPath(logFile)}
	if debug {
		opts.Console = os.Stderr
	}
	if err := ensureDir(filepath.Dir(opts.File)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(opts); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// buildConfig assembles the console configuration from flags, config file
// and environment. Positional args are replayed before live feeds start.
func buildConfig(args []string) *console.Config {
	return &console.Config{
		ReplayFiles:  args,
		FeedPatterns: viper.GetStringSlice("feed"),
		WSURL:        viper.GetString("ws"),
		EvalCmd:      viper.GetString("eval-cmd"),
		EvalTimeout:  viper.GetDuration("eval-timeout"),
		SettingsPath: expandPath(viper.GetString("settings")),
		ExportDir:    expandPath(viper.GetString("export-dir")),
		Timestamps:   viper.GetBool("timestamps"),
		Timezone:     viper.GetString("timezone"),
		NoColor:      viper.GetBool("no-color"),
		Concurrency:  runtime.NumCPU(),
		PageURL:      viper.GetString("page-url"),
		Version:      Version,
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	orchestrator, err := console.NewOrchestrator(buildConfig(args))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return orchestrator.Run(ctx)
}

// signalContext is cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			util.LogInfo("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
