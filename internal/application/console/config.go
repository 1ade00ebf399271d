package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
)

// Config contains configuration for the interactive console
type Config struct {
	// Event sources
	ReplayFiles  []string
	FeedPatterns []string
	WSURL        string

	// Evaluation
	EvalCmd     string
	EvalTimeout time.Duration

	// Persistence
	SettingsPath string
	ExportDir    string

	// Display settings
	Timestamps bool
	Timezone   string
	NoColor    bool

	// Performance settings
	Concurrency int

	PageURL string
	Version string
}

// Validate fills defaults and rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		c.SettingsPath = "~/.go-dirac-console/settings.json"
	}
	c.SettingsPath = expandHome(c.SettingsPath)
	if c.ExportDir == "" {
		c.ExportDir = "."
	}
	c.ExportDir = expandHome(c.ExportDir)
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.EvalTimeout == 0 {
		c.EvalTimeout = constants.EvaluateTimeout
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.WSURL != "" && !strings.HasPrefix(c.WSURL, "ws://") && !strings.HasPrefix(c.WSURL, "wss://") {
		return fmt.Errorf("websocket url must start with ws:// or wss://, got %q", c.WSURL)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
