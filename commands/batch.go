package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-dirac-console/internal/application/console"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/data/feed"
	"github.com/penwyp/go-dirac-console/internal/data/settings"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// batchOptions are the filter flags shared by commands that load recorded
// feeds into a throwaway console.
type batchOptions struct {
	levels         []string
	text           string
	hideNetwork    bool
	consoleAPIOnly bool
	blockURLs      []string
}

func addBatchFlags(cmd *cobra.Command, opts *batchOptions) {
	cmd.Flags().StringSliceVar(&opts.levels, "level", nil,
		"Levels to show (verbose, info, warning, error); default hides verbose")
	cmd.Flags().StringVar(&opts.text, "filter", "",
		"Text filter; /re/ is a case-insensitive regex")
	cmd.Flags().BoolVar(&opts.hideNetwork, "hide-network", false,
		"Hide network messages")
	cmd.Flags().BoolVar(&opts.consoleAPIOnly, "api-only", false,
		"Only show messages logged through the console API")
	cmd.Flags().StringSliceVar(&opts.blockURLs, "block-url", nil,
		"Hide messages from this source URL (repeatable)")
}

var levelNames = map[string]bool{
	"verbose": true, "debug": true,
	"info": true, "log": true,
	"warning": true, "warn": true,
	"error": true,
}

// parseLevels turns level names into a full level selection.
func parseLevels(names []string) (map[model.Level]bool, error) {
	levels := make(map[model.Level]bool, len(model.Levels))
	for _, l := range model.Levels {
		levels[l] = false
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if !levelNames[name] {
			return nil, fmt.Errorf("unknown level %q", name)
		}
		levels[model.ParseLevel(name)] = true
	}
	return levels, nil
}

// apply installs the filters on c.
func (o *batchOptions) apply(c *console.Console) error {
	f := c.Filter()
	if len(o.levels) > 0 {
		levels, err := parseLevels(o.levels)
		if err != nil {
			return err
		}
		f.SetLevels(levels)
	}
	f.SetText(o.text)
	f.SetHideNetwork(o.hideNetwork)
	f.SetConsoleAPIOnly(o.consoleAPIOnly)
	for _, url := range o.blockURLs {
		f.AddURLFilter(url)
	}
	return nil
}

// loadHeadless replays the feeds matching patterns into a console that
// keeps its settings in memory.
func loadHeadless(ctx context.Context, opts *batchOptions, patterns []string) (*console.Headless, error) {
	start := time.Now()
	events, err := feed.NewReader(runtime.NumCPU()).ReadAll(patterns)
	if err != nil {
		return nil, err
	}

	h := console.NewHeadless(ctx, settings.NewMemory(), nil)
	if err := opts.apply(h.Console); err != nil {
		return nil, err
	}
	h.SetPageURL(viper.GetString("page-url"))
	h.SetShowTimestamps(viper.GetBool("timestamps"))
	h.Apply(events...)

	util.LogInfo("Loaded feeds",
		util.F("events", len(events)),
		util.F("visible", len(h.Entries())),
		util.F("elapsed", util.FormatDuration(time.Since(start))))
	return h, nil
}
