package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
)

var (
	replayOptions batchOptions
	replayOutput  string
)

var replayCmd = &cobra.Command{
	Use:   "replay <feed>...",
	Short: "Print the visible console of recorded feeds",
	Long: `Replays JSONL feeds through the console pipeline and prints what the console
would show: repeated messages collapse, commands link to their results and
filters apply.

Output formats:
  text   one rendered line per visible message
  json   one JSON record per visible message
  table  message counts per source and level`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	addBatchFlags(replayCmd, &replayOptions)
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "text",
		"Output format (text, json, table)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	renderer := formatter.NewRenderer(viper.GetBool("timestamps"), false)
	writer, ok := formatter.NewWriter(replayOutput, renderer)
	if !ok {
		return fmt.Errorf("invalid output format '%s': must be text, json or table", replayOutput)
	}

	h, err := loadHeadless(cmd.Context(), &replayOptions, args)
	if err != nil {
		return err
	}
	return writer.Write(cmd.OutOrStdout(), h.Entries())
}
