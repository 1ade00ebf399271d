package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-dirac-console/internal/data/export"
)

var (
	exportOptions batchOptions
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export <feed>...",
	Short: "Save the visible console of recorded feeds to a file",
	Long: `Replays JSONL feeds and saves the visible messages the way Ctrl-S does in the
interactive console. The file is named after --page-url and the current time.
Use --out - to write to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addBatchFlags(exportCmd, &exportOptions)
	exportCmd.Flags().StringVar(&exportOut, "out", ".",
		"Output directory, or - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	h, err := loadHeadless(cmd.Context(), &exportOptions, args)
	if err != nil {
		return err
	}

	var opener export.Opener = export.DirOpener{Dir: expandPath(exportOut)}
	if exportOut == "-" {
		opener = export.WriterOpener{W: cmd.OutOrStdout()}
	}

	name, n, err := h.Save(cmd.Context(), opener, nil)
	if err != nil {
		return err
	}
	if exportOut != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d entries to %s\n", n, name)
	}
	return nil
}
