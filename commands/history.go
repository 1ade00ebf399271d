package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/data/settings"
)

var (
	historySurface string
	historyClear   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print or clear a prompt's saved command history",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historySurface, "surface", constants.PromptJS,
		"Prompt whose history to use (js, dirac)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false,
		"Clear the history instead of printing it")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historySurface != constants.PromptJS && historySurface != constants.PromptDirac {
		return fmt.Errorf("unknown prompt '%s': must be %s or %s", historySurface, constants.PromptJS, constants.PromptDirac)
	}

	// No scheduler: every change is written immediately.
	st, err := settings.Open(expandPath(viper.GetString("settings")), nil)
	if err != nil {
		return err
	}

	if historyClear {
		st.SaveHistory(historySurface, nil)
		if err := st.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s history\n", historySurface)
		return nil
	}

	for _, item := range st.History(historySurface) {
		fmt.Fprintln(cmd.OutOrStdout(), item)
	}
	return nil
}
