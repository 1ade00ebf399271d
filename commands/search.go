package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penwyp/go-dirac-console/internal/core/search"
	"github.com/penwyp/go-dirac-console/internal/presentation/formatter"
)

var (
	searchOptions batchOptions
	searchConfig  search.Config
)

var searchCmd = &cobra.Command{
	Use:   "search <feed>... --query <text>",
	Short: "Find matches in the visible console of recorded feeds",
	Long: `Replays JSONL feeds and searches the visible messages the way the console
search bar does. Each match prints as "message:match<TAB>text".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	addBatchFlags(searchCmd, &searchOptions)
	searchCmd.Flags().StringVarP(&searchConfig.Query, "query", "q", "",
		"Text to search for")
	searchCmd.Flags().BoolVar(&searchConfig.IsRegex, "regex", false,
		"Treat the query as a regular expression")
	searchCmd.Flags().BoolVar(&searchConfig.CaseSensitive, "case-sensitive", false,
		"Match case")
	_ = searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchConfig.Regex() == nil {
		return fmt.Errorf("invalid query %q", searchConfig.Query)
	}

	h, err := loadHeadless(cmd.Context(), &searchOptions, args)
	if err != nil {
		return err
	}

	renderer := formatter.NewRenderer(viper.GetBool("timestamps"), false)
	entries := h.Entries()
	matches := h.SearchAll(searchConfig)

	out := cmd.OutOrStdout()
	for _, m := range matches {
		fmt.Fprintf(out, "%d:%d\t%s\n", m.MessageIndex, m.MatchIndex, renderer.Plain(entries[m.MessageIndex]))
	}
	fmt.Fprintf(out, "%d matches\n", len(matches))
	return nil
}
