package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/output"
	"github.com/paragraf-search/paragraf/internal/store"
)

func newPhraseCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "phrase <collection> <phrase>...",
		Short: "Find exact phrase occurrences in document bodies",
		Long: `Phrase scans the body-text chunks for literal, case-insensitive
occurrences of the given phrase. Chunks are ranked by occurrence count.

Examples:
  paragraf phrase zakon:89/2012 "dobré mravy"
  paragraf phrase zakon:89/2012 "náhrada škody" -n 20`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhrase(cmd, args[0], strings.Join(args[1:], " "), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")

	return cmd
}

func runPhrase(cmd *cobra.Command, collection, phrase string, limit int) error {
	engine, cleanup, err := loadEngine(cmd, collection, []store.Kind{store.KindLexicalFull})
	if err != nil {
		return err
	}
	defer cleanup()

	results := engine.SearchExactPhrase(phrase, limit)

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(results)
	}
	out.Results(results)
	return nil
}
