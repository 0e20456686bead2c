package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/output"
)

func newSimilarCmd() *cobra.Command {
	var (
		limit  int
		chunks bool
	)

	cmd := &cobra.Command{
		Use:   "similar <collection> <id>",
		Short: "Find documents similar to a given one",
		Long: `Similar looks up the embedding of a document and returns the nearest
documents in the vector space, excluding the document itself. With
--chunks the ID names a chunk and the search runs at chunk granularity,
possibly surfacing several passages of the same document.

Examples:
  paragraf similar zakon:89/2012 doc-2201
  paragraf similar zakon:89/2012 doc-2201_chunk_0 --chunks -n 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimilar(cmd, args[0], args[1], limit, chunks)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&chunks, "chunks", false, "Search at chunk granularity")

	return cmd
}

func runSimilar(cmd *cobra.Command, collection, docID string, limit int, chunks bool) error {
	engine, cleanup, err := loadEngine(cmd, collection, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	var results []domain.Result
	if chunks {
		results, err = engine.SimilarChunks(ctx, docID, limit)
	} else {
		results, err = engine.Similar(ctx, docID, limit)
	}
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if flagJSON {
		return out.JSON(results)
	}
	out.Results(results)
	return nil
}
