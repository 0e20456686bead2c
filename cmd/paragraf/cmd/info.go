package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/index"
	"github.com/paragraf-search/paragraf/internal/lifecycle"
	"github.com/paragraf-search/paragraf/internal/output"
	"github.com/paragraf-search/paragraf/internal/store"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <collection>",
		Short: "Show artifact metadata of a collection",
		Long: `Info prints the metadata of every built index artifact of a
collection: when it was built, how many documents and chunks it holds,
and the parameters it was built with.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}
	return cmd
}

func runInfo(cmd *cobra.Command, collection string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	// Metadata inspection does not need an embedding provider.
	mgr := lifecycle.NewManager(cfg, nil, log)

	out := output.New(cmd.OutOrStdout())
	metas := make(map[store.Kind]*store.Metadata)
	for _, kind := range store.AllKinds {
		meta, err := mgr.Metadata(collection, kind)
		if err != nil {
			continue
		}
		metas[kind] = meta
	}
	if len(metas) == 0 {
		out.Warningf("no artifacts found for collection %q", collection)
		return nil
	}

	stats, err := mgr.Stats(cmd.Context(), collection)
	if err != nil {
		return err
	}

	if flagJSON {
		return out.JSON(struct {
			Metadata map[store.Kind]*store.Metadata `json:"metadata"`
			Stats    map[store.Kind]index.Stats     `json:"stats"`
		}{metas, stats})
	}
	for _, kind := range store.AllKinds {
		meta, ok := metas[kind]
		if !ok {
			continue
		}
		out.Printf("%s\n", kind)
		out.Printf("  built       %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		out.Printf("  documents   %d\n", meta.DocumentCount)
		if meta.ChunkCount > 0 {
			out.Printf("  chunks      %d (size %d, overlap %d)\n",
				meta.ChunkCount, meta.ChunkSize, meta.ChunkOverlap)
		}
		if meta.EmbeddingModel != "" {
			out.Printf("  embeddings  %s (%d dims)\n", meta.EmbeddingModel, meta.EmbeddingDimensions)
			if meta.DegradedCount > 0 {
				out.Printf("  degraded    %d\n", meta.DegradedCount)
			}
		}
		if meta.K1 > 0 {
			out.Printf("  bm25        k1=%.2f b=%.2f\n", meta.K1, meta.B)
		}
		if s, ok := stats[kind]; ok {
			out.Printf("  vocabulary  %d terms, avg length %.1f\n", s.Vocabulary, s.AvgDocLen)
		}
	}
	return nil
}
