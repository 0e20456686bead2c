package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/output"
	"github.com/paragraf-search/paragraf/internal/store"
	"github.com/paragraf-search/paragraf/internal/supply"
)

func newBuildCmd() *cobra.Command {
	var (
		force bool
		kinds string
	)

	cmd := &cobra.Command{
		Use:   "build <batch-file-or-dir>",
		Short: "Build index artifacts from a document batch",
		Long: `Build reads one or more JSON batch files and constructs the index
artifacts for each contained collection. Existing artifacts are reused
unless --force is given.

Examples:
  paragraf build batches/zakon-89.json
  paragraf build batches/ --force
  paragraf build batches/zakon-89.json --kinds lexical,vector`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], force, kinds)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even when artifacts exist")
	cmd.Flags().StringVar(&kinds, "kinds", "", "Comma-separated index kinds (default: all)")

	return cmd
}

func runBuild(cmd *cobra.Command, path string, force bool, kindList string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	kinds, err := parseKinds(kindList)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	mgr, embedder, err := newManager(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer embedder.Close()

	batches, err := supply.NewFileSource(path).Batches(ctx)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	for _, batch := range batches {
		set, err := mgr.LoadOrBuild(ctx, batch.CollectionID, batch.Documents, kinds, force)
		if err != nil {
			return err
		}
		for _, kind := range store.AllKinds {
			meta, ok := set.Metadata[kind]
			if !ok {
				continue
			}
			if meta.DegradedCount > 0 {
				out.Warningf("%s %s: %d items excluded after failed embedding requests",
					batch.CollectionID, kind, meta.DegradedCount)
			}
		}
		out.Successf("%s: %d documents indexed", batch.CollectionID, len(batch.Documents))
	}
	return nil
}
