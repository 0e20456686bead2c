package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/lifecycle"
	"github.com/paragraf-search/paragraf/internal/output"
)

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear <collection>",
		Short: "Remove all artifacts of a collection",
		Long: `Clear deletes every index artifact of a collection. Clearing a
collection that was never built succeeds quietly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, args[0])
		},
	}
	return cmd
}

func runClear(cmd *cobra.Command, collection string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	// No embedding provider needed to delete artifacts.
	mgr := lifecycle.NewManager(cfg, nil, log)
	if err := mgr.Clear(collection); err != nil {
		return err
	}
	output.New(cmd.OutOrStdout()).Successf("collection %q cleared", collection)
	return nil
}
