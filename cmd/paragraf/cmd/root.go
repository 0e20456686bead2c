// Package cmd implements the paragraf CLI commands.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/config"
	"github.com/paragraf-search/paragraf/internal/embed"
	"github.com/paragraf-search/paragraf/internal/lifecycle"
	"github.com/paragraf-search/paragraf/internal/logging"
	"github.com/paragraf-search/paragraf/internal/store"
	"github.com/paragraf-search/paragraf/pkg/version"
)

// Persistent flags shared by every subcommand.
var (
	flagConfig   string
	flagIndexDir string
	flagLogLevel string
	flagJSON     bool
)

// NewRootCmd creates the paragraf root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paragraf",
		Short: "Hybrid search over Czech legal texts",
		Long: `Paragraf indexes collections of legal documents and serves hybrid
search over them: BM25 keyword search, semantic vector search and
full-text chunk search, fused into one ranked list.

Typical flow:
  paragraf build batches/zakon-89.json
  paragraf search zakon:89/2012 "výpověď nájmu bytu"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flagIndexDir, "index-dir", "", "Base directory for index artifacts")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Minimum log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit JSON output")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSimilarCmd())
	cmd.AddCommand(newPhraseCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves configuration for one command invocation. A local
// .env file is applied first so PARAGRAF_* variables defined there are
// visible to the config loader.
func loadConfig() (*config.Config, *slog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagIndexDir != "" {
		cfg.IndexDir = flagIndexDir
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	log := logging.Setup(cfg.LogLevel, os.Stderr)
	return cfg, log, nil
}

// newManager builds the lifecycle manager with the configured embedding
// provider.
func newManager(ctx context.Context, cfg *config.Config, log *slog.Logger) (*lifecycle.Manager, embed.Embedder, error) {
	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings, log)
	if err != nil {
		return nil, nil, err
	}
	return lifecycle.NewManager(cfg, embedder, log), embedder, nil
}

// parseKinds maps a comma-separated kind list to store kinds. Empty means
// all kinds.
func parseKinds(s string) ([]store.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var kinds []store.Kind
	for _, part := range strings.Split(s, ",") {
		kind := store.Kind(strings.TrimSpace(part))
		valid := false
		for _, known := range store.AllKinds {
			if kind == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, &unknownKindError{kind: string(kind)}
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

type unknownKindError struct{ kind string }

func (e *unknownKindError) Error() string {
	known := make([]string, len(store.AllKinds))
	for i, k := range store.AllKinds {
		known[i] = string(k)
	}
	return "unknown index kind " + e.kind + " (known: " + strings.Join(known, ", ") + ")"
}
