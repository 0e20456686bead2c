package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/output"
	"github.com/paragraf-search/paragraf/internal/search"
	"github.com/paragraf-search/paragraf/internal/store"
)

// searchOptions holds the search command flags.
type searchOptions struct {
	limit      int
	strategy   string
	types      []string
	minLevel   int
	maxLevel   int
	identifier string
	minScore   float64
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <collection> <query>...",
		Short: "Search a collection",
		Long: `Search runs hybrid search over a built collection and prints the
fused, ranked result list.

Examples:
  paragraf search zakon:89/2012 "výpověď nájmu bytu"
  paragraf search zakon:89/2012 náhrada škody --strategy keyword_first
  paragraf search zakon:89/2012 smlouva --type section --limit 5
  paragraf search zakon:89/2012 smlouva --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], strings.Join(args[1:], " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Search strategy: keyword_first, semantic_first, parallel")
	cmd.Flags().StringSliceVarP(&opts.types, "type", "t", nil, "Filter by document type (repeatable)")
	cmd.Flags().IntVar(&opts.minLevel, "min-level", -1, "Minimum hierarchy level, inclusive")
	cmd.Flags().IntVar(&opts.maxLevel, "max-level", -1, "Maximum hierarchy level, inclusive")
	cmd.Flags().StringVar(&opts.identifier, "identifier", "", "Official identifier regular expression")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0, "Drop results scoring below the threshold")

	return cmd
}

func runSearch(cmd *cobra.Command, collection, text string, opts searchOptions) error {
	engine, cleanup, err := loadEngine(cmd, collection, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	q := &domain.Query{
		Text:              text,
		MaxResults:        opts.limit,
		IdentifierPattern: opts.identifier,
		MinScore:          opts.minScore,
	}
	for _, t := range opts.types {
		q.Types = append(q.Types, domain.Type(t))
	}
	if opts.minLevel >= 0 {
		lvl := opts.minLevel
		q.MinLevel = &lvl
	}
	if opts.maxLevel >= 0 {
		lvl := opts.maxLevel
		q.MaxLevel = &lvl
	}

	results, err := engine.Search(cmd.Context(), q, search.Strategy(opts.strategy))
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

// loadEngine restores a collection's indexes and assembles the engine.
// Kinds limits which indexes are loaded; nil loads all four.
func loadEngine(cmd *cobra.Command, collection string, kinds []store.Kind) (*search.Engine, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	mgr, embedder, err := newManager(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if kinds == nil {
		// Load whatever was built; the engine degrades per missing index.
		for _, kind := range store.AllKinds {
			if mgr.Exists(collection, kind) {
				kinds = append(kinds, kind)
			}
		}
	}
	set, err := mgr.Load(ctx, collection, kinds)
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}
	engine, err := set.Engine(search.ConfigFrom(cfg.Search), log)
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}
	return engine, func() { _ = embedder.Close() }, nil
}
