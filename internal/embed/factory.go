package embed

import (
	"context"
	"log/slog"

	"github.com/paragraf-search/paragraf/internal/config"
	"github.com/paragraf-search/paragraf/internal/errors"
)

// NewFromConfig builds the configured embedder stack: the provider
// wrapped in retry and cache layers. Provider "static" yields the
// deterministic hash embedder; "ollama" requires a reachable server.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingsConfig, log *slog.Logger) (Embedder, error) {
	if log == nil {
		log = slog.Default()
	}

	var provider Embedder
	switch cfg.Provider {
	case "static":
		provider = NewStaticEmbedder()
	case "ollama", "":
		ollama, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.Host,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		provider = ollama
	default:
		return nil, errors.Newf(errors.ErrCodeConfigInvalid,
			"unknown embedding provider %q", cfg.Provider)
	}

	stacked := Embedder(NewRetryEmbedder(provider, DefaultMaxRetries, log))
	if cfg.CacheSize > 0 {
		cached, err := NewCachedEmbedder(stacked, cfg.CacheSize)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInternal, err, "create embedding cache")
		}
		stacked = cached
	}

	log.Debug("embedder ready",
		slog.String("provider", cfg.Provider),
		slog.String("model", stacked.ModelName()),
		slog.Int("dimensions", stacked.Dimensions()))
	return stacked, nil
}
