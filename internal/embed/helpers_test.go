package embed

import (
	"github.com/paragraf-search/paragraf/internal/config"
)

func testEmbeddingsConfig(provider string) config.EmbeddingsConfig {
	cfg := config.Default().Embeddings
	cfg.Provider = provider
	cfg.CacheSize = 8
	return cfg
}
