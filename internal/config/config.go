// Package config loads and validates the paragraf configuration.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// YAML file, and PARAGRAF_* environment variables (highest priority). All
// values are threaded explicitly through constructors; there are no mutable
// package-level defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	paraerrors "github.com/paragraf-search/paragraf/internal/errors"
)

// Config represents the complete paragraf configuration.
type Config struct {
	// IndexDir is the base directory for persisted index artifacts.
	IndexDir string `yaml:"index_dir"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
}

// IndexConfig configures index construction parameters. They are recorded
// in each artifact's metadata so a loader can detect drift.
type IndexConfig struct {
	// K1 is the BM25 term frequency saturation parameter.
	K1 float64 `yaml:"k1"`

	// B is the BM25 length normalization parameter.
	B float64 `yaml:"b"`

	// ChunkSize is the full-text chunk window in words.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkOverlap is the word overlap between consecutive chunks.
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// SearchConfig configures the hybrid fusion engine.
type SearchConfig struct {
	// LexicalWeight and SemanticWeight drive weighted fusion. They are
	// expected to sum to 1; the engine re-normalizes defensively when
	// they do not.
	LexicalWeight  float64 `yaml:"lexical_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`

	// FullTextWeight scales the chunk-level contribution when full-text
	// blending is enabled. Distinct from the summary-level weights.
	FullTextWeight float64 `yaml:"full_text_weight"`

	// RRFConstant is the RRF smoothing parameter (default 60).
	RRFConstant int `yaml:"rrf_constant"`

	// Rerank selects the fusion algorithm: "rrf" or "weighted".
	Rerank string `yaml:"rerank"`

	// LexicalK and VectorK are per-source fetch depths.
	LexicalK int `yaml:"lexical_k"`
	VectorK  int `yaml:"vector_k"`

	// FinalK is the default result count when a query does not set one.
	FinalK int `yaml:"final_k"`

	// BroadenThreshold triggers the keyword_first vector broadening when
	// the keyword pass returns fewer results than this.
	BroadenThreshold int `yaml:"broaden_threshold"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" or "static".
	Provider string `yaml:"provider"`

	// Model is the embedding model identifier. Recorded in vector index
	// metadata so loads can detect a provider mismatch.
	Model string `yaml:"model"`

	// Dimensions is the embedding dimension. 0 means provider default.
	Dimensions int `yaml:"dimensions"`

	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`

	// BatchSize is the number of texts per embedding request.
	BatchSize int `yaml:"batch_size"`

	// Timeout bounds a single embedding request. This is the only
	// cancellation point a build needs; a timed-out document degrades
	// the vector index instead of aborting the build.
	Timeout time.Duration `yaml:"timeout"`

	// CacheSize is the query-embedding LRU capacity.
	CacheSize int `yaml:"cache_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		IndexDir: "./indexes",
		LogLevel: "info",
		Index: IndexConfig{
			K1:           1.5,
			B:            0.75,
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Search: SearchConfig{
			LexicalWeight:    0.4,
			SemanticWeight:   0.6,
			FullTextWeight:   0.3,
			RRFConstant:      60,
			Rerank:           "rrf",
			LexicalK:         30,
			VectorK:          50,
			FinalK:           10,
			BroadenThreshold: 5,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "paraphrase-multilingual",
			Dimensions: 0,
			Host:       "http://localhost:11434",
			BatchSize:  32,
			Timeout:    60 * time.Second,
			CacheSize:  1000,
		},
	}
}

// Load reads configuration from the given YAML file, layered over defaults
// and under environment overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, paraerrors.Newf(paraerrors.ErrCodeConfigNotFound,
					"config file not found: %s", path)
			}
			return nil, paraerrors.Wrap(paraerrors.ErrCodeConfigInvalid, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, paraerrors.Wrap(paraerrors.ErrCodeConfigInvalid, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies PARAGRAF_* environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("PARAGRAF_INDEX_DIR"); v != "" {
		c.IndexDir = v
	}
	if v := os.Getenv("PARAGRAF_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PARAGRAF_OLLAMA_HOST"); v != "" {
		c.Embeddings.Host = v
	}
	if v := os.Getenv("PARAGRAF_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("PARAGRAF_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("PARAGRAF_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.RRFConstant = n
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Index.K1 <= 0 {
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid, "k1 must be positive, got %v", c.Index.K1)
	}
	if c.Index.B < 0 || c.Index.B > 1 {
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid, "b must be in [0,1], got %v", c.Index.B)
	}
	if c.Index.ChunkSize <= 0 {
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid, "chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid,
			"chunk_overlap must be in [0, chunk_size), got %d", c.Index.ChunkOverlap)
	}
	if c.Search.RRFConstant <= 0 {
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid, "rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	switch c.Search.Rerank {
	case "rrf", "weighted":
	default:
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid, "unknown rerank strategy %q", c.Search.Rerank)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return paraerrors.Newf(paraerrors.ErrCodeConfigInvalid, "unknown embeddings provider %q", c.Embeddings.Provider)
	}
	return nil
}

// String returns a compact summary for logs. Embedding host included,
// nothing secret lives in this config.
func (c *Config) String() string {
	return fmt.Sprintf("index_dir=%s provider=%s model=%s rerank=%s",
		c.IndexDir, c.Embeddings.Provider, c.Embeddings.Model, c.Search.Rerank)
}
