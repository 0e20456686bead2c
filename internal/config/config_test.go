package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paraerrors "github.com/paragraf-search/paragraf/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.5, cfg.Index.K1)
	assert.Equal(t, 0.75, cfg.Index.B)
	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 50, cfg.Index.ChunkOverlap)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, "rrf", cfg.Search.Rerank)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, paraerrors.ErrCodeConfigNotFound, paraerrors.GetCode(err))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paragraf.yaml")
	content := `
index_dir: /var/lib/paragraf
index:
  k1: 1.2
  chunk_size: 200
  chunk_overlap: 20
search:
  rerank: weighted
embeddings:
  provider: static
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/paragraf", cfg.IndexDir)
	assert.Equal(t, 1.2, cfg.Index.K1)
	assert.Equal(t, 200, cfg.Index.ChunkSize)
	assert.Equal(t, "weighted", cfg.Search.Rerank)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	// Untouched values keep defaults.
	assert.Equal(t, 0.75, cfg.Index.B)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PARAGRAF_INDEX_DIR", "/tmp/from-env")
	t.Setenv("PARAGRAF_RRF_CONSTANT", "90")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env", cfg.IndexDir)
	assert.Equal(t, 90, cfg.Search.RRFConstant)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero k1", func(c *Config) { c.Index.K1 = 0 }},
		{"b out of range", func(c *Config) { c.Index.B = 1.5 }},
		{"overlap >= size", func(c *Config) { c.Index.ChunkOverlap = c.Index.ChunkSize }},
		{"unknown rerank", func(c *Config) { c.Search.Rerank = "magic" }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, paraerrors.ErrCodeConfigInvalid, paraerrors.GetCode(err))
		})
	}
}
