package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/errors"
)

func TestMetadataRoundtrip(t *testing.T) {
	dir := t.TempDir()

	meta := &Metadata{
		Kind:                KindVector,
		CollectionID:        "zakon-89-2012",
		CreatedAt:           time.Now().UTC(),
		DocumentCount:       120,
		EmbeddingModel:      "paraphrase-multilingual",
		EmbeddingDimensions: 768,
	}
	require.NoError(t, SaveMetadata(dir, meta))

	loaded, err := LoadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, KindVector, loaded.Kind)
	assert.Equal(t, 120, loaded.DocumentCount)
	assert.Equal(t, 768, loaded.EmbeddingDimensions)
}

func TestLoadMetadataMissing(t *testing.T) {
	_, err := LoadMetadata(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeArtifactNotFound, errors.GetCode(err))
}

func TestMetadataValidate(t *testing.T) {
	meta := &Metadata{Kind: KindLexical, CollectionID: "c1"}

	require.NoError(t, meta.Validate(KindLexical, "c1"))

	err := meta.Validate(KindVector, "c1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetadataMismatch, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))

	err = meta.Validate(KindLexical, "other")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetadataMismatch, errors.GetCode(err))
}

func TestMetadataValidateCorpus(t *testing.T) {
	meta := &Metadata{
		Kind:         KindLexical,
		CollectionID: "c1",
		SnapshotID:   "2026-01",
		CorpusHash:   "abc123",
	}

	require.NoError(t, meta.ValidateCorpus("2026-01", "abc123"))

	err := meta.ValidateCorpus("2026-02", "abc123")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetadataMismatch, errors.GetCode(err))

	err = meta.ValidateCorpus("2026-01", "def456")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetadataMismatch, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestMetadataValidateEmbedding(t *testing.T) {
	meta := &Metadata{
		Kind:                KindVector,
		CollectionID:        "c1",
		EmbeddingModel:      "m1",
		EmbeddingDimensions: 256,
	}

	require.NoError(t, meta.ValidateEmbedding("m1", 256))

	err := meta.ValidateEmbedding("m2", 256)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetadataMismatch, errors.GetCode(err))

	err = meta.ValidateEmbedding("m1", 768)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
}
