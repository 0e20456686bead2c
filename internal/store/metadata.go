package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// Kind names one persisted index variant within a collection.
type Kind string

const (
	KindLexical     Kind = "lexical"
	KindVector      Kind = "vector"
	KindLexicalFull Kind = "lexical_full"
	KindVectorFull  Kind = "vector_full"
)

// AllKinds lists every index variant in build order.
var AllKinds = []Kind{KindLexical, KindVector, KindLexicalFull, KindVectorFull}

// MetadataFile is the metadata file name inside an artifact directory.
const MetadataFile = "metadata.json"

// Metadata describes one persisted index artifact. It is written last
// during a build and validated first on load, so a directory without a
// readable, matching metadata file is treated as corrupt rather than
// silently served.
type Metadata struct {
	Kind         Kind      `json:"kind"`
	CollectionID string    `json:"collection_id"`
	SnapshotID   string    `json:"snapshot_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// CorpusHash fingerprints the exact document or chunk set the model
	// was built over. A loader recomputes it from the served corpus; a
	// mismatch means the catalog moved on without this artifact.
	CorpusHash string `json:"corpus_hash,omitempty"`

	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count,omitempty"`

	// Lexical scoring parameters, recorded for lexical kinds.
	K1 float64 `json:"k1,omitempty"`
	B  float64 `json:"b,omitempty"`

	// Embedding provenance, recorded for vector kinds. A loaded vector
	// index is only valid with the embedder that produced it.
	EmbeddingModel      string `json:"embedding_model,omitempty"`
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`

	// Chunking parameters, recorded for chunked kinds.
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`

	// DegradedCount is the number of documents or chunks excluded from
	// the vector index after their embedding requests failed.
	DegradedCount int `json:"degraded_count,omitempty"`
}

// SaveMetadata writes the metadata into dir.
func SaveMetadata(dir string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "encode metadata")
	}

	path := filepath.Join(dir, MetadataFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "write metadata")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "rename metadata")
	}
	return nil
}

// LoadMetadata reads and parses the metadata from dir.
func LoadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCodeArtifactNotFound, err, "metadata missing")
		}
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "read metadata")
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCorruptIndex, err, "parse metadata")
	}
	return &meta, nil
}

// Validate fails fast when a loaded artifact does not match what the
// caller is about to serve with.
func (m *Metadata) Validate(kind Kind, collection string) error {
	if m.Kind != kind {
		return errors.Newf(errors.ErrCodeMetadataMismatch,
			"artifact kind %q does not match expected %q", m.Kind, kind)
	}
	if m.CollectionID != collection {
		return errors.Newf(errors.ErrCodeMetadataMismatch,
			"artifact collection %q does not match expected %q", m.CollectionID, collection)
	}
	return nil
}

// ValidateCorpus checks that the corpus about to be served is the one the
// artifact was built over. Catches a catalog rewritten by a later partial
// rebuild while this artifact's model stayed in place.
func (m *Metadata) ValidateCorpus(snapshotID, corpusHash string) error {
	if m.SnapshotID != snapshotID {
		return errors.Newf(errors.ErrCodeMetadataMismatch,
			"artifact built from snapshot %q, catalog holds %q", m.SnapshotID, snapshotID)
	}
	if m.CorpusHash != corpusHash {
		return errors.Newf(errors.ErrCodeMetadataMismatch,
			"artifact corpus fingerprint does not match the stored corpus")
	}
	return nil
}

// ValidateEmbedding checks that a vector artifact was built by the same
// model at the same dimensionality as the active embedder.
func (m *Metadata) ValidateEmbedding(model string, dimensions int) error {
	if m.EmbeddingModel != model {
		return errors.Newf(errors.ErrCodeMetadataMismatch,
			"artifact built with model %q, active model is %q", m.EmbeddingModel, model)
	}
	if m.EmbeddingDimensions != dimensions {
		return errors.DimensionMismatch(dimensions, m.EmbeddingDimensions)
	}
	return nil
}
