// Package store holds the persistence primitives of the index layer: the
// vector stores (exact flat scan and approximate HNSW), the SQLite catalog
// carrying documents and chunks, and the artifact metadata envelope.
package store

import (
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// VectorResult is one nearest-neighbour hit. Score is cosine similarity
// mapped onto [0,1], higher is better.
type VectorResult struct {
	ID    string
	Score float64
}

// VectorStore holds embedding vectors keyed by string ID.
type VectorStore interface {
	// Add inserts or replaces vectors. ids and vectors must align.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search returns up to k nearest neighbours, best first. Ties break
	// by ascending ID.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Get returns the stored vector for id.
	Get(id string) ([]float32, bool)

	// Count reports the number of stored vectors.
	Count() int

	// Save persists the store to path atomically.
	Save(path string) error

	// Load replaces the store contents from path.
	Load(path string) error

	Close() error
}

// FlatStore is an exact brute-force vector store. Every search scans all
// vectors, which stays comfortably fast for corpora in the tens of
// thousands and makes results exactly reproducible. It is the default.
type FlatStore struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	vectors    map[string][]float32
	closed     bool
}

// flatSnapshot is the gob persistence form of a FlatStore.
type flatSnapshot struct {
	Dimensions int
	IDs        []string
	Vectors    map[string][]float32
}

// NewFlatStore creates an empty flat store for vectors of the given
// dimensionality.
func NewFlatStore(dimensions int) *FlatStore {
	return &FlatStore{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}
}

func (s *FlatStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New(errors.ErrCodeInternal, "ids and vectors length mismatch", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}

	for i, id := range ids {
		if len(vectors[i]) != s.dimensions {
			return errors.DimensionMismatch(s.dimensions, len(vectors[i]))
		}
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		if _, exists := s.vectors[id]; !exists {
			s.ids = append(s.ids, id)
		}
		s.vectors[id] = vec
	}
	return nil
}

// Search scans every stored vector. With normalized vectors the dot
// product is the cosine, mapped to [0,1] as (cos+1)/2.
func (s *FlatStore) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}
	if len(query) != s.dimensions {
		return nil, errors.DimensionMismatch(s.dimensions, len(query))
	}
	if len(s.ids) == 0 || k <= 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	results := make([]VectorResult, 0, len(s.ids))
	for _, id := range s.ids {
		results = append(results, VectorResult{
			ID:    id,
			Score: cosineScore(q, s.vectors[id]),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *FlatStore) Get(id string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vec, ok := s.vectors[id]
	return vec, ok
}

func (s *FlatStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Save writes the store via a temp file and rename; readers of the final
// path never observe a partial write.
func (s *FlatStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "create store directory")
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "create store file")
	}

	snap := flatSnapshot{Dimensions: s.dimensions, IDs: s.ids, Vectors: s.vectors}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "encode store")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "close store file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "rename store file")
	}
	return nil
}

func (s *FlatStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrCodeArtifactNotFound, err, "vector store file missing")
		}
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "open store file")
	}
	defer f.Close()

	var snap flatSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return errors.Wrapf(errors.ErrCodeCorruptIndex, err, "decode vector store")
	}

	s.dimensions = snap.Dimensions
	s.ids = snap.IDs
	s.vectors = snap.Vectors
	if s.vectors == nil {
		s.vectors = make(map[string][]float32)
	}
	return nil
}

func (s *FlatStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.vectors = nil
	s.ids = nil
	return nil
}

var _ VectorStore = (*FlatStore)(nil)

// normalizeInPlace scales v to unit length. Zero vectors stay zero.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// cosineScore maps the cosine of two unit vectors onto [0,1].
func cosineScore(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return (dot + 1) / 2
}
