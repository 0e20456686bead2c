package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// HNSWStore is an approximate vector store backed by coder/hnsw. It trades
// exactness for sublinear search and is only worth choosing above roughly
// a hundred thousand vectors; FlatStore is the default.
type HNSWStore struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]

	dimensions int

	// String IDs map to internal uint64 keys. Replaced IDs leave orphan
	// nodes in the graph; deleting the last node breaks coder/hnsw, so
	// orphans are dropped from the mappings instead.
	idMap   map[string]uint64
	keyMap  map[uint64]string
	vecs    map[string][]float32
	nextKey uint64

	closed bool
}

// hnswSnapshot persists the ID mappings and raw vectors next to the graph.
type hnswSnapshot struct {
	Dimensions int
	IDMap      map[string]uint64
	Vectors    map[string][]float32
	NextKey    uint64
}

// NewHNSWStore creates an empty HNSW store for vectors of the given
// dimensionality.
func NewHNSWStore(dimensions int) *HNSWStore {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 40
	graph.Ml = 0.25

	return &HNSWStore{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
		vecs:       make(map[string][]float32),
	}
}

func (s *HNSWStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New(errors.ErrCodeInternal, "ids and vectors length mismatch", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}

	for _, v := range vectors {
		if len(v) != s.dimensions {
			return errors.DimensionMismatch(s.dimensions, len(v))
		}
	}

	for i, id := range ids {
		if oldKey, exists := s.idMap[id]; exists {
			delete(s.keyMap, oldKey)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
		s.vecs[id] = vec
	}
	return nil
}

// Search overfetches from the graph to compensate for orphaned nodes and
// approximation loss, then re-sorts with ties broken by ascending ID.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}
	if len(query) != s.dimensions {
		return nil, errors.DimensionMismatch(s.dimensions, len(query))
	}
	if s.graph.Len() == 0 || k <= 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	fetch := k * 4
	if fetch < 100 {
		fetch = 100
	}
	nodes := s.graph.Search(q, fetch)

	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, live := s.keyMap[node.Key]
		if !live {
			continue
		}
		distance := s.graph.Distance(q, node.Value)
		results = append(results, VectorResult{
			ID:    id,
			Score: 1 - float64(distance)/2,
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

func (s *HNSWStore) Get(id string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vec, ok := s.vecs[id]
	return vec, ok
}

func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

// Save writes the graph and the ID snapshot, each through a temp file and
// rename.
func (s *HNSWStore) Save(path string) error {
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
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "create graph file")
	}
	if err := s.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "export graph")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "close graph file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "rename graph file")
	}

	metaPath := path + ".meta"
	tmpMeta := metaPath + ".tmp"
	mf, err := os.Create(tmpMeta)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "create snapshot file")
	}
	snap := hnswSnapshot{
		Dimensions: s.dimensions,
		IDMap:      s.idMap,
		Vectors:    s.vecs,
		NextKey:    s.nextKey,
	}
	if err := gob.NewEncoder(mf).Encode(snap); err != nil {
		mf.Close()
		os.Remove(tmpMeta)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "encode snapshot")
	}
	if err := mf.Close(); err != nil {
		os.Remove(tmpMeta)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "close snapshot file")
	}
	if err := os.Rename(tmpMeta, metaPath); err != nil {
		os.Remove(tmpMeta)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "rename snapshot file")
	}
	return nil
}

func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.ErrCodeStoreFailed, "store is closed", nil)
	}

	mf, err := os.Open(path + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrCodeArtifactNotFound, err, "vector store snapshot missing")
		}
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "open snapshot file")
	}
	var snap hnswSnapshot
	if err := gob.NewDecoder(mf).Decode(&snap); err != nil {
		mf.Close()
		return errors.Wrapf(errors.ErrCodeCorruptIndex, err, "decode snapshot")
	}
	mf.Close()

	s.dimensions = snap.Dimensions
	s.idMap = snap.IDMap
	s.vecs = snap.Vectors
	s.nextKey = snap.NextKey
	s.keyMap = make(map[uint64]string, len(snap.IDMap))
	for id, key := range snap.IDMap {
		s.keyMap[key] = id
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeArtifactNotFound, err, "vector store graph missing")
	}
	defer f.Close()

	// coder/hnsw Import needs an io.ByteReader.
	if err := s.graph.Import(bufio.NewReader(f)); err != nil {
		return errors.Wrapf(errors.ErrCodeCorruptIndex, err, "import graph")
	}
	return nil
}

func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	s.vecs = nil
	return nil
}

var _ VectorStore = (*HNSWStore)(nil)
