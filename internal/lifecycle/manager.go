// Package lifecycle manages persisted index artifacts per collection:
// building, atomic swap-in, validated loading and removal.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/paragraf-search/paragraf/internal/config"
	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/embed"
	"github.com/paragraf-search/paragraf/internal/errors"
	"github.com/paragraf-search/paragraf/internal/index"
	"github.com/paragraf-search/paragraf/internal/search"
	"github.com/paragraf-search/paragraf/internal/store"
)

// Artifact file names inside a kind directory.
const (
	lexicalFile = "index.gob"
	vectorFile  = "vectors.gob"
	hnswFile    = "vectors.hnsw"
	catalogFile = "catalog.db"
	lockFile    = ".build.lock"
)

// hnswThreshold is the corpus size above which builds switch from the
// exact flat store to the approximate HNSW store.
const hnswThreshold = 100_000

// IndexSet holds whatever indexes a collection carries after a build or
// load. Absent kinds stay nil.
type IndexSet struct {
	Lexical     *index.Lexical
	Vector      *index.Vector
	LexicalFull *index.LexicalFull
	VectorFull  *index.VectorFull

	Metadata map[store.Kind]*store.Metadata
}

// Engine assembles the hybrid search engine over the set's indexes.
func (s *IndexSet) Engine(cfg search.Config, log *slog.Logger) (*search.Engine, error) {
	opts := []search.Option{search.WithLogger(log)}
	if s.Lexical != nil {
		opts = append(opts, search.WithLexical(s.Lexical))
	}
	if s.Vector != nil {
		opts = append(opts, search.WithVector(s.Vector))
	}
	if s.LexicalFull != nil {
		opts = append(opts, search.WithLexicalFull(s.LexicalFull))
	}
	if s.VectorFull != nil {
		opts = append(opts, search.WithVectorFull(s.VectorFull))
	}
	return search.NewEngine(cfg, opts...)
}

// Manager builds, loads and clears index artifacts under one base
// directory, one subdirectory per collection, one per kind below that.
type Manager struct {
	baseDir  string
	cfg      *config.Config
	embedder embed.Embedder
	log      *slog.Logger
}

// NewManager creates a manager rooted at cfg.IndexDir.
func NewManager(cfg *config.Config, embedder embed.Embedder, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{baseDir: cfg.IndexDir, cfg: cfg, embedder: embedder, log: log}
}

// collectionDir flattens a collection ID into a safe directory name.
func (m *Manager) collectionDir(collection string) string {
	safe := strings.NewReplacer(":", "_", "/", "_", "\\", "_", " ", "_").Replace(collection)
	return filepath.Join(m.baseDir, safe)
}

func (m *Manager) kindDir(collection string, kind store.Kind) string {
	return filepath.Join(m.collectionDir(collection), string(kind))
}

// Exists reports whether a complete artifact for the kind is present. A
// directory without readable metadata does not count.
func (m *Manager) Exists(collection string, kind store.Kind) bool {
	_, err := store.LoadMetadata(m.kindDir(collection, kind))
	return err == nil
}

// Metadata returns one artifact's stored metadata without loading the
// index itself.
func (m *Manager) Metadata(collection string, kind store.Kind) (*store.Metadata, error) {
	return store.LoadMetadata(m.kindDir(collection, kind))
}

// Clear removes every artifact of a collection. Clearing a collection
// that was never built is not an error.
func (m *Manager) Clear(collection string) error {
	dir := m.collectionDir(collection)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "clear collection artifacts")
	}
	m.log.Info("collection artifacts cleared", slog.String("collection", collection))
	return nil
}

// Build constructs the requested index kinds from the document batch and
// swaps each artifact in atomically: everything is written into a temp
// directory first and renamed over the old artifact only when complete.
// A concurrent build of the same collection is refused, not queued.
func (m *Manager) Build(ctx context.Context, collection string, docs []*domain.Document, kinds []store.Kind) (*IndexSet, error) {
	if len(kinds) == 0 {
		kinds = store.AllKinds
	}
	colDir := m.collectionDir(collection)
	if err := os.MkdirAll(colDir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "create collection directory")
	}

	lock := flock.New(filepath.Join(colDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "acquire build lock")
	}
	if !locked {
		return nil, errors.Newf(errors.ErrCodeLocked, "collection %q is being built by another process", collection)
	}
	defer lock.Unlock()

	start := time.Now()
	m.log.Info("building indexes",
		slog.String("collection", collection),
		slog.Int("documents", len(docs)),
		slog.Int("kinds", len(kinds)))

	chunks := domain.ChunkCorpus(docs, m.cfg.Index.ChunkSize, m.cfg.Index.ChunkOverlap)

	catalog, err := store.OpenCatalog(filepath.Join(colDir, catalogFile))
	if err != nil {
		return nil, err
	}
	defer catalog.Close()
	if err := catalog.SaveDocuments(ctx, docs); err != nil {
		return nil, err
	}
	if err := catalog.SaveChunks(ctx, chunks); err != nil {
		return nil, err
	}

	set := &IndexSet{Metadata: make(map[store.Kind]*store.Metadata)}
	params := index.BM25Params{K1: m.cfg.Index.K1, B: m.cfg.Index.B}

	for _, kind := range kinds {
		meta, err := m.buildKind(ctx, collection, kind, docs, chunks, params, set)
		if err != nil {
			return nil, attachBuildContext(err, collection, kind)
		}
		set.Metadata[kind] = meta
	}

	m.log.Info("indexes built",
		slog.String("collection", collection),
		slog.Duration("elapsed", time.Since(start)))
	return set, nil
}

// buildKind builds one index variant into a temp directory and swaps it
// into place.
func (m *Manager) buildKind(ctx context.Context, collection string, kind store.Kind, docs []*domain.Document, chunks []domain.Chunk, params index.BM25Params, set *IndexSet) (*store.Metadata, error) {
	colDir := m.collectionDir(collection)
	tmpDir, err := os.MkdirTemp(colDir, ".build-"+string(kind)+"-*")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "create build directory")
	}
	defer os.RemoveAll(tmpDir)

	meta := &store.Metadata{
		Kind:          kind,
		CollectionID:  collection,
		SnapshotID:    snapshotOf(docs),
		CreatedAt:     time.Now().UTC(),
		DocumentCount: len(docs),
	}
	switch kind {
	case store.KindLexicalFull, store.KindVectorFull:
		meta.CorpusHash = domain.ChunkFingerprint(chunks)
	default:
		meta.CorpusHash = domain.Fingerprint(docs)
	}

	switch kind {
	case store.KindLexical:
		idx, err := index.BuildLexical(docs, params, m.log)
		if err != nil {
			return nil, err
		}
		if err := idx.Save(filepath.Join(tmpDir, lexicalFile)); err != nil {
			return nil, err
		}
		meta.K1, meta.B = params.K1, params.B
		set.Lexical = idx

	case store.KindVector:
		vs := m.newVectorStore(len(docs))
		idx, err := index.BuildVector(ctx, docs, m.embedder, vs, m.log)
		if err != nil {
			return nil, err
		}
		if err := saveVectorStore(vs, tmpDir); err != nil {
			return nil, err
		}
		meta.EmbeddingModel = m.embedder.ModelName()
		meta.EmbeddingDimensions = m.embedder.Dimensions()
		meta.DegradedCount = idx.DegradedCount()
		set.Vector = idx

	case store.KindLexicalFull:
		idx, err := index.BuildLexicalFull(chunks, docs, params, m.log)
		if err != nil {
			return nil, err
		}
		if err := idx.Save(filepath.Join(tmpDir, lexicalFile)); err != nil {
			return nil, err
		}
		meta.K1, meta.B = params.K1, params.B
		meta.ChunkCount = len(chunks)
		meta.ChunkSize = m.cfg.Index.ChunkSize
		meta.ChunkOverlap = m.cfg.Index.ChunkOverlap
		set.LexicalFull = idx

	case store.KindVectorFull:
		vs := m.newVectorStore(len(chunks))
		idx, err := index.BuildVectorFull(ctx, chunks, docs, m.embedder, vs, m.log)
		if err != nil {
			return nil, err
		}
		if err := saveVectorStore(vs, tmpDir); err != nil {
			return nil, err
		}
		meta.EmbeddingModel = m.embedder.ModelName()
		meta.EmbeddingDimensions = m.embedder.Dimensions()
		meta.ChunkCount = len(chunks)
		meta.ChunkSize = m.cfg.Index.ChunkSize
		meta.ChunkOverlap = m.cfg.Index.ChunkOverlap
		meta.DegradedCount = idx.DegradedCount()
		set.VectorFull = idx

	default:
		return nil, errors.Newf(errors.ErrCodeInternal, "unknown index kind %q", kind)
	}

	// Metadata is written last inside the temp directory, then the whole
	// directory replaces the previous artifact in one rename.
	if err := store.SaveMetadata(tmpDir, meta); err != nil {
		return nil, err
	}

	final := m.kindDir(collection, kind)
	if err := os.RemoveAll(final); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "remove previous artifact")
	}
	if err := os.Rename(tmpDir, final); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "swap artifact into place")
	}
	return meta, nil
}

// snapshotOf returns the batch's snapshot tag; documents of one build all
// carry the same one.
func snapshotOf(docs []*domain.Document) string {
	if len(docs) == 0 {
		return ""
	}
	return docs[0].SnapshotID
}

func (m *Manager) newVectorStore(count int) store.VectorStore {
	if count > hnswThreshold {
		return store.NewHNSWStore(m.embedder.Dimensions())
	}
	return store.NewFlatStore(m.embedder.Dimensions())
}

func saveVectorStore(vs store.VectorStore, dir string) error {
	if _, ok := vs.(*store.HNSWStore); ok {
		return vs.Save(filepath.Join(dir, hnswFile))
	}
	return vs.Save(filepath.Join(dir, vectorFile))
}

// loadVectorStore restores whichever store variant the artifact holds.
func loadVectorStore(dir string, dimensions int) (store.VectorStore, error) {
	hnswPath := filepath.Join(dir, hnswFile)
	if _, err := os.Stat(hnswPath); err == nil {
		vs := store.NewHNSWStore(dimensions)
		if err := vs.Load(hnswPath); err != nil {
			return nil, err
		}
		return vs, nil
	}
	vs := store.NewFlatStore(dimensions)
	if err := vs.Load(filepath.Join(dir, vectorFile)); err != nil {
		return nil, err
	}
	return vs, nil
}

// Load restores the requested kinds from disk, validating every
// artifact's metadata before serving it.
func (m *Manager) Load(ctx context.Context, collection string, kinds []store.Kind) (*IndexSet, error) {
	if len(kinds) == 0 {
		kinds = store.AllKinds
	}

	catalog, err := store.OpenCatalog(filepath.Join(m.collectionDir(collection), catalogFile))
	if err != nil {
		return nil, err
	}
	defer catalog.Close()

	docs, err := catalog.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := catalog.LoadChunks(ctx)
	if err != nil {
		return nil, err
	}

	set := &IndexSet{Metadata: make(map[store.Kind]*store.Metadata)}
	for _, kind := range kinds {
		meta, err := m.loadKind(collection, kind, docs, chunks, set)
		if err != nil {
			return nil, attachBuildContext(err, collection, kind)
		}
		set.Metadata[kind] = meta
	}
	return set, nil
}

func (m *Manager) loadKind(collection string, kind store.Kind, docs []*domain.Document, chunks []domain.Chunk, set *IndexSet) (*store.Metadata, error) {
	dir := m.kindDir(collection, kind)
	meta, err := store.LoadMetadata(dir)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(kind, collection); err != nil {
		return nil, err
	}

	// The artifact must have been built over exactly the corpus the
	// catalog now holds; a partial rebuild of other kinds rewrites the
	// catalog and strands this model.
	corpusHash := domain.Fingerprint(docs)
	if kind == store.KindLexicalFull || kind == store.KindVectorFull {
		corpusHash = domain.ChunkFingerprint(chunks)
	}
	if err := meta.ValidateCorpus(snapshotOf(docs), corpusHash); err != nil {
		return nil, err
	}

	switch kind {
	case store.KindLexical:
		idx, err := index.LoadLexical(filepath.Join(dir, lexicalFile), docs, m.log)
		if err != nil {
			return nil, err
		}
		set.Lexical = idx

	case store.KindVector:
		if err := meta.ValidateEmbedding(m.embedder.ModelName(), m.embedder.Dimensions()); err != nil {
			return nil, err
		}
		vs, err := loadVectorStore(dir, meta.EmbeddingDimensions)
		if err != nil {
			return nil, err
		}
		set.Vector = index.NewVector(vs, docs, m.embedder, m.log)

	case store.KindLexicalFull:
		idx, err := index.LoadLexicalFull(filepath.Join(dir, lexicalFile), chunks, docs, m.log)
		if err != nil {
			return nil, err
		}
		set.LexicalFull = idx

	case store.KindVectorFull:
		if err := meta.ValidateEmbedding(m.embedder.ModelName(), m.embedder.Dimensions()); err != nil {
			return nil, err
		}
		vs, err := loadVectorStore(dir, meta.EmbeddingDimensions)
		if err != nil {
			return nil, err
		}
		set.VectorFull = index.NewVectorFull(vs, chunks, docs, m.embedder, m.log)

	default:
		return nil, errors.Newf(errors.ErrCodeInternal, "unknown index kind %q", kind)
	}
	return meta, nil
}

// Stats loads the lexical artifacts of a collection and reports their
// scoring-model figures. Kinds without an artifact are omitted.
func (m *Manager) Stats(ctx context.Context, collection string) (map[store.Kind]index.Stats, error) {
	stats := make(map[store.Kind]index.Stats)
	for _, kind := range []store.Kind{store.KindLexical, store.KindLexicalFull} {
		if !m.Exists(collection, kind) {
			continue
		}
		set, err := m.Load(ctx, collection, []store.Kind{kind})
		if err != nil {
			return nil, err
		}
		switch kind {
		case store.KindLexical:
			stats[kind] = set.Lexical.Stats()
		case store.KindLexicalFull:
			stats[kind] = set.LexicalFull.Stats()
		}
	}
	return stats, nil
}

// LoadOrBuild loads existing artifacts and falls back to building from
// the supplied batch when artifacts are missing or force is set. Corrupt
// or mismatched artifacts fail fast instead of silently rebuilding,
// since a rebuild may hide an operational problem.
func (m *Manager) LoadOrBuild(ctx context.Context, collection string, docs []*domain.Document, kinds []store.Kind, force bool) (*IndexSet, error) {
	if len(kinds) == 0 {
		kinds = store.AllKinds
	}

	if !force {
		missing := false
		for _, kind := range kinds {
			if !m.Exists(collection, kind) {
				missing = true
				break
			}
		}
		if !missing {
			m.log.Debug("loading existing artifacts", slog.String("collection", collection))
			return m.Load(ctx, collection, kinds)
		}
	}
	return m.Build(ctx, collection, docs, kinds)
}

// attachBuildContext enriches a ParaError with the collection and kind
// it failed on.
func attachBuildContext(err error, collection string, kind store.Kind) error {
	var pe *errors.ParaError
	if e, ok := err.(*errors.ParaError); ok {
		pe = e
	} else {
		pe = errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	return pe.WithDetail("collection", collection).WithDetail("kind", string(kind))
}
