package index

import (
	"context"
	"encoding/gob"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/embed"
	"github.com/paragraf-search/paragraf/internal/errors"
	"github.com/paragraf-search/paragraf/internal/store"
)

// LexicalFull is the BM25 index over body-text chunks. It shares its
// chunk set with VectorFull, so chunk IDs line up across both variants.
type LexicalFull struct {
	model  *BM25Model
	chunks []domain.Chunk
	docs   map[string]*domain.Document
	log    *slog.Logger
}

type lexicalFullSnapshot struct {
	Model    *BM25Model
	ChunkIDs []string
}

// BuildLexicalFull indexes a pre-built chunk set. An empty set means the
// corpus carries no body text at all, which is a build error for the
// chunked variants.
func BuildLexicalFull(chunks []domain.Chunk, docs []*domain.Document, params BM25Params, log *slog.Logger) (*LexicalFull, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(chunks) == 0 {
		return nil, errors.NoContent("")
	}

	corpus := make([][]string, len(chunks))
	for i, ch := range chunks {
		corpus[i] = Tokenize(ch.Text)
	}

	return &LexicalFull{
		model:  NewBM25Model(corpus, params),
		chunks: chunks,
		docs:   docsByID(docs),
		log:    log,
	}, nil
}

// Count returns the number of indexed chunks.
func (l *LexicalFull) Count() int { return len(l.chunks) }

// Params returns the scoring parameters the index was built with.
func (l *LexicalFull) Params() BM25Params { return l.model.Params }

// Stats reports corpus-level figures of the chunk scoring model.
func (l *LexicalFull) Stats() Stats {
	return Stats{
		Documents:  len(l.chunks),
		Vocabulary: len(l.model.DocFreq),
		AvgDocLen:  l.model.AvgDocLen,
		K1:         l.model.Params.K1,
		B:          l.model.Params.B,
	}
}

// Search scores every chunk and returns the top k with their parent
// documents attached. Filters apply to the parent document.
func (l *LexicalFull) Search(q *domain.Query, k int) ([]domain.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tokens := Tokenize(q.Text)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores := l.model.Scores(tokens)

	var results []domain.Result
	for i, score := range scores {
		if score <= 0 {
			continue
		}
		if q.MinScore > 0 && score < q.MinScore {
			continue
		}
		chunk := l.chunks[i]
		doc := l.docs[chunk.DocumentID]
		if doc != nil && !q.Matches(doc) {
			continue
		}
		results = append(results, domain.Result{
			Document: doc,
			Chunk:    &l.chunks[i],
			Score:    score,
			Snippet:  truncateSnippet(chunk.Text),
		})
	}

	sortChunkResults(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	domain.Rerank(results)
	return results, nil
}

// SearchExactPhrase scans every chunk for a literal, case-insensitive
// occurrence of the phrase. The score is the occurrence count. The scan
// never fails; an empty or unmatched phrase yields an empty list.
func (l *LexicalFull) SearchExactPhrase(phrase string, k int) []domain.Result {
	needle := strings.ToLower(strings.TrimSpace(phrase))
	if needle == "" {
		return nil
	}

	var results []domain.Result
	for i := range l.chunks {
		count := strings.Count(strings.ToLower(l.chunks[i].Text), needle)
		if count == 0 {
			continue
		}
		results = append(results, domain.Result{
			Document: l.docs[l.chunks[i].DocumentID],
			Chunk:    &l.chunks[i],
			Score:    float64(count),
			Snippet:  truncateSnippet(l.chunks[i].Text),
		})
	}

	sortChunkResults(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	domain.Rerank(results)
	return results
}

// Save persists the scoring model and chunk ID order; chunk texts live
// in the catalog.
func (l *LexicalFull) Save(path string) error {
	ids := make([]string, len(l.chunks))
	for i, ch := range l.chunks {
		ids[i] = ch.ID
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "create chunk index file")
	}
	if err := gob.NewEncoder(f).Encode(lexicalFullSnapshot{Model: l.model, ChunkIDs: ids}); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "encode chunk index")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "close chunk index file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "rename chunk index file")
	}
	return nil
}

// LoadLexicalFull restores a persisted chunk index, reattaching chunk
// texts and parent documents from the catalog in persisted order.
func LoadLexicalFull(path string, chunks []domain.Chunk, docs []*domain.Document, log *slog.Logger) (*LexicalFull, error) {
	if log == nil {
		log = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCodeArtifactNotFound, err, "chunk index file missing")
		}
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "open chunk index file")
	}
	defer f.Close()

	var snap lexicalFullSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCorruptIndex, err, "decode chunk index")
	}

	byID := make(map[string]domain.Chunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}
	ordered := make([]domain.Chunk, len(snap.ChunkIDs))
	for i, id := range snap.ChunkIDs {
		ch, ok := byID[id]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeCorruptIndex,
				"indexed chunk %q missing from catalog", id)
		}
		ordered[i] = ch
	}

	return &LexicalFull{
		model:  snap.Model,
		chunks: ordered,
		docs:   docsByID(docs),
		log:    log,
	}, nil
}

// VectorFull is the semantic index over body-text chunk embeddings.
type VectorFull struct {
	vs       store.VectorStore
	chunks   map[string]*domain.Chunk
	docs     map[string]*domain.Document
	embedder embed.Embedder
	degraded int
	log      *slog.Logger
}

// BuildVectorFull embeds every chunk and fills the vector store. Failed
// chunks degrade the index the same way failed documents degrade the
// document-level vector index.
func BuildVectorFull(ctx context.Context, chunks []domain.Chunk, docs []*domain.Document, embedder embed.Embedder, vs store.VectorStore, log *slog.Logger) (*VectorFull, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(chunks) == 0 {
		return nil, errors.NoContent("")
	}

	var (
		mu       sync.Mutex
		degraded int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, ch := range batch {
				texts[i] = ch.Text
			}

			ids := make([]string, 0, len(batch))
			vecs := make([][]float32, 0, len(batch))

			batchVecs, err := embedder.EmbedBatch(gctx, texts)
			if err == nil {
				for i, ch := range batch {
					ids = append(ids, ch.ID)
					vecs = append(vecs, batchVecs[i])
				}
			} else {
				log.Warn("chunk embedding batch failed, retrying per chunk",
					slog.String("error", err.Error()))
				for i, ch := range batch {
					vec, embErr := embedder.Embed(gctx, texts[i])
					if embErr != nil {
						log.Warn("chunk embedding failed, degrading index",
							slog.String("id", ch.ID),
							slog.String("error", embErr.Error()))
						mu.Lock()
						degraded++
						mu.Unlock()
						continue
					}
					ids = append(ids, ch.ID)
					vecs = append(vecs, vec)
				}
			}

			if len(ids) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			return vs.Add(gctx, ids, vecs)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeIndexFailed, err, "build chunk vector index")
	}
	if vs.Count() == 0 {
		return nil, errors.New(errors.ErrCodeProviderUnavailable,
			"every chunk embedding failed", nil)
	}
	if degraded > 0 {
		log.Warn("chunk vector index built degraded",
			slog.Int("degraded", degraded),
			slog.Int("indexed", vs.Count()))
	}

	vf := newVectorFull(vs, chunks, docs, embedder, log)
	vf.degraded = degraded
	return vf, nil
}

// NewVectorFull wraps an already-populated store, used after loading
// artifacts from disk.
func NewVectorFull(vs store.VectorStore, chunks []domain.Chunk, docs []*domain.Document, embedder embed.Embedder, log *slog.Logger) *VectorFull {
	return newVectorFull(vs, chunks, docs, embedder, log)
}

func newVectorFull(vs store.VectorStore, chunks []domain.Chunk, docs []*domain.Document, embedder embed.Embedder, log *slog.Logger) *VectorFull {
	if log == nil {
		log = slog.Default()
	}
	byID := make(map[string]*domain.Chunk, len(chunks))
	for i := range chunks {
		byID[chunks[i].ID] = &chunks[i]
	}
	return &VectorFull{
		vs:       vs,
		chunks:   byID,
		docs:     docsByID(docs),
		embedder: embedder,
		log:      log,
	}
}

// Count returns the number of indexed chunks.
func (v *VectorFull) Count() int { return v.vs.Count() }

// DegradedCount reports how many chunks were skipped during the build.
func (v *VectorFull) DegradedCount() int { return v.degraded }

// Store exposes the underlying vector store for persistence.
func (v *VectorFull) Store() store.VectorStore { return v.vs }

// Search embeds the query and returns the k nearest chunks.
func (v *VectorFull) Search(ctx context.Context, q *domain.Query, k int) ([]domain.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	queryVec, err := v.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSearchFailed, err, "embed query")
	}

	hits, err := v.vs.Search(ctx, queryVec, v.vs.Count())
	if err != nil {
		return nil, err
	}
	return v.collect(hits, q, k, "")
}

// SimilarChunks returns the k chunks nearest to an indexed chunk,
// excluding the chunk itself.
func (v *VectorFull) SimilarChunks(ctx context.Context, chunkID string, k int) ([]domain.Result, error) {
	vec, ok := v.vs.Get(chunkID)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeInvalidQuery, "chunk %q is not in the vector index", chunkID)
	}

	hits, err := v.vs.Search(ctx, vec, v.vs.Count())
	if err != nil {
		return nil, err
	}
	return v.collect(hits, nil, k, chunkID)
}

func (v *VectorFull) collect(hits []store.VectorResult, q *domain.Query, k int, excludeID string) ([]domain.Result, error) {
	var results []domain.Result
	for _, hit := range hits {
		if hit.ID == excludeID {
			continue
		}
		chunk, ok := v.chunks[hit.ID]
		if !ok {
			continue
		}
		doc := v.docs[chunk.DocumentID]
		if q != nil {
			if doc != nil && !q.Matches(doc) {
				continue
			}
			if q.MinScore > 0 && hit.Score < q.MinScore {
				continue
			}
		}
		results = append(results, domain.Result{
			Document: doc,
			Chunk:    chunk,
			Score:    hit.Score,
			Snippet:  truncateSnippet(chunk.Text),
		})
	}

	sortChunkResults(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	domain.Rerank(results)
	return results, nil
}

func docsByID(docs []*domain.Document) map[string]*domain.Document {
	byID := make(map[string]*domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return byID
}

// sortChunkResults orders by score descending with ties broken by
// ascending chunk ID.
func sortChunkResults(results []domain.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}
