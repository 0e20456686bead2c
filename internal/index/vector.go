package index

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/embed"
	"github.com/paragraf-search/paragraf/internal/errors"
	"github.com/paragraf-search/paragraf/internal/store"
)

// embedConcurrency bounds parallel embedding batches during builds.
const embedConcurrency = 4

// embedBatchSize is the number of texts handed to the embedder per
// build-side call.
const embedBatchSize = 32

// Vector is the semantic index over document embeddings. Build failures
// of individual documents degrade the index instead of aborting it; the
// count of degraded documents is surfaced so operators can rebuild.
type Vector struct {
	vs       store.VectorStore
	docs     map[string]*domain.Document
	embedder embed.Embedder
	degraded int
	log      *slog.Logger
}

// BuildVector embeds every indexable document's embedding text and fills
// the vector store. Documents whose embedding fails even after a per-doc
// retry are skipped and counted as degraded; a build where every single
// document fails is a provider error, not an empty index.
func BuildVector(ctx context.Context, docs []*domain.Document, embedder embed.Embedder, vs store.VectorStore, log *slog.Logger) (*Vector, error) {
	if log == nil {
		log = slog.Default()
	}

	var eligible []*domain.Document
	byID := make(map[string]*domain.Document)
	for _, d := range docs {
		if !d.Indexable() {
			continue
		}
		eligible = append(eligible, d)
		byID[d.ID] = d
	}
	if len(eligible) == 0 {
		return nil, errors.EmptyCorpus("")
	}

	var (
		mu       sync.Mutex
		degraded int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(eligible); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(eligible) {
			end = len(eligible)
		}
		batch := eligible[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, d := range batch {
				texts[i] = d.EmbeddingText()
			}

			ids := make([]string, 0, len(batch))
			vecs := make([][]float32, 0, len(batch))

			batchVecs, err := embedder.EmbedBatch(gctx, texts)
			if err == nil {
				for i, d := range batch {
					ids = append(ids, d.ID)
					vecs = append(vecs, batchVecs[i])
				}
			} else {
				// Whole batch failed; retry one document at a time so a
				// single poisonous text cannot take out its neighbours.
				log.Warn("embedding batch failed, retrying per document",
					slog.String("error", err.Error()))
				for i, d := range batch {
					vec, embErr := embedder.Embed(gctx, texts[i])
					if embErr != nil {
						log.Warn("document embedding failed, degrading index",
							slog.String("id", d.ID),
							slog.String("error", embErr.Error()))
						mu.Lock()
						degraded++
						mu.Unlock()
						continue
					}
					ids = append(ids, d.ID)
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
		return nil, errors.Wrapf(errors.ErrCodeIndexFailed, err, "build vector index")
	}

	if vs.Count() == 0 {
		return nil, errors.New(errors.ErrCodeProviderUnavailable,
			"every document embedding failed", nil)
	}
	if degraded > 0 {
		log.Warn("vector index built degraded",
			slog.Int("degraded", degraded),
			slog.Int("indexed", vs.Count()))
	}

	return &Vector{vs: vs, docs: byID, embedder: embedder, degraded: degraded, log: log}, nil
}

// NewVector wraps an already-populated store, used after loading
// artifacts from disk.
func NewVector(vs store.VectorStore, docs []*domain.Document, embedder embed.Embedder, log *slog.Logger) *Vector {
	if log == nil {
		log = slog.Default()
	}
	byID := make(map[string]*domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return &Vector{vs: vs, docs: byID, embedder: embedder, log: log}
}

// Count returns the number of indexed documents.
func (v *Vector) Count() int { return v.vs.Count() }

// DegradedCount reports how many documents were skipped during the build.
func (v *Vector) DegradedCount() int { return v.degraded }

// Store exposes the underlying vector store for persistence.
func (v *Vector) Store() store.VectorStore { return v.vs }

// Search embeds the query text and returns the k nearest documents.
// Structural filters apply before truncation: every candidate is fetched
// and filtered, then the top k survive.
func (v *Vector) Search(ctx context.Context, q *domain.Query, k int) ([]domain.Result, error) {
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

// Similar returns the k documents nearest to an already-indexed document,
// excluding the document itself.
func (v *Vector) Similar(ctx context.Context, docID string, k int) ([]domain.Result, error) {
	vec, ok := v.vs.Get(docID)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeInvalidQuery, "document %q is not in the vector index", docID)
	}

	hits, err := v.vs.Search(ctx, vec, v.vs.Count())
	if err != nil {
		return nil, err
	}
	return v.collect(hits, nil, k, docID)
}

// collect maps store hits onto documents, applies filters, truncates and
// ranks.
func (v *Vector) collect(hits []store.VectorResult, q *domain.Query, k int, excludeID string) ([]domain.Result, error) {
	var results []domain.Result
	for _, hit := range hits {
		if hit.ID == excludeID {
			continue
		}
		doc, ok := v.docs[hit.ID]
		if !ok {
			continue
		}
		if q != nil {
			if !q.Matches(doc) {
				continue
			}
			if q.MinScore > 0 && hit.Score < q.MinScore {
				continue
			}
		}
		results = append(results, domain.Result{
			Document: doc,
			Score:    hit.Score,
			Snippet:  truncateSnippet(pickSummary(doc)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	domain.Rerank(results)
	return results, nil
}

func pickSummary(doc *domain.Document) string {
	if doc.Summary != "" {
		return doc.Summary
	}
	return doc.Title
}
