package search

import (
	"context"
	"log/slog"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/errors"
	"github.com/paragraf-search/paragraf/internal/index"
)

// Engine is the hybrid search facade over whatever indexes a collection
// carries. Any subset of engines may be attached; strategies degrade to
// the engines that exist.
type Engine struct {
	lexical *index.Lexical
	vector  *index.Vector
	lexFull *index.LexicalFull
	vecFull *index.VectorFull

	cfg Config
	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLexical attaches the summary-level BM25 index.
func WithLexical(idx *index.Lexical) Option {
	return func(e *Engine) { e.lexical = idx }
}

// WithVector attaches the summary-level vector index.
func WithVector(idx *index.Vector) Option {
	return func(e *Engine) { e.vector = idx }
}

// WithLexicalFull attaches the chunk-level BM25 index.
func WithLexicalFull(idx *index.LexicalFull) Option {
	return func(e *Engine) { e.lexFull = idx }
}

// WithVectorFull attaches the chunk-level vector index.
func WithVectorFull(idx *index.VectorFull) Option {
	return func(e *Engine) { e.vecFull = idx }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates the hybrid engine. At least one index must be
// attached.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.lexical == nil && e.vector == nil && e.lexFull == nil && e.vecFull == nil {
		return nil, errors.New(errors.ErrCodeSearchFailed, "no index attached to engine", nil)
	}
	return e, nil
}

// Search runs one query under the given strategy. An empty strategy
// means parallel.
func (e *Engine) Search(ctx context.Context, q *domain.Query, strategy Strategy) ([]domain.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		results []domain.Result
		err     error
	)
	switch strategy {
	case StrategyKeywordFirst:
		results, err = e.keywordFirst(ctx, q)
	case StrategySemanticFirst:
		results, err = e.semanticFirst(ctx, q)
	case StrategyParallel, "":
		results, err = e.parallel(ctx, q)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidQuery, "unknown search strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	return e.finalize(q, results), nil
}

// keywordFirst runs a tight lexical pass. When it returns fewer results
// than the broaden threshold and a vector index exists, vector hits are
// appended after the keyword hits, keyword evidence first.
func (e *Engine) keywordFirst(ctx context.Context, q *domain.Query) ([]domain.Result, error) {
	if e.lexical == nil {
		e.log.Debug("keyword_first without lexical index, falling back to semantic")
		return e.semanticFirst(ctx, q)
	}

	results, err := e.lexical.Search(q, e.cfg.LexicalK)
	if err != nil {
		return nil, err
	}

	if len(results) >= e.cfg.BroadenThreshold || e.vector == nil {
		return results, nil
	}

	e.log.Debug("broadening sparse keyword results with vector search",
		slog.Int("keyword_hits", len(results)))

	vecResults, err := e.vector.Search(ctx, q, e.cfg.VectorK)
	if err != nil {
		// Broadening is best-effort; the keyword results stand alone.
		e.log.Warn("vector broadening failed", slog.String("error", err.Error()))
		return results, nil
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.Document.ID] = struct{}{}
	}
	for _, r := range vecResults {
		if _, dup := seen[r.Document.ID]; dup {
			continue
		}
		results = append(results, r)
	}
	domain.Rerank(results)
	return results, nil
}

// semanticFirst casts a wide vector net and re-ranks the candidates by
// fusing in lexical evidence restricted to that candidate set.
func (e *Engine) semanticFirst(ctx context.Context, q *domain.Query) ([]domain.Result, error) {
	if e.vector == nil {
		e.log.Debug("semantic_first without vector index, falling back to lexical")
		if e.lexical == nil {
			return nil, errors.New(errors.ErrCodeSearchFailed, "no summary-level index attached", nil)
		}
		return e.lexical.Search(q, e.cfg.LexicalK)
	}

	vecResults, err := e.vector.Search(ctx, q, e.cfg.VectorK)
	if err != nil {
		return nil, err
	}
	if e.lexical == nil || len(vecResults) == 0 {
		return vecResults, nil
	}

	lexResults, err := e.lexical.Search(q, 0)
	if err != nil {
		return nil, err
	}

	// Restrict lexical evidence to the vector candidate set so recall
	// stays semantic and lexical scores only reorder.
	candidates := make(map[string]struct{}, len(vecResults))
	for _, r := range vecResults {
		candidates[r.Document.ID] = struct{}{}
	}
	var restricted []domain.Result
	for _, r := range lexResults {
		if _, ok := candidates[r.Document.ID]; ok {
			restricted = append(restricted, r)
		}
	}
	domain.Rerank(restricted)

	return e.fuse(restricted, vecResults, nil), nil
}

// parallel runs every attached engine in full and fuses the lists,
// blending chunk-level evidence through the full-text weight.
func (e *Engine) parallel(ctx context.Context, q *domain.Query) ([]domain.Result, error) {
	var lexResults, vecResults, ftResults []domain.Result

	if e.lexical != nil {
		r, err := e.lexical.Search(q, e.cfg.LexicalK)
		if err != nil {
			return nil, err
		}
		lexResults = r
	}
	if e.vector != nil {
		r, err := e.vector.Search(ctx, q, e.cfg.VectorK)
		if err != nil {
			return nil, err
		}
		vecResults = r
	}
	if e.cfg.FullTextWeight > 0 {
		chunkHits, err := e.chunkSearch(ctx, q)
		if err != nil {
			return nil, err
		}
		ftResults = projectChunks(chunkHits)
	}

	if vecResults == nil && ftResults == nil {
		return lexResults, nil
	}
	if lexResults == nil && ftResults == nil {
		return vecResults, nil
	}
	return e.fuse(lexResults, vecResults, ftResults), nil
}

// chunkSearch queries the chunk-level engines, fusing when both exist.
func (e *Engine) chunkSearch(ctx context.Context, q *domain.Query) ([]domain.Result, error) {
	var lexHits, vecHits []domain.Result

	if e.lexFull != nil {
		r, err := e.lexFull.Search(q, e.cfg.LexicalK)
		if err != nil {
			return nil, err
		}
		lexHits = r
	}
	if e.vecFull != nil {
		r, err := e.vecFull.Search(ctx, q, e.cfg.VectorK)
		if err != nil {
			return nil, err
		}
		vecHits = r
	}

	if lexHits == nil {
		return vecHits, nil
	}
	if vecHits == nil {
		return lexHits, nil
	}
	return fuseChunks(lexHits, vecHits, e.cfg.RRFConstant), nil
}

func (e *Engine) fuse(lexical, vector, fulltext []domain.Result) []domain.Result {
	switch e.cfg.Method {
	case MethodWeighted:
		return fuseWeighted(lexical, vector, fulltext,
			e.cfg.LexicalWeight, e.cfg.SemanticWeight, e.cfg.FullTextWeight)
	default:
		return fuseRRF(lexical, vector, fulltext, e.cfg.RRFConstant, e.cfg.FullTextWeight)
	}
}

// SearchExactPhrase scans body-text chunks for a literal phrase. Without
// a chunk-level lexical index the scan cannot run and comes back empty;
// the scan itself never fails.
func (e *Engine) SearchExactPhrase(phrase string, k int) []domain.Result {
	if e.lexFull == nil {
		e.log.Warn("exact phrase search without chunk index, returning no results")
		return nil
	}
	if k <= 0 {
		k = e.cfg.FinalK
	}
	return e.lexFull.SearchExactPhrase(phrase, k)
}

// Similar returns documents nearest to an indexed document.
func (e *Engine) Similar(ctx context.Context, docID string, k int) ([]domain.Result, error) {
	if e.vector == nil {
		return nil, errors.New(errors.ErrCodeSearchFailed, "no vector index attached", nil)
	}
	if k <= 0 {
		k = e.cfg.FinalK
	}
	return e.vector.Similar(ctx, docID, k)
}

// SimilarChunks returns chunks nearest to an indexed chunk.
func (e *Engine) SimilarChunks(ctx context.Context, chunkID string, k int) ([]domain.Result, error) {
	if e.vecFull == nil {
		return nil, errors.New(errors.ErrCodeSearchFailed, "no chunk vector index attached", nil)
	}
	if k <= 0 {
		k = e.cfg.FinalK
	}
	return e.vecFull.SimilarChunks(ctx, chunkID, k)
}

// finalize deduplicates by document, truncates to the requested count
// and assigns dense 1-based ranks.
func (e *Engine) finalize(q *domain.Query, results []domain.Result) []domain.Result {
	limit := q.MaxResults
	if limit <= 0 {
		limit = e.cfg.FinalK
	}

	seen := make(map[string]struct{}, len(results))
	deduped := results[:0]
	for _, r := range results {
		if _, dup := seen[r.Document.ID]; dup {
			continue
		}
		seen[r.Document.ID] = struct{}{}
		deduped = append(deduped, r)
		if len(deduped) == limit {
			break
		}
	}

	domain.Rerank(deduped)
	return deduped
}

// fuseChunks merges chunk-level lists with unweighted RRF keyed by chunk
// ID rather than document ID.
func fuseChunks(lexHits, vecHits []domain.Result, c int) []domain.Result {
	if c <= 0 {
		c = DefaultRRFConstant
	}

	type entry struct {
		result domain.Result
		score  float64
	}
	entries := make(map[string]*entry)

	merge := func(list []domain.Result) {
		for _, r := range list {
			contribution := 1 / float64(c+r.Rank)
			if e, ok := entries[r.Chunk.ID]; ok {
				e.score += contribution
			} else {
				entries[r.Chunk.ID] = &entry{result: r, score: contribution}
			}
		}
	}
	merge(lexHits)
	merge(vecHits)

	fused := make([]domain.Result, 0, len(entries))
	for _, e := range entries {
		r := e.result
		r.Score = e.score
		fused = append(fused, r)
	}
	sortByScoreThenChunkID(fused)
	domain.Rerank(fused)
	return fused
}
