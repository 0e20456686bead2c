package search

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/embed"
	"github.com/paragraf-search/paragraf/internal/errors"
	"github.com/paragraf-search/paragraf/internal/index"
	"github.com/paragraf-search/paragraf/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func engineCorpus() []*domain.Document {
	return []*domain.Document{
		{
			ID:                 "doc-skoda",
			OfficialIdentifier: "§ 2910",
			Title:              "Náhrada škody",
			Summary:            "Povinnost nahradit škodu způsobenou porušením zákona",
			ConceptTerms:       []string{"náhrada škody"},
			BodyText:           "Škůdce nahradí poškozenému skutečnou škodu a to uvedením do předešlého stavu.",
			DocType:            domain.TypeSection,
			Level:              3,
		},
		{
			ID:                 "doc-najem",
			OfficialIdentifier: "§ 2201",
			Title:              "Nájemní smlouva",
			Summary:            "Nájemce, pronajímatel a práva z nájmu",
			ConceptTerms:       []string{"nájem", "smlouva"},
			BodyText:           "Nájemní smlouvou se pronajímatel zavazuje přenechat nájemci věc k dočasnému užívání.",
			DocType:            domain.TypeSection,
			Level:              3,
		},
		{
			ID:      "doc-kupni",
			Title:   "Kupní smlouva",
			Summary: "Kupující a prodávající, převod vlastnického práva",
			DocType: domain.TypeSection,
			Level:   3,
		},
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	ctx := context.Background()
	docs := engineCorpus()
	embedder := embed.NewStaticEmbedder()
	t.Cleanup(func() { embedder.Close() })

	lexical, err := index.BuildLexical(docs, index.DefaultBM25Params(), testLogger())
	require.NoError(t, err)
	vector, err := index.BuildVector(ctx, docs, embedder,
		store.NewFlatStore(embed.StaticDimensions), testLogger())
	require.NoError(t, err)

	chunks := domain.ChunkCorpus(docs, 20, 5)
	lexFull, err := index.BuildLexicalFull(chunks, docs, index.DefaultBM25Params(), testLogger())
	require.NoError(t, err)
	vecFull, err := index.BuildVectorFull(ctx, chunks, docs, embedder,
		store.NewFlatStore(embed.StaticDimensions), testLogger())
	require.NoError(t, err)

	engine, err := NewEngine(cfg,
		WithLexical(lexical),
		WithVector(vector),
		WithLexicalFull(lexFull),
		WithVectorFull(vecFull),
		WithLogger(testLogger()))
	require.NoError(t, err)
	return engine
}

func TestNewEngineRequiresAnIndex(t *testing.T) {
	_, err := NewEngine(DefaultConfig(), WithLogger(testLogger()))
	require.Error(t, err)
}

func TestEngineParallelSearch(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	results, err := engine.Search(context.Background(),
		&domain.Query{Text: "náhrada škody"}, StrategyParallel)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "doc-skoda", results[0].Document.ID)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}

	// No document appears twice.
	seen := make(map[string]bool)
	for _, r := range results {
		assert.False(t, seen[r.Document.ID])
		seen[r.Document.ID] = true
	}
}

func TestEngineDefaultStrategyIsParallel(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	q := &domain.Query{Text: "nájemní smlouva"}
	def, err := engine.Search(context.Background(), q, "")
	require.NoError(t, err)
	parallel, err := engine.Search(context.Background(), q, StrategyParallel)
	require.NoError(t, err)
	assert.Equal(t, parallel, def)
}

func TestEngineUnknownStrategy(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	_, err := engine.Search(context.Background(),
		&domain.Query{Text: "smlouva"}, Strategy("magic"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidQuery, errors.GetCode(err))
}

func TestEngineKeywordFirstKeepsKeywordOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BroadenThreshold = 0
	engine := newTestEngine(t, cfg)

	results, err := engine.Search(context.Background(),
		&domain.Query{Text: "smlouva"}, StrategyKeywordFirst)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// With broadening disabled only lexical hits appear, BM25-ordered.
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestEngineKeywordFirstBroadensSparseResults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BroadenThreshold = 5
	engine := newTestEngine(t, cfg)

	// Only doc-skoda matches lexically; broadening pulls in semantic
	// neighbours after it.
	results, err := engine.Search(context.Background(),
		&domain.Query{Text: "škodu", MaxResults: 10}, StrategyKeywordFirst)
	require.NoError(t, err)
	require.Greater(t, len(results), 1)
	assert.Equal(t, "doc-skoda", results[0].Document.ID)
}

func TestEngineSemanticFirst(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	results, err := engine.Search(context.Background(),
		&domain.Query{Text: "Nájemce, pronajímatel a práva z nájmu"}, StrategySemanticFirst)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-najem", results[0].Document.ID)
}

func TestEngineWeightedFusion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodWeighted
	engine := newTestEngine(t, cfg)

	results, err := engine.Search(context.Background(),
		&domain.Query{Text: "náhrada škody"}, StrategyParallel)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-skoda", results[0].Document.ID)
}

func TestEngineRespectsMaxResults(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	results, err := engine.Search(context.Background(),
		&domain.Query{Text: "smlouva", MaxResults: 1}, StrategyParallel)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEngineFiltersCarryThroughFusion(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	q := &domain.Query{Text: "smlouva", Types: []domain.Type{domain.TypeSection}, MaxResults: 10}
	results, err := engine.Search(context.Background(), q, StrategyParallel)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, domain.TypeSection, r.Document.DocType)
	}
}

func TestEngineExactPhrase(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	results := engine.SearchExactPhrase("nájemní smlouvou", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-najem", results[0].Document.ID)
	require.NotNil(t, results[0].Chunk)
}

func TestEngineExactPhraseWithoutChunkIndex(t *testing.T) {
	docs := engineCorpus()
	lexical, err := index.BuildLexical(docs, index.DefaultBM25Params(), testLogger())
	require.NoError(t, err)

	engine, err := NewEngine(DefaultConfig(), WithLexical(lexical), WithLogger(testLogger()))
	require.NoError(t, err)

	// Scan degrades to empty, never to an error.
	assert.Empty(t, engine.SearchExactPhrase("cokoliv", 5))
}

func TestEngineSimilar(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	results, err := engine.Similar(context.Background(), "doc-najem", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "doc-najem", r.Document.ID)
	}
}

func TestEngineSimilarChunks(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	results, err := engine.SimilarChunks(context.Background(), "doc-najem_chunk_0", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "doc-najem_chunk_0", r.Chunk.ID)
	}
}
