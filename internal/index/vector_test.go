package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/embed"
	"github.com/paragraf-search/paragraf/internal/errors"
	"github.com/paragraf-search/paragraf/internal/store"
)

func buildTestVector(t *testing.T, docs []*domain.Document) *Vector {
	t.Helper()
	embedder := embed.NewStaticEmbedder()
	t.Cleanup(func() { embedder.Close() })

	v, err := BuildVector(context.Background(), docs,
		embedder, store.NewFlatStore(embed.StaticDimensions), testLogger())
	require.NoError(t, err)
	return v
}

func TestBuildVectorIndexesEligibleDocuments(t *testing.T) {
	v := buildTestVector(t, lexicalCorpus())
	assert.Equal(t, 3, v.Count())
	assert.Zero(t, v.DegradedCount())
}

func TestBuildVectorEmptyCorpus(t *testing.T) {
	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	_, err := BuildVector(context.Background(),
		[]*domain.Document{{ID: "a", Title: "jen nadpis"}},
		embedder, store.NewFlatStore(embed.StaticDimensions), testLogger())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyCorpus, errors.GetCode(err))
}

func TestVectorSearchFindsLiteralDuplicate(t *testing.T) {
	v := buildTestVector(t, lexicalCorpus())

	// The static embedder maps identical text to identical vectors, so
	// querying a document's own summary must rank it first.
	results, err := v.Search(context.Background(),
		&domain.Query{Text: "Nájemní smlouva Nájemce a pronajímatel, práva z nájmu"}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-b", results[0].Document.ID)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestVectorSearchFiltersBeforeTruncation(t *testing.T) {
	v := buildTestVector(t, lexicalCorpus())

	q := &domain.Query{Text: "škoda", Types: []domain.Type{domain.TypeChapter}}
	results, err := v.Search(context.Background(), q, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.TypeChapter, results[0].Document.DocType)
}

func TestVectorSimilarExcludesSelf(t *testing.T) {
	v := buildTestVector(t, lexicalCorpus())

	results, err := v.Similar(context.Background(), "doc-a", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "doc-a", r.Document.ID)
	}
}

func TestVectorSimilarUnknownDocument(t *testing.T) {
	v := buildTestVector(t, lexicalCorpus())

	_, err := v.Similar(context.Background(), "ghost", 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidQuery, errors.GetCode(err))
}

// failingEmbedder refuses certain texts to exercise degradation.
type failingEmbedder struct {
	*embed.StaticEmbedder
	refuse string
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == f.refuse {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "refused", nil)
	}
	return f.StaticEmbedder.Embed(ctx, text)
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if text == f.refuse {
			return nil, errors.New(errors.ErrCodeEmbeddingFailed, "refused", nil)
		}
	}
	return f.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestBuildVectorDegradesOnEmbedFailure(t *testing.T) {
	docs := lexicalCorpus()
	embedder := &failingEmbedder{
		StaticEmbedder: embed.NewStaticEmbedder(),
		refuse:         docs[0].EmbeddingText(),
	}

	v, err := BuildVector(context.Background(), docs,
		embedder, store.NewFlatStore(embed.StaticDimensions), testLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, v.DegradedCount())
	assert.Equal(t, 2, v.Count())
}
