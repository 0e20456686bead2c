package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/domain"
)

func ranked(ids []string, scores []float64) []domain.Result {
	results := make([]domain.Result, len(ids))
	for i, id := range ids {
		results[i] = domain.Result{
			Document: &domain.Document{ID: id},
			Score:    scores[i],
			Rank:     i + 1,
		}
	}
	return results
}

func resultIDs(results []domain.Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Document.ID
	}
	return ids
}

func TestFuseRRFHandComputedExample(t *testing.T) {
	lexical := ranked([]string{"A", "B", "C"}, []float64{9, 8, 7})
	vector := ranked([]string{"B", "A", "D"}, []float64{0.9, 0.8, 0.7})

	fused := fuseRRF(lexical, vector, nil, 60, 0)
	require.Len(t, fused, 4)

	// A: 1/61+1/62, B: 1/62+1/61 tie broken by ID; C and D tie at 1/63.
	assert.Equal(t, []string{"A", "B", "C", "D"}, resultIDs(fused))
	assert.InDelta(t, fused[0].Score, fused[1].Score, 1e-12)
	assert.InDelta(t, 1.0/61+1.0/62, fused[0].Score, 1e-12)
	assert.InDelta(t, 1.0/63, fused[2].Score, 1e-12)

	for i, r := range fused {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestFuseRRFIgnoresScoreScales(t *testing.T) {
	lexical := ranked([]string{"A", "B"}, []float64{1000, 999})
	vector := ranked([]string{"B", "A"}, []float64{0.51, 0.50})

	fused := fuseRRF(lexical, vector, nil, 60, 0)
	small := fuseRRF(
		ranked([]string{"A", "B"}, []float64{0.002, 0.001}),
		ranked([]string{"B", "A"}, []float64{51, 50}),
		nil, 60, 0)

	// Only ranks matter, so wildly different score scales fuse the same.
	assert.Equal(t, resultIDs(fused), resultIDs(small))
	assert.InDelta(t, fused[0].Score, small[0].Score, 1e-12)
}

func TestFuseRRFFullTextWeight(t *testing.T) {
	lexical := ranked([]string{"A"}, []float64{5})
	fulltext := ranked([]string{"B"}, []float64{3})

	fused := fuseRRF(lexical, nil, fulltext, 60, 0.5)
	require.Len(t, fused, 2)
	assert.Equal(t, "A", fused[0].Document.ID)
	assert.InDelta(t, 1.0/61, fused[0].Score, 1e-12)
	assert.InDelta(t, 0.5/61, fused[1].Score, 1e-12)

	// Zero weight drops chunk evidence entirely.
	noFT := fuseRRF(lexical, nil, fulltext, 60, 0)
	assert.Len(t, noFT, 1)
}

func TestFuseRRFPrefersLexicalPresentation(t *testing.T) {
	lexical := []domain.Result{{
		Document:      &domain.Document{ID: "A"},
		Score:         5,
		Rank:          1,
		MatchedFields: []string{domain.FieldTitle},
		Snippet:       "lexikální úryvek",
	}}
	vector := []domain.Result{{
		Document: &domain.Document{ID: "A"},
		Score:    0.9,
		Rank:     1,
		Snippet:  "vektorový úryvek",
	}}

	fused := fuseRRF(lexical, vector, nil, 60, 0)
	require.Len(t, fused, 1)
	assert.Equal(t, "lexikální úryvek", fused[0].Snippet)
	assert.Equal(t, []string{domain.FieldTitle}, fused[0].MatchedFields)

	// Same outcome when the vector list merges first.
	reversed := fuseRRF(lexical, vector, nil, 60, 0)
	assert.Equal(t, fused[0].Snippet, reversed[0].Snippet)
}

func TestFuseWeightedNormalizesPerSource(t *testing.T) {
	lexical := ranked([]string{"A", "B"}, []float64{10, 5})
	vector := ranked([]string{"B", "A"}, []float64{0.8, 0.6})

	fused := fuseWeighted(lexical, vector, nil, 0.5, 0.5, 0)
	require.Len(t, fused, 2)

	// A: 0.5*1.0 + 0.5*0.0, B: 0.5*0.0 + 0.5*1.0; tie broken by ID.
	assert.Equal(t, []string{"A", "B"}, resultIDs(fused))
	assert.InDelta(t, 0.5, fused[0].Score, 1e-12)
	assert.InDelta(t, 0.5, fused[1].Score, 1e-12)
}

func TestFuseWeightedSingletonListNormalizesToOne(t *testing.T) {
	lexical := ranked([]string{"A"}, []float64{0.0001})
	fused := fuseWeighted(lexical, nil, nil, 0.4, 0.6, 0)
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0, fused[0].Score, 1e-12)
}

func TestFuseWeightedRenormalizesWeights(t *testing.T) {
	lexical := ranked([]string{"A", "B"}, []float64{2, 1})
	vector := ranked([]string{"A", "B"}, []float64{0.9, 0.1})

	// Weights 2 and 6 sum to 8, not 1; the fusion re-normalizes.
	fused := fuseWeighted(lexical, vector, nil, 2, 6, 0)
	require.Len(t, fused, 2)
	assert.InDelta(t, 1.0, fused[0].Score, 1e-12)
	assert.InDelta(t, 0.0, fused[1].Score, 1e-12)
}

func TestMinMaxNormalizeEqualScores(t *testing.T) {
	list := ranked([]string{"A", "B"}, []float64{3, 3})
	normalized := minMaxNormalize(list)
	assert.Equal(t, []float64{1, 1}, normalized)
}

func TestProjectChunksKeepsBestChunkPerDocument(t *testing.T) {
	docA := &domain.Document{ID: "A"}
	docB := &domain.Document{ID: "B"}
	chunkResults := []domain.Result{
		{Document: docA, Chunk: &domain.Chunk{ID: "A_chunk_1"}, Score: 0.4, Rank: 1},
		{Document: docB, Chunk: &domain.Chunk{ID: "B_chunk_0"}, Score: 0.35, Rank: 2},
		{Document: docA, Chunk: &domain.Chunk{ID: "A_chunk_0"}, Score: 0.3, Rank: 3},
	}

	projected := projectChunks(chunkResults)
	require.Len(t, projected, 2)
	assert.Equal(t, "A", projected[0].Document.ID)
	assert.Equal(t, "A_chunk_1", projected[0].Chunk.ID)
	assert.Equal(t, 1, projected[0].Rank)
	assert.Equal(t, "B", projected[1].Document.ID)
	assert.Equal(t, 2, projected[1].Rank)
}
