package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps the static embedder and counts provider calls.
type countingEmbedder struct {
	*StaticEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedderReusesResults(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached, err := NewCachedEmbedder(inner, 16)
	require.NoError(t, err)
	defer cached.Close()

	first, err := cached.Embed(ctx, "smlouva")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "smlouva")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachedEmbedderBatchOnlyFetchesMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached, err := NewCachedEmbedder(inner, 16)
	require.NoError(t, err)
	defer cached.Close()

	_, err = cached.Embed(ctx, "a")
	require.NoError(t, err)
	inner.calls.Store(0)

	vecs, err := cached.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// One batched provider call for the two misses.
	assert.Equal(t, int64(1), inner.calls.Load())

	direct, err := NewStaticEmbedder().Embed(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, direct, vecs[1])
}
