package embed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// flakyEmbedder fails a set number of times before succeeding.
type flakyEmbedder struct {
	*StaticEmbedder
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.StaticEmbedder.Embed(ctx, text)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetryEmbedderRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyEmbedder{
		StaticEmbedder: NewStaticEmbedder(),
		failures:       2,
		err:            errors.New(errors.ErrCodeProviderTimeout, "timeout", nil),
	}
	e := NewRetryEmbedder(inner, 3, quietLogger())
	e.baseDelay = 0

	vec, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vec, StaticDimensions)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryEmbedderGivesUpAfterBudget(t *testing.T) {
	inner := &flakyEmbedder{
		StaticEmbedder: NewStaticEmbedder(),
		failures:       10,
		err:            errors.New(errors.ErrCodeProviderUnavailable, "down", nil),
	}
	e := NewRetryEmbedder(inner, 2, quietLogger())
	e.baseDelay = 0

	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryEmbedderDoesNotRetryFatalErrors(t *testing.T) {
	inner := &flakyEmbedder{
		StaticEmbedder: NewStaticEmbedder(),
		failures:       10,
		err:            errors.New(errors.ErrCodeEmbeddingFailed, "bad input", nil),
	}
	e := NewRetryEmbedder(inner, 3, quietLogger())
	e.baseDelay = 0

	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
