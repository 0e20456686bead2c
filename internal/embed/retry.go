package embed

import (
	"context"
	"log/slog"
	"time"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// RetryEmbedder wraps another embedder and retries transient provider
// failures with exponential backoff. Non-retryable errors pass through
// on the first attempt.
type RetryEmbedder struct {
	inner      Embedder
	maxRetries int
	baseDelay  time.Duration
	log        *slog.Logger
}

// NewRetryEmbedder wraps inner with the given retry budget.
func NewRetryEmbedder(inner Embedder, maxRetries int, log *slog.Logger) *RetryEmbedder {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetryEmbedder{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		log:        log,
	}
}

func (e *RetryEmbedder) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	delay := e.baseDelay

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			e.log.Warn("retrying embedding call",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()))
			select {
			case <-ctx.Done():
				return errors.Wrapf(errors.ErrCodeProviderTimeout, ctx.Err(), "embedding retry aborted")
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (e *RetryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.withRetry(ctx, "embed", func() error {
		var err error
		vec, err = e.inner.Embed(ctx, text)
		return err
	})
	return vec, err
}

func (e *RetryEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.withRetry(ctx, "embed_batch", func() error {
		var err error
		vecs, err = e.inner.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

func (e *RetryEmbedder) Dimensions() int { return e.inner.Dimensions() }

func (e *RetryEmbedder) ModelName() string { return e.inner.ModelName() }

func (e *RetryEmbedder) Available(ctx context.Context) bool {
	return e.inner.Available(ctx)
}

func (e *RetryEmbedder) Close() error { return e.inner.Close() }

var _ Embedder = (*RetryEmbedder)(nil)
