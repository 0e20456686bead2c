package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// StaticEmbedder generates embeddings with a hash-based bag-of-features
// scheme: no network, no model download, fully deterministic. Semantic
// quality is limited, so it serves as the degraded fallback and the test
// provider, not the default.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// Feature weights. Whole words carry most of the signal; character
// trigrams keep inflected Czech forms of the same lemma close together.
const (
	wordWeight  = 0.7
	trigramSize = 3
	ngramWeight = 0.3
)

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "embedder is closed", nil)
	}
	e.mu.RUnlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = emb
	}
	return results, nil
}

func (e *StaticEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, StaticDimensions)

	for _, word := range splitWords(text) {
		vector[hashToIndex(word, StaticDimensions)] += wordWeight
	}

	compact := compactLetters(text)
	for i := 0; i+trigramSize <= len(compact); i++ {
		vector[hashToIndex(compact[i:i+trigramSize], StaticDimensions)] += ngramWeight
	}

	return vector
}

// splitWords lowercases and splits on anything that is not a letter or
// digit, keeping diacritics intact.
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// compactLetters lowercases and strips everything but letters and digits
// for n-gram extraction.
func compactLetters(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

func (e *StaticEmbedder) ModelName() string { return "static-256" }

func (e *StaticEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

var _ Embedder = (*StaticEmbedder)(nil)
