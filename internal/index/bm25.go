package index

import (
	"math"
)

// BM25DefaultK1 and BM25DefaultB are the Okapi defaults used when the
// caller does not override the scoring parameters.
const (
	BM25DefaultK1 = 1.5
	BM25DefaultB  = 0.75
)

// BM25Params are the Okapi BM25 scoring parameters. K1 controls term
// frequency saturation, B controls document length normalization. Both
// are recorded in artifact metadata so a loaded index scores exactly as
// it did when built.
type BM25Params struct {
	K1 float64
	B  float64
}

// DefaultBM25Params returns the standard parameters.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: BM25DefaultK1, B: BM25DefaultB}
}

// BM25Model is the in-memory Okapi BM25 scoring model over a tokenized
// corpus. Fields are exported for gob persistence.
type BM25Model struct {
	Params    BM25Params
	TermFreqs []map[string]int
	DocLens   []int
	AvgDocLen float64
	DocFreq   map[string]int
	N         int
}

// NewBM25Model builds the scoring model from a tokenized corpus, one
// token slice per document, in corpus order.
func NewBM25Model(corpus [][]string, params BM25Params) *BM25Model {
	m := &BM25Model{
		Params:    params,
		TermFreqs: make([]map[string]int, len(corpus)),
		DocLens:   make([]int, len(corpus)),
		DocFreq:   make(map[string]int),
		N:         len(corpus),
	}

	var totalLen int
	for i, tokens := range corpus {
		freqs := termFreqs(tokens)
		m.TermFreqs[i] = freqs
		m.DocLens[i] = len(tokens)
		totalLen += len(tokens)
		for term := range freqs {
			m.DocFreq[term]++
		}
	}
	if m.N > 0 {
		m.AvgDocLen = float64(totalLen) / float64(m.N)
	}
	return m
}

// idf is the smoothed inverse document frequency, always positive.
func (m *BM25Model) idf(term string) float64 {
	n := m.DocFreq[term]
	if n == 0 {
		return 0
	}
	return math.Log(1 + (float64(m.N)-float64(n)+0.5)/(float64(n)+0.5))
}

// Scores computes the BM25 score of every document against the query
// tokens, indexed in corpus order.
func (m *BM25Model) Scores(query []string) []float64 {
	scores := make([]float64, m.N)
	if m.N == 0 || m.AvgDocLen == 0 {
		return scores
	}

	k1, b := m.Params.K1, m.Params.B
	for _, term := range query {
		idf := m.idf(term)
		if idf == 0 {
			continue
		}
		for i := 0; i < m.N; i++ {
			f := float64(m.TermFreqs[i][term])
			if f == 0 {
				continue
			}
			norm := 1 - b + b*float64(m.DocLens[i])/m.AvgDocLen
			scores[i] += idf * f * (k1 + 1) / (f + k1*norm)
		}
	}
	return scores
}
