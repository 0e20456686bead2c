// Package search combines the retrieval engines into one hybrid search
// surface. Summary-level and chunk-level results are fused with
// reciprocal rank fusion or weighted score fusion under three strategies.
package search

import (
	"github.com/paragraf-search/paragraf/internal/config"
)

// Strategy selects how the engines cooperate on one query.
type Strategy string

const (
	// StrategyKeywordFirst runs a tight lexical pass and broadens with
	// vector results only when the keyword pass comes back sparse.
	StrategyKeywordFirst Strategy = "keyword_first"

	// StrategySemanticFirst casts a wide vector net and re-ranks the
	// candidates with lexical evidence.
	StrategySemanticFirst Strategy = "semantic_first"

	// StrategyParallel runs both engines in full and fuses the lists.
	StrategyParallel Strategy = "parallel"
)

// Fusion algorithm names, matching the config's rerank setting.
const (
	MethodRRF      = "rrf"
	MethodWeighted = "weighted"
)

// DefaultRRFConstant is the standard RRF smoothing parameter,
// empirically solid across domains.
const DefaultRRFConstant = 60

// Config carries the fusion and strategy tuning.
type Config struct {
	LexicalWeight  float64
	SemanticWeight float64
	FullTextWeight float64

	RRFConstant int
	Method      string

	LexicalK         int
	VectorK          int
	FinalK           int
	BroadenThreshold int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return ConfigFrom(config.Default().Search)
}

// ConfigFrom maps the application config onto the engine config,
// filling gaps with defaults.
func ConfigFrom(sc config.SearchConfig) Config {
	c := Config{
		LexicalWeight:    sc.LexicalWeight,
		SemanticWeight:   sc.SemanticWeight,
		FullTextWeight:   sc.FullTextWeight,
		RRFConstant:      sc.RRFConstant,
		Method:           sc.Rerank,
		LexicalK:         sc.LexicalK,
		VectorK:          sc.VectorK,
		FinalK:           sc.FinalK,
		BroadenThreshold: sc.BroadenThreshold,
	}
	if c.RRFConstant <= 0 {
		c.RRFConstant = DefaultRRFConstant
	}
	if c.Method == "" {
		c.Method = MethodRRF
	}
	if c.LexicalK <= 0 {
		c.LexicalK = 30
	}
	if c.VectorK <= 0 {
		c.VectorK = 50
	}
	if c.FinalK <= 0 {
		c.FinalK = 10
	}
	if c.BroadenThreshold < 0 {
		c.BroadenThreshold = 0
	}
	return c
}
