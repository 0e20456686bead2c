package domain

// Result is one ranked hit. Document-level searches leave Chunk nil;
// chunk-level searches attach the matching chunk alongside its parent
// document when the parent is known.
type Result struct {
	Document *Document `json:"document"`
	Chunk    *Chunk    `json:"chunk,omitempty"`

	// Score is the engine-specific relevance score. Scores are comparable
	// within one result list only.
	Score float64 `json:"score"`

	// Rank is the 1-based dense position within the final list.
	Rank int `json:"rank"`

	// MatchedFields lists the weighted fields containing at least one
	// query token, in fixed field order.
	MatchedFields []string `json:"matched_fields,omitempty"`

	// Snippet is a short excerpt from the best matching field.
	Snippet string `json:"snippet,omitempty"`
}

// Rerank assigns dense 1-based ranks in place, in current slice order.
func Rerank(results []Result) {
	for i := range results {
		results[i].Rank = i + 1
	}
}
