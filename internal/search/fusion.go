package search

import (
	"sort"

	"github.com/paragraf-search/paragraf/internal/domain"
)

// fusionEntry accumulates one document's contributions across sources.
type fusionEntry struct {
	result domain.Result
	score  float64
	// lexical evidence wins for matched fields and snippets, so a merge
	// tracks whether the kept result came from the lexical list.
	fromLexical bool
}

// fuseRRF combines ranked lists with reciprocal rank fusion:
// score(d) = Σ 1/(C + rank_i) over the summary lists the document
// appears in, plus full_text_weight/(C + rank) from the projected chunk
// list. Absence from a list simply contributes nothing.
func fuseRRF(lexical, vector, fulltext []domain.Result, c int, fullTextWeight float64) []domain.Result {
	if c <= 0 {
		c = DefaultRRFConstant
	}

	entries := make(map[string]*fusionEntry)

	merge := func(list []domain.Result, weight float64, lexicalSource bool) {
		for _, r := range list {
			contribution := weight / float64(c+r.Rank)
			e, ok := entries[r.Document.ID]
			if !ok {
				entries[r.Document.ID] = &fusionEntry{
					result:      r,
					score:       contribution,
					fromLexical: lexicalSource,
				}
				continue
			}
			e.score += contribution
			if lexicalSource && !e.fromLexical {
				// Prefer lexical matched fields and snippet, keep the
				// chunk attachment if the earlier source carried one.
				chunk := e.result.Chunk
				e.result = r
				if e.result.Chunk == nil {
					e.result.Chunk = chunk
				}
				e.fromLexical = true
			} else if e.result.Chunk == nil && r.Chunk != nil {
				e.result.Chunk = r.Chunk
			}
		}
	}

	merge(lexical, 1, true)
	merge(vector, 1, false)
	if fullTextWeight > 0 {
		merge(fulltext, fullTextWeight, false)
	}

	return finishFusion(entries)
}

// fuseWeighted combines lists by min-max normalizing each list's scores
// onto [0,1] and summing weighted contributions. Weights are
// re-normalized over the lists actually present so a missing engine does
// not silently shrink every score.
func fuseWeighted(lexical, vector, fulltext []domain.Result, lexW, semW, ftW float64) []domain.Result {
	type source struct {
		list    []domain.Result
		weight  float64
		lexical bool
	}
	var present []source
	if len(lexical) > 0 && lexW > 0 {
		present = append(present, source{lexical, lexW, true})
	}
	if len(vector) > 0 && semW > 0 {
		present = append(present, source{vector, semW, false})
	}
	if len(fulltext) > 0 && ftW > 0 {
		present = append(present, source{fulltext, ftW, false})
	}
	if len(present) == 0 {
		return nil
	}

	var total float64
	for _, s := range present {
		total += s.weight
	}

	entries := make(map[string]*fusionEntry)
	for _, s := range present {
		weight := s.weight / total
		normalized := minMaxNormalize(s.list)
		for i, r := range s.list {
			contribution := weight * normalized[i]
			e, ok := entries[r.Document.ID]
			if !ok {
				entries[r.Document.ID] = &fusionEntry{
					result:      r,
					score:       contribution,
					fromLexical: s.lexical,
				}
				continue
			}
			e.score += contribution
			if s.lexical && !e.fromLexical {
				chunk := e.result.Chunk
				e.result = r
				if e.result.Chunk == nil {
					e.result.Chunk = chunk
				}
				e.fromLexical = true
			} else if e.result.Chunk == nil && r.Chunk != nil {
				e.result.Chunk = r.Chunk
			}
		}
	}

	return finishFusion(entries)
}

// minMaxNormalize maps a result list's scores onto [0,1]. A singleton
// list or an all-equal list normalizes to 1.0 so a sole match is not
// zeroed out.
func minMaxNormalize(list []domain.Result) []float64 {
	normalized := make([]float64, len(list))
	if len(list) == 0 {
		return normalized
	}

	min, max := list[0].Score, list[0].Score
	for _, r := range list[1:] {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}

	if max == min {
		for i := range normalized {
			normalized[i] = 1
		}
		return normalized
	}
	for i, r := range list {
		normalized[i] = (r.Score - min) / (max - min)
	}
	return normalized
}

// finishFusion sorts fused entries by score with ties broken by
// ascending document ID and assigns dense ranks.
func finishFusion(entries map[string]*fusionEntry) []domain.Result {
	results := make([]domain.Result, 0, len(entries))
	for _, e := range entries {
		r := e.result
		r.Score = e.score
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	domain.Rerank(results)
	return results
}

func sortByScoreThenChunkID(results []domain.Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

// projectChunks lifts chunk-level results onto documents: each document
// keeps its best scoring chunk, ordered by that score. The chunk stays
// attached so callers can show where in the body the hit landed.
func projectChunks(chunkResults []domain.Result) []domain.Result {
	best := make(map[string]domain.Result)
	for _, r := range chunkResults {
		if r.Document == nil {
			continue
		}
		cur, ok := best[r.Document.ID]
		if !ok || r.Score > cur.Score {
			best[r.Document.ID] = r
		}
	}

	projected := make([]domain.Result, 0, len(best))
	for _, r := range best {
		projected = append(projected, r)
	}
	sort.Slice(projected, func(i, j int) bool {
		if projected[i].Score != projected[j].Score {
			return projected[i].Score > projected[j].Score
		}
		return projected[i].Document.ID < projected[j].Document.ID
	})

	domain.Rerank(projected)
	return projected
}
