package index

import (
	"encoding/gob"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/errors"
)

// snippetLength caps result snippets.
const snippetLength = 200

// snippetFieldOrder is the preference order when picking the snippet
// source among matched fields.
var snippetFieldOrder = []string{
	domain.FieldConceptTerms,
	domain.FieldSummary,
	domain.FieldTitle,
	domain.FieldIdentifier,
}

// Lexical is the BM25 index over weighted document text. The corpus
// order fixed at build time is the scoring order; documents without
// summary and body text are skipped, never indexed empty.
type Lexical struct {
	model *BM25Model
	ids   []string
	docs  map[string]*domain.Document
	log   *slog.Logger
}

// lexicalSnapshot is the gob persistence form; documents themselves live
// in the catalog.
type lexicalSnapshot struct {
	Model *BM25Model
	IDs   []string
}

// BuildLexical indexes the weighted text of every indexable document.
// An empty eligible set is a build error so a broken supply pipeline
// cannot produce a silently empty index.
func BuildLexical(docs []*domain.Document, params BM25Params, log *slog.Logger) (*Lexical, error) {
	if log == nil {
		log = slog.Default()
	}

	var (
		corpus  [][]string
		ids     []string
		byID    = make(map[string]*domain.Document)
		skipped int
	)
	for _, d := range docs {
		if !d.Indexable() {
			skipped++
			continue
		}
		corpus = append(corpus, Tokenize(d.WeightedText()))
		ids = append(ids, d.ID)
		byID[d.ID] = d
	}

	if skipped > 0 {
		log.Info("skipped documents without content", slog.Int("count", skipped))
	}
	if len(ids) == 0 {
		return nil, errors.EmptyCorpus("")
	}

	return &Lexical{
		model: NewBM25Model(corpus, params),
		ids:   ids,
		docs:  byID,
		log:   log,
	}, nil
}

// Count returns the number of indexed documents.
func (l *Lexical) Count() int { return len(l.ids) }

// Stats summarizes one BM25 index for inspection surfaces.
type Stats struct {
	Documents  int     `json:"documents"`
	Vocabulary int     `json:"vocabulary"`
	AvgDocLen  float64 `json:"avg_doc_len"`
	K1         float64 `json:"k1"`
	B          float64 `json:"b"`
}

// Stats reports corpus-level figures of the scoring model.
func (l *Lexical) Stats() Stats {
	return Stats{
		Documents:  len(l.ids),
		Vocabulary: len(l.model.DocFreq),
		AvgDocLen:  l.model.AvgDocLen,
		K1:         l.model.Params.K1,
		B:          l.model.Params.B,
	}
}

// Params returns the scoring parameters the index was built with.
func (l *Lexical) Params() BM25Params { return l.model.Params }

// Search scores the whole corpus, drops zero scores, applies the query's
// structural filters before truncation, and returns up to k results with
// dense 1-based ranks. Ties break by ascending document ID.
func (l *Lexical) Search(q *domain.Query, k int) ([]domain.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tokens := Tokenize(q.Text)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores := l.model.Scores(tokens)

	var results []domain.Result
	for i, score := range scores {
		if score <= 0 {
			continue
		}
		doc := l.docs[l.ids[i]]
		if !q.Matches(doc) {
			continue
		}
		if q.MinScore > 0 && score < q.MinScore {
			continue
		}
		matched := matchedFields(doc, tokens)
		results = append(results, domain.Result{
			Document:      doc,
			Score:         score,
			MatchedFields: matched,
			Snippet:       snippet(doc, matched),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	domain.Rerank(results)
	return results, nil
}

// Save writes the scoring model and ID order via a temp file and rename.
func (l *Lexical) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "create lexical index file")
	}
	snap := lexicalSnapshot{Model: l.model, IDs: l.ids}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "encode lexical index")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "close lexical index file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "rename lexical index file")
	}
	return nil
}

// LoadLexical restores a persisted index, reattaching documents from the
// catalog. Every persisted ID must resolve.
func LoadLexical(path string, docs []*domain.Document, log *slog.Logger) (*Lexical, error) {
	if log == nil {
		log = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCodeArtifactNotFound, err, "lexical index file missing")
		}
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "open lexical index file")
	}
	defer f.Close()

	var snap lexicalSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCorruptIndex, err, "decode lexical index")
	}

	byID := make(map[string]*domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	for _, id := range snap.IDs {
		if _, ok := byID[id]; !ok {
			return nil, errors.Newf(errors.ErrCodeCorruptIndex,
				"indexed document %q missing from catalog", id)
		}
	}

	return &Lexical{model: snap.Model, ids: snap.IDs, docs: byID, log: log}, nil
}

// matchedFields lists the weighted fields containing at least one query
// token, in fixed field order.
func matchedFields(doc *domain.Document, queryTokens []string) []string {
	querySet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = struct{}{}
	}

	var matched []string
	for _, field := range []string{
		domain.FieldIdentifier,
		domain.FieldTitle,
		domain.FieldSummary,
		domain.FieldConceptTerms,
	} {
		for _, token := range Tokenize(doc.FieldValues()[field]) {
			if _, ok := querySet[token]; ok {
				matched = append(matched, field)
				break
			}
		}
	}
	return matched
}

// snippet excerpts the preferred matched field, falling back to summary
// then title when nothing matched.
func snippet(doc *domain.Document, matched []string) string {
	matchedSet := make(map[string]struct{}, len(matched))
	for _, f := range matched {
		matchedSet[f] = struct{}{}
	}

	fields := doc.FieldValues()
	var text string
	for _, field := range snippetFieldOrder {
		if _, ok := matchedSet[field]; ok && fields[field] != "" {
			text = fields[field]
			break
		}
	}
	if text == "" {
		if doc.Summary != "" {
			text = doc.Summary
		} else {
			text = doc.Title
		}
	}
	return truncateSnippet(text)
}

func truncateSnippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= snippetLength {
		return string(runes)
	}
	return string(runes[:snippetLength]) + "..."
}
