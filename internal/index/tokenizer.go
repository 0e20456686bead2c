// Package index implements the retrieval engines: the lexical index over
// weighted document text, the vector index over embeddings, and the
// chunked full-text variants of both.
package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenize normalizes text to NFC, lowercases it, and splits it into
// runs of letters and digits. Diacritics stay intact; "škoda" and
// "skoda" are distinct terms, matching how the indexed statutes are
// actually written.
func Tokenize(text string) []string {
	normalized := strings.ToLower(norm.NFC.String(text))
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// termFreqs counts term occurrences in one tokenized text.
func termFreqs(tokens []string) map[string]int {
	freqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freqs[t]++
	}
	return freqs
}
