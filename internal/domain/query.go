package domain

import (
	"regexp"
	"strings"

	"github.com/paragraf-search/paragraf/internal/errors"
)

// Query carries the search text plus optional structural filters. Filters
// restrict the candidate set before result truncation, so a caller asking
// for sections only still receives up to MaxResults sections.
type Query struct {
	// Text is the raw query string.
	Text string

	// MaxResults caps returned results; zero means the engine default.
	MaxResults int

	// Types, when non-empty, restricts results to the listed kinds.
	Types []Type

	// MinLevel and MaxLevel bound the hierarchy depth, inclusive.
	MinLevel *int
	MaxLevel *int

	// IdentifierPattern, when set, is a regular expression the official
	// identifier must match.
	IdentifierPattern string

	// MinScore drops results scoring below the threshold.
	MinScore float64

	identifierRe *regexp.Regexp
}

// Validate checks the query and compiles the identifier pattern. An
// invalid pattern is a caller error, not a silent empty result.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.QueryError("query text must not be empty", nil)
	}
	if q.MaxResults < 0 {
		return errors.QueryError("max results must not be negative", nil)
	}
	if q.MinLevel != nil && *q.MinLevel < 0 {
		return errors.QueryError("min level must not be negative", nil)
	}
	if q.MinLevel != nil && q.MaxLevel != nil && *q.MinLevel > *q.MaxLevel {
		return errors.QueryError("min level exceeds max level", nil)
	}
	if q.IdentifierPattern != "" {
		re, err := regexp.Compile(q.IdentifierPattern)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidQuery, err, "invalid identifier pattern")
		}
		q.identifierRe = re
	}
	return nil
}

// HasFilters reports whether any structural filter is active.
func (q *Query) HasFilters() bool {
	return len(q.Types) > 0 || q.MinLevel != nil || q.MaxLevel != nil ||
		q.IdentifierPattern != "" || q.MinScore > 0
}

// Matches applies the structural filters to one document. Score filtering
// is the caller's concern since scores live outside the document.
func (q *Query) Matches(d *Document) bool {
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if d.DocType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.MinLevel != nil && d.Level < *q.MinLevel {
		return false
	}
	if q.MaxLevel != nil && d.Level > *q.MaxLevel {
		return false
	}
	if q.identifierRe != nil && !q.identifierRe.MatchString(d.OfficialIdentifier) {
		return false
	}
	return true
}
