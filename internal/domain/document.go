// Package domain defines the document model shared by every index: the
// Document record with its weighted text views, deterministic body-text
// chunking, queries with structural filters, and ranked result items.
package domain

import (
	"strings"
)

// Type classifies a document's structural kind within a legal act.
type Type string

const (
	TypeAct      Type = "act"
	TypePart     Type = "part"
	TypeChapter  Type = "chapter"
	TypeDivision Type = "division"
	TypeSection  Type = "section"
	TypeUnknown  Type = "unknown"
)

// Weighted field names reported in Result.MatchedFields.
const (
	FieldIdentifier   = "official_identifier"
	FieldTitle        = "title"
	FieldSummary      = "summary"
	FieldConceptTerms = "concept_terms"
	FieldBodyText     = "body_text"
)

// Field weights of the lexical scoring model. Curated concept terms are
// the most discriminating signal, raw identifiers the least.
const (
	WeightIdentifier   = 1
	WeightTitle        = 2
	WeightSummary      = 3
	WeightConceptTerms = 5
)

// Document is one indexable unit of a legal act: the act itself, a part,
// a chapter, a division or a section.
type Document struct {
	// ID is the opaque, globally unique element identifier.
	ID string `json:"id" db:"id"`

	// Title is the element heading.
	Title string `json:"title" db:"title"`

	// OfficialIdentifier is the human-readable legal identifier
	// (e.g. "§ 2", "čl. 15"), unique within a collection.
	OfficialIdentifier string `json:"official_identifier" db:"official_identifier"`

	// Summary is an optional short description, produced upstream.
	Summary string `json:"summary,omitempty" db:"summary"`

	// ConceptTerms are curated key phrases, ordered, possibly empty.
	ConceptTerms []string `json:"concept_terms,omitempty" db:"-"`

	// BodyText is the optional full text. May contain structural markup.
	BodyText string `json:"body_text,omitempty" db:"body_text"`

	// Level is the depth in the containment hierarchy, non-negative and
	// non-decreasing along parent→child edges.
	Level int `json:"level" db:"level"`

	// DocType is the structural kind of this element.
	DocType Type `json:"type" db:"doc_type"`

	// CollectionID identifies the owning document collection.
	CollectionID string `json:"collection_id" db:"collection_id"`

	// SnapshotID is an optional source-version tag.
	SnapshotID string `json:"snapshot_id,omitempty" db:"snapshot_id"`

	// ParentID references the containing document, empty for roots.
	ParentID string `json:"parent_id,omitempty" db:"parent_id"`
}

// Indexable reports whether any engine may index this document. A document
// with neither summary nor body text must be skipped, never scored empty.
func (d *Document) Indexable() bool {
	return strings.TrimSpace(d.Summary) != "" || strings.TrimSpace(d.BodyText) != ""
}

// WeightedText returns the concatenated weighted text view used by the
// lexical index. Repeating a field's text in proportion to its weight is
// the single mechanism encoding field importance; no per-field scoring
// pass exists.
func (d *Document) WeightedText() string {
	var parts []string

	if d.OfficialIdentifier != "" {
		parts = append(parts, repeat(d.OfficialIdentifier, WeightIdentifier)...)
	}
	if d.Title != "" {
		parts = append(parts, repeat(d.Title, WeightTitle)...)
	}
	if d.Summary != "" {
		parts = append(parts, repeat(d.Summary, WeightSummary)...)
	}
	if len(d.ConceptTerms) > 0 {
		parts = append(parts, repeat(strings.Join(d.ConceptTerms, " "), WeightConceptTerms)...)
	}

	return strings.Join(parts, " ")
}

// EmbeddingText returns the text embedded for semantic search: title plus
// summary, falling back to the full weighted view when no summary exists.
// The same derivation runs at build and query side so vector spaces stay
// comparable.
func (d *Document) EmbeddingText() string {
	if strings.TrimSpace(d.Summary) != "" {
		if d.Title != "" {
			return d.Title + " " + d.Summary
		}
		return d.Summary
	}
	return d.WeightedText()
}

// FieldValues returns the weighted fields by name, used for matched-field
// detection and snippets.
func (d *Document) FieldValues() map[string]string {
	return map[string]string{
		FieldIdentifier:   d.OfficialIdentifier,
		FieldTitle:        d.Title,
		FieldSummary:      d.Summary,
		FieldConceptTerms: strings.Join(d.ConceptTerms, " "),
	}
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
