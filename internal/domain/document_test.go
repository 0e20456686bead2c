package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedTextRepetition(t *testing.T) {
	d := &Document{
		OfficialIdentifier: "§ 2",
		Title:              "Vymezení pojmů",
		Summary:            "Definice základních pojmů",
		ConceptTerms:       []string{"pojem", "definice"},
	}

	text := d.WeightedText()

	assert.Equal(t, 1, strings.Count(text, "§ 2"))
	assert.Equal(t, 2, strings.Count(text, "Vymezení pojmů"))
	assert.Equal(t, 3, strings.Count(text, "Definice základních pojmů"))
	assert.Equal(t, 5, strings.Count(text, "pojem definice"))
}

func TestWeightedTextSkipsEmptyFields(t *testing.T) {
	d := &Document{Title: "Hlava I"}

	assert.Equal(t, "Hlava I Hlava I", d.WeightedText())
}

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "title plus summary",
			doc:  Document{Title: "Smlouva", Summary: "Úprava smluvních vztahů"},
			want: "Smlouva Úprava smluvních vztahů",
		},
		{
			name: "summary only",
			doc:  Document{Summary: "Úprava smluvních vztahů"},
			want: "Úprava smluvních vztahů",
		},
		{
			name: "no summary falls back to weighted view",
			doc:  Document{Title: "Smlouva"},
			want: "Smlouva Smlouva",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.EmbeddingText())
		})
	}
}

func TestIndexable(t *testing.T) {
	assert.False(t, (&Document{Title: "Hlava I"}).Indexable())
	assert.False(t, (&Document{Summary: "   "}).Indexable())
	assert.True(t, (&Document{Summary: "text"}).Indexable())
	assert.True(t, (&Document{BodyText: "text"}).Indexable())
}

func TestFieldValues(t *testing.T) {
	d := &Document{
		OfficialIdentifier: "§ 5",
		Title:              "Název",
		ConceptTerms:       []string{"a", "b"},
	}

	fields := d.FieldValues()
	require.Len(t, fields, 4)
	assert.Equal(t, "§ 5", fields[FieldIdentifier])
	assert.Equal(t, "a b", fields[FieldConceptTerms])
	assert.Empty(t, fields[FieldSummary])
}
