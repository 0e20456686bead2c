package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/errors"
)

func intPtr(n int) *int { return &n }

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{name: "valid", query: Query{Text: "smlouva"}},
		{name: "empty text", query: Query{Text: "  "}, wantErr: true},
		{name: "negative max results", query: Query{Text: "x", MaxResults: -1}, wantErr: true},
		{name: "negative min level", query: Query{Text: "x", MinLevel: intPtr(-1)}, wantErr: true},
		{name: "inverted level range", query: Query{Text: "x", MinLevel: intPtr(3), MaxLevel: intPtr(1)}, wantErr: true},
		{name: "bad identifier pattern", query: Query{Text: "x", IdentifierPattern: "["}, wantErr: true},
		{name: "good identifier pattern", query: Query{Text: "x", IdentifierPattern: `^§ \d+$`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidQuery, errors.GetCode(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestQueryMatches(t *testing.T) {
	doc := &Document{
		ID:                 "d1",
		OfficialIdentifier: "§ 12",
		DocType:            TypeSection,
		Level:              3,
	}

	q := Query{Text: "x", Types: []Type{TypeSection}, MinLevel: intPtr(2), MaxLevel: intPtr(4)}
	require.NoError(t, q.Validate())
	assert.True(t, q.Matches(doc))

	q = Query{Text: "x", Types: []Type{TypeChapter}}
	require.NoError(t, q.Validate())
	assert.False(t, q.Matches(doc))

	q = Query{Text: "x", MinLevel: intPtr(4)}
	require.NoError(t, q.Validate())
	assert.False(t, q.Matches(doc))

	q = Query{Text: "x", IdentifierPattern: `^§ 1\d$`}
	require.NoError(t, q.Validate())
	assert.True(t, q.Matches(doc))

	q = Query{Text: "x", IdentifierPattern: `^čl\.`}
	require.NoError(t, q.Validate())
	assert.False(t, q.Matches(doc))
}

func TestQueryHasFilters(t *testing.T) {
	assert.False(t, (&Query{Text: "x", MaxResults: 10}).HasFilters())
	assert.True(t, (&Query{Text: "x", MinScore: 0.5}).HasFilters())
	assert.True(t, (&Query{Text: "x", Types: []Type{TypeAct}}).HasFilters())
}
