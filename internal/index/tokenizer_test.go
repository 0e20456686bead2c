package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			in:   "Náhrada škody, § 2910",
			want: []string{"náhrada", "škody", "2910"},
		},
		{
			name: "diacritics stay distinct",
			in:   "škoda skoda",
			want: []string{"škoda", "skoda"},
		},
		{
			name: "digits survive",
			in:   "zákon č. 89/2012 Sb.",
			want: []string{"zákon", "č", "89", "2012", "sb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	assert.Empty(t, Tokenize("  "))
	assert.Empty(t, Tokenize(""))
}

func TestTokenizeComposesNFC(t *testing.T) {
	// "á" as a precomposed rune and as "a" plus a combining acute must
	// produce the same term.
	precomposed := "nájem"
	decomposed := "nájem"
	assert.Equal(t, Tokenize(precomposed), Tokenize(decomposed))
}
