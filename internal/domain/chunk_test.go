package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsDoc(id string, n int) *Document {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return &Document{ID: id, BodyText: strings.Join(words, " ")}
}

func TestChunkDocumentWindows(t *testing.T) {
	// 50 words, window 20, overlap 5: starts at 0, 15, 30.
	chunks := ChunkDocument(wordsDoc("d1", 50), 20, 5)
	require.Len(t, chunks, 3)

	assert.Equal(t, "d1_chunk_0", chunks[0].ID)
	assert.Equal(t, "d1_chunk_1", chunks[1].ID)
	assert.Equal(t, "d1_chunk_2", chunks[2].ID)

	assert.Len(t, strings.Fields(chunks[0].Text), 20)
	assert.Len(t, strings.Fields(chunks[1].Text), 20)
	assert.Len(t, strings.Fields(chunks[2].Text), 20)

	assert.True(t, strings.HasPrefix(chunks[1].Text, "w15 "))
	assert.True(t, strings.HasPrefix(chunks[2].Text, "w30 "))
	assert.True(t, strings.HasSuffix(chunks[2].Text, " w49"))
}

func TestChunkDocumentShortBody(t *testing.T) {
	chunks := ChunkDocument(wordsDoc("d1", 7), 20, 5)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Sequence)
	assert.Len(t, strings.Fields(chunks[0].Text), 7)
}

func TestChunkDocumentExactWindow(t *testing.T) {
	chunks := ChunkDocument(wordsDoc("d1", 20), 20, 5)
	require.Len(t, chunks, 1)
}

func TestChunkDocumentNoBody(t *testing.T) {
	assert.Nil(t, ChunkDocument(&Document{ID: "d1", Summary: "only"}, 20, 5))
}

func TestChunkDocumentRejectsDegenerateWindows(t *testing.T) {
	d := wordsDoc("d1", 50)

	// overlap at or above size degenerates the stride; no windows exist.
	assert.Nil(t, ChunkDocument(d, 20, 20))
	assert.Nil(t, ChunkDocument(d, 20, 25))
	assert.Nil(t, ChunkDocument(d, 0, 0))
	assert.Nil(t, ChunkDocument(d, -1, 0))
	assert.Nil(t, ChunkDocument(d, 20, -1))
}

func TestChunkDocumentDeterministic(t *testing.T) {
	d := wordsDoc("d1", 63)
	first := ChunkDocument(d, 20, 5)
	second := ChunkDocument(d, 20, 5)
	assert.Equal(t, first, second)
}

func TestChunkCorpusPreservesOrder(t *testing.T) {
	docs := []*Document{wordsDoc("a", 25), {ID: "b"}, wordsDoc("c", 5)}
	chunks := ChunkCorpus(docs, 20, 5)

	require.Len(t, chunks, 3)
	assert.Equal(t, "a_chunk_0", chunks[0].ID)
	assert.Equal(t, "a_chunk_1", chunks[1].ID)
	assert.Equal(t, "c_chunk_0", chunks[2].ID)
}
