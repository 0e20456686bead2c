package domain

import (
	"strconv"
	"strings"
)

// Chunk is a contiguous word window of one document's body text. Chunk
// identifiers are derived deterministically from the parent document ID
// and the window sequence number, so rebuilding an unchanged corpus with
// the same parameters reproduces identical chunk sets.
type Chunk struct {
	// ID is "<doc-id>_chunk_<seq>".
	ID string `json:"id" db:"id"`

	// DocumentID references the parent document.
	DocumentID string `json:"document_id" db:"document_id"`

	// Text is the chunk's word window, space-joined.
	Text string `json:"text" db:"text"`

	// Sequence is the zero-based window index within the document.
	Sequence int `json:"sequence" db:"seq"`
}

// ChunkID builds the deterministic identifier of a document's n-th chunk.
func ChunkID(docID string, seq int) string {
	return docID + "_chunk_" + strconv.Itoa(seq)
}

// ChunkDocument splits a document's body text into overlapping word
// windows of size words with overlap words shared between neighbours.
// Documents without body text yield no chunks. A body shorter than one
// window yields a single chunk holding the whole text. The final window
// may be shorter than size; stride is size-overlap. A non-positive size
// or an overlap at or above size has no meaningful window arithmetic and
// yields no chunks.
func ChunkDocument(d *Document, size, overlap int) []Chunk {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}
	words := strings.Fields(StripMarkup(d.BodyText))
	if len(words) == 0 {
		return nil
	}

	stride := size - overlap
	var chunks []Chunk
	for start := 0; ; start += stride {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		seq := len(chunks)
		chunks = append(chunks, Chunk{
			ID:         ChunkID(d.ID, seq),
			DocumentID: d.ID,
			Text:       strings.Join(words[start:end], " "),
			Sequence:   seq,
		})
		if start+size >= len(words) {
			break
		}
	}
	return chunks
}

// ChunkCorpus chunks every document carrying body text, preserving corpus
// order. All full-text index variants build from this one chunk set so
// chunk identifiers line up across them.
func ChunkCorpus(docs []*Document, size, overlap int) []Chunk {
	var all []Chunk
	for _, d := range docs {
		all = append(all, ChunkDocument(d, size, overlap)...)
	}
	return all
}
