package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
)

// Fingerprint hashes a document corpus in supply order. Two corpora
// fingerprint equal exactly when every field an index scores or renders
// is identical, so an artifact can detect that the stored corpus moved
// on without it.
func Fingerprint(docs []*Document) string {
	h := sha256.New()
	for _, d := range docs {
		writeField(h, d.ID)
		writeField(h, d.OfficialIdentifier)
		writeField(h, d.Title)
		writeField(h, d.Summary)
		for _, t := range d.ConceptTerms {
			writeField(h, t)
		}
		writeField(h, d.BodyText)
		writeField(h, strconv.Itoa(d.Level))
		writeField(h, string(d.DocType))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ChunkFingerprint hashes a chunk set in build order.
func ChunkFingerprint(chunks []Chunk) string {
	h := sha256.New()
	for _, c := range chunks {
		writeField(h, c.ID)
		writeField(h, c.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField separates fields with a NUL so adjacent values cannot alias.
func writeField(h hash.Hash, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}
