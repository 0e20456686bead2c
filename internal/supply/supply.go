// Package supply reads document batches from the upstream pipeline.
// A batch is a JSON file carrying the collection identity plus the flat
// list of documents, in the order the indexes must preserve.
package supply

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/errors"
)

// Batch is one supplied document set for a single collection.
type Batch struct {
	CollectionID string             `json:"collection_id"`
	SnapshotID   string             `json:"snapshot_id,omitempty"`
	Documents    []*domain.Document `json:"documents"`
}

// Source produces document batches. Implementations own the transport;
// the lifecycle layer only consumes batches.
type Source interface {
	// Batches returns all available batches, one per collection.
	Batches(ctx context.Context) ([]*Batch, error)
}

// FileSource reads batches from JSON files on disk. A path may point at
// a single batch file or at a directory of them.
type FileSource struct {
	path string
}

var _ Source = (*FileSource)(nil)

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Batches(ctx context.Context) ([]*Batch, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeConfigInvalid, err, "stat supply path")
	}
	if !info.IsDir() {
		b, err := ReadBatch(s.path)
		if err != nil {
			return nil, err
		}
		return []*Batch{b}, nil
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeConfigInvalid, err, "read supply directory")
	}

	var batches []*Batch
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		b, err := ReadBatch(filepath.Join(s.path, entry.Name()))
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CollectionID < batches[j].CollectionID
	})
	return batches, nil
}

// ReadBatch parses and validates one batch file.
func ReadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeConfigInvalid, err, "read batch file")
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidDocument, err, "parse batch file %s", filepath.Base(path))
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Validate checks batch-level integrity: a collection ID, unique document
// IDs, and documents stamped with the batch's collection. Documents that
// omit collection or type inherit sensible values instead of failing.
func (b *Batch) Validate() error {
	if strings.TrimSpace(b.CollectionID) == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "batch has no collection_id", nil)
	}
	if len(b.Documents) == 0 {
		return errors.EmptyCorpus(b.CollectionID)
	}

	seen := make(map[string]struct{}, len(b.Documents))
	for i, doc := range b.Documents {
		if strings.TrimSpace(doc.ID) == "" {
			return errors.Newf(errors.ErrCodeInvalidDocument, "document at position %d has no id", i).
				WithDetail("collection", b.CollectionID)
		}
		if _, dup := seen[doc.ID]; dup {
			return errors.Newf(errors.ErrCodeInvalidDocument, "duplicate document id %q", doc.ID).
				WithDetail("collection", b.CollectionID)
		}
		seen[doc.ID] = struct{}{}

		if doc.CollectionID == "" {
			doc.CollectionID = b.CollectionID
		} else if doc.CollectionID != b.CollectionID {
			return errors.Newf(errors.ErrCodeInvalidDocument,
				"document %q belongs to collection %q, batch is %q", doc.ID, doc.CollectionID, b.CollectionID)
		}
		if doc.SnapshotID == "" {
			doc.SnapshotID = b.SnapshotID
		}
		if doc.DocType == "" {
			doc.DocType = domain.TypeUnknown
		}
	}
	return nil
}
