package store

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/paragraf-search/paragraf/internal/domain"
	"github.com/paragraf-search/paragraf/internal/errors"
)

// Catalog is the SQLite sidecar carrying the documents and chunks of one
// collection. Index artifacts hold scores and vectors only; everything a
// result needs to render comes back from here. Corpus order is preserved
// through the seq column so a rebuilt catalog replays documents exactly
// as they were supplied.
type Catalog struct {
	db *sqlx.DB
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS documents (
	seq                 INTEGER PRIMARY KEY,
	id                  TEXT NOT NULL UNIQUE,
	title               TEXT NOT NULL DEFAULT '',
	official_identifier TEXT NOT NULL DEFAULT '',
	summary             TEXT NOT NULL DEFAULT '',
	concept_terms       TEXT NOT NULL DEFAULT '[]',
	body_text           TEXT NOT NULL DEFAULT '',
	level               INTEGER NOT NULL DEFAULT 0,
	doc_type            TEXT NOT NULL DEFAULT 'unknown',
	collection_id       TEXT NOT NULL DEFAULT '',
	snapshot_id         TEXT NOT NULL DEFAULT '',
	parent_id           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chunks (
	seq         INTEGER PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	document_id TEXT NOT NULL,
	text        TEXT NOT NULL DEFAULT '',
	chunk_seq   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`

// catalogDoc is the row form of a document; concept terms travel as JSON.
type catalogDoc struct {
	Seq                int    `db:"seq"`
	ID                 string `db:"id"`
	Title              string `db:"title"`
	OfficialIdentifier string `db:"official_identifier"`
	Summary            string `db:"summary"`
	ConceptTerms       string `db:"concept_terms"`
	BodyText           string `db:"body_text"`
	Level              int    `db:"level"`
	DocType            string `db:"doc_type"`
	CollectionID       string `db:"collection_id"`
	SnapshotID         string `db:"snapshot_id"`
	ParentID           string `db:"parent_id"`
}

type catalogChunk struct {
	Seq        int    `db:"seq"`
	ID         string `db:"id"`
	DocumentID string `db:"document_id"`
	Text       string `db:"text"`
	ChunkSeq   int    `db:"chunk_seq"`
}

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sqlx.Connect("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "open catalog")
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "create catalog schema")
	}
	return &Catalog{db: db}, nil
}

// SaveDocuments replaces the document table with the given corpus,
// numbering rows in slice order.
func (c *Catalog) SaveDocuments(ctx context.Context, docs []*domain.Document) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "begin catalog tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "clear documents")
	}

	const insert = `INSERT INTO documents
		(seq, id, title, official_identifier, summary, concept_terms, body_text,
		 level, doc_type, collection_id, snapshot_id, parent_id)
		VALUES (:seq, :id, :title, :official_identifier, :summary, :concept_terms,
		 :body_text, :level, :doc_type, :collection_id, :snapshot_id, :parent_id)`

	for i, d := range docs {
		terms, err := json.Marshal(d.ConceptTerms)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "encode concept terms")
		}
		row := catalogDoc{
			Seq:                i,
			ID:                 d.ID,
			Title:              d.Title,
			OfficialIdentifier: d.OfficialIdentifier,
			Summary:            d.Summary,
			ConceptTerms:       string(terms),
			BodyText:           d.BodyText,
			Level:              d.Level,
			DocType:            string(d.DocType),
			CollectionID:       d.CollectionID,
			SnapshotID:         d.SnapshotID,
			ParentID:           d.ParentID,
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "insert document")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "commit documents")
	}
	return nil
}

// LoadDocuments returns the corpus in original supply order.
func (c *Catalog) LoadDocuments(ctx context.Context) ([]*domain.Document, error) {
	var rows []catalogDoc
	if err := c.db.SelectContext(ctx, &rows, `SELECT * FROM documents ORDER BY seq`); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "load documents")
	}

	docs := make([]*domain.Document, 0, len(rows))
	for _, r := range rows {
		var terms []string
		if err := json.Unmarshal([]byte(r.ConceptTerms), &terms); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeCorruptIndex, err, "decode concept terms")
		}
		docs = append(docs, &domain.Document{
			ID:                 r.ID,
			Title:              r.Title,
			OfficialIdentifier: r.OfficialIdentifier,
			Summary:            r.Summary,
			ConceptTerms:       terms,
			BodyText:           r.BodyText,
			Level:              r.Level,
			DocType:            domain.Type(r.DocType),
			CollectionID:       r.CollectionID,
			SnapshotID:         r.SnapshotID,
			ParentID:           r.ParentID,
		})
	}
	return docs, nil
}

// SaveChunks replaces the chunk table, numbering rows in slice order.
func (c *Catalog) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "begin catalog tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "clear chunks")
	}

	const insert = `INSERT INTO chunks (seq, id, document_id, text, chunk_seq)
		VALUES (:seq, :id, :document_id, :text, :chunk_seq)`

	for i, ch := range chunks {
		row := catalogChunk{
			Seq:        i,
			ID:         ch.ID,
			DocumentID: ch.DocumentID,
			Text:       ch.Text,
			ChunkSeq:   ch.Sequence,
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "insert chunk")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "commit chunks")
	}
	return nil
}

// LoadChunks returns the chunk set in build order.
func (c *Catalog) LoadChunks(ctx context.Context) ([]domain.Chunk, error) {
	var rows []catalogChunk
	if err := c.db.SelectContext(ctx, &rows, `SELECT * FROM chunks ORDER BY seq`); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "load chunks")
	}

	chunks := make([]domain.Chunk, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, domain.Chunk{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Text:       r.Text,
			Sequence:   r.ChunkSeq,
		})
	}
	return chunks, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}
