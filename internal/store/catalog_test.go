package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paragraf-search/paragraf/internal/domain"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalogDocumentsRoundtrip(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	docs := []*domain.Document{
		{
			ID:                 "s2",
			Title:              "Vymezení pojmů",
			OfficialIdentifier: "§ 2",
			Summary:            "Definice pojmů",
			ConceptTerms:       []string{"pojem", "definice"},
			Level:              3,
			DocType:            domain.TypeSection,
			CollectionID:       "zakon-89-2012",
			ParentID:           "ch1",
		},
		{ID: "s1", OfficialIdentifier: "§ 1", DocType: domain.TypeSection},
	}
	require.NoError(t, c.SaveDocuments(ctx, docs))

	loaded, err := c.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Supply order survives, not lexicographic ID order.
	assert.Equal(t, "s2", loaded[0].ID)
	assert.Equal(t, "s1", loaded[1].ID)
	assert.Equal(t, []string{"pojem", "definice"}, loaded[0].ConceptTerms)
	assert.Equal(t, domain.TypeSection, loaded[0].DocType)
	assert.Equal(t, "ch1", loaded[0].ParentID)
}

func TestCatalogSaveDocumentsReplaces(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	require.NoError(t, c.SaveDocuments(ctx, []*domain.Document{{ID: "old"}}))
	require.NoError(t, c.SaveDocuments(ctx, []*domain.Document{{ID: "new"}}))

	loaded, err := c.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].ID)
}

func TestCatalogChunksRoundtrip(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	chunks := []domain.Chunk{
		{ID: "d1_chunk_0", DocumentID: "d1", Text: "první okno", Sequence: 0},
		{ID: "d1_chunk_1", DocumentID: "d1", Text: "druhé okno", Sequence: 1},
	}
	require.NoError(t, c.SaveChunks(ctx, chunks))

	loaded, err := c.LoadChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)
}
