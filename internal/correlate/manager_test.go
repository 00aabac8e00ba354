package correlate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-rag/internal/models"
	"realty-rag/internal/sourcedata"
	"realty-rag/internal/vectorstore/memory"
)

func propertyChunk(id, listingID, parent string, index, total int, text string) models.EmbeddingMetadata {
	return models.EmbeddingMetadata{
		EmbeddingID: id,
		EntityType:  models.EntityProperty,
		SourceType:  models.SourceDocumentFile,
		SourceFile:  "listings.json",
		ListingID:   listingID,
		ParentHash:  parent,
		ChunkIndex:  &index,
		ChunkTotal:  &total,
		Text:        text,
	}
}

func testManager(t *testing.T, store MetadataStore, listings string) *Manager {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(listings), 0o644))

	registry := sourcedata.NewRegistry(sourcedata.Config{PropertyFiles: []string{path}})
	mgr, err := NewManager(store, registry)
	require.NoError(t, err)
	return mgr
}

func TestNewManager_RequiresStore(t *testing.T) {
	_, err := NewManager(nil, sourcedata.NewRegistry(sourcedata.Config{}))
	assert.Error(t, err)
}

func TestCorrelateOne_Success(t *testing.T) {
	store := memory.NewStore()
	store.Add("listings",
		propertyChunk("e0", "A1", "p1", 0, 3, "Spacious"),
		propertyChunk("e1", "A1", "p1", 1, 3, "canal-side"),
		propertyChunk("e2", "A1", "p1", 2, 3, "apartment"),
	)
	mgr := testManager(t, store, `[{"listing_id": "A1", "price": 525000}]`)

	for _, id := range []string{"e0", "e1", "e2"} {
		result := mgr.CorrelateOne(context.Background(), id, "listings", true)
		assert.True(t, result.Correlated, id)
		assert.Equal(t, 1.0, result.Confidence)
		assert.Equal(t, MethodMetadataLookup, result.Method)
		assert.Equal(t, "A1", result.Identifier)
		require.NotNil(t, result.SourceRecord)
		assert.Equal(t, float64(525000), result.SourceRecord["price"])
	}
}

func TestCorrelateOne_EmbeddingNotFound(t *testing.T) {
	mgr := testManager(t, memory.NewStore(), `[]`)

	result := mgr.CorrelateOne(context.Background(), "ghost", "listings", true)
	assert.False(t, result.Correlated)
	assert.Equal(t, MethodMetadataLookup, result.Method)
	assert.Equal(t, 0.0, result.Confidence)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestCorrelateOne_IdentifierNotExtractable(t *testing.T) {
	store := memory.NewStore()
	rec := propertyChunk("e0", "", "p1", 0, 1, "text")
	rec.ListingID = ""
	store.Add("listings", rec)
	mgr := testManager(t, store, `[]`)

	result := mgr.CorrelateOne(context.Background(), "e0", "listings", true)
	assert.False(t, result.Correlated)
	assert.Contains(t, result.ErrorMessage, "no identifier")
}

func TestCorrelateOne_SourceNotFound(t *testing.T) {
	store := memory.NewStore()
	store.Add("listings", propertyChunk("e0", "ZZ", "p1", 0, 1, "text"))
	mgr := testManager(t, store, `[{"listing_id": "A1"}]`)

	result := mgr.CorrelateOne(context.Background(), "e0", "listings", true)
	assert.False(t, result.Correlated)
	assert.Contains(t, result.ErrorMessage, "source data not found")
}

type failingStore struct{}

func (failingStore) Search(context.Context, string, models.Filter, int) ([]models.EmbeddingMetadata, error) {
	return nil, errors.New("store unreachable")
}

func TestCorrelateOne_StoreFailureIsAResultNotAPanic(t *testing.T) {
	mgr := testManager(t, failingStore{}, `[]`)

	result := mgr.CorrelateOne(context.Background(), "e0", "listings", true)
	assert.False(t, result.Correlated)
	assert.Contains(t, result.ErrorMessage, "metadata search failed")
}

func TestCorrelateBulk_ReconstructsEntity(t *testing.T) {
	store := memory.NewStore()
	store.Add("listings",
		propertyChunk("e1", "A1", "p1", 1, 3, "canal-side"),
		propertyChunk("e0", "A1", "p1", 0, 3, "Spacious"),
		propertyChunk("e2", "A1", "p1", 2, 3, "apartment"),
	)
	mgr := testManager(t, store, `[{"listing_id": "A1", "price": 525000}]`)

	entities, report := mgr.CorrelateBulk(context.Background(), BulkRequest{
		Collections:          []string{"listings"},
		UseCache:             true,
		ValidateCompleteness: true,
	})

	require.Len(t, entities, 1)
	e := entities[0]
	assert.Equal(t, "A1", e.EntityID)
	assert.Equal(t, 3, e.ChunkCount)
	assert.Equal(t, 3, e.TotalEmbeddings)
	assert.True(t, e.IsComplete)
	assert.True(t, e.ValidationPassed)
	assert.Equal(t, "Spacious\n\ncanal-side\n\napartment", e.ReconstructedText)
	assert.Equal(t, len(e.ReconstructedText), e.TextLength)
	assert.Equal(t, []string{"listings.json"}, e.SourceFiles)
	assert.Len(t, e.EmbeddingIDs, 3)

	assert.Equal(t, 3, report.TotalEmbeddings)
	assert.Equal(t, report.TotalEmbeddings, report.SuccessfulCorrelations+report.FailedCorrelations)
	assert.Equal(t, 1.0, report.SuccessRate())
	assert.False(t, report.CompletedAt.IsZero())
	assert.NotEmpty(t, report.CacheStats)
}

func TestCorrelateBulk_IncompleteEntityFlagged(t *testing.T) {
	store := memory.NewStore()
	store.Add("listings",
		propertyChunk("e0", "A1", "p1", 0, 3, "Spacious"),
		propertyChunk("e2", "A1", "p1", 2, 3, "apartment"),
	)
	mgr := testManager(t, store, `[{"listing_id": "A1"}]`)

	entities, report := mgr.CorrelateBulk(context.Background(), BulkRequest{
		Collections:          []string{"listings"},
		UseCache:             true,
		ValidateCompleteness: true,
	})

	require.Len(t, entities, 1)
	assert.False(t, entities[0].IsComplete)
	assert.False(t, entities[0].ValidationPassed)
	assert.Equal(t, 1, report.IncompleteEntities)
	assert.Equal(t, 1, report.WarningCounts[WarnIncompleteChunks])
}

func TestCorrelateBulk_OrphanedEmbedding(t *testing.T) {
	store := memory.NewStore()
	orphan := propertyChunk("e0", "", "p1", 0, 1, "text")
	orphan.ListingID = ""
	store.Add("listings", orphan)
	mgr := testManager(t, store, `[]`)

	entities, report := mgr.CorrelateBulk(context.Background(), BulkRequest{
		Collections: []string{"listings"},
		UseCache:    true,
	})

	assert.Empty(t, entities)
	assert.Equal(t, 1, report.OrphanedEmbeddings)
	assert.Equal(t, 1, report.FailedCorrelations)
	assert.Equal(t, report.TotalEmbeddings, report.SuccessfulCorrelations+report.FailedCorrelations)
}

func TestCorrelateBulk_SourceMissStillYieldsEntity(t *testing.T) {
	store := memory.NewStore()
	store.Add("listings", propertyChunk("e0", "ZZ", "p1", 0, 1, "text"))
	mgr := testManager(t, store, `[{"listing_id": "A1"}]`)

	entities, report := mgr.CorrelateBulk(context.Background(), BulkRequest{
		Collections: []string{"listings"},
		UseCache:    true,
	})

	require.Len(t, entities, 1)
	assert.Nil(t, entities[0].SourceRecord)
	assert.False(t, entities[0].ValidationPassed)
	assert.Equal(t, 1, report.FailedCorrelations)
	assert.Equal(t, 1, report.ErrorCounts[ErrSourceNotFound])
}

func TestCorrelateBulk_EntityTypeFilter(t *testing.T) {
	store := memory.NewStore()
	listing := propertyChunk("e0", "A1", "p1", 0, 1, "text")
	article := models.EmbeddingMetadata{
		EmbeddingID: "e1",
		EntityType:  models.EntityArticle,
		SourceType:  models.SourceWikipediaDB,
		SourceFile:  "wiki.db",
		PageID:      "42",
	}
	store.Add("listings", listing, article)
	mgr := testManager(t, store, `[{"listing_id": "A1"}]`)

	entities, _ := mgr.CorrelateBulk(context.Background(), BulkRequest{
		Collections: []string{"listings"},
		EntityTypes: []models.EntityType{models.EntityProperty},
		UseCache:    true,
	})

	require.Len(t, entities, 1)
	assert.Equal(t, models.EntityProperty, entities[0].EntityType)
}

func TestCorrelateBulk_StoreFailureRecordedAndRunFinishes(t *testing.T) {
	mgr := testManager(t, failingStore{}, `[]`)

	entities, report := mgr.CorrelateBulk(context.Background(), BulkRequest{
		Collections: []string{"listings"},
		UseCache:    true,
	})

	assert.Empty(t, entities)
	assert.Equal(t, 1, report.ErrorCounts[ErrStoreFailure])
	assert.False(t, report.CompletedAt.IsZero())
}

func TestManager_ClearCachesAndStats(t *testing.T) {
	store := memory.NewStore()
	store.Add("listings", propertyChunk("e0", "A1", "p1", 0, 1, "text"))
	mgr := testManager(t, store, `[{"listing_id": "A1"}]`)

	_ = mgr.CorrelateOne(context.Background(), "e0", "listings", true)
	require.NotEmpty(t, mgr.CacheStatistics())

	mgr.ClearCaches()
	for _, stats := range mgr.CacheStatistics() {
		assert.Equal(t, int64(0), stats.Hits)
		assert.Equal(t, int64(0), stats.Misses)
	}
}
