package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"realty-rag/internal/models"
)

func TestExtract_Property(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-1", ListingID: "L-42"}

	id, ok := Extract(rec, models.EntityProperty)
	assert.True(t, ok)
	assert.Equal(t, "L-42", id)
}

func TestExtract_PropertyMissingListingID(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-1"}

	_, ok := Extract(rec, models.EntityProperty)
	assert.False(t, ok)
}

func TestExtract_Neighborhood(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-2", NeighborhoodID: "nbh-7"}

	id, ok := Extract(rec, models.EntityNeighborhood)
	assert.True(t, ok)
	assert.Equal(t, "nbh-7", id)
}

func TestExtract_ArticleUsesPageID(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-3", PageID: "12345", ArticleID: "other"}

	for _, et := range []models.EntityType{models.EntityArticle, models.EntityArticleSummary} {
		id, ok := Extract(rec, et)
		assert.True(t, ok)
		assert.Equal(t, "12345", id)
	}
}

func TestExtract_ArticleMissingPageID(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-3", ArticleID: "a-1"}

	_, ok := Extract(rec, models.EntityArticle)
	assert.False(t, ok)
}

func TestExtract_UnknownTypeFallsBackToEmbeddingID(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-9"}

	id, ok := Extract(rec, models.EntityType("mystery"))
	assert.True(t, ok)
	assert.Equal(t, "emb-9", id)

	_, ok = Extract(models.EmbeddingMetadata{}, models.EntityType("mystery"))
	assert.False(t, ok)
}

func TestExtract_Deterministic(t *testing.T) {
	rec := models.EmbeddingMetadata{EmbeddingID: "emb-1", ListingID: "L-1"}
	for i := 0; i < 5; i++ {
		id, ok := Extract(rec, models.EntityProperty)
		assert.True(t, ok)
		assert.Equal(t, "L-1", id)
	}
}
