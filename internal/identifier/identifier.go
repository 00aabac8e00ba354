// Package identifier derives the canonical business identifier used to
// look up an embedding's source-of-truth record.
package identifier

import "realty-rag/internal/models"

// ExtractFunc maps one record to its canonical identifier. The bool is
// false when the required field is missing.
type ExtractFunc func(m models.EmbeddingMetadata) (string, bool)

var extractors = map[models.EntityType]ExtractFunc{
	models.EntityProperty:       fromField(func(m models.EmbeddingMetadata) string { return m.ListingID }),
	models.EntityNeighborhood:   fromField(func(m models.EmbeddingMetadata) string { return m.NeighborhoodID }),
	models.EntityArticle:        fromField(func(m models.EmbeddingMetadata) string { return m.PageID }),
	models.EntityArticleSummary: fromField(func(m models.EmbeddingMetadata) string { return m.PageID }),
}

// Extract returns the canonical identifier for the record under the given
// entity type. Unknown entity types fall back to the embedding's own id.
// Pure; never fails beyond returning false.
func Extract(m models.EmbeddingMetadata, entityType models.EntityType) (string, bool) {
	if fn, ok := extractors[entityType]; ok {
		return fn(m)
	}
	if m.EmbeddingID == "" {
		return "", false
	}
	return m.EmbeddingID, true
}

func fromField(get func(models.EmbeddingMetadata) string) ExtractFunc {
	return func(m models.EmbeddingMetadata) (string, bool) {
		v := get(m)
		if v == "" {
			return "", false
		}
		return v, true
	}
}
