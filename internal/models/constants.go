package models

// EntityType tags the kind of logical entity an embedding belongs to.
type EntityType string

const (
	EntityProperty       EntityType = "property"
	EntityNeighborhood   EntityType = "neighborhood"
	EntityArticle        EntityType = "article"
	EntityArticleSummary EntityType = "article_summary"
)

// SourceType tags the backing store holding an entity's source of truth.
type SourceType string

const (
	SourceDocumentFile SourceType = "document_file"
	SourceWikipediaDB  SourceType = "wikipedia_db"
)

// metadata keys used in the vector store
const (
	KeyEntityType       = "entity_type"
	KeySourceType       = "source_type"
	KeySourceFile       = "source_file"
	KeyContentHash      = "content_hash"
	KeyChunkIndex       = "chunk_index"
	KeyChunkTotal       = "chunk_total"
	KeyParentHash       = "parent_hash"
	KeyListingID        = "listing_id"
	KeyNeighborhoodID   = "neighborhood_id"
	KeyNeighborhoodName = "neighborhood_name"
	KeyPageID           = "page_id"
	KeyArticleID        = "article_id"
)

// AllEntityTypes lists every known entity type, in a fixed order.
var AllEntityTypes = []EntityType{
	EntityProperty,
	EntityNeighborhood,
	EntityArticle,
	EntityArticleSummary,
}
