package models

import "strconv"

// EmbeddingMetadata is the typed view over one vector store record's
// string-keyed metadata. Produced upstream by the ingest pipeline and
// immutable once read; absent optional fields stay nil/empty.
type EmbeddingMetadata struct {
	EmbeddingID string
	EntityType  EntityType
	SourceType  SourceType
	SourceFile  string
	ContentHash string

	// Text is the chunk content, hydrated from the vector store document.
	Text string

	// chunk fields, present only for entities split before embedding
	ChunkIndex *int
	ChunkTotal *int
	ParentHash string

	// entity-specific identifier fields
	ListingID        string
	NeighborhoodID   string
	NeighborhoodName string
	PageID           string
	ArticleID        string
}

// FromMetadata builds an EmbeddingMetadata from a vector store document's
// id and metadata map. Unparseable chunk fields are dropped rather than
// rejected; the validator reports on what is missing.
func FromMetadata(id string, m map[string]string) EmbeddingMetadata {
	rec := EmbeddingMetadata{
		EmbeddingID:      id,
		EntityType:       EntityType(m[KeyEntityType]),
		SourceType:       SourceType(m[KeySourceType]),
		SourceFile:       m[KeySourceFile],
		ContentHash:      m[KeyContentHash],
		ParentHash:       m[KeyParentHash],
		ListingID:        m[KeyListingID],
		NeighborhoodID:   m[KeyNeighborhoodID],
		NeighborhoodName: m[KeyNeighborhoodName],
		PageID:           m[KeyPageID],
		ArticleID:        m[KeyArticleID],
	}
	rec.ChunkIndex = parseIntField(m, KeyChunkIndex)
	rec.ChunkTotal = parseIntField(m, KeyChunkTotal)
	return rec
}

// Metadata converts the record back to the flat map stored alongside the
// embedding. Nil chunk fields are omitted.
func (r EmbeddingMetadata) Metadata() map[string]string {
	m := map[string]string{
		KeyEntityType: string(r.EntityType),
		KeySourceType: string(r.SourceType),
		KeySourceFile: r.SourceFile,
	}
	setIfPresent(m, KeyContentHash, r.ContentHash)
	setIfPresent(m, KeyParentHash, r.ParentHash)
	setIfPresent(m, KeyListingID, r.ListingID)
	setIfPresent(m, KeyNeighborhoodID, r.NeighborhoodID)
	setIfPresent(m, KeyNeighborhoodName, r.NeighborhoodName)
	setIfPresent(m, KeyPageID, r.PageID)
	setIfPresent(m, KeyArticleID, r.ArticleID)
	if r.ChunkIndex != nil {
		m[KeyChunkIndex] = strconv.Itoa(*r.ChunkIndex)
	}
	if r.ChunkTotal != nil {
		m[KeyChunkTotal] = strconv.Itoa(*r.ChunkTotal)
	}
	return m
}

// IsChunked reports whether the record carries chunk metadata.
func (r EmbeddingMetadata) IsChunked() bool {
	return r.ParentHash != "" || r.ChunkIndex != nil
}

// ChunkIndexOrZero returns the chunk index, defaulting to 0 when absent.
func (r EmbeddingMetadata) ChunkIndexOrZero() int {
	if r.ChunkIndex == nil {
		return 0
	}
	return *r.ChunkIndex
}

func parseIntField(m map[string]string, key string) *int {
	s, ok := m[key]
	if !ok || s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func setIfPresent(m map[string]string, key, val string) {
	if val != "" {
		m[key] = val
	}
}
