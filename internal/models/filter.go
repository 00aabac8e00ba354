package models

// Filter narrows a metadata search. Zero value matches every record in a
// collection; EmbeddingID is an exact match, EntityTypes is set membership.
type Filter struct {
	EmbeddingID string
	EntityTypes []EntityType
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(r EmbeddingMetadata) bool {
	if f.EmbeddingID != "" && r.EmbeddingID != f.EmbeddingID {
		return false
	}
	if len(f.EntityTypes) > 0 {
		ok := false
		for _, et := range f.EntityTypes {
			if r.EntityType == et {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
