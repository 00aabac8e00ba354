// Package memory provides an in-memory metadata store for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sync"

	"realty-rag/internal/models"
)

// Store holds embedding metadata per collection.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]models.EmbeddingMetadata
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]models.EmbeddingMetadata)}
}

// Add appends records to a collection.
func (s *Store) Add(collection string, records ...models.EmbeddingMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], records...)
}

// Search returns the collection's records matching the filter, in
// insertion order. limit <= 0 means no limit.
func (s *Store) Search(_ context.Context, collection string, filter models.Filter, limit int) ([]models.EmbeddingMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []models.EmbeddingMetadata
	for _, rec := range s.collections[collection] {
		if !filter.Matches(rec) {
			continue
		}
		results = append(results, rec)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
