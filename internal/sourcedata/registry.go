package sourcedata

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"realty-rag/internal/models"
)

// natural identifier fields inside document-file records
const (
	listingIDField      = "listing_id"
	neighborhoodIDField = "neighborhood_id"
)

// Config wires the registry to the configured backing stores.
type Config struct {
	PropertyFiles     []string
	NeighborhoodFiles []string
	DB                *bun.DB
	WithSummaries     bool
}

// Registry owns one cache per (entity type, source type) pair, created
// lazily on first lookup. One registry belongs to one correlation
// manager; it is not safe for concurrent use.
type Registry struct {
	cfg    Config
	caches map[string]*Cache
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, caches: make(map[string]*Cache)}
}

// Lookup resolves an identifier to its source record. When useCache is
// false the load pass runs against a throwaway cache so nothing is
// retained. A genuine miss returns (nil, false); backing-store failures
// are downgraded to misses by the loaders.
func (r *Registry) Lookup(ctx context.Context, entityType models.EntityType, sourceType models.SourceType, id string, useCache bool) (Record, bool) {
	var cache *Cache
	if useCache {
		cache = r.cacheFor(entityType, sourceType)
	} else {
		cache = NewCache(entityType, sourceType)
	}

	switch entityType {
	case models.EntityProperty:
		return NewDocumentLoader(cache, r.cfg.PropertyFiles, listingIDField).Lookup(id)
	case models.EntityNeighborhood:
		return NewDocumentLoader(cache, r.cfg.NeighborhoodFiles, neighborhoodIDField).Lookup(id)
	case models.EntityArticle, models.EntityArticleSummary:
		if r.cfg.DB == nil {
			return nil, false
		}
		withSummary := r.cfg.WithSummaries || entityType == models.EntityArticleSummary
		return NewArticleLoader(cache, r.cfg.DB, withSummary).Lookup(ctx, id)
	default:
		return nil, false
	}
}

func (r *Registry) cacheFor(entityType models.EntityType, sourceType models.SourceType) *Cache {
	key := cacheKey(entityType, sourceType)
	cache, ok := r.caches[key]
	if !ok {
		cache = NewCache(entityType, sourceType)
		r.caches[key] = cache
	}
	return cache
}

// Stats snapshots every live cache, keyed "entityType/sourceType".
func (r *Registry) Stats() map[string]Stats {
	stats := make(map[string]Stats, len(r.caches))
	for key, cache := range r.caches {
		stats[key] = cache.Stats()
	}
	return stats
}

// Clear empties every live cache.
func (r *Registry) Clear() {
	for _, cache := range r.caches {
		cache.Clear()
	}
}

func cacheKey(entityType models.EntityType, sourceType models.SourceType) string {
	return fmt.Sprintf("%s/%s", entityType, sourceType)
}
