// Package sourcedata loads and caches source-of-truth records for
// correlated embeddings, from flat document files or the relational store.
package sourcedata

import (
	"time"

	"realty-rag/internal/models"
)

// Record is one flat source-of-truth record as parsed from a backing store.
type Record map[string]any

// Stats is a point-in-time snapshot of one cache's counters.
type Stats struct {
	EntityType  models.EntityType `json:"entity_type"`
	SourceType  models.SourceType `json:"source_type"`
	Records     int               `json:"records"`
	LoadedFiles int               `json:"loaded_files"`
	Hits        int64             `json:"hits"`
	Misses      int64             `json:"misses"`
	HitRate     float64           `json:"hit_rate"`
	CreatedAt   time.Time         `json:"created_at"`
	LastAccess  time.Time         `json:"last_access"`
}

// Cache maps canonical identifiers to source records for one
// (entity type, source type) pair. Owned by a single registry; not safe
// for concurrent use.
type Cache struct {
	entityType  models.EntityType
	sourceType  models.SourceType
	records     map[string]Record
	loadedFiles map[string]struct{}
	hits        int64
	misses      int64
	createdAt   time.Time
	lastAccess  time.Time
}

// NewCache creates an empty cache for the given pair.
func NewCache(entityType models.EntityType, sourceType models.SourceType) *Cache {
	now := time.Now()
	return &Cache{
		entityType:  entityType,
		sourceType:  sourceType,
		records:     make(map[string]Record),
		loadedFiles: make(map[string]struct{}),
		createdAt:   now,
		lastAccess:  now,
	}
}

// Get looks up a record and counts the lookup as a hit or a miss.
func (c *Cache) Get(id string) (Record, bool) {
	c.lastAccess = time.Now()
	rec, ok := c.records[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return rec, ok
}

// peek looks up a record without touching the counters. Used by loaders
// after a load pass so one logical lookup counts once.
func (c *Cache) peek(id string) (Record, bool) {
	rec, ok := c.records[id]
	return rec, ok
}

// Put inserts a record; re-insertion overwrites.
func (c *Cache) Put(id string, rec Record) {
	c.records[id] = rec
}

// FileLoaded reports whether the file was already scanned to completion.
func (c *Cache) FileLoaded(path string) bool {
	_, ok := c.loadedFiles[path]
	return ok
}

// MarkFileLoaded records that every record in the file has been cached.
func (c *Cache) MarkFileLoaded(path string) {
	c.loadedFiles[path] = struct{}{}
}

// Clear drops all records, loaded-file marks and counters.
func (c *Cache) Clear() {
	c.records = make(map[string]Record)
	c.loadedFiles = make(map[string]struct{})
	c.hits = 0
	c.misses = 0
	c.lastAccess = time.Now()
}

// Stats snapshots the counters. HitRate is 0.0 before any lookup.
func (c *Cache) Stats() Stats {
	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		EntityType:  c.entityType,
		SourceType:  c.sourceType,
		Records:     len(c.records),
		LoadedFiles: len(c.loadedFiles),
		Hits:        c.hits,
		Misses:      c.misses,
		HitRate:     rate,
		CreatedAt:   c.createdAt,
		LastAccess:  c.lastAccess,
	}
}
