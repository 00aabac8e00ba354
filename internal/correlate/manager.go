package correlate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"realty-rag/internal/chunks"
	"realty-rag/internal/identifier"
	"realty-rag/internal/models"
	"realty-rag/internal/sourcedata"
)

// Manager orchestrates single and bulk correlation. It owns the source
// data registry; the metadata store is an external, already-connected
// collaborator. Not safe for concurrent use.
type Manager struct {
	store   MetadataStore
	sources *sourcedata.Registry
}

// NewManager wires a manager. An unusable handle is the one setup failure
// allowed to propagate.
func NewManager(store MetadataStore, sources *sourcedata.Registry) (*Manager, error) {
	if store == nil {
		return nil, errors.New("correlate: metadata store is required")
	}
	if sources == nil {
		return nil, errors.New("correlate: source data registry is required")
	}
	return &Manager{store: store, sources: sources}, nil
}

// CorrelateOne links one embedding back to its source record. Every
// failure mode, including an unreachable store, is a non-exceptional
// Result so a caller's loop never aborts.
func (m *Manager) CorrelateOne(ctx context.Context, embeddingID, collection string, useCache bool) Result {
	start := time.Now()
	result := Result{
		EmbeddingID: embeddingID,
		Method:      MethodMetadataLookup,
	}
	fail := func(msg string) Result {
		result.ErrorMessage = msg
		result.Elapsed = time.Since(start)
		return result
	}

	records, err := m.store.Search(ctx, collection, models.Filter{EmbeddingID: embeddingID}, 1)
	if err != nil {
		log.Error().Err(err).Str("embedding_id", embeddingID).Msg("Metadata search failed")
		return fail(fmt.Sprintf("metadata search failed: %v", err))
	}
	if len(records) == 0 {
		return fail(fmt.Sprintf("embedding %q not found in collection %q", embeddingID, collection))
	}

	rec := records[0]
	result.EntityType = rec.EntityType
	result.Metadata = &rec

	id, ok := identifier.Extract(rec, rec.EntityType)
	if !ok {
		return fail(fmt.Sprintf("no identifier extractable for entity type %q", rec.EntityType))
	}
	result.Identifier = id

	source, ok := m.sources.Lookup(ctx, rec.EntityType, rec.SourceType, id, useCache)
	if !ok {
		return fail(fmt.Sprintf("source data not found for %s %q", rec.EntityType, id))
	}

	result.Correlated = true
	result.Confidence = 1.0
	result.SourceRecord = source
	result.Elapsed = time.Since(start)
	return result
}

// CorrelateBulk correlates every matching embedding in the requested
// collections, grouping records into entities and reconstructing chunked
// text. A failure on one entity or one collection never stops the run;
// whatever was collected is returned alongside the report.
func (m *Manager) CorrelateBulk(ctx context.Context, req BulkRequest) ([]EnrichedEntity, *Report) {
	report := NewReport(req.Collections, req.EntityTypes)
	var entities []EnrichedEntity

	for _, collection := range req.Collections {
		records, err := m.store.Search(ctx, collection, models.Filter{EntityTypes: req.EntityTypes}, 0)
		if err != nil {
			log.Error().Err(err).Str("collection", collection).Msg("Collection fetch failed")
			report.AddError("", ErrStoreFailure, 0)
			continue
		}
		log.Info().Str("collection", collection).Int("records", len(records)).Msg("Correlating collection")

		groups := groupByEntity(records, report)
		for _, batch := range batchGroups(groups, req.BatchSize) {
			for _, group := range batch {
				entity := m.buildEntity(ctx, req, group, report)
				entities = append(entities, entity)
			}
			log.Debug().Str("collection", collection).Int("entities", len(entities)).Msg("Batch correlated")
		}
	}

	report.CacheStats = m.CacheStatistics()
	report.Complete()
	return entities, report
}

// entityGroup is the set of records resolving to one canonical identifier.
type entityGroup struct {
	entityType models.EntityType
	identifier string
	records    []models.EmbeddingMetadata
}

// groupByEntity buckets records by (entity type, canonical identifier).
// Records with no extractable identifier are tallied as orphaned failures.
func groupByEntity(records []models.EmbeddingMetadata, report *Report) []entityGroup {
	byKey := make(map[string]*entityGroup)
	var order []string
	for _, rec := range records {
		id, ok := identifier.Extract(rec, rec.EntityType)
		if !ok {
			report.OrphanedEmbeddings++
			report.AddError(rec.EntityType, ErrOrphaned, 1)
			continue
		}
		key := fmt.Sprintf("%s:%s", rec.EntityType, id)
		g, ok := byKey[key]
		if !ok {
			g = &entityGroup{entityType: rec.EntityType, identifier: id}
			byKey[key] = g
			order = append(order, key)
		}
		g.records = append(g.records, rec)
	}
	sort.Strings(order)
	groups := make([]entityGroup, 0, len(byKey))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}

// buildEntity assembles one EnrichedEntity from its records, loading the
// source record and reconstructing chunked text. A missing source is a
// tallied failure but still yields the entity, flagged.
func (m *Manager) buildEntity(ctx context.Context, req BulkRequest, group entityGroup, report *Report) EnrichedEntity {
	first := group.records[0]
	entity := EnrichedEntity{
		EntityID:         group.identifier,
		EntityType:       group.entityType,
		SourceType:       first.SourceType,
		ValidationPassed: true,
	}

	chunkGroups := chunks.GroupByParent(group.records)
	complete := true
	chunkCount := 0
	var texts []string
	seenFiles := make(map[string]bool)
	for _, cg := range chunkGroups {
		chunkCount += cg.ChunkCount()
		if !cg.IsComplete() {
			complete = false
		}
		if text := cg.ReconstructedText(); text != "" {
			texts = append(texts, text)
		}
		for _, f := range cg.SourceFiles() {
			if !seenFiles[f] {
				seenFiles[f] = true
				entity.SourceFiles = append(entity.SourceFiles, f)
			}
		}
		entity.EmbeddingIDs = append(entity.EmbeddingIDs, cg.EmbeddingIDs()...)
	}
	entity.TotalEmbeddings = len(entity.EmbeddingIDs)
	entity.ChunkCount = chunkCount
	entity.IsComplete = complete
	entity.ReconstructedText = joinTexts(texts)
	entity.TextLength = len(entity.ReconstructedText)

	if req.ValidateCompleteness && !complete {
		report.IncompleteEntities++
		report.AddWarning(WarnIncompleteChunks)
		entity.AddWarning("chunk sequence incomplete")
	}

	source, ok := m.sources.Lookup(ctx, group.entityType, first.SourceType, group.identifier, req.UseCache)
	if !ok {
		entity.AddWarning(fmt.Sprintf("source data not found for %q", group.identifier))
		report.AddError(group.entityType, ErrSourceNotFound, entity.TotalEmbeddings)
		return entity
	}
	entity.SourceRecord = source
	report.AddSuccess(group.entityType, entity.TotalEmbeddings)
	return entity
}

// ClearCaches empties every source data cache.
func (m *Manager) ClearCaches() {
	m.sources.Clear()
}

// CacheStatistics snapshots the per (entity type, source type) caches.
func (m *Manager) CacheStatistics() map[string]sourcedata.Stats {
	return m.sources.Stats()
}

func batchGroups(groups []entityGroup, size int) [][]entityGroup {
	if len(groups) == 0 {
		return nil
	}
	if size <= 0 || size >= len(groups) {
		return [][]entityGroup{groups}
	}
	var batches [][]entityGroup
	for start := 0; start < len(groups); start += size {
		end := start + size
		if end > len(groups) {
			end = len(groups)
		}
		batches = append(batches, groups[start:end])
	}
	return batches
}

func joinTexts(texts []string) string {
	switch len(texts) {
	case 0:
		return ""
	case 1:
		return texts[0]
	}
	out := texts[0]
	for _, t := range texts[1:] {
		out += "\n\n" + t
	}
	return out
}
