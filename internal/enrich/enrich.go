// Package enrich post-processes correlated entities with entity-type
// specific derived fields and embedding-coverage metrics.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"realty-rag/internal/correlate"
	"realty-rag/internal/models"
)

// Options mirror the engine's exposed enrichment knobs.
type Options struct {
	IncludeEmbeddings   bool
	IncludeSimilar      bool
	SimilarityThreshold float64
}

// DefaultOptions returns the default enrichment knobs.
func DefaultOptions() Options {
	return Options{SimilarityThreshold: 0.8}
}

type routine func(rec map[string]any, entity *correlate.EnrichedEntity)

var routines = map[models.EntityType]routine{
	models.EntityProperty:       enrichProperty,
	models.EntityNeighborhood:   enrichNeighborhood,
	models.EntityArticle:        enrichArticle,
	models.EntityArticleSummary: enrichSummary,
}

// Entity enriches one correlated entity. The source record is copied
// before any derived field is written, and field-level failures degrade
// to warnings on the entity rather than aborting.
func Entity(entity correlate.EnrichedEntity, opts Options) correlate.EnrichedEntity {
	rec := copyRecord(entity.SourceRecord)

	if fn, ok := routines[entity.EntityType]; ok && rec != nil {
		fn(rec, &entity)
	}
	applyGeneral(rec, &entity, opts)

	if rec != nil {
		entity.SourceRecord = rec
	}
	return entity
}

// Bulk enriches entities with up to workers goroutines. Worker count 1 or
// an empty batch falls back to sequential processing. A failed entity is
// returned unchanged with a warning, never dropped.
func Bulk(ctx context.Context, entities []correlate.EnrichedEntity, opts Options, workers int) []correlate.EnrichedEntity {
	if len(entities) == 0 {
		return entities
	}
	out := make([]correlate.EnrichedEntity, len(entities))
	if workers <= 1 {
		for i, e := range entities {
			out[i] = safeEnrich(e, opts)
		}
		return out
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entities {
		g.Go(func() error {
			out[i] = safeEnrich(entities[i], opts)
			return nil
		})
	}
	// workers only report via the result slice
	_ = g.Wait()
	return out
}

// safeEnrich contains a panicking routine to the entity it was enriching.
func safeEnrich(entity correlate.EnrichedEntity, opts Options) (out correlate.EnrichedEntity) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("entity_id", entity.EntityID).Msg("Enrichment failed")
			entity.AddWarning(fmt.Sprintf("enrichment failed: %v", r))
			out = entity
		}
	}()
	return Entity(entity, opts)
}

// applyGeneral stamps embedding-coverage metrics and processing metadata.
// Runs for every entity type, after the type-specific routine.
func applyGeneral(rec map[string]any, entity *correlate.EnrichedEntity, opts Options) {
	if rec == nil {
		return
	}
	rec["_embedding_coverage"] = map[string]any{
		"chunks_complete": entity.IsComplete,
		"chunk_count":     entity.ChunkCount,
		"text_length":     entity.TextLength,
		"multi_chunk":     entity.ChunkCount > 1,
	}
	processing := map[string]any{
		"enriched_at":       time.Now().UTC().Format(time.RFC3339),
		"source_file_count": len(entity.SourceFiles),
		"validation_passed": entity.ValidationPassed,
	}
	if opts.IncludeEmbeddings {
		rec["_embedding_ids"] = append([]string(nil), entity.EmbeddingIDs...)
	}
	if opts.IncludeSimilar {
		processing["similarity_threshold"] = opts.SimilarityThreshold
	}
	rec["_processing"] = processing
}

func copyRecord(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// warnField records a field-level enrichment failure.
func warnField(entity *correlate.EnrichedEntity, field, reason string) {
	entity.AddWarning(fmt.Sprintf("enrichment field %q: %s", field, reason))
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
