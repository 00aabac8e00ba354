// Package correlate links embedding records back to their source-of-truth
// entities and reconstructs chunked text.
package correlate

import (
	"context"
	"time"

	"realty-rag/internal/models"
	"realty-rag/internal/sourcedata"
)

// MethodMetadataLookup is the correlation method used by this engine: an
// exact-id metadata filter against the vector store.
const MethodMetadataLookup = "metadata_lookup"

// MetadataStore is the narrow contract this engine requires from the
// vector store: equality and set-membership filtering over metadata.
type MetadataStore interface {
	Search(ctx context.Context, collection string, filter models.Filter, limit int) ([]models.EmbeddingMetadata, error)
}

// Result is the outcome of correlating one embedding. Failures are normal
// outcomes carrying a message, not errors.
type Result struct {
	EmbeddingID  string
	EntityType   models.EntityType
	Correlated   bool
	Method       string
	Confidence   float64
	Metadata     *models.EmbeddingMetadata
	SourceRecord sourcedata.Record
	Identifier   string
	ErrorMessage string
	Elapsed      time.Duration
}

// EnrichedEntity is one logical entity after correlation: its source
// record, the embeddings that represent it and the reconstruction state.
type EnrichedEntity struct {
	EntityID          string
	EntityType        models.EntityType
	SourceType        models.SourceType
	SourceRecord      sourcedata.Record
	EmbeddingIDs      []string
	TotalEmbeddings   int
	ChunkCount        int
	IsComplete        bool
	ReconstructedText string
	TextLength        int
	SourceFiles       []string
	ValidationPassed  bool
	Warnings          []string
}

// AddWarning appends a warning and clears the validation flag.
func (e *EnrichedEntity) AddWarning(msg string) {
	e.Warnings = append(e.Warnings, msg)
	e.ValidationPassed = false
}

// BulkRequest configures a bulk correlation run.
type BulkRequest struct {
	Collections          []string
	EntityTypes          []models.EntityType
	BatchSize            int
	Workers              int
	UseCache             bool
	ValidateCompleteness bool
	OutputFormat         string
}
