package correlate

import (
	"fmt"
	"time"

	"realty-rag/internal/helper"
	"realty-rag/internal/models"
	"realty-rag/internal/sourcedata"
)

// error kinds tallied in a report
const (
	ErrOrphaned       = "identifier_not_extractable"
	ErrSourceNotFound = "source_not_found"
	ErrStoreFailure   = "store_failure"
)

// WarnIncompleteChunks tags entities whose chunk sequence has gaps.
const WarnIncompleteChunks = "incomplete_chunks"

// Report aggregates one bulk correlation run. Mutated incrementally via
// AddSuccess/AddError, finalized once via Complete.
type Report struct {
	ID          string
	Collections []string
	EntityTypes []models.EntityType

	TotalEmbeddings        int
	SuccessfulCorrelations int
	FailedCorrelations     int
	IncompleteEntities     int
	OrphanedEmbeddings     int

	ErrorCounts      map[string]int
	WarningCounts    map[string]int
	EntityTypeCounts map[models.EntityType]int
	CacheStats       map[string]sourcedata.Stats

	StartedAt   time.Time
	CompletedAt time.Time
}

// NewReport starts a report for the given run targets.
func NewReport(collections []string, entityTypes []models.EntityType) *Report {
	id, err := helper.GenerateUUID()
	if err != nil {
		id = fmt.Sprintf("report-%d", time.Now().UnixNano())
	}
	return &Report{
		ID:               id,
		Collections:      collections,
		EntityTypes:      entityTypes,
		ErrorCounts:      make(map[string]int),
		WarningCounts:    make(map[string]int),
		EntityTypeCounts: make(map[models.EntityType]int),
		CacheStats:       make(map[string]sourcedata.Stats),
		StartedAt:        time.Now(),
	}
}

// AddSuccess records a successfully correlated entity covering the given
// number of embeddings.
func (r *Report) AddSuccess(entityType models.EntityType, embeddings int) {
	r.TotalEmbeddings += embeddings
	r.SuccessfulCorrelations += embeddings
	r.EntityTypeCounts[entityType] += embeddings
}

// AddError records a failed correlation covering the given number of
// embeddings, tallied under the error kind.
func (r *Report) AddError(entityType models.EntityType, kind string, embeddings int) {
	r.TotalEmbeddings += embeddings
	r.FailedCorrelations += embeddings
	r.ErrorCounts[kind]++
	if entityType != "" {
		r.EntityTypeCounts[entityType] += embeddings
	}
}

// AddWarning tallies a warning kind without affecting the counts.
func (r *Report) AddWarning(kind string) {
	r.WarningCounts[kind]++
}

// Complete stamps the completion time.
func (r *Report) Complete() {
	r.CompletedAt = time.Now()
}

// SuccessRate is successes over total, 0.0 for an empty run.
func (r *Report) SuccessRate() float64 {
	if r.TotalEmbeddings == 0 {
		return 0.0
	}
	return float64(r.SuccessfulCorrelations) / float64(r.TotalEmbeddings)
}

// FailureRate is failures over total, 0.0 for an empty run.
func (r *Report) FailureRate() float64 {
	if r.TotalEmbeddings == 0 {
		return 0.0
	}
	return float64(r.FailedCorrelations) / float64(r.TotalEmbeddings)
}

// Throughput is embeddings processed per second over the run, 0.0 until
// Complete is called.
func (r *Report) Throughput() float64 {
	elapsed := r.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(r.TotalEmbeddings) / elapsed
}

// Elapsed is the run duration; zero until Complete is called.
func (r *Report) Elapsed() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Summary renders a human-readable one-line status for direct display.
func (r *Report) Summary() string {
	rate := r.SuccessRate()
	tier := "poor"
	switch {
	case rate >= 0.95:
		tier = "excellent"
	case rate >= 0.80:
		tier = "good"
	case rate >= 0.50:
		tier = "degraded"
	}
	return fmt.Sprintf(
		"[%s] %d/%d embeddings correlated (%.1f%%), %d failed, %d incomplete, %d orphaned in %s",
		tier, r.SuccessfulCorrelations, r.TotalEmbeddings, rate*100,
		r.FailedCorrelations, r.IncompleteEntities, r.OrphanedEmbeddings,
		r.Elapsed().Round(time.Millisecond),
	)
}
