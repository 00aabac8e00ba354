package correlate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"realty-rag/internal/chunks"
	"realty-rag/internal/identifier"
	"realty-rag/internal/models"
)

// ValidationResult collects the errors and warnings found over a batch.
type ValidationResult struct {
	IsValid      bool
	Errors       []string
	Warnings     []string
	TotalChecked int
}

func (v *ValidationResult) addError(msg string) {
	v.Errors = append(v.Errors, msg)
	v.IsValid = false
}

func (v *ValidationResult) addWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// ValidateBatch checks a batch of embedding metadata records: required
// fields, embedding-id uniqueness, entity-specific identifier presence,
// then chunk-sequence consistency across the records carrying chunk
// metadata. Checks never short-circuit; every failure is reported.
func ValidateBatch(records []models.EmbeddingMetadata) ValidationResult {
	result := ValidationResult{IsValid: true, TotalChecked: len(records)}

	seen := make(map[string]bool, len(records))
	var wellFormed []models.EmbeddingMetadata
	for i, rec := range records {
		if !requiredFieldsPresent(rec, i, &result) {
			continue
		}
		if seen[rec.EmbeddingID] {
			result.addError(fmt.Sprintf("duplicate embedding_id %q", rec.EmbeddingID))
		}
		seen[rec.EmbeddingID] = true

		if _, ok := identifier.Extract(rec, rec.EntityType); !ok {
			result.addError(fmt.Sprintf("record %q: no identifier for entity type %q", rec.EmbeddingID, rec.EntityType))
		}
		wellFormed = append(wellFormed, rec)
	}

	validateChunkSequences(wellFormed, &result)
	return result
}

func requiredFieldsPresent(rec models.EmbeddingMetadata, pos int, result *ValidationResult) bool {
	var missing []string
	if rec.EmbeddingID == "" {
		missing = append(missing, "embedding_id")
	}
	if rec.EntityType == "" {
		missing = append(missing, "entity_type")
	}
	if rec.SourceType == "" {
		missing = append(missing, "source_type")
	}
	if rec.SourceFile == "" {
		missing = append(missing, "source_file")
	}
	if len(missing) > 0 {
		name := rec.EmbeddingID
		if name == "" {
			name = fmt.Sprintf("record #%d", pos)
		}
		result.addError(fmt.Sprintf("%s: missing required fields: %s", name, strings.Join(missing, ", ")))
		return false
	}
	return true
}

func validateChunkSequences(records []models.EmbeddingMetadata, result *ValidationResult) {
	var chunked []models.EmbeddingMetadata
	for _, rec := range records {
		if rec.IsChunked() {
			chunked = append(chunked, rec)
		}
	}
	for _, group := range chunks.GroupByParent(chunked) {
		if group.ChunkCount() < 2 {
			continue
		}
		if !group.TotalsAgree() {
			result.addError(fmt.Sprintf(
				"chunk group %q: members disagree on chunk_total: %s",
				group.ParentID, declaredTotals(group)))
		}
		if missing := group.MissingIndices(); len(missing) > 0 {
			result.addError(fmt.Sprintf(
				"chunk group %q: missing chunk indices %v", group.ParentID, missing))
		}
		if dupes := group.DuplicateIndices(); len(dupes) > 0 {
			result.addError(fmt.Sprintf(
				"chunk group %q: duplicated chunk indices %v", group.ParentID, dupes))
		}
	}
}

func declaredTotals(group *chunks.Group) string {
	seen := make(map[int]bool)
	var totals []string
	for _, m := range group.Members {
		if m.ChunkTotal == nil || seen[*m.ChunkTotal] {
			continue
		}
		seen[*m.ChunkTotal] = true
		totals = append(totals, fmt.Sprintf("%d", *m.ChunkTotal))
	}
	return strings.Join(totals, ", ")
}

// ValidateSourceFiles confirms each declared source file is reachable,
// resolving relative paths against the given root directories. Unreadable
// files are errors; an empty path list is valid.
func ValidateSourceFiles(paths []string, roots []string) ValidationResult {
	result := ValidationResult{IsValid: true, TotalChecked: len(paths)}
	for _, path := range paths {
		resolved, ok := resolveSourceFile(path, roots)
		if !ok {
			result.addError(fmt.Sprintf("source file %q not found", path))
			continue
		}
		if resolved != path {
			result.addWarning(fmt.Sprintf("source file %q resolved to %q", path, resolved))
		}
	}
	return result
}

func resolveSourceFile(path string, roots []string) (string, bool) {
	candidates := []string{path}
	if !filepath.IsAbs(path) {
		for _, root := range roots {
			candidates = append(candidates, filepath.Join(root, path))
		}
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
