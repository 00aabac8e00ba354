// Package chunks groups embedding records by parent entity and rebuilds
// the original text from ordered chunk members.
package chunks

import (
	"sort"
	"strings"

	"realty-rag/internal/models"
)

// textSeparator joins chunk texts during reconstruction.
const textSeparator = "\n\n"

// Group holds the chunk records sharing one parent identifier, sorted by
// chunk index. Built fresh per reconstruction request; not persisted.
type Group struct {
	ParentID   string
	EntityType models.EntityType

	// Members are the group's records in ascending chunk-index order.
	Members []models.EmbeddingMetadata

	// ExpectedTotal is the maximum chunk_total declared by any member.
	// When no member declares one the group is taken at face value and
	// ExpectedTotal equals the member count.
	ExpectedTotal int

	// totalsConflict is set when members declare different chunk_total
	// values; such a group is never complete.
	totalsConflict bool

	reconstructed *string
}

// GroupByParent groups records by their parent identifier. Records without
// chunk metadata become singleton groups keyed by their own embedding id.
// Groups are returned sorted by parent id for deterministic output.
func GroupByParent(records []models.EmbeddingMetadata) []*Group {
	byParent := make(map[string]*Group)
	var order []string
	for _, rec := range records {
		key := rec.ParentHash
		if key == "" {
			key = rec.EmbeddingID
		}
		g, ok := byParent[key]
		if !ok {
			g = &Group{ParentID: key, EntityType: rec.EntityType}
			byParent[key] = g
			order = append(order, key)
		}
		g.Members = append(g.Members, rec)
	}

	sort.Strings(order)
	groups := make([]*Group, 0, len(byParent))
	for _, key := range order {
		g := byParent[key]
		g.finalize()
		groups = append(groups, g)
	}
	return groups
}

func (g *Group) finalize() {
	sort.SliceStable(g.Members, func(i, j int) bool {
		return g.Members[i].ChunkIndexOrZero() < g.Members[j].ChunkIndexOrZero()
	})

	declared := 0
	seen := false
	for _, m := range g.Members {
		if m.ChunkTotal == nil {
			continue
		}
		if seen && *m.ChunkTotal != declared {
			g.totalsConflict = true
		}
		if !seen || *m.ChunkTotal > declared {
			declared = *m.ChunkTotal
		}
		seen = true
	}
	if !seen {
		declared = len(g.Members)
	}
	g.ExpectedTotal = declared
}

// ChunkCount returns the number of member records.
func (g *Group) ChunkCount() int { return len(g.Members) }

// TotalsAgree reports whether all members that declare a chunk_total
// declare the same value.
func (g *Group) TotalsAgree() bool { return !g.totalsConflict }

// IsComplete reports whether the group holds exactly its expected members:
// count matches ExpectedTotal and the indices form a contiguous
// 0..N-1 run with no duplicates. A group with conflicting chunk_total
// declarations is never complete.
func (g *Group) IsComplete() bool {
	if g.totalsConflict || len(g.Members) != g.ExpectedTotal {
		return false
	}
	seen := make(map[int]bool, len(g.Members))
	for _, m := range g.Members {
		idx := m.ChunkIndexOrZero()
		if idx < 0 || idx >= g.ExpectedTotal || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// MissingIndices returns the expected indices with no member present,
// in ascending order.
func (g *Group) MissingIndices() []int {
	seen := make(map[int]bool, len(g.Members))
	for _, m := range g.Members {
		seen[m.ChunkIndexOrZero()] = true
	}
	var missing []int
	for i := 0; i < g.ExpectedTotal; i++ {
		if !seen[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// DuplicateIndices returns the indices declared by more than one member,
// in ascending order.
func (g *Group) DuplicateIndices() []int {
	counts := make(map[int]int, len(g.Members))
	for _, m := range g.Members {
		counts[m.ChunkIndexOrZero()]++
	}
	var dupes []int
	for idx, n := range counts {
		if n > 1 {
			dupes = append(dupes, idx)
		}
	}
	sort.Ints(dupes)
	return dupes
}

// ReconstructedText joins the member texts in index order with a blank
// line. Best effort: incomplete groups still yield their partial text.
// Memoized per group instance.
func (g *Group) ReconstructedText() string {
	if g.reconstructed != nil {
		return *g.reconstructed
	}
	parts := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Text != "" {
			parts = append(parts, m.Text)
		}
	}
	text := strings.Join(parts, textSeparator)
	g.reconstructed = &text
	return text
}

// SourceFiles returns the distinct source files contributing members,
// in first-seen order.
func (g *Group) SourceFiles() []string {
	seen := make(map[string]bool, len(g.Members))
	var files []string
	for _, m := range g.Members {
		if m.SourceFile != "" && !seen[m.SourceFile] {
			seen[m.SourceFile] = true
			files = append(files, m.SourceFile)
		}
	}
	return files
}

// EmbeddingIDs returns the member embedding ids in index order.
func (g *Group) EmbeddingIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.EmbeddingID)
	}
	return ids
}
