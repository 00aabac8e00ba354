package sourcedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-rag/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocumentLoader_JSONArray(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listings.json",
		`[{"listing_id": "L-1", "price": 450000}, {"listing_id": "L-2", "price": 320000}]`)

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{path}, "listing_id")

	rec, ok := loader.Lookup("L-2")
	require.True(t, ok)
	assert.Equal(t, float64(320000), rec["price"])
	assert.True(t, cache.FileLoaded(path))
}

func TestDocumentLoader_JSONLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listings.jsonl",
		"{\"listing_id\": \"L-1\"}\n{\"listing_id\": \"L-2\"}\n")

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{path}, "listing_id")

	_, ok := loader.Lookup("L-1")
	assert.True(t, ok)
}

func TestDocumentLoader_ScanAmortizesFutureLookups(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listings.json",
		`[{"listing_id": "L-1"}, {"listing_id": "L-2"}, {"listing_id": "L-3"}]`)

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{path}, "listing_id")

	// miss, loads the whole file up to the match
	_, ok := loader.Lookup("L-3")
	require.True(t, ok)

	// sibling records were cached by the same scan
	_, ok = loader.Lookup("L-1")
	assert.True(t, ok)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestDocumentLoader_EarlyStopLeavesFileUnmarked(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listings.json",
		`[{"listing_id": "L-1"}, {"listing_id": "L-2"}, {"listing_id": "L-3"}]`)

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{path}, "listing_id")

	// match on the first record stops the scan before the end
	_, ok := loader.Lookup("L-1")
	require.True(t, ok)
	assert.False(t, cache.FileLoaded(path))

	// records after the match were not inserted yet
	_, ok = cache.peek("L-3")
	assert.False(t, ok)
}

func TestDocumentLoader_ScansCandidatesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.json", `[{"listing_id": "L-1", "src": "a"}]`)
	second := writeFile(t, dir, "b.json", `[{"listing_id": "L-2", "src": "b"}]`)

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{first, second}, "listing_id")

	rec, ok := loader.Lookup("L-2")
	require.True(t, ok)
	assert.Equal(t, "b", rec["src"])
	assert.True(t, cache.FileLoaded(first))
	assert.True(t, cache.FileLoaded(second))
}

func TestDocumentLoader_UnreadableFileIsAMissNotAFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `[{"listing_id": "L-1"}]`)
	missing := filepath.Join(dir, "missing.json")

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{missing, good}, "listing_id")

	_, ok := loader.Lookup("L-1")
	assert.True(t, ok)
	assert.False(t, cache.FileLoaded(missing))
}

func TestDocumentLoader_GenuineMiss(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "listings.json", `[{"listing_id": "L-1"}]`)

	cache := NewCache(models.EntityProperty, models.SourceDocumentFile)
	loader := NewDocumentLoader(cache, []string{path}, "listing_id")

	_, ok := loader.Lookup("L-404")
	assert.False(t, ok)
}

func TestRecordID_NumericIdentifiers(t *testing.T) {
	assert.Equal(t, "12345", recordID(Record{"page_id": float64(12345)}, "page_id"))
	assert.Equal(t, "abc", recordID(Record{"page_id": "abc"}, "page_id"))
	assert.Equal(t, "", recordID(Record{}, "page_id"))
}
