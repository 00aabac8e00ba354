package sourcedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// DocumentLoader resolves identifiers against an ordered list of flat
// document files. Each file holds either a JSON array of objects or one
// JSON object per line; every record carries the entity's natural
// identifier under idField.
type DocumentLoader struct {
	cache   *Cache
	files   []string
	idField string
}

// NewDocumentLoader creates a loader over the candidate files, scanned in
// the given order.
func NewDocumentLoader(cache *Cache, files []string, idField string) *DocumentLoader {
	return &DocumentLoader{cache: cache, files: files, idField: idField}
}

// Lookup returns the record for id, scanning candidate files on a cache
// miss. Every scanned record is cached so one scan amortizes future
// lookups; scanning a file stops once the requested id is found, and only
// files read to completion are marked fully scanned. Unreachable files
// are logged and treated as a miss for that file only.
func (l *DocumentLoader) Lookup(id string) (Record, bool) {
	if rec, ok := l.cache.Get(id); ok {
		return rec, true
	}
	for _, path := range l.files {
		if l.cache.FileLoaded(path) {
			continue
		}
		found, complete, err := l.scanFile(path, id)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable source file")
			continue
		}
		if complete {
			l.cache.MarkFileLoaded(path)
		}
		if found {
			break
		}
	}
	return l.cache.peek(id)
}

// scanFile caches the file's records in order until the wanted id is
// inserted. complete is true when every record was read.
func (l *DocumentLoader) scanFile(path, wantID string) (found, complete bool, err error) {
	records, err := parseFlatFile(path)
	if err != nil {
		return false, false, err
	}
	for i, rec := range records {
		id := recordID(rec, l.idField)
		if id == "" {
			continue
		}
		l.cache.Put(id, rec)
		if id == wantID {
			return true, i == len(records)-1, nil
		}
	}
	return false, true, nil
}

// parseFlatFile reads a JSON array file or a JSON-lines file into records.
func parseFlatFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return records, nil
	}

	var records []Record
	for i, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// recordID extracts the identifier field as a string. JSON numbers come
// back as float64, so integral values are normalized to their plain form.
func recordID(rec Record, field string) string {
	v, ok := rec[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
