package chromemdb

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"realty-rag/internal/models"
)

// VectorDBManager encapsulates the chromem-go database plus a per
// collection metadata manifest. chromem-go has no API to enumerate a
// collection's documents, so every registered document's id and metadata
// are appended to a JSON-lines manifest next to the database directory;
// the manifest is replayed on first access and backs metadata search.
type VectorDBManager struct {
	db     *chromem.DB
	dbPath string

	mu          sync.Mutex
	collections map[string]*chromem.Collection
	index       map[string]map[string]map[string]string // collection -> id -> metadata
}

type manifestEntry struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// NewVectorDBManager initializes a new vector database manager backed by
// dbPath, or an in-memory database when inMemory is set.
func NewVectorDBManager(dbPath string, inMemory bool) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
		// an in-memory database never touches a manifest, even when a
		// path from an earlier persistent run still exists
		dbPath = ""
	} else {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	return &VectorDBManager{
		db:          db,
		dbPath:      dbPath,
		collections: make(map[string]*chromem.Collection),
		index:       make(map[string]map[string]map[string]string),
	}, nil
}

// collectionFor creates or reads the named collection.
func (m *VectorDBManager) collectionFor(name string) (*chromem.Collection, error) {
	if c, ok := m.collections[name]; ok {
		return c, nil
	}
	c, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collections[name] = c
	return c, nil
}

// Register adds pre-embedded documents to the collection and appends them
// to its manifest.
func (m *VectorDBManager) Register(ctx context.Context, collection string, docs []chromem.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collectionFor(collection)
	if err != nil {
		return err
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}

	idx, err := m.indexFor(collection)
	if err != nil {
		return err
	}
	entries := make([]manifestEntry, 0, len(docs))
	for _, doc := range docs {
		idx[doc.ID] = doc.Metadata
		entries = append(entries, manifestEntry{ID: doc.ID, Metadata: doc.Metadata})
	}
	if m.dbPath == "" {
		return nil
	}
	return appendManifest(m.manifestPath(collection), entries)
}

// Search returns the collection's metadata records matching the filter,
// with chunk text hydrated from the stored documents. limit <= 0 means
// no limit.
func (m *VectorDBManager) Search(ctx context.Context, collection string, filter models.Filter, limit int) ([]models.EmbeddingMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collectionFor(collection)
	if err != nil {
		return nil, err
	}
	idx, err := m.indexFor(collection)
	if err != nil {
		return nil, err
	}

	var results []models.EmbeddingMetadata
	for id, metadata := range idx {
		rec := models.FromMetadata(id, metadata)
		if !filter.Matches(rec) {
			continue
		}
		if doc, err := c.GetByID(ctx, id); err == nil {
			rec.Text = doc.Content
		} else {
			log.Warn().Err(err).Str("id", id).Msg("Manifest entry missing from collection")
		}
		results = append(results, rec)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Count returns the number of documents in the collection.
func (m *VectorDBManager) Count(collection string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.collectionFor(collection)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// DeleteCollection drops the collection and its manifest.
func (m *VectorDBManager) DeleteCollection(collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	delete(m.collections, collection)
	delete(m.index, collection)
	if m.dbPath == "" {
		return nil
	}
	if err := os.Remove(m.manifestPath(collection)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// indexFor returns the in-memory metadata index for the collection,
// replaying the manifest on first access.
func (m *VectorDBManager) indexFor(collection string) (map[string]map[string]string, error) {
	if idx, ok := m.index[collection]; ok {
		return idx, nil
	}
	idx := make(map[string]map[string]string)
	if m.dbPath != "" {
		entries, err := readManifest(m.manifestPath(collection))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			idx[e.ID] = e.Metadata
		}
	}
	m.index[collection] = idx
	return idx, nil
}

func (m *VectorDBManager) manifestPath(collection string) string {
	return filepath.Join(m.dbPath, collection+".manifest.jsonl")
}

func appendManifest(path string, entries []manifestEntry) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to write manifest: %v", err)
		}
	}
	return w.Flush()
}

func readManifest(path string) ([]manifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %v", err)
	}
	defer f.Close()

	var entries []manifestEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e manifestEntry
		if err := json.Unmarshal(line, &e); err != nil {
			log.Warn().Err(err).Str("manifest", path).Msg("Skipping bad manifest line")
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
