package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hearthside/keeper/classify"
	"github.com/hearthside/keeper/core"
)

// ErrEmptyText is returned when a caller tries to store an empty memory.
var ErrEmptyText = errors.New("memory text is empty")

// Config configures a Store.
type Config struct {
	// Index holds the embeddings. Nil disables semantic search entirely.
	Index VectorIndex

	// Embedder generates embeddings. Nil disables semantic search entirely.
	Embedder Embedder

	// MetadataPath is the JSON file the metadata sequence is flushed to
	// after every write. Empty means in-memory only (tests).
	MetadataPath string

	// Clock defaults to core.UTCNow.
	Clock core.Clock
}

// Store holds memory records and their embedding vectors. The metadata
// sequence and the vector index are loaded together at startup and flushed
// together after every write; record IDs are positions in the sequence.
type Store struct {
	mu         sync.Mutex
	index      VectorIndex
	embedder   Embedder
	records    []core.Record
	metaPath   string
	clock      core.Clock
	dimensions int
}

// NewStore opens a store, reloading the metadata sequence and vector index
// together. When the two disagree (one file survived, the other did not),
// both are reset so they never reload independently.
func NewStore(cfg Config) (*Store, error) {
	s := &Store{
		index:    cfg.Index,
		embedder: cfg.Embedder,
		metaPath: cfg.MetadataPath,
		clock:    cfg.Clock,
	}
	if s.clock == nil {
		s.clock = core.UTCNow
	}
	if s.embedder != nil {
		s.dimensions = s.embedder.Dimensions()
	}

	if err := s.load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// HasSemanticSearch reports whether the store can answer similarity
// queries. When false, Search degrades to reverse-chronological results at
// distance zero and callers must treat them as carrying no semantic signal.
func (s *Store) HasSemanticSearch() bool {
	return s.embedder != nil && s.index != nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns the record at the given sequence position.
func (s *Store) Get(id int) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.records) {
		return core.Record{}, false
	}
	return s.records[id], true
}

// RememberOptions carries the metadata for a new memory. Zero values are
// filled in: the category from the classifier, the timestamp from the clock.
type RememberOptions struct {
	OwnerID   string
	Category  core.Category
	Timestamp time.Time
}

// Remember stores a new memory and returns its record ID. Embedding
// failures are soft: the metadata is still recorded and the call succeeds,
// the record just carries no semantic signal. The metadata sequence and the
// index are flushed before the call returns.
func (s *Store) Remember(ctx context.Context, text string, opts RememberOptions) (int, error) {
	if text == "" {
		return -1, ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = s.clock()
	}
	category := opts.Category
	if !category.Valid() {
		category = classify.Text(text)
	}

	rec := core.Record{
		ID:        len(s.records),
		OwnerID:   opts.OwnerID,
		Text:      text,
		Category:  category,
		Timestamp: ts.UTC(),
	}

	if s.HasSemanticSearch() {
		vec, err := s.embedder.Embed(ctx, text)
		switch {
		case err != nil:
			log.Printf("[MEMORY] Embedding unavailable, storing metadata only: %v", err)
		case len(vec) != s.dimensions:
			return -1, fmt.Errorf("embedding dimension %d does not match store dimension %d", len(vec), s.dimensions)
		default:
			rec.Embedding = vec
		}
	}

	if rec.Embedding != nil {
		if err := s.index.Add(ctx, rec.ID, rec.Embedding); err != nil {
			log.Printf("[MEMORY] Failed to index record %d: %v", rec.ID, err)
		} else {
			rec.Indexed = true
		}
	}
	s.records = append(s.records, rec)

	if err := s.flushLocked(); err != nil {
		log.Printf("[MEMORY] Failed to persist metadata: %v", err)
	}

	log.Printf("[MEMORY] Stored memory %d: %q | cat=%s owner=%s", rec.ID, truncateLog(text, 60), category, opts.OwnerID)
	return rec.ID, nil
}

// Search returns up to k nearest records by embedding distance, closest
// first. When semantic search is unavailable (no embedder, or the embedding
// service fails mid-flight) it returns the most recent records in reverse
// chronological order with distance zero.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	if !s.HasSemanticSearch() {
		return s.recentFallback(k), nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[MEMORY] Query embedding failed, falling back to recent records: %v", err)
		return s.recentFallback(k), nil
	}

	hits, err := s.index.Search(ctx, vec, k)
	if err != nil {
		log.Printf("[MEMORY] Index search failed, falling back to recent records: %v", err)
		return s.recentFallback(k), nil
	}
	return hits, nil
}

func (s *Store) recentFallback(k int) []Hit {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits := make([]Hit, 0, k)
	for id := len(s.records) - 1; id >= 0 && len(hits) < k; id-- {
		hits = append(hits, Hit{ID: id, Distance: 0})
	}
	return hits
}

func (s *Store) load(ctx context.Context) error {
	if s.metaPath != "" {
		data, err := os.ReadFile(s.metaPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Fresh store.
		case err != nil:
			return fmt.Errorf("read metadata: %w", err)
		default:
			if err := json.Unmarshal(data, &s.records); err != nil {
				log.Printf("[MEMORY] Metadata file unreadable, starting empty: %v", err)
				s.records = nil
			}
		}
	}

	// The metadata sequence records how many embeddings reached the index.
	// A count mismatch means one of the two was lost; reset both rather
	// than reload them independently.
	indexed := 0
	for _, rec := range s.records {
		if rec.Indexed {
			indexed++
		}
	}
	if s.index != nil && s.index.Len() != indexed {
		log.Printf("[MEMORY] Index/metadata mismatch (%d indexed embeddings, %d records marked), resetting both",
			s.index.Len(), indexed)
		s.records = nil
		if err := s.index.Reset(ctx); err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
		if err := s.flushLocked(); err != nil {
			return fmt.Errorf("reset metadata: %w", err)
		}
	}

	if len(s.records) > 0 {
		log.Printf("[MEMORY] Loaded %d memories from %s", len(s.records), s.metaPath)
	}
	return nil
}

func (s *Store) flushLocked() error {
	if s.metaPath == "" {
		return nil
	}

	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp := s.metaPath + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.metaPath), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, s.metaPath); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
