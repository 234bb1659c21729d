package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hearthside/keeper/core"
	"github.com/hearthside/keeper/memory"
	"github.com/hearthside/keeper/memory/embedder/mock"
	chromemindex "github.com/hearthside/keeper/memory/index/chromem"
)

var fixedNow = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newSemanticStore(t *testing.T) *memory.Store {
	t.Helper()

	index, err := chromemindex.New("")
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	store, err := memory.NewStore(memory.Config{
		Index:    index,
		Embedder: mock.New(),
		Clock:    fixedClock,
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestRememberAndSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSemanticStore(t)

	id, err := store.Remember(ctx, "I took my blood pressure pills", memory.RememberOptions{OwnerID: "u1"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	hits, err := store.Search(ctx, "I took my blood pressure pills", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ID != id {
		t.Errorf("top hit = %d, want %d", hits[0].ID, id)
	}
	if hits[0].Distance > 0.001 {
		t.Errorf("exact-text distance = %f, want ~0", hits[0].Distance)
	}
}

func TestRememberAutoClassifiesAndTimestamps(t *testing.T) {
	ctx := context.Background()
	store := newSemanticStore(t)

	id, err := store.Remember(ctx, "I took my medication", memory.RememberOptions{OwnerID: "u1"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	rec, ok := store.Get(id)
	if !ok {
		t.Fatal("record not found")
	}
	if rec.Category != core.CategoryMedication {
		t.Errorf("category = %q, want medication", rec.Category)
	}
	if !rec.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v, want clock value %v", rec.Timestamp, fixedNow)
	}
	if rec.ID != id || id != 0 {
		t.Errorf("first record id = %d, want 0", id)
	}
}

func TestRememberExplicitCategoryWins(t *testing.T) {
	ctx := context.Background()
	store := newSemanticStore(t)

	id, _ := store.Remember(ctx, "I took my medication", memory.RememberOptions{
		OwnerID:  "u1",
		Category: core.CategoryActivity,
	})
	rec, _ := store.Get(id)
	if rec.Category != core.CategoryActivity {
		t.Errorf("category = %q, want explicit activity", rec.Category)
	}
}

func TestRememberEmptyText(t *testing.T) {
	store := newSemanticStore(t)
	if _, err := store.Remember(context.Background(), "", memory.RememberOptions{OwnerID: "u1"}); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestDegradedStoreReturnsRecent(t *testing.T) {
	ctx := context.Background()
	store, err := memory.NewStore(memory.Config{Clock: fixedClock})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	if store.HasSemanticSearch() {
		t.Fatal("store without embedder should not report semantic search")
	}

	for _, text := range []string{"first memory", "second memory", "third memory"} {
		if _, err := store.Remember(ctx, text, memory.RememberOptions{OwnerID: "u1"}); err != nil {
			t.Fatalf("remember %q: %v", text, err)
		}
	}

	hits, err := store.Search(ctx, "anything at all", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Newest first, and no semantic signal.
	if hits[0].ID != 2 || hits[1].ID != 1 {
		t.Errorf("hit order = [%d %d], want [2 1]", hits[0].ID, hits[1].ID)
	}
	for _, h := range hits {
		if h.Distance != 0 {
			t.Errorf("degraded hit distance = %f, want 0", h.Distance)
		}
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "memories.json")
	indexPath := filepath.Join(dir, "vectors")

	open := func() *memory.Store {
		index, err := chromemindex.New(indexPath)
		if err != nil {
			t.Fatalf("open index: %v", err)
		}
		store, err := memory.NewStore(memory.Config{
			Index:        index,
			Embedder:     mock.New(),
			MetadataPath: metaPath,
			Clock:        fixedClock,
		})
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return store
	}

	store := open()
	if _, err := store.Remember(ctx, "I watered the garden", memory.RememberOptions{OwnerID: "u1"}); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := store.Remember(ctx, "I called my daughter", memory.RememberOptions{OwnerID: "u1"}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	reopened := open()
	if reopened.Len() != 2 {
		t.Fatalf("reopened store has %d records, want 2", reopened.Len())
	}

	hits, err := reopened.Search(ctx, "I called my daughter", 1)
	if err != nil {
		t.Fatalf("search after reopen: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != 1 {
		t.Fatalf("search after reopen = %+v, want record 1", hits)
	}
	rec, ok := reopened.Get(1)
	if !ok || rec.Text != "I called my daughter" {
		t.Fatalf("record 1 after reopen = %+v", rec)
	}
}

func TestMismatchedStateResetsBoth(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "memories.json")
	indexPath := filepath.Join(dir, "vectors")

	index, err := chromemindex.New(indexPath)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	store, err := memory.NewStore(memory.Config{
		Index:        index,
		Embedder:     mock.New(),
		MetadataPath: metaPath,
		Clock:        fixedClock,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Remember(ctx, "I had lunch", memory.RememberOptions{OwnerID: "u1"}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	// Lose the metadata file while the index survives.
	if err := os.Remove(metaPath); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}

	index2, err := chromemindex.New(indexPath)
	if err != nil {
		t.Fatalf("reopen index: %v", err)
	}
	reopened, err := memory.NewStore(memory.Config{
		Index:        index2,
		Embedder:     mock.New(),
		MetadataPath: metaPath,
		Clock:        fixedClock,
	})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}

	if reopened.Len() != 0 {
		t.Errorf("records after mismatch = %d, want 0", reopened.Len())
	}
	hits, err := reopened.Search(ctx, "I had lunch", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits after reset = %+v, want none", hits)
	}
}
