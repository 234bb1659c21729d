// Package chromem implements memory.VectorIndex on chromem-go, a pure Go
// embedded vector database with optional on-disk persistence.
package chromem

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/hearthside/keeper/memory"
)

const collectionName = "memories"

// Index is an exact k-NN index over memory embeddings. chromem-go scores by
// cosine similarity; entries are unit vectors, so results are converted to
// squared Euclidean distance (2 − 2·cos) to stay on the scale the recall
// thresholds are tuned against.
type Index struct {
	mu   sync.Mutex
	db   *chromem.DB
	col  *chromem.Collection
	path string
}

// New opens an index. A non-empty path gets a persistent database that
// flushes every added embedding to disk and reloads it on open; an empty
// path keeps everything in memory (tests).
func New(path string) (*Index, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open vector db: %w", err)
		}
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	return &Index{db: db, col: col, path: path}, nil
}

// Add appends one embedding under the given record ID.
func (x *Index) Add(ctx context.Context, id int, vec []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	doc := chromem.Document{
		ID:        strconv.Itoa(id),
		Embedding: normalize(vec),
	}
	if err := x.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add embedding %d: %w", id, err)
	}
	return nil
}

// Search returns up to k nearest entries, closest first.
func (x *Index) Search(ctx context.Context, vec []float32, k int) ([]memory.Hit, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	// chromem rejects nResults larger than the collection.
	count := x.col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := x.col.QueryEmbedding(ctx, normalize(vec), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	hits := make([]memory.Hit, 0, len(results))
	for _, res := range results {
		id, err := strconv.Atoi(res.ID)
		if err != nil {
			continue
		}
		hits = append(hits, memory.Hit{ID: id, Distance: similarityToDistance(res.Similarity)})
	}
	return hits, nil
}

// Len returns the number of indexed embeddings.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.col.Count()
}

// Reset drops every entry, including anything persisted on disk.
func (x *Index) Reset(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := x.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	x.col = col
	return nil
}

// similarityToDistance maps cosine similarity of unit vectors onto squared
// Euclidean distance: |a−b|² = 2 − 2·cos(a,b).
func similarityToDistance(sim float32) float64 {
	d := 2 - 2*float64(sim)
	if d < 0 {
		return 0
	}
	return d
}

// normalize converts a vector to unit length. Already-normalized input
// comes back unchanged.
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	length := float32(math.Sqrt(norm))
	if math.Abs(float64(length)-1) < 1e-6 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / length
	}
	return normalized
}
