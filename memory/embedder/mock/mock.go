// Package mock provides a deterministic embedder for tests and offline use.
// Embeddings are generated from a hash of the text, so identical texts map
// to identical vectors and distinct texts are close to orthogonal. There is
// no real semantic similarity.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Dimensions matches all-MiniLM-L6-v2 so mock and ONNX embedders are
// interchangeable in a deployment.
const Dimensions = 384

// Embedder generates deterministic hash-based embeddings.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with the default dimensions.
func New() *Embedder {
	return &Embedder{dimensions: Dimensions}
}

// Embed creates a deterministic unit vector from the text hash.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))

	// Hash seeds a small LCG so every dimension is reproducible.
	seed := h.Sum64()
	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	length := float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / length
	}
	return vec
}
