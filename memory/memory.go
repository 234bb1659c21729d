package memory

import "context"

// Embedder converts text to fixed-dimension embedding vectors.
// Implementations: mock (deterministic, for tests and offline use),
// onnx (all-MiniLM-L6-v2, local), cache (ristretto wrapper around either).
//
// Dimensions must be stable across calls for a given deployment; the store
// treats the dimension of the first stored vector as an invariant.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Hit is one nearest-neighbor result from the vector index.
type Hit struct {
	// ID is the metadata-sequence position of the matching record.
	ID int

	// Distance is the squared Euclidean distance between unit vectors,
	// the same scale the recall thresholds are tuned against.
	Distance float64
}

// VectorIndex is an append-only collection of embeddings supporting exact
// k-nearest-neighbor search. Entries are keyed by record ID so the index
// may lag the metadata sequence (a record whose embedding failed has no
// index entry) but may never reference a position the sequence lacks.
//
// The index is owned exclusively by the Store; no other component queries
// it directly.
type VectorIndex interface {
	// Add appends one embedding under the given record ID.
	Add(ctx context.Context, id int, vec []float32) error

	// Search returns up to k nearest entries by distance, closest first.
	Search(ctx context.Context, vec []float32, k int) ([]Hit, error)

	// Len returns the number of indexed embeddings.
	Len() int

	// Reset drops every entry, including persisted state.
	Reset(ctx context.Context) error
}
