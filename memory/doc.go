// Package memory provides the episodic memory store: timestamped,
// categorized natural-language records with embedding vectors, retrievable
// by semantic similarity.
//
// Architecture:
//   - Store: owns the metadata sequence and the vector index, keeps the two
//     in lock-step, and persists both after every write
//   - VectorIndex: append-only exact k-NN index (chromem-go backed)
//   - Embedder: text-to-vector conversion (mock for tests, ONNX for local
//     deployments, ristretto-cached wrapper for either)
//
// The store degrades gracefully: without an embedder it still records
// metadata and answers searches with the most recent records at distance
// zero. Callers introspect that state through HasSemanticSearch rather than
// discovering it from behavior.
package memory
