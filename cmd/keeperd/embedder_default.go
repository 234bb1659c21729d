//go:build !onnx

package main

import (
	"log"

	"github.com/hearthside/keeper/memory"
	"github.com/hearthside/keeper/memory/embedder/mock"
)

// newEmbedder returns the hash-based embedder. Build with -tags onnx for
// real semantic embeddings.
func newEmbedder() (memory.Embedder, error) {
	log.Println("[MAIN] Using mock embedder (build with -tags onnx for semantic search)")
	return mock.New(), nil
}
