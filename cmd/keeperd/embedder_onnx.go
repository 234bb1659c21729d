//go:build onnx

package main

import (
	"log"
	"os"

	"github.com/hearthside/keeper/memory"
	"github.com/hearthside/keeper/memory/embedder/onnx"
)

// newEmbedder loads the local MiniLM model through ONNX Runtime.
func newEmbedder() (memory.Embedder, error) {
	cfg := onnx.Config{
		ModelPath:     os.Getenv("ONNX_MODEL_PATH"),
		TokenizerPath: os.Getenv("ONNX_TOKENIZER_PATH"),
		LibraryPath:   os.Getenv("ONNX_LIBRARY_PATH"),
	}
	log.Printf("[MAIN] Using ONNX embedder (%s)", cfg.ModelPath)
	return onnx.New(cfg)
}
