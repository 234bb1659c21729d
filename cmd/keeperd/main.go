// keeperd runs the voice companion backend: episodic memory with semantic
// recall, plus the conversational scheduling loop.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"cloud.google.com/go/firestore"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/hearthside/keeper/assistant"
	"github.com/hearthside/keeper/chatlog"
	"github.com/hearthside/keeper/dialogue"
	"github.com/hearthside/keeper/memory"
	"github.com/hearthside/keeper/memory/embedder/cache"
	"github.com/hearthside/keeper/memory/index/chromem"
	"github.com/hearthside/keeper/schedule"
	schedfs "github.com/hearthside/keeper/schedule/firestore"
	"github.com/hearthside/keeper/schedule/sqlite"
	"github.com/hearthside/keeper/server"
)

func main() {
	// .env is optional; system env vars win.
	_ = godotenv.Load()

	port := envOr("PORT", "8080")
	dataDir := envOr("KEEPER_DATA_DIR", "./data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	base, err := newEmbedder()
	if err != nil {
		log.Fatalf("initialize embedder: %v", err)
	}
	embedder, err := cache.New(base, 4096)
	if err != nil {
		log.Fatalf("initialize embedding cache: %v", err)
	}
	defer embedder.Close()

	index, err := chromem.New(filepath.Join(dataDir, "vectors"))
	if err != nil {
		log.Fatalf("open vector index: %v", err)
	}

	store, err := memory.NewStore(memory.Config{
		Index:        index,
		Embedder:     embedder,
		MetadataPath: filepath.Join(dataDir, "memories.json"),
	})
	if err != nil {
		log.Fatalf("open memory store: %v", err)
	}
	log.Printf("[MAIN] Memory store ready (%d records, semantic search: %t)",
		store.Len(), store.HasSemanticSearch())

	ctx := context.Background()

	var sched schedule.Store
	var chat chatlog.Logger = chatlog.Discard{}
	if project := os.Getenv("FIRESTORE_PROJECT"); project != "" {
		var clientOpts []option.ClientOption
		if creds := os.Getenv("FIRESTORE_CREDENTIALS"); creds != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(creds))
		}
		client, err := firestore.NewClient(ctx, project, clientOpts...)
		if err != nil {
			log.Fatalf("connect to Firestore: %v", err)
		}
		sched = schedfs.New(client)
		chat = chatlog.NewFirestoreLogger(client)
		log.Printf("[MAIN] Using Firestore backend (project %s)", project)
	} else {
		sched, err = sqlite.New(filepath.Join(dataDir, "schedule.db"))
		if err != nil {
			log.Fatalf("open schedule database: %v", err)
		}
		log.Println("[MAIN] Using local SQLite schedule store")
	}
	defer sched.Close()

	opts := []assistant.Option{assistant.WithChatLog(chat)}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := anthropic.Model(envOr("CLAUDE_MODEL", "claude-sonnet-4-20250514"))
		opts = append(opts, assistant.WithDialogue(dialogue.NewClaude(key, model)))
		log.Printf("[MAIN] Dialogue fallback enabled (%s)", model)
	} else {
		log.Println("[MAIN] No ANTHROPIC_API_KEY, dialogue fallback disabled")
	}

	engine := assistant.New(store, sched, opts...)

	if err := server.New(engine).Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
