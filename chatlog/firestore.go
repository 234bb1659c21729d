package chatlog

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/hearthside/keeper/core"
)

const maxPreviewLen = 60

// FirestoreLogger stores transcripts under
// users/{ownerID}/chat_sessions/{sessionID}/messages/{messageID}.
type FirestoreLogger struct {
	client *firestore.Client
	clock  core.Clock
}

func NewFirestoreLogger(client *firestore.Client) *FirestoreLogger {
	return &FirestoreLogger{client: client, clock: core.UTCNow}
}

func (l *FirestoreLogger) SaveMessage(ctx context.Context, ownerID, sessionID, sender, text, intent string) error {
	session := l.client.Collection("users").Doc(ownerID).
		Collection("chat_sessions").Doc(sessionID)

	_, err := session.Set(ctx, map[string]any{
		"updatedAt": firestore.ServerTimestamp,
		"createdAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	now := l.clock()
	preview := text
	if len(preview) > maxPreviewLen {
		preview = preview[:maxPreviewLen] + "..."
	}
	payload := map[string]any{
		"sender":      sender,
		"text":        text,
		"createdAt":   firestore.ServerTimestamp,
		"preview":     preview,
		"displayTime": now.Format("2006-01-02 15:04:05 UTC"),
		"uid":         ownerID,
		"session_id":  sessionID,
	}
	if intent != "" {
		payload["intent"] = intent
	}

	// Millisecond timestamp plus sender keeps IDs unique and sortable.
	id := fmt.Sprintf("%d_%s", now.UnixMilli(), sender)
	if _, err := session.Collection("messages").Doc(id).Get(ctx); err == nil {
		id = fmt.Sprintf("%s_%d", id, now.Nanosecond()/1000)
	}

	if _, err := session.Collection("messages").Doc(id).Set(ctx, payload); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}
