// Package chatlog records conversation transcripts per user session.
package chatlog

import "context"

// Logger persists one message of a conversation. Implementations must be
// safe for concurrent use; transcript writes happen on the request path and
// failures should be reported, not panic.
type Logger interface {
	// SaveMessage stores a message from sender ("user" or "bot") in the
	// session's transcript. intent may be empty.
	SaveMessage(ctx context.Context, ownerID, sessionID, sender, text, intent string) error
}

// Discard drops all messages. Used when no transcript backend is configured.
type Discard struct{}

func (Discard) SaveMessage(ctx context.Context, ownerID, sessionID, sender, text, intent string) error {
	return nil
}
