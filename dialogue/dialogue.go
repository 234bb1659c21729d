// Package dialogue provides the free-form conversation fallback used when
// an utterance matches no structured intent.
package dialogue

import "context"

// Backend produces a conversational reply for an utterance that the
// rule-based pipeline could not handle.
type Backend interface {
	Reply(ctx context.Context, sessionID, text string) (string, error)
}
