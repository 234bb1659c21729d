package dialogue

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 512

const companionSystemPrompt = `You are a gentle voice companion for an elderly person.
Keep replies short, warm, and spoken-friendly. One or two sentences.
Never give medical advice. If asked about schedules or past activities,
say you will check and suggest asking again.`

// Claude answers small talk through the Anthropic API. Each utterance is
// sent as a single-turn request; transcript continuity lives in the chat
// log, not here.
type Claude struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewClaude builds a backend with the given API key and model.
func NewClaude(apiKey string, model anthropic.Model) *Claude {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Claude{client: &client, model: model, maxTokens: defaultMaxTokens}
}

func (c *Claude) Reply(ctx context.Context, sessionID, text string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: companionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var reply string
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply += block.Text
		}
	}
	return reply, nil
}
