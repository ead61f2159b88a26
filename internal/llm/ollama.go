package llm

import (
	"context"

	"github.com/kalambet/kindred/internal/ollama"
)

// Local answers from a model served by a local Ollama instance.
type Local struct {
	client *ollama.Client
	model  string
	opts   ollama.Options
}

func NewLocal(client *ollama.Client, model string, maxTokens int, temperature float64) *Local {
	return &Local{
		client: client,
		model:  model,
		opts:   ollama.Options{Temperature: temperature, NumPredict: maxTokens},
	}
}

func (l *Local) Name() string { return "Ollama" }

func (l *Local) Complete(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}
	opts := l.opts
	return l.client.Chat(ctx, l.model, msgs, &opts)
}
