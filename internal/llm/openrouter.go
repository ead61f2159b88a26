package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenRouter calls an OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// OpenRouterOptions configures NewOpenRouter.
type OpenRouterOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
	// MaxRetries is passed to the SDK; negative means the SDK default.
	MaxRetries int
}

func NewOpenRouter(o OpenRouterOptions) *OpenRouter {
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithHeader("HTTP-Referer", "https://github.com/kalambet/kindred"),
		option.WithHeader("X-Title", "kindred"),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}
	if o.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(o.MaxRetries))
	}
	return &OpenRouter{
		client:      openai.NewClient(opts...),
		model:       o.Model,
		maxTokens:   int64(o.MaxTokens),
		temperature: o.Temperature,
	}
}

func (p *OpenRouter) Name() string { return "OpenRouter" }

func (p *OpenRouter) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAI(messages),
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(p.maxTokens)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
