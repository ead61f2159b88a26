// Package llm sends a conversation to the first reachable reply provider.
// Providers are tried in a fixed order; a caller never sees an error, only
// a Response that says whether a real reply came back.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/kindred/internal/conversation"
	"github.com/kalambet/kindred/internal/metrics"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FallbackText is returned when every provider fails.
const FallbackText = "I'm having trouble connecting right now. Could you try again in a moment?"

const defaultTimeout = 15 * time.Second

// ErrEmptyResponse is returned by providers that answered with no text.
var ErrEmptyResponse = errors.New("empty response")

// Message is one chat turn in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider produces a reply for a message list.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Response is the outcome of Send.
type Response struct {
	Text     string
	Success  bool
	Provider string
	Latency  time.Duration
	Error    string
}

// Client walks a provider chain.
type Client struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClient returns a Client over providers, in priority order. timeout
// bounds each provider attempt separately; zero means 15 seconds.
func NewClient(providers []Provider, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{providers: providers, timeout: timeout, logger: logger}
}

// Providers returns the provider names in the order they are tried.
func (c *Client) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Send tries each provider until one returns non-empty text.
func (c *Client) Send(ctx context.Context, messages []Message) Response {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		text, err := c.attempt(ctx, p, messages)
		latency := time.Since(start)
		metrics.LLMLatency.WithLabelValues(p.Name()).Observe(latency.Seconds())

		switch {
		case err == nil:
			metrics.LLMRequests.WithLabelValues(p.Name(), metrics.OutcomeOK).Inc()
			c.logger.Info("llm reply", "provider", p.Name(), "latency_ms", latency.Milliseconds())
			return Response{Text: text, Success: true, Provider: p.Name(), Latency: latency}
		case errors.Is(err, ErrEmptyResponse):
			metrics.LLMRequests.WithLabelValues(p.Name(), metrics.OutcomeEmpty).Inc()
			c.logger.Warn("llm empty reply", "provider", p.Name(), "latency_ms", latency.Milliseconds())
		default:
			metrics.LLMRequests.WithLabelValues(p.Name(), metrics.OutcomeError).Inc()
			c.logger.Warn("llm provider failed", "provider", p.Name(), "latency_ms", latency.Milliseconds(), "error", err)
		}
	}
	return Response{Text: FallbackText, Success: false, Error: "all providers failed"}
}

func (c *Client) attempt(ctx context.Context, p Provider, messages []Message) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	text, err = p.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// BuildMessages lays out system prompt, prior turns and the new user
// message in that order. An empty system prompt is omitted.
func BuildMessages(system string, history []conversation.Message, user string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	for _, m := range history {
		msgs = append(msgs, Message{Role: string(m.Role), Content: m.Content})
	}
	return append(msgs, Message{Role: RoleUser, Content: user})
}

// lastUser returns the newest user turn.
func lastUser(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// systemPrompt returns the first system turn.
func systemPrompt(messages []Message) string {
	for _, m := range messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}
