package llm

import (
	"log/slog"
	"net/http"

	"github.com/kalambet/kindred/internal/config"
	"github.com/kalambet/kindred/internal/ollama"
)

// Build assembles the provider chain from configuration, in the order
// Backboard, OpenRouter, Gemini, Ollama. The Backboard provider is also
// returned so callers can wire its memory side channel; it is nil when
// no Backboard key is configured.
func Build(cfg config.LLMConfig, hc *http.Client, logger *slog.Logger) (*Client, *Backboard) {
	var providers []Provider
	var bb *Backboard

	if cfg.BackboardAPIKey != "" {
		bb = NewBackboard(cfg.BackboardAPIKey, cfg.BackboardBaseURL, hc)
		providers = append(providers, bb)
	}
	if cfg.OpenRouterAPIKey != "" {
		providers = append(providers, NewOpenRouter(OpenRouterOptions{
			APIKey:      cfg.OpenRouterAPIKey,
			BaseURL:     cfg.OpenRouterBaseURL,
			Model:       cfg.OpenRouterModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			HTTPClient:  hc,
			MaxRetries:  2,
		}))
	}
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens, cfg.Temperature, hc))
	}
	if cfg.OllamaModel != "" {
		// Local calls bypass the egress proxy.
		providers = append(providers, NewLocal(ollama.New(cfg.OllamaURL, nil), cfg.OllamaModel, cfg.MaxTokens, cfg.Temperature))
	}

	c := NewClient(providers, cfg.Timeout(), logger)
	c.logger.Info("llm providers", "chain", c.Providers())
	return c, bb
}
