package tts

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/kalambet/kindred/internal/config"
)

// Build assembles the chain from configuration. When console is non-nil
// a Console provider closes the chain.
func Build(cfg config.TTSConfig, hc *http.Client, console io.Writer, logger *slog.Logger) *Chain {
	var providers []Provider
	if cfg.GradiumAPIKey != "" {
		providers = append(providers, NewGradium(cfg.GradiumAPIKey, cfg.GradiumURL, cfg.GradiumVoice, hc))
	}
	if cfg.ElevenLabsAPIKey != "" {
		providers = append(providers, NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoice, cfg.ElevenLabsModel, hc))
	}
	if console != nil {
		providers = append(providers, NewConsole(console))
	}
	return NewChain(providers, 0, logger)
}
