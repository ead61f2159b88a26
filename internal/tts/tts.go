// Package tts turns reply text into speech through a chain of
// synthesizers, falling back to printing the text when none answers.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/metrics"
)

// MinAudioBytes is the smallest body accepted as real audio.
const MinAudioBytes = 200

const defaultTimeout = 15 * time.Second

var (
	// ErrAudioTooShort means a provider answered with an unusable body.
	ErrAudioTooShort = errors.New("audio response too short")
	// ErrAllFailed is returned when no provider produced audio.
	ErrAllFailed = errors.New("all TTS engines failed")
)

// Audio is synthesized speech. Data is empty when the text was only
// printed.
type Audio struct {
	Data     []byte
	Format   string // "wav" or "mp3"
	Provider string
}

// ContentType returns the MIME type for Format.
func (a Audio) ContentType() string {
	if a.Format == "mp3" {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// Provider synthesizes text with delivery adapted to tone.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, tone emotion.Tone) (Audio, error)
}

// Voice is an explicit voice choice made by a client.
type Voice struct {
	ID    string
	Speed float64
	Temp  float64
}

// VoiceProvider can synthesize with a caller-chosen voice.
type VoiceProvider interface {
	SynthesizeVoice(ctx context.Context, text string, v Voice) (Audio, error)
}

// Chain tries providers in order.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

func NewChain(providers []Provider, timeout time.Duration, logger *slog.Logger) *Chain {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, timeout: timeout, logger: logger}
}

// Names lists the configured providers in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Synthesize returns audio from the first provider that succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string, tone emotion.Tone) (Audio, error) {
	text = CleanForSpeech(text)
	for _, p := range c.providers {
		a, err := c.try(ctx, p.Name(), func(ctx context.Context) (Audio, error) {
			return p.Synthesize(ctx, text, tone)
		})
		if err == nil {
			return a, nil
		}
	}
	return Audio{}, ErrAllFailed
}

// SynthesizeVoice is Synthesize with an explicit voice. Providers that
// cannot take a voice choice are skipped.
func (c *Chain) SynthesizeVoice(ctx context.Context, text string, v Voice) (Audio, error) {
	text = CleanForSpeech(text)
	for _, p := range c.providers {
		vp, ok := p.(VoiceProvider)
		if !ok {
			continue
		}
		a, err := c.try(ctx, p.Name(), func(ctx context.Context) (Audio, error) {
			return vp.SynthesizeVoice(ctx, text, v)
		})
		if err == nil {
			return a, nil
		}
	}
	return Audio{}, ErrAllFailed
}

func (c *Chain) try(ctx context.Context, name string, fn func(context.Context) (Audio, error)) (a Audio, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
		if err != nil {
			metrics.TTSRequests.WithLabelValues(name, metrics.OutcomeError).Inc()
			c.logger.Warn("tts provider failed", "provider", name, "error", err)
			return
		}
		metrics.TTSRequests.WithLabelValues(name, metrics.OutcomeOK).Inc()
	}()

	start := time.Now()
	a, err = fn(ctx)
	if err == nil {
		a.Provider = name
		c.logger.Debug("tts audio", "provider", name, "bytes", len(a.Data), "latency_ms", time.Since(start).Milliseconds())
	}
	return a, err
}

func checkAudio(data []byte) error {
	if len(data) < MinAudioBytes {
		return fmt.Errorf("%w (%d bytes)", ErrAudioTooShort, len(data))
	}
	return nil
}
