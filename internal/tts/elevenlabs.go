package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kalambet/kindred/internal/emotion"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// webSettings are used when a browser client picked the voice; speed
// and temp have no ElevenLabs equivalent.
var webSettings = emotion.VoiceSettings{Stability: 0.6, SimilarityBoost: 0.75}

type elevenLabsRequest struct {
	Text          string                `json:"text"`
	ModelID       string                `json:"model_id"`
	VoiceSettings emotion.VoiceSettings `json:"voice_settings"`
}

// ElevenLabs is the backup synthesizer. It returns MP3.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	model   string
	baseURL string
	hc      *http.Client
}

func NewElevenLabs(apiKey, voiceID, model string, hc *http.Client) *ElevenLabs {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &ElevenLabs{apiKey: apiKey, voiceID: voiceID, model: model, baseURL: elevenLabsBaseURL, hc: hc}
}

func (e *ElevenLabs) Name() string { return "ElevenLabs" }

func (e *ElevenLabs) Synthesize(ctx context.Context, text string, tone emotion.Tone) (Audio, error) {
	return e.post(ctx, text, e.voiceID, emotion.ElevenLabsFor(tone))
}

// SynthesizeVoice always uses the configured voice: browser voice ids
// belong to the primary synthesizer's catalog.
func (e *ElevenLabs) SynthesizeVoice(ctx context.Context, text string, _ Voice) (Audio, error) {
	return e.post(ctx, text, e.voiceID, webSettings)
}

func (e *ElevenLabs) post(ctx context.Context, text, voiceID string, settings emotion.VoiceSettings) (Audio, error) {
	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: e.model, VoiceSettings: settings})
	if err != nil {
		return Audio{}, err
	}
	endpoint := strings.TrimRight(e.baseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.apiKey)

	data, err := fetchAudio(e.hc, req)
	if err != nil {
		return Audio{}, fmt.Errorf("elevenlabs: %w", err)
	}
	return Audio{Data: data, Format: "mp3"}, nil
}
