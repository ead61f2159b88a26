package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kalambet/kindred/internal/emotion"
)

// webCFGCoef is the guidance strength used for browser-chosen voices.
const webCFGCoef = 1.2

type gradiumRequest struct {
	Text         string                `json:"text"`
	VoiceID      string                `json:"voice_id"`
	ModelName    string                `json:"model_name"`
	OutputFormat string                `json:"output_format"`
	OnlyAudio    bool                  `json:"only_audio"`
	JSONConfig   emotion.GradiumParams `json:"json_config"`
}

// Gradium is the primary synthesizer. It returns WAV.
type Gradium struct {
	apiKey  string
	url     string
	voiceID string
	hc      *http.Client
}

func NewGradium(apiKey, url, voiceID string, hc *http.Client) *Gradium {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Gradium{apiKey: apiKey, url: url, voiceID: voiceID, hc: hc}
}

func (g *Gradium) Name() string { return "Gradium" }

func (g *Gradium) Synthesize(ctx context.Context, text string, tone emotion.Tone) (Audio, error) {
	return g.post(ctx, text, g.voiceID, emotion.GradiumFor(tone))
}

// SynthesizeVoice maps the client's speed onto padding_bonus, where
// positive values slow speech down.
func (g *Gradium) SynthesizeVoice(ctx context.Context, text string, v Voice) (Audio, error) {
	id := v.ID
	if id == "" {
		id = g.voiceID
	}
	return g.post(ctx, text, id, emotion.GradiumParams{PaddingBonus: v.Speed, Temp: v.Temp, CFGCoef: webCFGCoef})
}

func (g *Gradium) post(ctx context.Context, text, voiceID string, params emotion.GradiumParams) (Audio, error) {
	body, err := json.Marshal(gradiumRequest{
		Text:         text,
		VoiceID:      voiceID,
		ModelName:    "default",
		OutputFormat: "wav",
		OnlyAudio:    true,
		JSONConfig:   params,
	})
	if err != nil {
		return Audio{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)

	data, err := fetchAudio(g.hc, req)
	if err != nil {
		return Audio{}, fmt.Errorf("gradium: %w", err)
	}
	return Audio{Data: data, Format: "wav"}, nil
}

// fetchAudio executes req and returns a body of at least MinAudioBytes.
func fetchAudio(hc *http.Client, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(msg))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if err := checkAudio(data); err != nil {
		return nil, err
	}
	return data, nil
}
