// Package stt transcribes recorded utterances through a hosted Whisper
// endpoint.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-audio/wav"
)

// MinAudioBytes is the smallest upload worth transcribing.
const MinAudioBytes = 200

var (
	// ErrNoSpeech means the service heard nothing intelligible.
	ErrNoSpeech = errors.New("no speech recognized")
	// ErrAudioTooShort rejects bodies below MinAudioBytes.
	ErrAudioTooShort = errors.New("audio too short")
	// ErrInvalidAudio rejects bodies that are not WAV.
	ErrInvalidAudio = errors.New("audio is not a valid wav file")
)

// Transcriber turns WAV audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// Validate checks that data is a plausible WAV upload.
func Validate(data []byte) error {
	if len(data) < MinAudioBytes {
		return ErrAudioTooShort
	}
	if !wav.NewDecoder(bytes.NewReader(data)).IsValidFile() {
		return ErrInvalidAudio
	}
	return nil
}

// Groq calls the OpenAI-compatible transcription endpoint on Groq.
type Groq struct {
	apiKey  string
	baseURL string
	model   string
	hc      *http.Client
}

func NewGroq(apiKey, baseURL, model string, hc *http.Client) *Groq {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Groq{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), model: model, hc: hc}
}

func (g *Groq) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	if err := Validate(wavData); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if err := w.WriteField("model", g.model); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("writing response_format field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("transcription: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
