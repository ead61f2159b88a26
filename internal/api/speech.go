package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kalambet/kindred/internal/stt"
	"github.com/kalambet/kindred/internal/tts"
)

const defaultWebTemp = 0.7

type ttsRequest struct {
	Text    string   `json:"text"`
	VoiceID string   `json:"voice_id"`
	Speed   float64  `json:"speed"`
	Temp    *float64 `json:"temp"`
}

func handleTTS(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no text provided")
			return
		}

		v := tts.Voice{ID: req.VoiceID, Speed: req.Speed, Temp: defaultWebTemp}
		if v.ID == "" {
			v.ID = DefaultVoiceID
		}
		if req.Temp != nil {
			v.Temp = *req.Temp
		}

		audio, err := deps.TTS.SynthesizeVoice(r.Context(), req.Text, v)
		if err != nil {
			deps.Logger.Warn("all tts engines failed", "voice", v.ID, "error", err)
			httpError(w, http.StatusServiceUnavailable, "api_error", "all TTS engines failed")
			return
		}

		w.Header().Set("Content-Type", audio.ContentType())
		w.Header().Set("X-TTS-Provider", audio.Provider)
		w.Write(audio.Data)
	}
}

func handleTTSCheck(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engines := []string{}
		for _, n := range deps.TTS.Names() {
			engines = append(engines, strings.ToLower(n))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"engines": engines,
			"ok":      len(engines) > 0,
		})
	}
}

func handleSTT(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.STT == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "speech recognition unavailable on server")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAudioBodySize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "reading audio: %v", err)
			return
		}
		if err := stt.Validate(data); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no usable audio: %v", err)
			return
		}

		text, err := deps.STT.Transcribe(r.Context(), data)
		switch {
		case errors.Is(err, stt.ErrNoSpeech):
			writeJSON(w, http.StatusOK, map[string]string{"text": "", "error": "could not understand audio"})
		case err != nil:
			deps.Logger.Warn("transcription failed", "bytes", len(data), "error", err)
			httpError(w, http.StatusBadGateway, "api_error", "speech service error: %v", err)
		default:
			deps.Logger.Debug("transcribed", "bytes", len(data), "text", text)
			writeJSON(w, http.StatusOK, map[string]string{"text": text})
		}
	}
}
