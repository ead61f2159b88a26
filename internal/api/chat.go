package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/kindred/internal/composer"
	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/tts"
)

// chatFallback is the reply when no provider answers.
const chatFallback = "I'm having a little trouble thinking right now, but I'm still here with you!"

type chatRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
}

type chatResponse struct {
	Reply    string  `json:"reply"`
	Emotion  string  `json:"emotion"`
	TTSSpeed float64 `json:"tts_speed"`
	TTSTemp  float64 `json:"tts_temp"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		msg := strings.TrimSpace(req.Message)
		if msg == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no message")
			return
		}

		tone := emotion.ToneFor(emotion.Analyze(msg))
		if emotion.IsCrisis(msg) {
			tone = emotion.ToneDistress
		}

		pm := deps.State.Profile()
		if _, err := pm.Learn(msg, string(tone)); err != nil {
			deps.Logger.Warn("learning from chat", "error", err)
		}
		summary, err := pm.GetSummary()
		if err != nil {
			deps.Logger.Warn("profile summary", "error", err)
		}

		messages := []llm.Message{{Role: "system", Content: composer.BuildWeb(summary, tone)}}
		messages = append(messages, deps.State.Context(req.History)...)
		messages = append(messages, llm.Message{Role: "user", Content: msg})

		reply := chatFallback
		if resp := deps.LLM.Send(r.Context(), messages); resp.Success {
			reply = resp.Text
		}
		reply = tts.CleanForSpeech(reply)

		if err := deps.State.Record(msg, reply); err != nil {
			deps.Logger.Warn("saving chat log", "error", err)
		}

		voice := emotion.WebVoiceFor(tone)
		deps.Logger.Info("chat", "emotion", tone, "duration_ms", time.Since(start).Milliseconds())
		writeJSON(w, http.StatusOK, chatResponse{
			Reply:    reply,
			Emotion:  string(tone),
			TTSSpeed: voice.Speed,
			TTSTemp:  voice.Temp,
		})
	}
}
