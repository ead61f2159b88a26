package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/metrics"
	"github.com/kalambet/kindred/internal/stt"
	"github.com/kalambet/kindred/internal/tts"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxAudioBodySize = 10 << 20  // 10MB

// Responder produces chat replies.
type Responder interface {
	Send(ctx context.Context, messages []llm.Message) llm.Response
}

// Synthesizer renders speech with a caller-chosen voice.
type Synthesizer interface {
	SynthesizeVoice(ctx context.Context, text string, v tts.Voice) (tts.Audio, error)
	Names() []string
}

type Deps struct {
	State  *WebState
	LLM    Responder
	TTS    Synthesizer
	STT    stt.Transcriber // optional; /api/stt answers 503 when nil
	Events *Hub            // optional; /api/events is not mounted when nil
	Token  string
	Logger *slog.Logger
}

// NewHandler returns the web companion's HTTP API. When Token is set every
// route except /health requires it as a bearer token.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(requireToken(deps.Token))
		}
		r.Get("/api/voices", handleVoices)
		r.Post("/api/tts", handleTTS(deps))
		r.Get("/api/tts-check", handleTTSCheck(deps))
		r.Post("/api/stt", handleSTT(deps))
		r.Post("/api/chat", handleChat(deps))
		r.Get("/api/profile", handleGetProfile(deps))
		r.Post("/api/profile", handleUpdateProfile(deps))
		if deps.Events != nil {
			r.Get("/api/events", deps.Events.ServeHTTP)
		}
		r.Handle("/metrics", promhttp.Handler())
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// instrument records request counts and latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
