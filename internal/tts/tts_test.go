package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/kindred/internal/emotion"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fakeAudio = bytes.Repeat([]byte{0x52}, 512)

type stubProvider struct {
	name  string
	audio Audio
	err   error
	calls int
	text  string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Synthesize(_ context.Context, text string, _ emotion.Tone) (Audio, error) {
	s.calls++
	s.text = text
	return s.audio, s.err
}

func TestChain_FallsBack(t *testing.T) {
	bad := &stubProvider{name: "bad", err: errors.New("503")}
	good := &stubProvider{name: "good", audio: Audio{Data: fakeAudio, Format: "mp3"}}
	c := NewChain([]Provider{bad, good}, 0, quietLogger())

	a, err := c.Synthesize(context.Background(), "**Hello** there", emotion.ToneNeutral)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if a.Provider != "good" || a.ContentType() != "audio/mpeg" {
		t.Errorf("audio = %+v", a)
	}
	if good.text != "Hello there" {
		t.Errorf("text sent = %q, want cleaned text", good.text)
	}
}

func TestChain_AllFail(t *testing.T) {
	c := NewChain([]Provider{&stubProvider{name: "x", err: ErrAudioTooShort}}, 0, quietLogger())
	if _, err := c.Synthesize(context.Background(), "hi", emotion.ToneNeutral); !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}

func TestChain_ConsoleClosesChain(t *testing.T) {
	var out bytes.Buffer
	c := NewChain([]Provider{&stubProvider{name: "x", err: errors.New("down")}, NewConsole(&out)}, 0, quietLogger())

	a, err := c.Synthesize(context.Background(), "Time for a walk.", emotion.ToneHappiness)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if a.Provider != "Console" || len(a.Data) != 0 {
		t.Errorf("audio = %+v", a)
	}
	if out.String() != "[SPOKEN TEXT] Time for a walk.\n" {
		t.Errorf("console = %q", out.String())
	}
}

func TestChain_SynthesizeVoiceSkipsPlainProviders(t *testing.T) {
	plain := &stubProvider{name: "plain", audio: Audio{Data: fakeAudio}}
	c := NewChain([]Provider{plain, NewConsole(io.Discard)}, 0, quietLogger())
	if _, err := c.SynthesizeVoice(context.Background(), "hi", Voice{}); !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
	if plain.calls != 0 {
		t.Error("provider without voice support should be skipped")
	}
}

func TestGradium_Synthesize(t *testing.T) {
	var got gradiumRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "g-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(fakeAudio)
	}))
	defer srv.Close()

	g := NewGradium("g-key", srv.URL, "voice-1", srv.Client())
	a, err := g.Synthesize(context.Background(), "I'm here with you.", emotion.ToneDistress)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if a.Format != "wav" || len(a.Data) != len(fakeAudio) {
		t.Errorf("audio format=%q len=%d", a.Format, len(a.Data))
	}
	if got.VoiceID != "voice-1" || got.OutputFormat != "wav" {
		t.Errorf("request = %+v", got)
	}
	if got.JSONConfig != emotion.GradiumFor(emotion.ToneDistress) {
		t.Errorf("json_config = %+v", got.JSONConfig)
	}
}

func TestGradium_SynthesizeVoice(t *testing.T) {
	var got gradiumRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(fakeAudio)
	}))
	defer srv.Close()

	g := NewGradium("k", srv.URL, "default-voice", srv.Client())
	if _, err := g.SynthesizeVoice(context.Background(), "hi", Voice{ID: "picked", Speed: 0.2, Temp: 0.25}); err != nil {
		t.Fatal(err)
	}
	want := emotion.GradiumParams{PaddingBonus: 0.2, Temp: 0.25, CFGCoef: 1.2}
	if got.VoiceID != "picked" || got.JSONConfig != want {
		t.Errorf("request = %+v", got)
	}
}

func TestGradium_TooShort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	_, err := NewGradium("k", srv.URL, "v", srv.Client()).Synthesize(context.Background(), "hi", emotion.ToneNeutral)
	if !errors.Is(err, ErrAudioTooShort) {
		t.Errorf("err = %v, want ErrAudioTooShort", err)
	}
}

func TestElevenLabs_Synthesize(t *testing.T) {
	var got elevenLabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/el-voice" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "el-key" {
			t.Error("missing xi-api-key")
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(fakeAudio)
	}))
	defer srv.Close()

	e := NewElevenLabs("el-key", "el-voice", "eleven_turbo_v2", srv.Client())
	e.baseURL = srv.URL
	a, err := e.Synthesize(context.Background(), "hello", emotion.ToneHappiness)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if a.Format != "mp3" {
		t.Errorf("format = %q", a.Format)
	}
	if got.ModelID != "eleven_turbo_v2" || got.VoiceSettings != emotion.ElevenLabsFor(emotion.ToneHappiness) {
		t.Errorf("request = %+v", got)
	}
}

func TestElevenLabs_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewElevenLabs("k", "v", "m", srv.Client())
	e.baseURL = srv.URL
	_, err := e.Synthesize(context.Background(), "hi", emotion.ToneNeutral)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v", err)
	}
}

func TestCleanForSpeech(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"**bold** and *italic*", "bold and italic"},
		{"an _emphasis_ here", "an emphasis here"},
		{"snake_case_name stays", "snake_case_name stays"},
		{"# Title\nBody", "Title Body"},
		{"- one\n- two", "one two"},
		{"• dot bullet", "dot bullet"},
		{"see [the docs](http://x.y) now", "see the docs now"},
		{"run `ls`", "run ls"},
		{"too   many    spaces", "too many spaces"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := CleanForSpeech(tt.in); got != tt.want {
			t.Errorf("CleanForSpeech(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
