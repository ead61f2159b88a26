package config

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain map[string]string

func (m mockKeychain) Get(service, account string) (string, error) {
	if service != keychainService {
		return "", errors.New("wrong service")
	}
	v, ok := m[account]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

// memBackend is an in-memory ConfigBackend.
type memBackend map[string]string

func (m memBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(v)
	return i, true, err
}

func (m memBackend) SetString(key, val string) error {
	m[key] = val
	return nil
}

func (m memBackend) SetInt(key string, val int) error {
	m[key] = strconv.Itoa(val)
	return nil
}

func (m memBackend) Delete(key string) error {
	delete(m, key)
	return nil
}

type recordingWriter struct {
	service, account, value string
}

func (w *recordingWriter) Set(service, account, value string) error {
	w.service, w.account, w.value = service, account, value
	return nil
}

// clearEnv blanks every KINDRED_* variable so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(memBackend{}, mockKeychain{"openrouter_api_key": "kc-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.LLM.TimeoutSeconds != 15 {
		t.Errorf("LLM.TimeoutSeconds = %d, want 15", cfg.LLM.TimeoutSeconds)
	}
	if cfg.LLM.OpenRouterModel != "openrouter/auto" {
		t.Errorf("LLM.OpenRouterModel = %q, want %q", cfg.LLM.OpenRouterModel, "openrouter/auto")
	}
	if cfg.LLM.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("LLM.GeminiModel = %q, want %q", cfg.LLM.GeminiModel, "gemini-2.5-flash")
	}
	if cfg.Session.HistorySize != 40 {
		t.Errorf("Session.HistorySize = %d, want 40", cfg.Session.HistorySize)
	}
	if cfg.Session.SilenceTimeoutSeconds != 90 {
		t.Errorf("Session.SilenceTimeoutSeconds = %d, want 90", cfg.Session.SilenceTimeoutSeconds)
	}
	if cfg.Audio.SilenceSeconds != 2.0 {
		t.Errorf("Audio.SilenceSeconds = %v, want 2.0", cfg.Audio.SilenceSeconds)
	}
	if cfg.TTS.GradiumVoice != "KRo-uwfno-KcEgBM" {
		t.Errorf("TTS.GradiumVoice = %q", cfg.TTS.GradiumVoice)
	}
	if cfg.LLM.OpenRouterAPIKey != "kc-key" {
		t.Errorf("LLM.OpenRouterAPIKey = %q, want keychain value", cfg.LLM.OpenRouterAPIKey)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("KINDRED_OPENROUTER_API_KEY", "env-key")
	t.Setenv("KINDRED_SERVER_PORT", "5000")
	t.Setenv("KINDRED_LLM_TEMPERATURE", "0.3")

	b := memBackend{"server.port": "4200"}
	cfg, err := loadWith(b, mockKeychain{"openrouter_api_key": "kc-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.OpenRouterAPIKey != "env-key" {
		t.Errorf("OpenRouterAPIKey = %q, want %q", cfg.LLM.OpenRouterAPIKey, "env-key")
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature = %v, want 0.3", cfg.LLM.Temperature)
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := memBackend{
		"server.port":           "4200",
		"llm.ollama_model":      "llama3.2",
		"audio.silence_seconds": "1.5",
		"audio.threshold":       "not-a-float",
	}
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4200 {
		t.Errorf("Server.Port = %d, want 4200", cfg.Server.Port)
	}
	if cfg.LLM.OllamaModel != "llama3.2" {
		t.Errorf("LLM.OllamaModel = %q", cfg.LLM.OllamaModel)
	}
	if cfg.Audio.SilenceSeconds != 1.5 {
		t.Errorf("Audio.SilenceSeconds = %v, want 1.5", cfg.Audio.SilenceSeconds)
	}
	if cfg.Audio.Threshold != 0.015 {
		t.Errorf("Audio.Threshold = %v, want default after parse failure", cfg.Audio.Threshold)
	}
}

func TestInvalidEnvKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("KINDRED_GEMINI_API_KEY", "g")
	t.Setenv("KINDRED_LLM_TIMEOUT_SECONDS", "soon")

	cfg, err := loadWith(memBackend{}, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.TimeoutSeconds != 15 {
		t.Errorf("LLM.TimeoutSeconds = %d, want 15", cfg.LLM.TimeoutSeconds)
	}
}

func TestMissingProvider(t *testing.T) {
	clearEnv(t)

	_, err := loadWith(memBackend{}, mockKeychain{})
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
	if !strings.Contains(err.Error(), "KINDRED_OPENROUTER_API_KEY") {
		t.Errorf("error should name the env vars, got %q", err.Error())
	}
}

func TestResolveWithoutProvider(t *testing.T) {
	clearEnv(t)

	cfg, err := resolve(memBackend{}, mockKeychain{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.LLM.HasProvider() {
		t.Error("HasProvider() = true with nothing configured")
	}
}

func TestSetKey(t *testing.T) {
	b := memBackend{}
	w := &recordingWriter{}

	if err := setKeyWith(b, w, "server.port", "4300"); err != nil {
		t.Fatalf("setKeyWith port: %v", err)
	}
	if b["server.port"] != "4300" {
		t.Errorf("backend server.port = %q", b["server.port"])
	}

	if err := setKeyWith(b, w, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyWith(b, w, "llm.temperature", "warm"); err == nil {
		t.Error("expected error for non-float temperature")
	}
	if err := setKeyWith(b, w, "nope.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}

	if err := setKeyWith(b, w, "tts.elevenlabs_api_key", "secret"); err != nil {
		t.Fatalf("setKeyWith secret: %v", err)
	}
	if w.service != "kindred" || w.account != "elevenlabs_api_key" || w.value != "secret" {
		t.Errorf("secret written as %+v", *w)
	}
	if _, ok := b["tts.elevenlabs_api_key"]; ok {
		t.Error("secret leaked into the plain backend")
	}
}

func TestShowAllMasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.LLM.GeminiAPIKey = "abc"

	for _, info := range ShowAll(cfg) {
		switch info.Key {
		case "llm.gemini_api_key":
			if info.Value != "(set)" {
				t.Errorf("gemini key shown as %q", info.Value)
			}
		case "llm.openrouter_api_key":
			if info.Value != "(unset)" {
				t.Errorf("openrouter key shown as %q", info.Value)
			}
		case "server.port":
			if info.Value != "4100" {
				t.Errorf("server.port shown as %q", info.Value)
			}
		}
	}

	if _, err := GetKey(cfg, "llm.gemini_api_key"); err == nil {
		t.Error("GetKey should refuse secrets")
	}
	if v, err := GetKey(cfg, "stt.model"); err != nil || v != "whisper-large-v3-turbo" {
		t.Errorf("GetKey(stt.model) = %q, %v", v, err)
	}
}

func TestSecretAccount(t *testing.T) {
	tests := map[string]string{
		"llm.openrouter_api_key": "openrouter_api_key",
		"server.api_token":       "api_token",
		"plain":                  "plain",
	}
	for in, want := range tests {
		if got := secretAccount(in); got != want {
			t.Errorf("secretAccount(%q) = %q, want %q", in, got, want)
		}
	}
}
