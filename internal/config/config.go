package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// keychainService is the service name secrets are stored under.
const keychainService = "kindred"

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	LLM     LLMConfig
	TTS     TTSConfig
	STT     STTConfig
	Audio   AudioConfig
	Session SessionConfig
	Net     NetConfig
}

type ServerConfig struct {
	Bind     string
	Port     int
	APIToken string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type LLMConfig struct {
	TimeoutSeconds int
	MaxTokens      int
	Temperature    float64

	BackboardAPIKey  string
	BackboardBaseURL string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	GeminiAPIKey string
	GeminiModel  string

	OllamaURL   string
	OllamaModel string
}

// Timeout is the per-provider call budget.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type TTSConfig struct {
	GradiumAPIKey string
	GradiumURL    string
	GradiumVoice  string

	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	ElevenLabsModel  string
}

type STTConfig struct {
	GroqAPIKey string
	BaseURL    string
	Model      string
}

type AudioConfig struct {
	SampleRate       int
	SilenceSeconds   float64
	MaxRecordSeconds int
	Threshold        float64
}

type SessionConfig struct {
	HistorySize            int
	SilenceTimeoutSeconds  int
	GreetingWaitSeconds    int
	MonitorIntervalSeconds int
}

type NetConfig struct {
	SOCKSProxy string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			TimeoutSeconds:    15,
			MaxTokens:         400,
			Temperature:       0.7,
			BackboardBaseURL:  "https://app.backboard.io/api",
			OpenRouterBaseURL: "https://openrouter.ai/api/v1",
			OpenRouterModel:   "openrouter/auto",
			GeminiModel:       "gemini-2.5-flash",
			OllamaURL:         "http://localhost:11434",
		},
		TTS: TTSConfig{
			GradiumURL:      "https://eu.api.gradium.ai/api/post/speech/tts",
			GradiumVoice:    "KRo-uwfno-KcEgBM",
			ElevenLabsVoice: "21m00Tcm4TlvDq8ikWAM",
			ElevenLabsModel: "eleven_turbo_v2",
		},
		STT: STTConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "whisper-large-v3-turbo",
		},
		Audio: AudioConfig{
			SampleRate:       16000,
			SilenceSeconds:   2.0,
			MaxRecordSeconds: 60,
			Threshold:        0.015,
		},
		Session: SessionConfig{
			HistorySize:            40,
			SilenceTimeoutSeconds:  90,
			GreetingWaitSeconds:    15,
			MonitorIntervalSeconds: 30,
		},
	}
}

// Load reads configuration from a local .env file, the platform-native
// backend, environment variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.kindred.app) and secrets
// fall back to macOS Keychain (service: kindred).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/kindred/config.json
// and secrets fall back to $XDG_DATA_HOME/kindred/secrets.json.
//
// Environment variables (KINDRED_*) override backend values on all platforms.
func Load() (Config, error) {
	loadDotEnv(".env")
	return loadWith(newPlatformBackend(), keychainReader{})
}

// LoadPartial is Load without the provider requirement. Maintenance
// commands that only touch the local data directory use it.
func LoadPartial() (Config, error) {
	loadDotEnv(".env")
	return resolve(newPlatformBackend(), keychainReader{})
}

// loadDotEnv populates the process environment from path. Variables that
// are already set are left alone.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] could not load %s: %v\n", path, err)
	}
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

// ErrNoProvider is returned when no language model provider is configured.
var ErrNoProvider = errors.New("no LLM provider configured")

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg, err := resolve(b, kc)
	if err != nil {
		return Config{}, err
	}

	if !cfg.LLM.HasProvider() {
		msg := "set at least one of KINDRED_BACKBOARD_API_KEY, KINDRED_OPENROUTER_API_KEY, " +
			"KINDRED_GEMINI_API_KEY or KINDRED_OLLAMA_MODEL" + apiKeyHint()
		return Config{}, fmt.Errorf("%w: %s", ErrNoProvider, msg)
	}

	return cfg, nil
}

func resolve(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Secrets still empty after env come from the keychain.
	for _, s := range specs {
		if !s.secret || s.extract(cfg).(string) != "" {
			continue
		}
		if v, err := kc.Get(keychainService, secretAccount(s.key)); err == nil && v != "" {
			s.apply(&cfg, v)
		}
	}

	return cfg, nil
}

// HasProvider reports whether any completion backend can be reached.
func (c LLMConfig) HasProvider() bool {
	return c.BackboardAPIKey != "" || c.OpenRouterAPIKey != "" ||
		c.GeminiAPIKey != "" || c.OllamaModel != ""
}

// secretAccount maps "llm.openrouter_api_key" to "openrouter_api_key".
func secretAccount(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
