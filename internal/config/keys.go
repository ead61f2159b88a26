package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.bind", typ: kString, env: "KINDRED_SERVER_BIND",
		apply:   func(cfg *Config, v any) { cfg.Server.Bind = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Bind },
	},
	{
		key: "server.port", typ: kInt, env: "KINDRED_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "KINDRED_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "storage.data_dir", typ: kString, env: "KINDRED_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "KINDRED_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "llm.timeout_seconds", typ: kInt, env: "KINDRED_LLM_TIMEOUT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.LLM.TimeoutSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.LLM.TimeoutSeconds },
	},
	{
		key: "llm.max_tokens", typ: kInt, env: "KINDRED_LLM_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.LLM.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.LLM.MaxTokens },
	},
	{
		key: "llm.temperature", typ: kFloat, env: "KINDRED_LLM_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.LLM.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.LLM.Temperature },
	},
	{
		key: "llm.backboard_api_key", typ: kString, env: "KINDRED_BACKBOARD_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.LLM.BackboardAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.BackboardAPIKey },
	},
	{
		key: "llm.backboard_base_url", typ: kString, env: "KINDRED_BACKBOARD_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.LLM.BackboardBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.BackboardBaseURL },
	},
	{
		key: "llm.openrouter_api_key", typ: kString, env: "KINDRED_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.LLM.OpenRouterAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.OpenRouterAPIKey },
	},
	{
		key: "llm.openrouter_base_url", typ: kString, env: "KINDRED_OPENROUTER_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.LLM.OpenRouterBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.OpenRouterBaseURL },
	},
	{
		key: "llm.openrouter_model", typ: kString, env: "KINDRED_OPENROUTER_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.OpenRouterModel = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.OpenRouterModel },
	},
	{
		key: "llm.gemini_api_key", typ: kString, env: "KINDRED_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.LLM.GeminiAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.GeminiAPIKey },
	},
	{
		key: "llm.gemini_model", typ: kString, env: "KINDRED_GEMINI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.GeminiModel = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.GeminiModel },
	},
	{
		key: "llm.ollama_url", typ: kString, env: "KINDRED_OLLAMA_URL",
		apply:   func(cfg *Config, v any) { cfg.LLM.OllamaURL = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.OllamaURL },
	},
	{
		key: "llm.ollama_model", typ: kString, env: "KINDRED_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.OllamaModel = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.OllamaModel },
	},
	{
		key: "tts.gradium_api_key", typ: kString, env: "KINDRED_GRADIUM_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.TTS.GradiumAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.TTS.GradiumAPIKey },
	},
	{
		key: "tts.gradium_url", typ: kString, env: "KINDRED_GRADIUM_URL",
		apply:   func(cfg *Config, v any) { cfg.TTS.GradiumURL = v.(string) },
		extract: func(cfg Config) any { return cfg.TTS.GradiumURL },
	},
	{
		key: "tts.gradium_voice", typ: kString, env: "KINDRED_GRADIUM_VOICE",
		apply:   func(cfg *Config, v any) { cfg.TTS.GradiumVoice = v.(string) },
		extract: func(cfg Config) any { return cfg.TTS.GradiumVoice },
	},
	{
		key: "tts.elevenlabs_api_key", typ: kString, env: "KINDRED_ELEVENLABS_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.TTS.ElevenLabsAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.TTS.ElevenLabsAPIKey },
	},
	{
		key: "tts.elevenlabs_voice", typ: kString, env: "KINDRED_ELEVENLABS_VOICE",
		apply:   func(cfg *Config, v any) { cfg.TTS.ElevenLabsVoice = v.(string) },
		extract: func(cfg Config) any { return cfg.TTS.ElevenLabsVoice },
	},
	{
		key: "tts.elevenlabs_model", typ: kString, env: "KINDRED_ELEVENLABS_MODEL",
		apply:   func(cfg *Config, v any) { cfg.TTS.ElevenLabsModel = v.(string) },
		extract: func(cfg Config) any { return cfg.TTS.ElevenLabsModel },
	},
	{
		key: "stt.groq_api_key", typ: kString, env: "KINDRED_GROQ_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.STT.GroqAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.STT.GroqAPIKey },
	},
	{
		key: "stt.base_url", typ: kString, env: "KINDRED_STT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.STT.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.STT.BaseURL },
	},
	{
		key: "stt.model", typ: kString, env: "KINDRED_STT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.STT.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.STT.Model },
	},
	{
		key: "audio.sample_rate", typ: kInt, env: "KINDRED_AUDIO_SAMPLE_RATE",
		apply:   func(cfg *Config, v any) { cfg.Audio.SampleRate = v.(int) },
		extract: func(cfg Config) any { return cfg.Audio.SampleRate },
	},
	{
		key: "audio.silence_seconds", typ: kFloat, env: "KINDRED_AUDIO_SILENCE_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Audio.SilenceSeconds = v.(float64) },
		extract: func(cfg Config) any { return cfg.Audio.SilenceSeconds },
	},
	{
		key: "audio.max_record_seconds", typ: kInt, env: "KINDRED_AUDIO_MAX_RECORD_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Audio.MaxRecordSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Audio.MaxRecordSeconds },
	},
	{
		key: "audio.threshold", typ: kFloat, env: "KINDRED_AUDIO_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Audio.Threshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Audio.Threshold },
	},
	{
		key: "session.history_size", typ: kInt, env: "KINDRED_SESSION_HISTORY_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Session.HistorySize = v.(int) },
		extract: func(cfg Config) any { return cfg.Session.HistorySize },
	},
	{
		key: "session.silence_timeout_seconds", typ: kInt, env: "KINDRED_SESSION_SILENCE_TIMEOUT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Session.SilenceTimeoutSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Session.SilenceTimeoutSeconds },
	},
	{
		key: "session.greeting_wait_seconds", typ: kInt, env: "KINDRED_SESSION_GREETING_WAIT_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Session.GreetingWaitSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Session.GreetingWaitSeconds },
	},
	{
		key: "session.monitor_interval_seconds", typ: kInt, env: "KINDRED_SESSION_MONITOR_INTERVAL_SECONDS",
		apply:   func(cfg *Config, v any) { cfg.Session.MonitorIntervalSeconds = v.(int) },
		extract: func(cfg Config) any { return cfg.Session.MonitorIntervalSeconds },
	},
	{
		key: "net.socks_proxy", typ: kString, env: "KINDRED_SOCKS_PROXY",
		apply:   func(cfg *Config, v any) { cfg.Net.SOCKSProxy = v.(string) },
		extract: func(cfg Config) any { return cfg.Net.SOCKSProxy },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}
		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (raw == "" && s.typ != kString) {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse %s from config key %s=%q: %v. Using default value.\n", s.typ, s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse %s from env var %s=%q: %v. Using default value.\n", s.typ, s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}

func parseValue(typ keyType, raw string) (any, error) {
	switch typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

func (t keyType) String() string {
	switch t {
	case kInt:
		return "integer"
	case kBool:
		return "bool"
	case kFloat:
		return "float"
	default:
		return "string"
	}
}
