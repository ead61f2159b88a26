package config

import (
	"fmt"
	"strconv"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
	Secret bool
}

// ShowAll returns all config key/value pairs from the current config.
// Secret values are reported only as set or unset.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		info := KeyInfo{Key: s.key, EnvVar: s.env, Secret: s.secret}
		switch {
		case !s.secret:
			info.Value = fmt.Sprintf("%v", s.extract(cfg))
		case s.extract(cfg).(string) != "":
			info.Value = "(set)"
		default:
			info.Value = "(unset)"
		}
		result = append(result, info)
	}
	return result
}

// GetKey returns the resolved value of a single non-secret key.
func GetKey(cfg Config, key string) (string, error) {
	s, ok := lookup(key)
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return "", fmt.Errorf("%q is a secret and cannot be printed", key)
	}
	return fmt.Sprintf("%v", s.extract(cfg)), nil
}

// SetKey writes a config key to the platform backend, or to the platform
// secret store when the key is a secret.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), keychainWriter{}, key, value)
}

type secretWriter interface {
	Set(service, account, value string) error
}

func setKeyWith(b ConfigBackend, w secretWriter, key, value string) error {
	s, ok := lookup(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return w.Set(keychainService, secretAccount(key), value)
	}
	switch s.typ {
	case kInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		return b.SetInt(key, i)
	case kBool, kFloat:
		if _, err := parseValue(s.typ, value); err != nil {
			return fmt.Errorf("invalid %s value for %s: %w", s.typ, key, err)
		}
	}
	return b.SetString(key, value)
}

// ValidKeys returns the list of config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}

func lookup(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

type keychainWriter struct{}

func (keychainWriter) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}
