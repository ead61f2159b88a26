//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// xdgDir returns the kindred directory under $env, or under the home
// directory joined with fallback when env is unset.
func xdgDir(env string, fallback ...string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "kindred-data"
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	return filepath.Join(base, "kindred")
}

func defaultDataDir() string { return xdgDir("XDG_DATA_HOME", ".local", "share") }

func apiKeyHint() string { return " or " + secretsPath() }

// readJSONFile decodes path into v. A missing file leaves v untouched.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSONFile replaces path with v, readable by the owner only.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// fileBackend keeps settings as one flat JSON object under
// $XDG_CONFIG_HOME/kindred/config.json.
type fileBackend struct {
	path   string
	values map[string]any
}

func newPlatformBackend() ConfigBackend {
	return openFileBackend(filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.json"))
}

func openFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, values: map[string]any{}}
	if err := readJSONFile(path, &b.values); err != nil {
		slog.Warn("ignoring unreadable config file, using defaults", "path", path, "error", err)
		b.values = map[string]any{}
	}
	return b
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return "", false, nil
	}
	if s, isString := v.(string); isString {
		return s, true, nil
	}
	return fmt.Sprint(v), true, nil
}

// GetInt accepts JSON numbers and numeric strings.
func (b *fileBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return 0, false, nil
	}
	var n int
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) || val < math.MinInt || val > math.MaxInt {
			return 0, true, fmt.Errorf("%s: %v is not an integer", key, val)
		}
		n = int(val)
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("%s: %w", key, err)
		}
		n = i
	default:
		return 0, true, fmt.Errorf("%s: unexpected %T value", key, v)
	}
	return n, true, nil
}

func (b *fileBackend) SetString(key, val string) error { return b.set(key, val) }

func (b *fileBackend) SetInt(key string, val int) error { return b.set(key, val) }

func (b *fileBackend) Delete(key string) error {
	delete(b.values, key)
	return writeJSONFile(b.path, b.values)
}

func (b *fileBackend) set(key string, val any) error {
	b.values[key] = val
	return writeJSONFile(b.path, b.values)
}
