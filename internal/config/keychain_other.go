//go:build !darwin

package config

import (
	"fmt"
	"path/filepath"
)

// Without a system keychain, secrets live in a 0600 JSON file keyed by
// service, then account.
type secretFile map[string]map[string]string

func secretsPath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "secrets.json")
}

func keychainGet(service, account string) ([]byte, error) {
	var secrets secretFile
	if err := readJSONFile(secretsPath(), &secrets); err != nil {
		return nil, fmt.Errorf("reading secrets: %w", err)
	}
	val, ok := secrets[service][account]
	if !ok {
		return nil, fmt.Errorf("no secret stored for %s/%s", service, account)
	}
	return []byte(val), nil
}

func keychainSet(service, account, value string) error {
	path := secretsPath()
	secrets := secretFile{}
	if err := readJSONFile(path, &secrets); err != nil {
		return fmt.Errorf("reading secrets: %w", err)
	}
	if secrets[service] == nil {
		secrets[service] = map[string]string{}
	}
	secrets[service][account] = value
	return writeJSONFile(path, secrets)
}
