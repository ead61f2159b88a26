// Package memory is the file-backed long-term store: one JSON document
// per category under a data directory.
//
// Reads never fail: an absent or corrupt document reads as empty. Writes
// replace the whole document. A Store serializes its own read-modify-write
// cycles, but two processes sharing a directory are not coordinated and
// can lose each other's updates.
package memory

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	profileFile     = "user_profile.json"
	medicationsFile = "medications.json"
	remindersFile   = "reminders.json"
	memoriesFile    = "memories.json"
	preferencesFile = "preferences.json"
	activityFile    = "activity_log.json"
	learningFile    = "emotional_learning.json"
)

// Timestamps are local wall-clock strings so same-day checks can compare
// date prefixes.
const (
	timestampLayout = "2006-01-02T15:04:05"
	dateLayout      = "2006-01-02"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Store struct {
	dir    string
	clock  Clock
	logger *slog.Logger

	mu sync.Mutex
}

// Open creates dir if needed and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	return OpenWithClock(dir, realClock{})
}

// OpenWithClock is Open with a custom clock (for testing).
func OpenWithClock(dir string, clock Clock) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating memory directory: %w", err)
	}
	return &Store{dir: dir, clock: clock, logger: slog.Default()}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

func (s *Store) now() time.Time { return s.clock.Now() }

func (s *Store) timestamp() string { return s.now().Format(timestampLayout) }

func (s *Store) today() string { return s.now().Format(dateLayout) }

// readDoc decodes name into doc. Missing and corrupt files leave doc at
// its zero value.
func readDoc[T any](s *Store, name string, doc *T) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading memory document", "file", name, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("corrupt memory document, treating as empty", "file", name, "error", err)
		var zero T
		*doc = zero
	}
}

// writeDoc replaces name with doc through a temp file rename.
func writeDoc(s *Store, name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

func shortID(prefix string) string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return prefix + hex.EncodeToString(b[:])
}

// --- Profile ---

// Profile is the free-form user profile document.
type Profile map[string]any

// String returns the profile value at key when it is a string.
func (p Profile) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Strings returns the profile value at key as a string slice.
func (p Profile) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// Contact is an emergency contact listed in the profile.
type Contact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship,omitempty"`
	IsPrimary    bool   `json:"is_primary,omitempty"`
}

func (s *Store) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile()
}

func (s *Store) profile() Profile {
	var p Profile
	readDoc(s, profileFile, &p)
	if p == nil {
		p = Profile{}
	}
	return p
}

func (s *Store) SaveProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = Profile{}
	}
	return writeDoc(s, profileFile, p)
}

// UpdateProfile sets a single profile key.
func (s *Store) UpdateProfile(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile()
	p[key] = value
	return writeDoc(s, profileFile, p)
}

// PrimaryContact returns the contact flagged primary, else the first.
func (s *Store) PrimaryContact() (Contact, bool) {
	raw, ok := s.Profile()["emergency_contacts"]
	if !ok {
		return Contact{}, false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Contact{}, false
	}
	var contacts []Contact
	if err := json.Unmarshal(data, &contacts); err != nil || len(contacts) == 0 {
		return Contact{}, false
	}
	for _, c := range contacts {
		if c.IsPrimary {
			return c, true
		}
	}
	return contacts[0], true
}

// --- Preferences ---

type PreferenceEntry struct {
	Value   any    `json:"value"`
	Updated string `json:"updated"`
}

// SetPreference stores value under key. Last write wins.
func (s *Store) SetPreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.preferences()
	prefs[key] = PreferenceEntry{Value: value, Updated: s.timestamp()}
	return writeDoc(s, preferencesFile, prefs)
}

// Preference returns the string value stored under key.
func (s *Store) Preference(key string) (string, bool) {
	e, ok := s.Preferences()[key]
	if !ok {
		return "", false
	}
	v, ok := e.Value.(string)
	return v, ok
}

func (s *Store) Preferences() map[string]PreferenceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences()
}

func (s *Store) preferences() map[string]PreferenceEntry {
	var prefs map[string]PreferenceEntry
	readDoc(s, preferencesFile, &prefs)
	if prefs == nil {
		prefs = make(map[string]PreferenceEntry)
	}
	return prefs
}
