package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/kindred/internal/intent"
)

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SetProfileKey(key, value string) error
	GetProfileKey(key string) (string, error)
	GetAllProfileKeys() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached, structured access to the user profile stored in SQLite.
type Manager struct {
	store ProfileStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store ProfileStore) *Manager {
	return &Manager{
		store: store,
		clock: realClock{},
		ttl:   60 * time.Second,
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// GetProfile reads all profile keys from storage (or cache) and assembles
// a structured Profile. Returns a zero-value Profile on empty store.
func (m *Manager) GetProfile() (Profile, error) {
	m.mu.RLock()
	if m.fresh() {
		p := deepCopyProfile(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.load()
	if err != nil {
		return Profile{}, err
	}
	return deepCopyProfile(&p), nil
}

func (m *Manager) fresh() bool {
	return m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl))
}

// load must be called with m.mu held for writing.
func (m *Manager) load() (Profile, error) {
	if m.fresh() {
		return *m.cached, nil
	}
	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys: %w", err)
	}
	p := buildProfile(keys)
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return p, nil
}

// SetField persists a profile key and invalidates the cache.
func (m *Manager) SetField(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setLocked(key, value); err != nil {
		return err
	}
	m.cached = nil
	return nil
}

func (m *Manager) setLocked(key string, value any) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling value for key %q: %w", key, err)
		}
		str = string(b)
	}
	if err := m.store.SetProfileKey(key, str); err != nil {
		return fmt.Errorf("setting profile key %q: %w", key, err)
	}
	return nil
}

// update applies fn to the current profile and writes back the keys it
// reports as changed.
func (m *Manager) update(fn func(p *Profile) []string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load()
	if err != nil {
		return Profile{}, err
	}
	p = deepCopyProfile(&p)
	changed := fn(&p)
	for _, key := range changed {
		if err := m.setLocked(key, fieldValue(&p, key)); err != nil {
			m.cached = nil
			return Profile{}, err
		}
	}
	if len(changed) > 0 {
		m.cached = &p
		m.cachedAt = m.clock.Now()
	}
	return deepCopyProfile(&p), nil
}

// Merge folds a client update into the profile. Lists keep their newest
// 20 entries.
func (m *Manager) Merge(u Update) (Profile, error) {
	return m.update(func(p *Profile) []string {
		var changed []string
		if u.Name != "" {
			p.Name = u.Name
			changed = append(changed, KeyName)
		}
		if u.CommunicationStyle != "" {
			p.CommunicationStyle = u.CommunicationStyle
			changed = append(changed, KeyCommunicationStyle)
		}
		lists := []struct {
			key   string
			dst   *[]string
			items []string
		}{
			{KeyLikes, &p.Likes, u.Likes},
			{KeyDislikes, &p.Dislikes, u.Dislikes},
			{KeyValues, &p.Values, u.Values},
			{KeyConcerns, &p.Concerns, u.Concerns},
			{KeyPersonalityTraits, &p.PersonalityTraits, u.PersonalityTraits},
			{KeyComfortPreferences, &p.ComfortPreferences, u.ComfortPreferences},
			{KeyImportantFacts, &p.ImportantFacts, u.ImportantFacts},
		}
		for _, l := range lists {
			if l.items == nil {
				continue
			}
			*l.dst = appendNew(*l.dst, maxMerged, l.items...)
			changed = append(changed, l.key)
		}
		return changed
	})
}

// Learn records what a single chat message reveals: a name, facts, and
// a non-neutral emotion. It reports whether anything changed.
func (m *Manager) Learn(message, emotion string) (bool, error) {
	name, hasName := intent.ExtractName(message)
	facts := intent.ExtractFacts(message)

	var learned bool
	_, err := m.update(func(p *Profile) []string {
		var changed []string
		if hasName && p.Name != name {
			p.Name = name
			changed = append(changed, KeyName)
		}
		add := func(key string, dst *[]string, max int, items []string) {
			before := len(*dst)
			next := appendNew(*dst, max, items...)
			if len(next) != before || !slices.Equal(next, *dst) {
				*dst = next
				changed = append(changed, key)
			}
		}
		add(KeyLikes, &p.Likes, maxLikes, facts.Likes)
		add(KeyDislikes, &p.Dislikes, maxDislikes, facts.Dislikes)
		add(KeyConcerns, &p.Concerns, maxConcerns, facts.Concerns)
		add(KeyValues, &p.Values, maxValues, facts.Values)

		if emotion != "" && emotion != "neutral" && !slices.Contains(tail(p.EmotionalPatterns, 5), emotion) {
			p.EmotionalPatterns = capTail(append(p.EmotionalPatterns, emotion), maxPatterns)
			changed = append(changed, KeyEmotionalPatterns)
		}
		learned = len(changed) > 0
		return changed
	})
	if err != nil {
		return false, err
	}
	if learned {
		slog.Debug("profile updated from chat", "name", name)
	}
	return learned, nil
}

// StartSession increments the session counter.
func (m *Manager) StartSession() (int, error) {
	p, err := m.update(func(p *Profile) []string {
		p.SessionCount++
		return []string{KeySessionCount}
	})
	return p.SessionCount, err
}

// GetSummary returns the natural-language description of the profile
// used in the web system prompt, or "" when nothing is known.
func (m *Manager) GetSummary() (string, error) {
	p, err := m.GetProfile()
	if err != nil {
		return "", fmt.Errorf("getting profile for summary: %w", err)
	}
	return summarize(p), nil
}

func summarize(p Profile) string {
	if p.Name == "" && len(p.Likes)+len(p.Dislikes)+len(p.Concerns)+len(p.Values)+
		len(p.PersonalityTraits)+len(p.ImportantFacts) == 0 {
		return ""
	}

	var parts []string
	if p.Name != "" {
		parts = append(parts, fmt.Sprintf("Their name is %s.", p.Name))
	}
	list := func(label string, items []string, n int) {
		if len(items) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s.", label, strings.Join(tail(items, n), ", ")))
		}
	}
	list("They enjoy", p.Likes, 8)
	list("They dislike", p.Dislikes, 5)
	list("They value", p.Values, 5)
	list("Current concerns", p.Concerns, 5)
	list("Personality", p.PersonalityTraits, 5)
	if p.CommunicationStyle != "" {
		parts = append(parts, fmt.Sprintf("Communication style: %s.", p.CommunicationStyle))
	}
	list("They feel comforted by", p.ComfortPreferences, 5)
	list("Key facts", p.ImportantFacts, 8)
	list("Recent emotional patterns", p.EmotionalPatterns, 5)

	return strings.Join(parts, " ")
}

func tail(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func capTail(s []string, n int) []string {
	if len(s) > n {
		return slices.Clone(s[len(s)-n:])
	}
	return s
}

// appendNew appends items not already present and keeps the newest max.
func appendNew(dst []string, max int, items ...string) []string {
	for _, it := range items {
		if it != "" && !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return capTail(dst, max)
}

func fieldValue(p *Profile, key string) any {
	switch key {
	case KeyName:
		return p.Name
	case KeyCommunicationStyle:
		return p.CommunicationStyle
	case KeySessionCount:
		return strconv.Itoa(p.SessionCount)
	case KeyLikes:
		return nonNil(p.Likes)
	case KeyDislikes:
		return nonNil(p.Dislikes)
	case KeyValues:
		return nonNil(p.Values)
	case KeyConcerns:
		return nonNil(p.Concerns)
	case KeyPersonalityTraits:
		return nonNil(p.PersonalityTraits)
	case KeyEmotionalPatterns:
		return nonNil(p.EmotionalPatterns)
	case KeyComfortPreferences:
		return nonNil(p.ComfortPreferences)
	case KeyImportantFacts:
		return nonNil(p.ImportantFacts)
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func deepCopyProfile(p *Profile) Profile {
	if p == nil {
		return Profile{}
	}
	cp := *p
	cp.Likes = slices.Clone(p.Likes)
	cp.Dislikes = slices.Clone(p.Dislikes)
	cp.Values = slices.Clone(p.Values)
	cp.Concerns = slices.Clone(p.Concerns)
	cp.PersonalityTraits = slices.Clone(p.PersonalityTraits)
	cp.EmotionalPatterns = slices.Clone(p.EmotionalPatterns)
	cp.ComfortPreferences = slices.Clone(p.ComfortPreferences)
	cp.ImportantFacts = slices.Clone(p.ImportantFacts)
	return cp
}

// buildProfile assembles a Profile from flat key-value pairs.
// List values are stored as JSON arrays.
func buildProfile(keys map[string]string) Profile {
	var p Profile

	p.Name = keys[KeyName]
	p.CommunicationStyle = keys[KeyCommunicationStyle]
	if v, ok := keys[KeySessionCount]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.SessionCount = n
		} else {
			slog.Warn("malformed profile key, skipping", "key", KeySessionCount, "error", err)
		}
	}

	unmarshalProfileKey(keys, KeyLikes, &p.Likes)
	unmarshalProfileKey(keys, KeyDislikes, &p.Dislikes)
	unmarshalProfileKey(keys, KeyValues, &p.Values)
	unmarshalProfileKey(keys, KeyConcerns, &p.Concerns)
	unmarshalProfileKey(keys, KeyPersonalityTraits, &p.PersonalityTraits)
	unmarshalProfileKey(keys, KeyEmotionalPatterns, &p.EmotionalPatterns)
	unmarshalProfileKey(keys, KeyComfortPreferences, &p.ComfortPreferences)
	unmarshalProfileKey(keys, KeyImportantFacts, &p.ImportantFacts)

	return p
}

// unmarshalProfileKey unmarshals a JSON value from keys into target, logging
// a warning if the value is present but malformed.
func unmarshalProfileKey(keys map[string]string, key string, target any) {
	v, ok := keys[key]
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		slog.Warn("malformed profile key, skipping", "key", key, "error", err)
	}
}
