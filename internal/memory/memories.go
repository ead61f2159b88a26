package memory

import (
	"slices"
	"strings"
)

// Memory is a free-form note. The log is append-only and grows without
// bound.
type Memory struct {
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
}

type memoriesDoc struct {
	Memories []Memory `json:"memories"`
}

func (s *Store) memories() []Memory {
	var doc memoriesDoc
	readDoc(s, memoriesFile, &doc)
	return doc.Memories
}

// AddMemory appends a note. An empty source means "assistant".
func (s *Store) AddMemory(content, source string, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if source == "" {
		source = "assistant"
	}
	if tags == nil {
		tags = []string{}
	}
	mems := append(s.memories(), Memory{
		Timestamp: s.timestamp(),
		Source:    source,
		Content:   content,
		Tags:      tags,
	})
	return writeDoc(s, memoriesFile, memoriesDoc{Memories: mems})
}

// RecentMemories returns up to limit notes, newest first.
func (s *Store) RecentMemories(limit int) []Memory {
	s.mu.Lock()
	mems := s.memories()
	s.mu.Unlock()

	slices.Reverse(mems)
	if limit >= 0 && len(mems) > limit {
		mems = mems[:limit]
	}
	return mems
}

// SearchMemories matches query case-insensitively against content and tags.
func (s *Store) SearchMemories(query string) []Memory {
	s.mu.Lock()
	mems := s.memories()
	s.mu.Unlock()

	q := strings.ToLower(query)
	var out []Memory
	for _, m := range mems {
		if strings.Contains(strings.ToLower(m.Content), q) ||
			slices.ContainsFunc(m.Tags, func(t string) bool { return strings.Contains(strings.ToLower(t), q) }) {
			out = append(out, m)
		}
	}
	return out
}

// MemoriesByTag returns notes carrying exactly tag.
func (s *Store) MemoriesByTag(tag string) []Memory {
	s.mu.Lock()
	mems := s.memories()
	s.mu.Unlock()

	var out []Memory
	for _, m := range mems {
		if slices.Contains(m.Tags, tag) {
			out = append(out, m)
		}
	}
	return out
}

// ClearMemories empties the notes document.
func (s *Store) ClearMemories() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDoc(s, memoriesFile, memoriesDoc{Memories: []Memory{}})
}
