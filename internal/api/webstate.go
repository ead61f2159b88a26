package api

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/profile"
	"github.com/kalambet/kindred/internal/storage"
)

// ChatLogSize is how many chat messages survive in SQLite.
const ChatLogSize = 400

const (
	persistentContext = 6
	sessionContext    = 12
	dedupePrefix      = 100
)

// ChatLog is the persistent conversation log. Implemented by storage.Store.
type ChatLog interface {
	AppendChat(role, content string, createdAt time.Time) error
	RecentChat(limit int) ([]storage.ChatEntry, error)
	TrimChat(keep int) error
}

// WebState owns what the web companion remembers between requests: the
// profile and the chat log. It is safe for concurrent use.
type WebState struct {
	mu      sync.Mutex
	profile *profile.Manager
	chat    ChatLog
	session int
	logger  *slog.Logger
}

// NewWebState loads the state and counts a new session. seedName, if
// set, becomes the profile name when none is known yet.
func NewWebState(pm *profile.Manager, chat ChatLog, seedName string, logger *slog.Logger) (*WebState, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &WebState{profile: pm, chat: chat, logger: logger}

	if seedName != "" {
		p, err := pm.GetProfile()
		if err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		if p.Name == "" {
			if _, err := pm.Merge(profile.Update{Name: seedName}); err != nil {
				return nil, fmt.Errorf("seeding profile name: %w", err)
			}
		}
	}

	n, err := pm.StartSession()
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	s.session = n
	if err := chat.TrimChat(ChatLogSize); err != nil {
		return nil, fmt.Errorf("trimming chat log: %w", err)
	}
	logger.Info("web state loaded", "session", n)
	return s, nil
}

// Session returns the session number counted at startup.
func (s *WebState) Session() int { return s.session }

// Profile returns the profile manager.
func (s *WebState) Profile() *profile.Manager { return s.profile }

// Context merges the persistent log tail with the client's session
// history, older first. Messages whose first 100 characters were already
// seen are dropped.
func (s *WebState) Context(session []llm.Message) []llm.Message {
	s.mu.Lock()
	entries, err := s.chat.RecentChat(persistentContext)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("reading chat log", "error", err)
	}

	persistent := make([]llm.Message, len(entries))
	for i, e := range entries {
		persistent[i] = llm.Message{Role: e.Role, Content: e.Content}
	}
	return mergeHistory(persistent, session)
}

func mergeHistory(persistent, session []llm.Message) []llm.Message {
	if len(session) > sessionContext {
		session = session[len(session)-sessionContext:]
	}

	seen := make(map[string]bool)
	var out []llm.Message
	for _, m := range append(append([]llm.Message(nil), persistent...), session...) {
		key := prefix(m.Content, dedupePrefix)
		if seen[key] {
			continue
		}
		seen[key] = true
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// Record appends one exchange to the chat log and trims it.
func (s *WebState) Record(user, reply string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chat.AppendChat("user", user, time.Time{}); err != nil {
		return fmt.Errorf("appending user message: %w", err)
	}
	if err := s.chat.AppendChat("assistant", reply, time.Time{}); err != nil {
		return fmt.Errorf("appending reply: %w", err)
	}
	return s.chat.TrimChat(ChatLogSize)
}

// Close flushes the chat log.
func (s *WebState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.TrimChat(ChatLogSize)
}
