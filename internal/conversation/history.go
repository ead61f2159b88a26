// Package conversation holds the bounded message log of one session.
package conversation

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History keeps the most recent messages of a session, oldest first.
// It is safe for concurrent use.
type History struct {
	mu    sync.Mutex
	max   int
	msgs  []Message
	clock func() time.Time
}

// NewHistory returns a History that retains at most max messages.
// If max is <= 0, it defaults to 40.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 40
	}
	return &History{max: max, clock: time.Now}
}

// Add appends a message, evicting the oldest when full.
func (h *History) Add(role Role, content string) Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := Message{Role: role, Content: content, Timestamp: h.clock()}
	h.msgs = append(h.msgs, m)
	if over := len(h.msgs) - h.max; over > 0 {
		h.msgs = append(h.msgs[:0:0], h.msgs[over:]...)
	}
	return m
}

// Messages returns a copy of all retained messages.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.msgs...)
}

// Recent returns up to the last n messages.
func (h *History) Recent(n int) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n > len(h.msgs) {
		n = len(h.msgs)
	}
	return append([]Message(nil), h.msgs[len(h.msgs)-n:]...)
}

// Last returns the newest message, if any.
func (h *History) Last() (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.msgs) == 0 {
		return Message{}, false
	}
	return h.msgs[len(h.msgs)-1], true
}

// LastUser returns the newest user utterance, if any.
func (h *History) LastUser() (string, bool) {
	if u := h.contents(RoleUser, 1); len(u) == 1 {
		return u[0], true
	}
	return "", false
}

// UserMessages returns the content of every user message, oldest first.
func (h *History) UserMessages() []string {
	return h.contents(RoleUser, 0)
}

// LastAssistantReplies returns up to n assistant replies, oldest first.
func (h *History) LastAssistantReplies(n int) []string {
	return h.contents(RoleAssistant, n)
}

func (h *History) contents(role Role, limit int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for i := len(h.msgs) - 1; i >= 0; i-- {
		if h.msgs[i].Role != role {
			continue
		}
		out = append(out, h.msgs[i].Content)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = nil
}
