package api

import (
	"strings"
	"testing"
	"time"

	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/profile"
	"github.com/kalambet/kindred/internal/storage"
)

type recordingChatLog struct {
	entries []storage.ChatEntry
	trims   []int
}

func (r *recordingChatLog) AppendChat(role, content string, _ time.Time) error {
	r.entries = append(r.entries, storage.ChatEntry{Seq: int64(len(r.entries) + 1), Role: role, Content: content})
	return nil
}

func (r *recordingChatLog) RecentChat(limit int) ([]storage.ChatEntry, error) {
	if len(r.entries) > limit {
		return r.entries[len(r.entries)-limit:], nil
	}
	return r.entries, nil
}

func (r *recordingChatLog) TrimChat(keep int) error {
	r.trims = append(r.trims, keep)
	return nil
}

func TestMergeHistory(t *testing.T) {
	long := strings.Repeat("x", 100)
	persistent := []llm.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: long + " from yesterday"},
	}
	var session []llm.Message
	for i := range 14 {
		session = append(session, llm.Message{Role: "user", Content: string(rune('a' + i))})
	}
	session = append(session[:13], llm.Message{Role: "assistant", Content: long + " from today"})

	got := mergeHistory(persistent, session)

	// 2 persistent, 12 session minus the one sharing a 100-char prefix.
	if len(got) != 13 {
		t.Fatalf("len = %d, want 13: %+v", len(got), got)
	}
	if got[0].Content != "hello" || got[2].Content != "c" {
		t.Errorf("order wrong: %+v", got[:3])
	}
	for _, m := range got {
		if strings.HasSuffix(m.Content, "from today") {
			t.Error("message with duplicate prefix kept")
		}
	}
}

func TestMergeHistory_NormalizesRoles(t *testing.T) {
	got := mergeHistory(nil, []llm.Message{{Role: "system", Content: "sneaky"}, {Role: "assistant", Content: "ok"}})
	if got[0].Role != "user" || got[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", got[0].Role, got[1].Role)
	}
}

func TestWebState_SessionAndSeedName(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	pm := profile.NewManager(store)

	s, err := NewWebState(pm, store, "Rosa", nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Session() != 1 {
		t.Errorf("session = %d, want 1", s.Session())
	}

	s, err = NewWebState(pm, store, "Someone Else", nil)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := pm.GetProfile()
	if s.Session() != 2 || p.SessionCount != 2 {
		t.Errorf("session = %d, count = %d, want 2", s.Session(), p.SessionCount)
	}
	if p.Name != "Rosa" {
		t.Errorf("name = %q, want the first seed kept", p.Name)
	}
}

func TestWebState_RecordTrims(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	log := &recordingChatLog{}
	s, err := NewWebState(profile.NewManager(store), log, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record("hi", "hey"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if len(log.entries) != 2 || log.entries[0].Role != "user" || log.entries[1].Role != "assistant" {
		t.Errorf("entries = %+v", log.entries)
	}
	// startup, record, close
	if len(log.trims) != 3 || log.trims[1] != ChatLogSize {
		t.Errorf("trims = %v, want three trims to %d", log.trims, ChatLogSize)
	}
}

func TestStorageChatLogTrimsToSize(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	s, err := NewWebState(profile.NewManager(store), store, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	for range ChatLogSize/2 + 5 {
		if err := s.Record("u", "a"); err != nil {
			t.Fatal(err)
		}
	}
	all, err := store.RecentChat(ChatLogSize * 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != ChatLogSize {
		t.Errorf("chat log = %d entries, want %d", len(all), ChatLogSize)
	}
}
