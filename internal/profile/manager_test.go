package profile

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// --- Mock store ---

type mockStore struct {
	mu   sync.Mutex
	data map[string]string

	getAllCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) SetProfileKey(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockStore) GetProfileKey(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mockStore) GetAllProfileKeys() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAllCalls++
	cp := make(map[string]string, len(m.data))
	for k, v := range m.data {
		cp[k] = v
	}
	return cp, nil
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Tests ---

func TestGetProfile_Empty(t *testing.T) {
	mgr := NewManager(newMockStore())

	p, err := mgr.GetProfile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "" || len(p.Likes) != 0 || p.SessionCount != 0 {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestSetAndGetField(t *testing.T) {
	store := newMockStore()
	mgr := NewManager(store)

	if err := mgr.SetField(KeyLikes, []string{"tea", "walks"}); err != nil {
		t.Fatalf("SetField error: %v", err)
	}
	if store.data[KeyLikes] != `["tea","walks"]` {
		t.Errorf("stored value = %q", store.data[KeyLikes])
	}

	p, _ := mgr.GetProfile()
	if !reflect.DeepEqual(p.Likes, []string{"tea", "walks"}) {
		t.Errorf("Likes = %v", p.Likes)
	}
}

func TestMalformedKeyIgnored(t *testing.T) {
	store := newMockStore()
	store.data[KeyLikes] = "{not json"
	store.data[KeySessionCount] = "many"
	store.data[KeyName] = "Ada"

	p, err := NewManager(store).GetProfile()
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Ada" || p.Likes != nil || p.SessionCount != 0 {
		t.Errorf("profile = %+v", p)
	}
}

func TestMerge_AppendsNewAndCaps(t *testing.T) {
	mgr := NewManager(newMockStore())

	mgr.Merge(Update{Name: "Ada", Likes: []string{"tea"}})
	p, err := mgr.Merge(Update{Likes: []string{"tea", "walks", ""}, CommunicationStyle: "brief"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if p.Name != "Ada" || p.CommunicationStyle != "brief" {
		t.Errorf("scalars = %q, %q", p.Name, p.CommunicationStyle)
	}
	if !reflect.DeepEqual(p.Likes, []string{"tea", "walks"}) {
		t.Errorf("Likes = %v", p.Likes)
	}

	var many []string
	for i := 0; i < 25; i++ {
		many = append(many, fmt.Sprintf("fact %d", i))
	}
	p, _ = mgr.Merge(Update{ImportantFacts: many})
	if len(p.ImportantFacts) != 20 || p.ImportantFacts[0] != "fact 5" {
		t.Errorf("ImportantFacts = %d items starting %q", len(p.ImportantFacts), p.ImportantFacts[0])
	}

	// Empty name does not erase.
	p, _ = mgr.Merge(Update{})
	if p.Name != "Ada" {
		t.Errorf("Name = %q after empty merge", p.Name)
	}
}

func TestLearn(t *testing.T) {
	mgr := NewManager(newMockStore())

	changed, err := mgr.Learn("My name is ada and I really love gardening.", "happiness")
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	p, _ := mgr.GetProfile()
	if p.Name != "Ada" {
		t.Errorf("Name = %q", p.Name)
	}
	if !reflect.DeepEqual(p.Likes, []string{"gardening"}) {
		t.Errorf("Likes = %v", p.Likes)
	}
	if !reflect.DeepEqual(p.EmotionalPatterns, []string{"happiness"}) {
		t.Errorf("EmotionalPatterns = %v", p.EmotionalPatterns)
	}

	// Same emotion within the last five is not repeated; neutral is ignored.
	if changed, _ := mgr.Learn("nothing much", "happiness"); changed {
		t.Error("repeat emotion reported a change")
	}
	if changed, _ := mgr.Learn("nothing much", "neutral"); changed {
		t.Error("neutral reported a change")
	}

	mgr.Learn("I'm worried about money", "anxiety")
	p, _ = mgr.GetProfile()
	if p.Name != "Ada" {
		t.Errorf("Name overwritten with %q", p.Name)
	}
	if !reflect.DeepEqual(p.Concerns, []string{"money"}) {
		t.Errorf("Concerns = %v", p.Concerns)
	}
}

func TestLearn_EmotionalPatternsCapped(t *testing.T) {
	mgr := NewManager(newMockStore())
	emotions := []string{"sadness", "anxiety", "anger", "happiness", "distress", "hope"}
	for i := 0; i < 40; i++ {
		mgr.Learn("", emotions[i%len(emotions)])
	}
	p, _ := mgr.GetProfile()
	if len(p.EmotionalPatterns) != 30 {
		t.Errorf("len(EmotionalPatterns) = %d, want 30", len(p.EmotionalPatterns))
	}
}

func TestStartSession(t *testing.T) {
	store := newMockStore()
	mgr := NewManager(store)

	mgr.StartSession()
	n, err := mgr.StartSession()
	if err != nil || n != 2 {
		t.Errorf("StartSession = %d, %v; want 2", n, err)
	}
	if store.data[KeySessionCount] != "2" {
		t.Errorf("stored session_count = %q", store.data[KeySessionCount])
	}
}

func TestGetSummary(t *testing.T) {
	mgr := NewManager(newMockStore())

	if s, _ := mgr.GetSummary(); s != "" {
		t.Errorf("empty profile summary = %q", s)
	}

	mgr.Merge(Update{Name: "Ada", Likes: []string{"tea"}, CommunicationStyle: "brief"})
	s, err := mgr.GetSummary()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Their name is Ada.", "They enjoy: tea.", "Communication style: brief."} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q: %s", want, s)
		}
	}
}

func TestCacheTTL(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(store, clock, 60*time.Second)

	mgr.SetField(KeyName, "Ada")
	mgr.GetProfile()
	mgr.GetProfile()

	store.mu.Lock()
	calls := store.getAllCalls
	store.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 store call (cache hit on second), got %d", calls)
	}
}

func TestCacheInvalidation(t *testing.T) {
	store := newMockStore()
	clock := &mockClock{now: time.Now()}
	ttl := 60 * time.Second
	mgr := NewManagerWithClock(store, clock, ttl)

	mgr.SetField(KeyName, "Ada")
	mgr.GetProfile()

	clock.Advance(ttl + time.Second)
	mgr.GetProfile()

	store.mu.Lock()
	calls := store.getAllCalls
	store.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected 2 store calls (cache expired), got %d", calls)
	}
}

func TestGetProfile_ReturnsCopy(t *testing.T) {
	mgr := NewManager(newMockStore())
	mgr.Merge(Update{Likes: []string{"tea"}})

	p, _ := mgr.GetProfile()
	p.Likes[0] = "coffee"

	q, _ := mgr.GetProfile()
	if q.Likes[0] != "tea" {
		t.Error("GetProfile leaked the cached slice")
	}
}
