package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/kindred/internal/storage"
)

type fakeStorer struct {
	mu     sync.Mutex
	stored []string
	fails  int
}

func (f *fakeStorer) StoreMemory(_ context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("service unavailable")
	}
	f.stored = append(f.stored, content)
	return nil
}

func (f *fakeStorer) got() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stored...)
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func openTestStore(t *testing.T) (*storage.Store, *testClock) {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	clock := &testClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	s.SetClock(clock.now)
	return s, clock
}

func TestWorker_DeliversInOrder(t *testing.T) {
	store, _ := openTestStore(t)
	q := NewQueue(store)
	q.Enqueue("name", "User's preferred name is Ada")
	q.Enqueue("session_summary", "Session summary: quiet")

	storer := &fakeStorer{}
	w := NewWorker(store, storer, 0)
	for i := 0; i < 2; i++ {
		did, err := w.RunOnce(context.Background())
		if err != nil || !did {
			t.Fatalf("RunOnce %d = %v, %v", i, did, err)
		}
	}
	if did, _ := w.RunOnce(context.Background()); did {
		t.Error("RunOnce found work on an empty queue")
	}

	got := storer.got()
	if len(got) != 2 || got[0] != "User's preferred name is Ada" || got[1] != "Session summary: quiet" {
		t.Errorf("stored = %q", got)
	}
}

func TestWorker_RetriesUntilSuccess(t *testing.T) {
	store, clock := openTestStore(t)
	q := NewQueue(store)
	if err := q.Enqueue("medication", "User confirmed taking medication med-1 at 08:00"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	storer := &fakeStorer{fails: 2}
	w := NewWorker(store, storer, 0)
	ctx := context.Background()

	w.RunOnce(ctx) // attempt 1 fails, backoff 2s
	pending, _ := store.PendingJobs(JobType)
	if len(pending) != 1 || pending[0].Attempts != 1 {
		t.Fatalf("after first failure pending = %+v", pending)
	}

	// Still backing off.
	if did, _ := w.RunOnce(ctx); did {
		t.Fatal("job retried before backoff elapsed")
	}

	clock.t = clock.t.Add(2 * time.Second)
	w.RunOnce(ctx) // attempt 2 fails, backoff 4s
	clock.t = clock.t.Add(4 * time.Second)
	w.RunOnce(ctx) // attempt 3 succeeds

	if got := storer.got(); len(got) != 1 {
		t.Fatalf("stored = %q, want one delivery", got)
	}
	if pending, _ := store.PendingJobs(JobType); len(pending) != 0 {
		t.Errorf("pending after success = %+v", pending)
	}
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	store, clock := openTestStore(t)
	NewQueue(store).Enqueue("preference", "Likes tea")

	storer := &fakeStorer{fails: 100}
	w := NewWorker(store, storer, 0)
	for i := 0; i < 10; i++ {
		w.RunOnce(context.Background())
		clock.t = clock.t.Add(time.Minute)
	}

	if pending, _ := store.PendingJobs(JobType); len(pending) != 0 {
		t.Errorf("job still pending after max attempts: %+v", pending)
	}
	if len(storer.got()) != 0 {
		t.Error("unexpected delivery")
	}
}

func TestQueue_NilIsNoop(t *testing.T) {
	var q *Queue
	if err := q.Enqueue("x", "y"); err != nil {
		t.Errorf("nil queue Enqueue = %v", err)
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	store, _ := openTestStore(t)
	w := NewWorker(store, &fakeStorer{}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
