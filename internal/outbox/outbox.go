// Package outbox forwards memory notes to the remote memory service with
// at-least-once delivery. Notes are written to the SQLite jobs table and a
// polling Worker pushes them out, retrying with backoff.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/kindred/internal/metrics"
	"github.com/kalambet/kindred/internal/storage"
)

// JobType is the jobs-table type used for memory notes.
const JobType = "memory_sync"

// JobStore abstracts the job queue operations.
type JobStore interface {
	EnqueueJob(job storage.Job) error
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// MemoryStorer pushes one note to the remote memory service.
type MemoryStorer interface {
	StoreMemory(ctx context.Context, content string) error
}

type payload struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// Queue is the producer side.
type Queue struct {
	store JobStore
}

func NewQueue(store JobStore) *Queue {
	return &Queue{store: store}
}

// Enqueue records a note for delivery. kind labels the note's origin
// (session_summary, medication, preference, name).
func (q *Queue) Enqueue(kind, content string) error {
	if q == nil || q.store == nil {
		return nil
	}
	data, err := json.Marshal(payload{Kind: kind, Content: content})
	if err != nil {
		return fmt.Errorf("encoding outbox payload: %w", err)
	}
	return q.store.EnqueueJob(storage.Job{
		ID:          uuid.NewString(),
		Type:        JobType,
		PayloadJSON: string(data),
	})
}

// Worker delivers memory_sync jobs.
type Worker struct {
	store  JobStore
	storer MemoryStorer
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 2s.
func NewWorker(store JobStore, storer MemoryStorer, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Worker{
		store:  store,
		storer: storer,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("outbox iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and delivers a single job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.deliver(ctx, job); err != nil {
		metrics.OutboxDeliveries.WithLabelValues(metrics.OutcomeError).Inc()
		w.logger.Warn("memory sync failed", "job_id", job.ID, "attempt", job.Attempts+1, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	metrics.OutboxDeliveries.WithLabelValues(metrics.OutcomeOK).Inc()
	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) deliver(ctx context.Context, job *storage.Job) error {
	var p payload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if p.Content == "" {
		return nil
	}
	if err := w.storer.StoreMemory(ctx, p.Content); err != nil {
		return fmt.Errorf("storing %s memory: %w", p.Kind, err)
	}
	return nil
}
