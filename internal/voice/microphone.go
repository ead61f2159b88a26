package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kalambet/kindred/internal/audio"
	"github.com/kalambet/kindred/internal/stt"
)

const (
	transcriptQueueSize = 16
	pausePoll           = 100 * time.Millisecond
	errorBackoff        = 500 * time.Millisecond
	defaultSTTTimeout   = 20 * time.Second
)

// Recorder captures one utterance as WAV.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

// Microphone records and transcribes utterances until its context ends.
type Microphone struct {
	rec        Recorder
	stt        stt.Transcriber
	sttTimeout time.Duration
	logger     *slog.Logger

	out    chan string
	paused atomic.Bool

	// epoch counts pauses; a capture spanning a pause is discarded.
	epoch     atomic.Uint64
	mu        sync.Mutex
	cancelRec context.CancelFunc
}

func NewMicrophone(rec Recorder, tr stt.Transcriber, logger *slog.Logger) *Microphone {
	if logger == nil {
		logger = slog.Default()
	}
	return &Microphone{
		rec:        rec,
		stt:        tr,
		sttTimeout: defaultSTTTimeout,
		logger:     logger,
		out:        make(chan string, transcriptQueueSize),
	}
}

// Transcripts delivers recognized text in the order it was spoken.
func (m *Microphone) Transcripts() <-chan string { return m.out }

// Pause stops capture and abandons any recording in progress.
func (m *Microphone) Pause() {
	m.paused.Store(true)
	m.epoch.Add(1)
	m.mu.Lock()
	if m.cancelRec != nil {
		m.cancelRec()
	}
	m.mu.Unlock()
}

func (m *Microphone) Resume()        { m.paused.Store(false) }
func (m *Microphone) IsPaused() bool { return m.paused.Load() }

// ClearQueue discards transcripts not yet consumed.
func (m *Microphone) ClearQueue() {
	for {
		select {
		case <-m.out:
		default:
			return
		}
	}
}

// Run is the capture worker.
func (m *Microphone) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.paused.Load() {
			sleep(ctx, pausePoll)
			continue
		}

		epoch := m.epoch.Load()
		wav, err := m.record(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case m.epoch.Load() != epoch:
			// Playback started while we were listening.
			continue
		case errors.Is(err, audio.ErrListenTimeout):
			continue
		case err != nil:
			m.logger.Warn("recording failed", "error", err)
			sleep(ctx, errorBackoff)
			continue
		}
		text, err := m.transcribe(ctx, wav)
		if err != nil {
			if !quietError(err) {
				m.logger.Warn("transcription failed", "error", err)
			}
			continue
		}
		m.logger.Debug("heard", "text", text)

		select {
		case m.out <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Microphone) record(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.cancelRec = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.cancelRec = nil
		m.mu.Unlock()
	}()

	return m.rec.Record(ctx)
}

func (m *Microphone) transcribe(ctx context.Context, wav []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.sttTimeout)
	defer cancel()
	return m.stt.Transcribe(ctx, wav)
}

// quietError reports errors that are part of normal listening.
func quietError(err error) bool {
	return errors.Is(err, stt.ErrNoSpeech) ||
		errors.Is(err, stt.ErrAudioTooShort) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
