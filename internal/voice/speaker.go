// Package voice runs the two audio workers of a session: the Speaker
// that synthesizes and plays replies, and the Microphone that turns
// utterances into transcripts.
package voice

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/tts"
)

const speakQueueSize = 32

// Synthesizer produces speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, tone emotion.Tone) (tts.Audio, error)
}

// Player plays an encoded clip, blocking until done.
type Player interface {
	Play(ctx context.Context, data []byte, format string) error
}

// Pauser is what the Speaker needs from the microphone to avoid hearing
// itself.
type Pauser interface {
	Pause()
	Resume()
}

type utterance struct {
	text string
	tone emotion.Tone
	done chan struct{}
}

// Speaker plays queued utterances one at a time.
type Speaker struct {
	synth  Synthesizer
	player Player
	mic    Pauser
	logger *slog.Logger

	queue   chan utterance
	pending atomic.Int32 // queued plus in flight
}

func NewSpeaker(synth Synthesizer, player Player, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{
		synth:  synth,
		player: player,
		logger: logger,
		queue:  make(chan utterance, speakQueueSize),
	}
}

// SetMicrophone registers the microphone to pause during playback. Call
// before Run.
func (s *Speaker) SetMicrophone(p Pauser) { s.mic = p }

// Say queues text for playback. It never blocks; when the queue is full
// the utterance is dropped and logged.
func (s *Speaker) Say(text string, tone emotion.Tone) {
	s.enqueue(utterance{text: text, tone: tone})
}

// SayAndWait queues text and waits until it has been played, dropped by
// Drain, or ctx ends.
func (s *Speaker) SayAndWait(ctx context.Context, text string, tone emotion.Tone) error {
	done := make(chan struct{})
	if !s.enqueue(utterance{text: text, tone: tone, done: done}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Speaker) enqueue(u utterance) bool {
	s.pending.Add(1)
	select {
	case s.queue <- u:
		return true
	default:
		s.pending.Add(-1)
		s.logger.Warn("speech queue full, dropping", "text", u.text)
		return false
	}
}

// IsSpeaking reports whether anything is playing or waiting to play.
func (s *Speaker) IsSpeaking() bool {
	return s.pending.Load() > 0
}

// Drain drops queued utterances that have not started and returns how
// many were dropped.
func (s *Speaker) Drain() int {
	n := 0
	for {
		select {
		case u := <-s.queue:
			s.finish(u)
			n++
		default:
			return n
		}
	}
}

// Run is the playback worker. It returns when ctx ends.
func (s *Speaker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.Drain()
			return ctx.Err()
		case u := <-s.queue:
			s.speak(ctx, u)
		}
	}
}

func (s *Speaker) speak(ctx context.Context, u utterance) {
	defer s.finish(u)

	a, err := s.synth.Synthesize(ctx, u.text, u.tone)
	if err != nil {
		s.logger.Warn("speech synthesis failed", "error", err)
		return
	}
	if len(a.Data) == 0 {
		return
	}

	if s.mic != nil {
		s.mic.Pause()
		defer s.mic.Resume()
	}
	if err := s.player.Play(ctx, a.Data, a.Format); err != nil && ctx.Err() == nil {
		s.logger.Warn("playback failed", "provider", a.Provider, "error", err)
	}
}

func (s *Speaker) finish(u utterance) {
	s.pending.Add(-1)
	if u.done != nil {
		close(u.done)
	}
}
