// Package device binds the audio pipeline to the sound hardware through
// portaudio for capture and beep for playback.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/kalambet/kindred/internal/audio"
)

// Recorder captures utterances from the default input device.
type Recorder struct {
	sampleRate int
	cfg        audio.DetectorConfig

	mu     sync.Mutex
	inited bool
}

// NewRecorder returns a recorder for mono capture at sampleRate.
func NewRecorder(sampleRate int, cfg audio.DetectorConfig) *Recorder {
	if cfg.ListenTimeout == 0 {
		cfg.ListenTimeout = audio.DefaultListenTimeout
	}
	return &Recorder{sampleRate: sampleRate, cfg: cfg}
}

func (r *Recorder) init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inited {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	r.inited = true
	return nil
}

// Close releases the audio subsystem if Record ever opened it.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inited {
		return nil
	}
	r.inited = false
	return portaudio.Terminate()
}

// Record blocks until one utterance is captured and returns it as WAV.
// It returns audio.ErrListenTimeout when nobody speaks, and ctx.Err() when ctx
// is cancelled between frames.
func (r *Recorder) Record(ctx context.Context) ([]byte, error) {
	if err := r.init(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	frame := make([]float32, r.sampleRate*int(audio.FrameDuration/time.Millisecond)/1000)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(frame), frame)
	if err != nil {
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop()

	det := audio.NewDetector(r.cfg)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch det.Feed(frame) {
		case audio.Done:
			return audio.EncodeWAV(det.Samples(), r.sampleRate)
		case audio.TimedOut:
			return nil, audio.ErrListenTimeout
		}
	}
}
