package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// playbackRate is the fixed output rate; clips are resampled to it so
// the speaker is initialized once.
const playbackRate = beep.SampleRate(44100)

// Player plays WAV and MP3 clips through the default output device.
type Player struct {
	initOnce sync.Once
	initErr  error
}

func NewPlayer() *Player { return &Player{} }

func (p *Player) init() error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(playbackRate, playbackRate.N(time.Second/10))
	})
	return p.initErr
}

// Play blocks until the clip has played or ctx is cancelled, in which
// case playback stops immediately.
func (p *Player) Play(ctx context.Context, data []byte, format string) error {
	if len(data) == 0 {
		return nil
	}
	if err := p.init(); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
		err      error
	)
	switch format {
	case "mp3":
		streamer, f, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		streamer, f, err = wav.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", format, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if f.SampleRate != playbackRate {
		s = beep.Resample(4, f.SampleRate, playbackRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
