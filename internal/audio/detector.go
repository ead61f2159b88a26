package audio

import (
	"errors"
	"math"
	"time"
)

const (
	// FrameDuration is the capture frame length.
	FrameDuration = 20 * time.Millisecond
	// DefaultListenTimeout bounds the wait for speech to start.
	DefaultListenTimeout = 10 * time.Second
)

// ErrListenTimeout means nobody spoke before the listen timeout.
var ErrListenTimeout = errors.New("no speech before timeout")

// DetectorConfig tunes utterance segmentation.
type DetectorConfig struct {
	Threshold     float64       // RMS above which a frame counts as speech
	Silence       time.Duration // trailing quiet that ends an utterance
	MaxUtterance  time.Duration
	ListenTimeout time.Duration // how long to wait for speech to start
}

// Detector segments a frame stream into one utterance. It is fed one
// frame at a time and is not safe for concurrent use.
type Detector struct {
	cfg      DetectorConfig
	speaking bool
	quiet    time.Duration
	waited   time.Duration
	voiced   time.Duration
	out      []float32
}

func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Result is the state after a frame.
type Result int

const (
	Continue Result = iota
	Done            // utterance complete, see Samples
	TimedOut        // no speech before ListenTimeout
)

// Feed consumes one frame.
func (d *Detector) Feed(frame []float32) Result {
	loud := frameRMS(frame) > d.cfg.Threshold

	if !d.speaking {
		if !loud {
			d.waited += FrameDuration
			if d.cfg.ListenTimeout > 0 && d.waited >= d.cfg.ListenTimeout {
				return TimedOut
			}
			return Continue
		}
		d.speaking = true
	}

	d.out = append(d.out, frame...)
	d.voiced += FrameDuration
	if loud {
		d.quiet = 0
	} else {
		d.quiet += FrameDuration
		if d.quiet >= d.cfg.Silence {
			return Done
		}
	}
	if d.cfg.MaxUtterance > 0 && d.voiced >= d.cfg.MaxUtterance {
		return Done
	}
	return Continue
}

// Samples returns the captured utterance.
func (d *Detector) Samples() []float32 { return d.out }

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
