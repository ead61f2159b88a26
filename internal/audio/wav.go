// Package audio holds the hardware-independent parts of speech capture:
// utterance segmentation and WAV encoding.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// ErrInvalidWAV is returned for bodies that are not RIFF/WAVE audio.
var ErrInvalidWAV = errors.New("invalid wav")

// EncodeWAV encodes mono float samples in [-1, 1] as 16-bit PCM WAV.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, bitDepth, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * math.MaxInt16))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}
	return ws.buf, nil
}

// Clip describes decoded WAV audio.
type Clip struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.Channels) / float64(c.SampleRate)
}

// DecodeWAV parses a WAV body into float samples.
func DecodeWAV(data []byte) (Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, ErrInvalidWAV
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decoding wav: %w", err)
	}
	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = bitDepth
	}
	scale := 1.0 / float64(int64(1)<<(bd-1))
	out := make([]float32, len(pb.Data))
	for i, v := range pb.Data {
		out[i] = float32(float64(v) * scale)
	}
	return Clip{Samples: out, SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}, nil
}

// writeSeeker is an in-memory io.WriteSeeker; the WAV encoder seeks
// back to patch chunk sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	w.pos = int(abs)
	return abs, nil
}
