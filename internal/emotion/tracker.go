package emotion

import "sync"

const trackerWindow = 20

// Tracker remembers the cues of recent turns.
type Tracker struct {
	mu      sync.Mutex
	history []Cues
}

func (t *Tracker) Record(c Cues) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, c)
	if len(t.history) > trackerWindow {
		t.history = t.history[len(t.history)-trackerWindow:]
	}
}

// Distribution returns the share of each primary emotion over the last
// n recorded turns.
func (t *Tracker) Distribution(n int) map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.history
	if n > 0 && n < len(h) {
		h = h[len(h)-n:]
	}
	out := make(map[string]float64)
	if len(h) == 0 {
		return out
	}
	for _, c := range h {
		out[c.Primary]++
	}
	for k := range out {
		out[k] /= float64(len(h))
	}
	return out
}

// Dominant returns the most frequent non-neutral emotion, or "neutral".
// Ties go to the most recent.
func (t *Tracker) Dominant() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[string]int)
	best, top := "neutral", 0
	for _, c := range t.history {
		if c.Primary == "neutral" {
			continue
		}
		counts[c.Primary]++
		if counts[c.Primary] >= top {
			best, top = c.Primary, counts[c.Primary]
		}
	}
	return best
}

// Escalating reports whether intensity rose across the last three turns.
func (t *Tracker) Escalating() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.history)
	if n < 3 {
		return false
	}
	a, b, c := t.history[n-3].Intensity, t.history[n-2].Intensity, t.history[n-1].Intensity
	return a < b && b < c
}
