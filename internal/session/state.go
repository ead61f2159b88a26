package session

import (
	"errors"
	"fmt"
	"sync"
)

// State is where the controller is in a turn.
type State int

const (
	Idle State = iota
	Listening
	Processing
	Speaking
	Ending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Speaking:
		return "speaking"
	case Ending:
		return "ending"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrIllegalTransition = errors.New("illegal state transition")

// transitions lists the allowed moves. Ending is terminal.
var transitions = map[State][]State{
	Idle:       {Listening, Speaking, Ending},
	Listening:  {Processing, Speaking, Ending},
	Processing: {Speaking, Listening, Ending},
	Speaking:   {Listening, Ending},
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// machine guards the current State. Every change goes through the
// transition table.
type machine struct {
	mu      sync.Mutex
	state   State
	onEnter func(from, to State)
}

func (m *machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// To moves to the given state from wherever the machine is.
func (m *machine) To(to State) error {
	m.mu.Lock()
	from := m.state
	if !allowed(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%s -> %s: %w", from, to, ErrIllegalTransition)
	}
	m.state = to
	m.mu.Unlock()
	m.entered(from, to)
	return nil
}

// Swap moves from -> to only if the machine is currently in from.
func (m *machine) Swap(from, to State) bool {
	m.mu.Lock()
	if m.state != from || !allowed(from, to) {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.mu.Unlock()
	m.entered(from, to)
	return true
}

func (m *machine) entered(from, to State) {
	if m.onEnter != nil {
		m.onEnter(from, to)
	}
}
