package session

import (
	"errors"
	"testing"
)

func TestMachine_TurnSequence(t *testing.T) {
	var m machine
	var seen []State
	m.onEnter = func(_, to State) { seen = append(seen, to) }

	steps := []State{Speaking, Listening, Processing, Speaking, Listening, Processing, Listening, Ending}
	for _, s := range steps {
		if err := m.To(s); err != nil {
			t.Fatalf("To(%s) from %s: %v", s, m.Current(), err)
		}
	}
	if len(seen) != len(steps) {
		t.Fatalf("onEnter fired %d times, want %d", len(seen), len(steps))
	}
	if m.Current() != Ending {
		t.Errorf("final state = %s, want ending", m.Current())
	}
}

func TestMachine_RejectsIllegal(t *testing.T) {
	tests := []struct {
		from, to State
	}{
		{Idle, Processing},
		{Listening, Listening},
		{Speaking, Processing},
		{Ending, Listening},
		{Ending, Idle},
	}
	for _, tt := range tests {
		m := machine{state: tt.from}
		err := m.To(tt.to)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: err = %v, want ErrIllegalTransition", tt.from, tt.to, err)
		}
		if m.Current() != tt.from {
			t.Errorf("%s -> %s: state changed to %s", tt.from, tt.to, m.Current())
		}
	}
}

func TestMachine_Swap(t *testing.T) {
	m := machine{state: Listening}
	if m.Swap(Processing, Speaking) {
		t.Error("Swap succeeded from the wrong state")
	}
	if !m.Swap(Listening, Processing) {
		t.Fatal("Swap(Listening, Processing) failed")
	}
	if m.Swap(Listening, Processing) {
		t.Error("second Swap from Listening succeeded")
	}
	if m.Current() != Processing {
		t.Errorf("state = %s, want processing", m.Current())
	}
}

func TestState_String(t *testing.T) {
	if Speaking.String() != "speaking" {
		t.Errorf("Speaking.String() = %q", Speaking.String())
	}
	if State(42).String() != "state(42)" {
		t.Errorf("unknown state = %q", State(42).String())
	}
}
