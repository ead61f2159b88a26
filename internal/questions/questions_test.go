package questions

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kalambet/kindred/internal/conversation"
	"github.com/kalambet/kindred/internal/emotion"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGenerator() (*Generator, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	return New(rand.New(rand.NewPCG(1, 2)), clk.now), clk
}

func msgs(pairs ...string) []conversation.Message {
	var out []conversation.Message
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, conversation.Message{Role: conversation.Role(pairs[i]), Content: pairs[i+1]})
	}
	return out
}

func TestShouldAsk_TooShort(t *testing.T) {
	g, _ := newTestGenerator()
	for range 50 {
		if g.ShouldAsk(msgs("user", "hi")) {
			t.Fatal("asked with a single message")
		}
	}
}

func TestShouldAsk_NeverAfterQuestion(t *testing.T) {
	g, _ := newTestGenerator()
	history := msgs("user", "I had a long day", "assistant", "What happened today? ")
	for range 50 {
		if g.ShouldAsk(history) {
			t.Fatal("asked right after a question")
		}
	}
}

func TestShouldAsk_Probability(t *testing.T) {
	g, _ := newTestGenerator()
	history := msgs("user", "I had a long day", "assistant", "That sounds tiring.")

	yes := 0
	const n = 2000
	for range n {
		if g.ShouldAsk(history) {
			yes++
		}
	}
	ratio := float64(yes) / n
	if ratio < 0.28 || ratio > 0.42 {
		t.Errorf("ask ratio = %.3f, want about %.2f", ratio, askChance)
	}
}

func TestContextsFor(t *testing.T) {
	tests := []struct {
		tone emotion.Tone
		want []Context
	}{
		{emotion.ToneSadness, []Context{EmotionalExploration, Coping, ProblemSolving}},
		{emotion.ToneDistress, []Context{EmotionalExploration, Coping, ProblemSolving}},
		{emotion.ToneAnxiety, []Context{EmotionalExploration, Coping, ProblemSolving}},
		{emotion.ToneAnger, []Context{Coping, ProblemSolving, Reflection}},
		{emotion.ToneHappiness, []Context{Reflection, Goals, Values}},
		{emotion.ToneEncouragement, []Context{GeneralWellbeing, Coping}},
		{emotion.ToneNeutral, []Context{GeneralWellbeing, Coping}},
	}
	for _, tt := range tests {
		got := ContextsFor(tt.tone)
		if len(got) != len(tt.want) {
			t.Errorf("ContextsFor(%s) = %v, want %v", tt.tone, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ContextsFor(%s) = %v, want %v", tt.tone, got, tt.want)
				break
			}
		}
	}
}

func TestNext_DrawsFromToneBanks(t *testing.T) {
	g, _ := newTestGenerator()
	allowed := map[string]bool{}
	for _, c := range ContextsFor(emotion.ToneHappiness) {
		for _, q := range Bank(c) {
			allowed[q.Text] = true
		}
	}
	for range 5 {
		q, ok := g.Next(emotion.ToneHappiness)
		if !ok {
			t.Fatal("no question available")
		}
		if !allowed[q] {
			t.Errorf("question %q is not from a happiness bank", q)
		}
	}
}

func TestNext_Cooldown(t *testing.T) {
	g, clk := newTestGenerator()

	seen := map[string]bool{}
	for range len(Bank(Relationships)) {
		q, ok := g.NextIn(Relationships)
		if !ok {
			t.Fatal("bank exhausted early")
		}
		if seen[q] {
			t.Errorf("question %q repeated inside cooldown", q)
		}
		seen[q] = true
	}
	if q, ok := g.NextIn(Relationships); ok {
		t.Fatalf("got %q while every group is cooling down", q)
	}

	clk.advance(DefaultCooldown - time.Second)
	if _, ok := g.NextIn(Relationships); ok {
		t.Fatal("cooldown ended early")
	}
	clk.advance(2 * time.Second)
	if _, ok := g.NextIn(Relationships); !ok {
		t.Fatal("cooldown did not expire")
	}
}

func TestNext_SharedVariabilityGroup(t *testing.T) {
	g, _ := newTestGenerator()

	// General wellbeing has two check_in_basic questions, so its three
	// groups run out after three picks.
	for i := range 3 {
		if _, ok := g.NextIn(GeneralWellbeing); !ok {
			t.Fatalf("pick %d: bank exhausted early", i+1)
		}
	}
	if q, ok := g.NextIn(GeneralWellbeing); ok {
		t.Errorf("got %q after every group was used", q)
	}

	g.Reset()
	if _, ok := g.NextIn(GeneralWellbeing); !ok {
		t.Error("Reset did not clear cooldowns")
	}
}

func TestBanks_Complete(t *testing.T) {
	for _, c := range []Context{
		GeneralWellbeing, EmotionalExploration, Coping, Values,
		Relationships, Goals, ProblemSolving, Reflection,
	} {
		qs := Bank(c)
		if len(qs) == 0 {
			t.Errorf("bank %s is empty", c)
		}
		for _, q := range qs {
			if q.Context != c {
				t.Errorf("%q filed under %s, tagged %s", q.Text, c, q.Context)
			}
		}
	}
}
