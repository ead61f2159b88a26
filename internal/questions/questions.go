// Package questions picks gentle follow-up questions to keep a
// conversation going.
package questions

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/kindred/internal/conversation"
	"github.com/kalambet/kindred/internal/emotion"
)

// DefaultCooldown is how long a variability group rests after use.
const DefaultCooldown = 300 * time.Second

// askChance is the probability of following up on an eligible turn.
const askChance = 0.35

// Generator is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	now      func() time.Time
	cooldown time.Duration
	asked    map[string]time.Time
}

// New returns a Generator. A nil rng or clock uses a time-seeded source
// and time.Now.
func New(rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rng:      rng,
		now:      now,
		cooldown: DefaultCooldown,
		asked:    make(map[string]time.Time),
	}
}

// ContextsFor returns the banks that suit a tone.
func ContextsFor(t emotion.Tone) []Context {
	switch t {
	case emotion.ToneSadness, emotion.ToneDistress, emotion.ToneAnxiety:
		return []Context{EmotionalExploration, Coping, ProblemSolving}
	case emotion.ToneAnger:
		return []Context{Coping, ProblemSolving, Reflection}
	case emotion.ToneHappiness:
		return []Context{Reflection, Goals, Values}
	default:
		return []Context{GeneralWellbeing, Coping}
	}
}

// ShouldAsk decides whether to follow up after the latest exchange.
// It never asks twice in a row and needs at least one full exchange.
func (g *Generator) ShouldAsk(msgs []conversation.Message) bool {
	if len(msgs) < 2 {
		return false
	}
	if lastAssistantAsked(msgs) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < askChance
}

// Next returns a question for the tone whose group is off cooldown, and
// starts that group's cooldown. It reports false when every candidate
// is resting.
func (g *Generator) Next(t emotion.Tone) (string, bool) {
	return g.from(ContextsFor(t))
}

// NextIn is Next restricted to one bank.
func (g *Generator) NextIn(c Context) (string, bool) {
	return g.from([]Context{c})
}

func (g *Generator) from(contexts []Context) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	var eligible []Question
	for _, c := range contexts {
		for _, q := range banks[c] {
			if last, ok := g.asked[q.VariabilityID]; ok && now.Sub(last) < g.cooldown {
				continue
			}
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}
	q := eligible[g.rng.IntN(len(eligible))]
	g.asked[q.VariabilityID] = now
	return q.Text, true
}

// Reset forgets every cooldown.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.asked)
}

func lastAssistantAsked(msgs []conversation.Message) bool {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == conversation.RoleAssistant {
			return strings.HasSuffix(strings.TrimSpace(msgs[i].Content), "?")
		}
	}
	return false
}
