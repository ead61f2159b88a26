package intent

import (
	"strings"
	"unicode"

	"github.com/kalambet/kindred/internal/emotion"
)

// PreferenceHit is one category matched in a user utterance.
type PreferenceHit struct {
	Category string
	Signal   string
}

// MemoryText is the line pushed to long-term memory for a hit.
func (h PreferenceHit) MemoryText(utterance string) string {
	return "[" + h.Category + "] User said: " + utterance
}

var preferenceSignals = []struct {
	category string
	signals  []string
}{
	{"comfort_method", []string{
		"when i'm stressed", "when i'm sad", "what helps me", "i usually",
		"i prefer", "i like when", "i feel better when", "it helps when",
		"what comforts me", "i cope by", "that makes me feel", "i need", "i want",
	}},
	{"communication_style", []string{
		"don't lecture me", "just listen", "give me advice", "be direct",
		"be gentle", "tell me straight", "i like it when you", "don't sugarcoat",
		"be honest",
	}},
	{"emotional_state", []string{
		"i'm feeling", "i feel", "i've been", "lately i", "today was",
		"today i", "this week", "struggling with", "worried about",
		"anxious about", "happy about", "excited about",
	}},
	{"personal_info", []string{
		"my name is", "i'm from", "i live", "i work", "my job", "my family",
		"my partner", "my kids", "my friend", "i go to", "i study",
	}},
}

// DetectPreferences returns at most one hit per category, in table order.
func DetectPreferences(text string) []PreferenceHit {
	lower := strings.ToLower(text)
	var hits []PreferenceHit
	for _, c := range preferenceSignals {
		for _, s := range c.signals {
			if strings.Contains(lower, s) {
				hits = append(hits, PreferenceHit{Category: c.category, Signal: s})
				break
			}
		}
	}
	return hits
}

var namePrefixes = []struct {
	prefix string
	// weak prefixes need the following word capitalized as spoken.
	weak bool
}{
	{"my name is ", false},
	{"call me ", false},
	{"name's ", false},
	{"i'm ", true},
	{"i am ", true},
}

// Words that follow "i'm" or "i am" far more often than a name does.
var nameSkipWords = map[string]bool{
	"not": true, "so": true, "very": true, "really": true, "just": true,
	"going": true, "doing": true, "feeling": true, "a": true, "the": true,
	"fine": true, "good": true, "okay": true, "bad": true, "happy": true,
	"sad": true, "tired": true, "stressed": true, "here": true, "back": true,
	"worried": true, "anxious": true, "scared": true, "afraid": true,
	"concerned": true, "struggling": true, "dealing": true, "sorry": true,
	"sure": true, "glad": true, "trying": true, "still": true, "an": true,
	"having": true, "getting": true, "looking": true, "ok": true, "alright": true,
	"lonely": true, "upset": true, "angry": true, "excited": true, "busy": true,
	"in": true, "at": true, "on": true, "kind": true, "pretty": true,
	"hungry": true, "exhausted": true, "lost": true, "sick": true, "bored": true,
	"confused": true, "done": true, "ready": true, "home": true,
}

// ExtractName returns the capitalized name a user introduced themselves
// with, if any.
func ExtractName(text string) (string, bool) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	for _, p := range namePrefixes {
		idx := strings.Index(lower, p.prefix)
		if idx < 0 {
			continue
		}
		fields := strings.Fields(lower[idx+len(p.prefix):])
		if len(fields) == 0 {
			continue
		}
		name := strings.Trim(fields[0], ".,!?'\"")
		if len(name) < 2 || nameSkipWords[name] || emotion.IsFeelingWord(name) {
			continue
		}
		if p.weak && !spokenCapitalized(text, lower, idx+len(p.prefix)) {
			continue
		}
		return capitalize(name), true
	}
	return "", false
}

// spokenCapitalized reports whether the first word at offset off of text
// starts with an upper-case letter.
func spokenCapitalized(text, lower string, off int) bool {
	if len(text) != len(lower) {
		return false
	}
	rest := strings.TrimLeft(text[off:], " \t")
	for _, r := range rest {
		return unicode.IsUpper(r)
	}
	return false
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
