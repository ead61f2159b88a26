// Package intent classifies utterances with fixed phrase tables. Nothing
// here calls a model; every rule is a substring, prefix or regexp match.
package intent

import "strings"

// ResponseType is the coarse class of a user utterance.
type ResponseType string

const (
	Question    ResponseType = "question"
	Affirmative ResponseType = "affirmative"
	Negative    ResponseType = "negative"
	Termination ResponseType = "termination"
	Statement   ResponseType = "statement"
)

var terminationPhrases = []string{
	"i'm done talking", "im done talking", "i am done talking",
	"that's all", "thats all", "goodbye", "bye bye",
	"see you later", "talk to you later", "i'm good for now",
	"that's it", "stop listening", "go to sleep",
	"never mind", "nevermind", "okay i'm done", "okay im done",
}

var affirmativePhrases = []string{
	"yes", "yeah", "yep", "sure", "okay", "ok",
	"please", "go ahead", "help me", "yes please",
}

var negativePhrases = []string{
	"no", "nope", "nah", "no thanks",
	"i'm good", "im good", "not now", "maybe later",
}

var questionStarters = map[string]bool{
	"what": true, "why": true, "how": true, "when": true, "where": true,
	"who": true, "which": true, "is": true, "are": true, "am": true,
	"was": true, "were": true, "can": true, "could": true, "would": true,
	"should": true, "will": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true,
}

var wonderingPhrases = []string{"i wonder", "i don't know", "i'm not sure", "what if"}

// Analyze classifies text. Termination is checked first and matches
// anywhere in the utterance.
func Analyze(text string) ResponseType {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Statement
	}
	switch {
	case IsTermination(t):
		return Termination
	case IsAffirmative(t):
		return Affirmative
	case IsNegative(t):
		return Negative
	case IsQuestion(t):
		return Question
	}
	return Statement
}

// IsTermination reports whether text contains a session-ending phrase.
func IsTermination(text string) bool {
	return containsAny(strings.ToLower(text), terminationPhrases)
}

// IsAffirmative reports whether text is, or starts with, an affirmative word.
func IsAffirmative(text string) bool {
	return leadingPhrase(strings.ToLower(strings.TrimSpace(text)), affirmativePhrases)
}

// IsNegative reports whether text is, or starts with, a negative word.
func IsNegative(text string) bool {
	return leadingPhrase(strings.ToLower(strings.TrimSpace(text)), negativePhrases)
}

// IsQuestion reports whether text ends with '?', opens with an
// interrogative word, or contains a wondering phrase.
func IsQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	if fields := strings.Fields(t); len(fields) > 0 && questionStarters[fields[0]] {
		return true
	}
	return containsAny(t, wonderingPhrases)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func leadingPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if s == p || strings.HasPrefix(s, p+" ") {
			return true
		}
	}
	return false
}
