package intent

import "strings"

var sessionEmotionWords = []struct{ keyword, emotion string }{
	{"stressed", "stress"},
	{"anxious", "anxiety"},
	{"worried", "worry"},
	{"sad", "sadness"},
	{"happy", "joy"},
	{"excited", "excitement"},
	{"tired", "fatigue"},
	{"frustrated", "frustration"},
	{"lonely", "loneliness"},
	{"grateful", "gratitude"},
	{"scared", "fear"},
	{"angry", "anger"},
	{"overwhelmed", "overwhelm"},
	{"calm", "calm"},
	{"hopeful", "hope"},
}

// SessionEmotions names the emotions mentioned anywhere in msgs.
func SessionEmotions(msgs []string) []string {
	all := strings.ToLower(strings.Join(msgs, " "))
	var found []string
	for _, w := range sessionEmotionWords {
		if strings.Contains(all, w.keyword) {
			found = append(found, w.emotion)
		}
	}
	return found
}

// SessionSummary condenses a session's user messages into one memory
// line. It returns "" when the user said nothing.
func SessionSummary(userMsgs []string) string {
	if len(userMsgs) == 0 {
		return ""
	}
	recent := userMsgs
	if len(recent) > 6 {
		recent = recent[len(recent)-6:]
	}
	parts := []string{"Topics: " + strings.Join(recent, " | ")}
	if emotions := SessionEmotions(userMsgs); len(emotions) > 0 {
		parts = append(parts, "Emotions expressed: "+strings.Join(emotions, ", "))
	}
	return strings.Join(parts, " | ")
}
