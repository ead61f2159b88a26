package intent

import "strings"

var medConfirmPhrases = []string{
	"i took it", "i've taken it", "ive taken it", "took my medication",
	"took my medicine", "took my meds", "already took it", "done",
	"i took them", "taken it", "just took it", "yes i took it",
	"took the pill", "took the pills", "i did", "already did",
}

var bareAffirmatives = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "done": true,
	"ok": true, "okay": true, "yup": true,
}

// IsMedicationConfirmation reports whether text confirms a dose. It is
// always false unless a medication prompt is pending; bare affirmatives
// like "yes" only count in that state.
func IsMedicationConfirmation(text string, pending bool) bool {
	if !pending {
		return false
	}
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!,")
	return containsAny(t, medConfirmPhrases) || bareAffirmatives[t]
}
