package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reminderSignals = []string{
	"remind me", "reminder", "don't let me forget",
	"don't forget to", "remember to tell me", "alert me",
	"wake me", "tell me when", "let me know when",
}

// Longer words come first so "afternoon" is not read as "noon" and
// "tonight" is not read as "night".
var timeWords = []struct {
	word string
	hhmm string
}{
	{"afternoon", "14:00"},
	{"midnight", "00:00"},
	{"tonight", "20:00"},
	{"bedtime", "22:00"},
	{"morning", "08:00"},
	{"evening", "18:00"},
	{"noon", "12:00"},
	{"night", "21:00"},
}

var recurringWords = []string{"every day", "daily", "each day", "every morning", "every night"}

// A bare "am" or "pm" must end the word so "2 amoxicillin" is not 2am.
var (
	clockRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(a\.m\.|p\.m\.|am\b|pm\b)?`)
	hourRe  = regexp.MustCompile(`\b(\d{1,2})\s*(a\.m\.|p\.m\.|am\b|pm\b)`)
	pmRe    = regexp.MustCompile(`(?:^|[^a-z])(?:p\.m\.|pm\b)`)

	timePhraseRe = regexp.MustCompile(`(?i)\b(?:(?:at|by|around|this|in the|every)\s+)?` +
		`(?:\d{1,2}:\d{2}\s*(?:a\.m\.|p\.m\.|am\b|pm\b)?|\d{1,2}\s*(?:a\.m\.|p\.m\.|am\b|pm\b)|` +
		`(?:afternoon|midnight|tonight|bedtime|morning|evening|noon|night)\b)`)
	recurPhraseRe = regexp.MustCompile(`(?i)\b(?:every day|each day|daily)\b`)
	leadingToRe   = regexp.MustCompile(`(?i)^(?:to|about|that)\s+`)
)

// ReminderRequest is a reminder parsed out of free speech.
type ReminderRequest struct {
	Content    string
	RemindTime string // "HH:MM", or "" when no time was given
	Recurring  bool
}

// Summary is the one-line description pushed to long-term memory.
func (r ReminderRequest) Summary() string {
	s := fmt.Sprintf("User requested reminder: '%s'", r.Content)
	if r.RemindTime != "" {
		s += " at " + r.RemindTime
	}
	if r.Recurring {
		s += " (recurring daily)"
	}
	return s
}

// ParseReminder extracts a reminder request from text. ok is false when
// the text carries no reminder signal.
func ParseReminder(text string) (ReminderRequest, bool) {
	lower := strings.ToLower(text)

	signal := ""
	for _, s := range reminderSignals {
		if strings.Contains(lower, s) {
			signal = s
			break
		}
	}
	if signal == "" {
		return ReminderRequest{}, false
	}

	req := ReminderRequest{
		Content:    text,
		RemindTime: parseTime(lower),
		Recurring:  containsAny(lower, recurringWords),
	}

	idx := strings.Index(lower, signal) + len(signal)
	if len(lower) != len(text) {
		// Case folding changed byte offsets; cut the lowered text instead.
		text = lower
	}
	if rest := reminderContent(text[idx:]); len(rest) > 3 {
		req.Content = rest
	}
	return req, true
}

// reminderContent strips time and recurrence phrases and a leading "to"
// from the text that followed the reminder signal.
func reminderContent(rest string) string {
	rest = timePhraseRe.ReplaceAllString(rest, " ")
	rest = recurPhraseRe.ReplaceAllString(rest, " ")
	rest = strings.Join(strings.Fields(rest), " ")
	rest = strings.Trim(rest, " .,!?")
	return strings.Trim(leadingToRe.ReplaceAllString(rest, ""), " .,!?")
}

// parseTime returns "HH:MM" for the first time expression in lower.
// Explicit clock times win over time-of-day words.
func parseTime(lower string) string {
	if m := clockRe.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		suffix := m[3]
		if suffix == "" && pmRe.MatchString(lower) {
			suffix = "pm"
		}
		if hh, ok := to24(h, suffix); ok && mm <= 59 {
			return fmt.Sprintf("%02d:%02d", hh, mm)
		}
	}
	if m := hourRe.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		if hh, ok := to24(h, m[2]); ok {
			return fmt.Sprintf("%02d:00", hh)
		}
	}
	for _, tw := range timeWords {
		if strings.Contains(lower, tw.word) {
			return tw.hhmm
		}
	}
	return ""
}

func to24(h int, suffix string) (int, bool) {
	switch strings.ReplaceAll(suffix, ".", "") {
	case "pm":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h < 12 {
			h += 12
		}
	case "am":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			h = 0
		}
	}
	return h, h >= 0 && h <= 23
}
