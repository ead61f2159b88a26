// Package composer assembles the system prompts sent with every turn.
package composer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/memory"
)

const (
	maxMemories = 8
	maxReplies  = 3
)

// Context is everything the voice prompt draws on. Zero values are
// fine; empty sections are left out.
type Context struct {
	Profile       memory.Profile
	Medications   []memory.Medication
	Reminders     []memory.Reminder
	Memories      []memory.Memory // newest last
	Preferences   map[string]memory.PreferenceEntry
	RecentReplies []string // assistant replies, oldest first
	Tone          emotion.Tone
}

const identity = `You are a calm, emotionally intelligent companion speaking with %s.

WHO YOU ARE:
- You talk through voice. Everything you write is spoken aloud, so write the way people speak.
- You are warm, patient and attentive, a trusted confidant.
- You are not a therapist, counselor or medical professional and never imply that you are.
- You borrow from therapeutic listening: open questions that help people reflect and feel heard.

HOW YOU RESPOND:
- Give one complete answer to what was said, usually one to four sentences.
- Plain spoken language only. No markdown, lists or formatting.
- Vary your openers and phrasing. Skip filler like "That's a great question".
- Do not restate what the user just said unless it adds clarity.

EMOTIONAL ATTUNEMENT:
- Match their register. Gentle and grounding when they are distressed, relaxed when they are casual.
- Validate in one sincere sentence instead of a paragraph of platitudes.
- When something is hard, stay with it before offering solutions.

QUESTIONS:
- Ask open questions when they serve the conversation, not after every reply.
- Softer questions when they are hurting, more exploratory when they are at ease.

MEMORY:
- Use what you know about this person actively: their name, routines, worries, joys and what comforts them.
- Bring up earlier conversations only when it genuinely helps.
- If you do not know enough to personalize, ask one caring question to learn more.

PRACTICAL SUPPORT:
- You know their medication schedule and reminders. Answer questions about them with the exact details below.
- When they confirm taking a medication, acknowledge it warmly and move on.
- When they ask to be reminded of something, confirm what and when.`

// Build returns the voice session system prompt.
func Build(c Context) string {
	name := displayName(c.Profile)
	address := name
	if address == "" {
		address = "someone who has not shared their name yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, identity, address)

	section := func(header string, lines []string) {
		if len(lines) == 0 {
			return
		}
		sb.WriteString("\n\n")
		sb.WriteString(header)
		sb.WriteString("\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}

	section("[WHAT I KNOW ABOUT YOU]", profileLines(c.Profile, name))
	section("[MEDICATION SCHEDULE] (use this to answer medication questions)", medicationLines(c.Medications))
	section("[ACTIVE REMINDERS] (mention these when relevant)", reminderLines(c.Reminders))
	section("[PREVIOUS CONVERSATIONS] (use these to personalize and avoid repetition)", memoryLines(c.Memories))
	section("[PREFERENCES] (adapt tone and approach to these)", preferenceLines(c.Preferences))
	section("[YOUR RECENT REPLIES] (do not repeat these, rephrase entirely if you return to an idea)", replyLines(c.RecentReplies))

	if g := emotion.Guidance(c.Tone); g != "" {
		sb.WriteString("\n\n")
		sb.WriteString(g)
	}
	return sb.String()
}

// displayName prefers the name the user asked to be called.
func displayName(p memory.Profile) string {
	for _, k := range []string{"preferred_name", "full_name", "name"} {
		if v := strings.TrimSpace(p.String(k)); v != "" {
			return v
		}
	}
	return ""
}

func profileLines(p memory.Profile, name string) []string {
	var lines []string
	if name != "" {
		lines = append(lines, "- Name: "+name)
	}
	if routine, ok := p["daily_routine"].(map[string]any); ok {
		if v, _ := routine["wake_time"].(string); v != "" {
			lines = append(lines, "- Wake time: "+v)
		}
		if v, _ := routine["notes"].(string); v != "" {
			lines = append(lines, "- Routine notes: "+v)
		}
	}
	if med, ok := p["medical_info"].(map[string]any); ok {
		if conds := memory.Profile(med).Strings("conditions"); len(conds) > 0 {
			lines = append(lines, "- Health conditions: "+strings.Join(conds, ", "))
		}
	}
	return lines
}

func medicationLines(meds []memory.Medication) []string {
	lines := make([]string, 0, len(meds))
	for _, m := range meds {
		line := fmt.Sprintf("- %s (%s) at %s", m.Name, m.Dosage, strings.Join(m.Schedule, ", "))
		if m.Instructions != "" {
			line += ": " + m.Instructions
		}
		lines = append(lines, line)
	}
	return lines
}

func reminderLines(rems []memory.Reminder) []string {
	lines := make([]string, 0, len(rems))
	for _, r := range rems {
		at := r.RemindTime
		if at == "" {
			at = "unspecified"
		}
		line := fmt.Sprintf("- %s at %s", r.Content, at)
		if r.Recurring {
			line += " (daily)"
		}
		lines = append(lines, line)
	}
	return lines
}

func memoryLines(mems []memory.Memory) []string {
	if len(mems) > maxMemories {
		mems = mems[len(mems)-maxMemories:]
	}
	lines := make([]string, 0, len(mems))
	for _, m := range mems {
		ts := m.Timestamp
		if ts == "" {
			ts = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s", ts, m.Content))
	}
	return lines
}

func preferenceLines(prefs map[string]memory.PreferenceEntry) []string {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %v", k, prefs[k].Value))
	}
	return lines
}

func replyLines(replies []string) []string {
	if len(replies) > maxReplies {
		replies = replies[len(replies)-maxReplies:]
	}
	lines := make([]string, 0, len(replies))
	for _, r := range replies {
		lines = append(lines, fmt.Sprintf("- %q", r))
	}
	return lines
}
