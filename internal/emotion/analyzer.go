// Package emotion scores utterances against a weighted phrase lexicon
// and maps the result onto the tone vocabulary shared by the prompt
// composer and the speech synthesizers.
package emotion

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	// distressOverride is the distress score that beats any other category.
	distressOverride = 3
	// minScore is the lowest winning score that is not reported as neutral.
	minScore = 2
	// maxScore normalizes scores into a 0..1 confidence.
	maxScore = 15.0
)

// Cues is the result of analyzing one utterance.
type Cues struct {
	Primary    string
	Intensity  int // 1..5
	Confidence float64
	Scores     map[string]int
	Secondary  []string // other scored categories, strongest first
	Keywords   []string
	Crisis     bool
	Vocal      Vocal
}

// Vocal approximates delivery from text patterns. All fields are 0..1.
type Vocal struct {
	RapidPace     float64
	SlowPace      float64
	HighIntensity float64
	Hesitant      float64
}

// Analyze scores text against the lexicon. Distress wins whenever its
// score reaches the override threshold, and a crisis phrase forces
// distress at full intensity regardless of scoring.
func Analyze(text string) Cues {
	lower := strings.ToLower(text)

	c := Cues{
		Primary:    "neutral",
		Intensity:  1,
		Confidence: 1.0,
		Scores:     make(map[string]int),
		Vocal:      vocal(text, lower),
	}

	for _, cat := range lexicon {
		total := 0
		for _, w := range cat.phrases {
			if strings.Contains(lower, w.phrase) {
				total += w.weight
				c.Keywords = append(c.Keywords, w.phrase)
			}
		}
		if total > 0 {
			c.Scores[cat.name] = total
		}
	}

	if IsCrisis(lower) {
		c.Crisis = true
		c.Primary = "distress"
		c.Intensity = 5
		c.Confidence = 1.0
		c.Secondary = ranked(c.Scores, "distress")
		return c
	}
	if len(c.Scores) == 0 {
		return c
	}

	primary, score := best(c.Scores)
	if d := c.Scores["distress"]; d >= distressOverride {
		primary, score = "distress", d
	}
	if score < minScore {
		c.Secondary = ranked(c.Scores, "")
		return c
	}

	c.Primary = primary
	c.Intensity = intensity(score)
	c.Confidence = min(float64(score)/maxScore, 1.0)
	if primary == "distress" {
		c.Confidence = min(1.0, c.Confidence+0.2)
	}
	c.Secondary = ranked(c.Scores, primary)
	return c
}

// IsCrisis reports whether text contains self-harm language. It is
// independent of lexicon scoring.
func IsCrisis(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range crisisPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ShouldAskFollowUp is false when the user is in distress or the
// emotion is intense.
func ShouldAskFollowUp(c Cues) bool {
	return c.Primary != "distress" && c.Intensity < 4
}

var intensityWords = [...]string{"minimal", "mild", "moderate", "strong", "critical"}

// Summary renders cues as e.g. "Moderate sadness (with anxiety)".
func Summary(c Cues) string {
	i := max(1, min(5, c.Intensity))
	w := []rune(intensityWords[i-1])
	w[0] = unicode.ToUpper(w[0])
	s := fmt.Sprintf("%s %s", string(w), c.Primary)
	if len(c.Secondary) > 0 {
		sec := c.Secondary
		if len(sec) > 2 {
			sec = sec[:2]
		}
		s += " (with " + strings.Join(sec, ", ") + ")"
	}
	return s
}

func intensity(score int) int {
	return min(5, max(1, score/2+1))
}

// best returns the highest score, breaking ties by lexicon order.
func best(scores map[string]int) (string, int) {
	name, top := "", 0
	for _, cat := range lexicon {
		if s := scores[cat.name]; s > top {
			name, top = cat.name, s
		}
	}
	return name, top
}

func ranked(scores map[string]int, exclude string) []string {
	var names []string
	for _, cat := range lexicon {
		if _, ok := scores[cat.name]; ok && cat.name != exclude {
			names = append(names, cat.name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return scores[names[i]] > scores[names[j]]
	})
	return names
}

func vocal(text, lower string) Vocal {
	count := func(list []string) int {
		n := 0
		for _, s := range list {
			if strings.Contains(lower, s) {
				n++
			}
		}
		return n
	}

	upper := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	marks := float64(strings.Count(text, "!")+strings.Count(text, "?")) +
		float64(upper)/float64(max(len(text), 1))

	return Vocal{
		RapidPace:     min(1.0, float64(count(rapidIndicators))/3.0),
		SlowPace:      min(1.0, float64(count(slowedIndicators))/2.0),
		HighIntensity: min(1.0, marks/5.0),
		Hesitant:      min(1.0, float64(count(hesitationWords))/2.0),
	}
}
