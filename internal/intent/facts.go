package intent

import (
	"regexp"
	"strings"
)

// Facts are profile details mentioned in passing.
type Facts struct {
	Likes    []string
	Dislikes []string
	Concerns []string
	Values   []string
}

// Empty reports whether nothing was extracted.
func (f Facts) Empty() bool {
	return len(f.Likes)+len(f.Dislikes)+len(f.Concerns)+len(f.Values) == 0
}

type factPattern struct {
	re     *regexp.Regexp
	maxLen int
}

const clauseEnd = `(?:\.|,|!|$)`

var (
	likePatterns = []factPattern{
		{regexp.MustCompile(`i (?:really |absolutely )?(?:love|like|enjoy|adore)\s+(.+?)` + clauseEnd), 80},
		{regexp.MustCompile(`(?:my favorite|i prefer)\s+(.+?)` + clauseEnd), 80},
	}
	dislikePatterns = []factPattern{
		{regexp.MustCompile(`i (?:really |absolutely )?(?:hate|dislike|can't stand|don't like)\s+(.+?)` + clauseEnd), 80},
	}
	concernPatterns = []factPattern{
		{regexp.MustCompile(`i'm (?:worried|stressed|anxious|concerned|afraid|scared) (?:about|of|that)\s+(.+?)` + clauseEnd), 100},
		{regexp.MustCompile(`(?:struggling|dealing) with\s+(.+?)` + clauseEnd), 100},
	}
	valuePatterns = []factPattern{
		{regexp.MustCompile(`(?:what matters|important) to me is\s+(.+?)` + clauseEnd), 80},
		{regexp.MustCompile(`i (?:really )?(?:value|believe in|care about)\s+(.+?)` + clauseEnd), 80},
	}
)

// ExtractFacts pulls likes, dislikes, concerns and values out of text.
// Each pattern contributes at most its first match.
func ExtractFacts(text string) Facts {
	lower := strings.ToLower(strings.TrimSpace(text))
	return Facts{
		Likes:    matchAll(lower, likePatterns),
		Dislikes: matchAll(lower, dislikePatterns),
		Concerns: matchAll(lower, concernPatterns),
		Values:   matchAll(lower, valuePatterns),
	}
}

func matchAll(s string, patterns []factPattern) []string {
	var out []string
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if r := []rune(v); len(r) > p.maxLen {
			v = strings.TrimSpace(string(r[:p.maxLen]))
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
