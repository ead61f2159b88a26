package emotion

import "strings"

type weighted struct {
	phrase string
	weight int
}

type category struct {
	name    string
	phrases []weighted
}

// lexicon order is the tie-break order: on equal scores the earlier
// category wins.
var lexicon = []category{
	{"distress", []weighted{
		{"i want to die", 5}, {"i can't go on", 5}, {"i'm falling apart", 5}, {"i can't take it anymore", 5},
		{"i can't do this", 4}, {"help me", 4}, {"emergency", 4}, {"can't breathe", 4},
		{"overwhelmed", 3}, {"desperate", 3}, {"panic", 3}, {"breaking point", 3},
		{"stressed", 2}, {"struggling", 2}, {"difficult", 2},
	}},
	{"sadness", []weighted{
		{"i'm so sad", 4}, {"heartbroken", 4}, {"lost someone", 4}, {"grieving", 4},
		{"sad", 2}, {"crying", 3}, {"depressed", 3}, {"empty inside", 3}, {"lonely", 2},
		{"down", 1}, {"blue", 1}, {"miss", 2}, {"miserable", 2},
	}},
	{"anxiety", []weighted{
		{"panicking", 4}, {"terrified", 4}, {"racing thoughts", 4}, {"can't stop worrying", 4},
		{"anxious", 2}, {"worried", 2}, {"scared", 2}, {"overwhelmed", 3}, {"stressed", 2},
		{"nervous", 1}, {"concerned", 1}, {"uneasy", 1},
	}},
	{"anger", []weighted{
		{"furious", 4}, {"livid", 4}, {"enraged", 4}, {"hate it", 3},
		{"angry", 2}, {"frustrated", 2}, {"irritated", 2}, {"fed up", 2},
		{"annoyed", 1}, {"bothered", 1}, {"upset", 2},
	}},
	{"happiness", []weighted{
		{"thrilled", 3}, {"overjoyed", 3}, {"ecstatic", 3},
		{"happy", 2}, {"excited", 2}, {"grateful", 2}, {"wonderful", 2},
		{"good", 1}, {"nice", 1}, {"pleased", 1},
	}},
	{"hope", []weighted{
		{"looking forward", 3}, {"hopeful", 3}, {"getting better", 3}, {"proud", 2},
		{"feeling better", 2}, {"improving", 2}, {"positive", 2},
	}},
}

var crisisPhrases = []string{
	"i want to die", "i'm going to kill myself", "i'm going to hurt myself",
	"i can't go on", "end it all", "i'm a burden",
}

var (
	rapidIndicators  = []string{"like", "um", "uh", "you know", "kind of", "i mean", "!!!", "???", "..."}
	slowedIndicators = []string{"sigh", "pause", "taking a moment", "can't find the words"}
	hesitationWords  = []string{"maybe", "i think", "i guess", "not sure", "kind of"}
)

// IsFeelingWord reports whether word is a single-word lexicon phrase such
// as "overwhelmed" or "lonely".
func IsFeelingWord(word string) bool {
	word = strings.ToLower(word)
	if word == "" || strings.ContainsRune(word, ' ') {
		return false
	}
	for _, c := range lexicon {
		for _, w := range c.phrases {
			if w.phrase == word {
				return true
			}
		}
	}
	return false
}
