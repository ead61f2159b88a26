package tts

import (
	"regexp"
	"strings"
)

var (
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	reStars      = regexp.MustCompile(`\*+`)
	reUnderscore = regexp.MustCompile(`(^|\W)_([^_]+)_(\W|$)`)
	reHeader     = regexp.MustCompile(`#+\s*`)
	reBullet     = regexp.MustCompile(`(?m)^[ \t]*[-•][ \t]*`)
	reSpaces     = regexp.MustCompile(`  +`)
	reNewlines   = regexp.MustCompile(`\n+`)
)

// CleanForSpeech strips markdown that synthesizers would read aloud or
// pause on: emphasis, headers, bullets, links and code ticks.
func CleanForSpeech(text string) string {
	text = reLink.ReplaceAllString(text, "$1")
	text = reStars.ReplaceAllString(text, "")
	text = reUnderscore.ReplaceAllString(text, "${1}${2}${3}")
	text = reHeader.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "`", "")
	text = reNewlines.ReplaceAllString(text, " ")
	text = reSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
