package extract

import (
	"regexp"
	"strings"
)

// Substitution is one ordered cleanup rule applied to extracted text.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultSubstitutions strips ad-feedback prompts and video-player
// boilerplate that survive content extraction on some outlets.
func DefaultSubstitutions() []Substitution {
	return []Substitution{
		{Pattern: regexp.MustCompile(`(?is)How relevant is this ad to you\?.*?Other`)},
		{Pattern: regexp.MustCompile(`(?is)Video player was slow to load content.*?Other`)},
		{Pattern: regexp.MustCompile(`(?i)Advertisement\s*`)},
	}
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// CleanText applies the substitutions in order, then collapses every
// run of blank-ish lines to a single blank line and trims the edges.
// Substitutions run first so the whitespace they leave behind collapses
// away with them. Applying CleanText twice yields the same output as
// applying it once.
func CleanText(text string, subs []Substitution) string {
	for _, s := range subs {
		text = s.Pattern.ReplaceAllString(text, s.Replacement)
	}
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
