package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxKeywords      = 10
	summarySentences = 5
	minSentenceRunes = 25
	titleWordBonus   = 2
)

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]*[a-zA-Z]`)

var stopwords = func() map[string]struct{} {
	const words = `a about above after again against all am an and any are aren't
		as at be because been before being below between both but by can cannot
		could couldn't did didn't do does doesn't doing don't down during each
		few for from further had hadn't has hasn't have haven't having he her
		here hers herself him himself his how i if in into is isn't it its
		itself just me more most my myself no nor not of off on once only or
		other our ours ourselves out over own said same she should shouldn't so
		some such than that the their theirs them themselves then there these
		they this those through to too under until up very was wasn't we were
		weren't what when where which while who whom why will with won't would
		wouldn't you your yours yourself yourselves`
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}()

// Keywords returns the most frequent content words of text, lowercased
// and most frequent first. Words tied on frequency keep the order of
// their first appearance, so output is deterministic for a given text.
func Keywords(text string, max int) []string {
	freq := make(map[string]int)
	var order []string
	for _, raw := range wordPattern.FindAllString(text, -1) {
		word := strings.ToLower(raw)
		if _, stop := stopwords[word]; stop {
			continue
		}
		if freq[word] == 0 {
			order = append(order, word)
		}
		freq[word]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > max {
		order = order[:max]
	}
	return order
}

// Summarize picks the highest scoring sentences of text and returns
// them in their original order, one per line. A sentence scores the
// summed corpus frequency of its content words, with a bonus for words
// shared with the title.
func Summarize(title, text string, maxSentences int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	freq := make(map[string]int)
	for _, raw := range wordPattern.FindAllString(text, -1) {
		word := strings.ToLower(raw)
		if _, stop := stopwords[word]; !stop {
			freq[word]++
		}
	}
	titleWords := make(map[string]struct{})
	for _, raw := range wordPattern.FindAllString(title, -1) {
		word := strings.ToLower(raw)
		if _, stop := stopwords[word]; !stop {
			titleWords[word] = struct{}{}
		}
	}

	type scored struct {
		index int
		score int
	}
	ranked := make([]scored, len(sentences))
	for i, sentence := range sentences {
		s := scored{index: i}
		for _, raw := range wordPattern.FindAllString(sentence, -1) {
			word := strings.ToLower(raw)
			s.score += freq[word]
			if _, ok := titleWords[word]; ok {
				s.score += titleWordBonus
			}
		}
		ranked[i] = s
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxSentences {
		ranked = ranked[:maxSentences]
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].index < ranked[j].index
	})

	parts := make([]string, len(ranked))
	for i, s := range ranked {
		parts[i] = sentences[s.index]
	}
	return strings.Join(parts, "\n")
}

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences flattens whitespace and splits on terminal
// punctuation, dropping fragments too short to carry meaning.
func splitSentences(text string) []string {
	flat := strings.Join(strings.Fields(text), " ")
	marked := sentenceEnd.ReplaceAllString(flat, "$1\x00")

	var sentences []string
	for _, part := range strings.Split(marked, "\x00") {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) >= minSentenceRunes {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
