// Package detect finds questions in extracted screen text and typed input.
package detect

import (
	"strings"
	"unicode"
)

// Scorer rates how likely text is a question. Scores are in [0, 1] and never
// decrease when text grows or gains question markers.
type Scorer interface {
	Score(text string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(text string) float64

func (f ScorerFunc) Score(text string) float64 { return f(text) }

var interrogatives = map[string]bool{
	"what": true, "why": true, "how": true, "when": true, "where": true,
	"who": true, "whom": true, "whose": true, "which": true,
	"is": true, "are": true, "can": true, "could": true, "should": true,
	"would": true, "will": true, "do": true, "does": true, "did": true,
}

// HeuristicScorer weighs a trailing question mark, a leading interrogative
// word and text length (saturating at 120 runes).
type HeuristicScorer struct{}

const (
	questionMarkWeight  = 0.5
	interrogativeWeight = 0.3
	lengthWeight        = 0.2
	saturationRunes     = 120
)

func (HeuristicScorer) Score(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	score := 0.0
	if strings.HasSuffix(text, "?") {
		score += questionMarkWeight
	}
	if startsWithInterrogative(text) {
		score += interrogativeWeight
	}
	n := len([]rune(text))
	score += min(float64(n)/saturationRunes, 1) * lengthWeight
	return score
}

func startsWithInterrogative(text string) bool {
	first := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(first) == 0 {
		return false
	}
	return interrogatives[strings.ToLower(first[0])]
}

// isQuestionLike reports whether a sentence qualifies for scoring at all.
func isQuestionLike(sentence string) bool {
	return strings.HasSuffix(sentence, "?") || startsWithInterrogative(sentence)
}

// sentences splits a line after '?', '!' and '.' when followed by a space or
// the end of the line. Leading comment markers and bullets are trimmed.
func sentences(line string) []string {
	var out []string
	runes := []rune(line)
	start := 0
	for i, r := range runes {
		if r != '?' && r != '!' && r != '.' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := cleanSentence(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := cleanSentence(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func cleanSentence(s string) string {
	return strings.TrimSpace(strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
}
