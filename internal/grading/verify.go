package grading

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultFuzzyThreshold is the minimum line similarity accepted as a fuzzy
// match. Verbatim model quotes commonly drift by punctuation or whitespace.
const DefaultFuzzyThreshold = 0.75

// verify tags a claimed quote against the answer text. The answer is never
// mutated; fuzzy matching runs line by line so newline normalisation by the
// model does not break verification.
func verify(quote, answerText string, threshold float64) (Verification, string) {
	trimmed := strings.TrimSpace(quote)
	if trimmed == "" {
		return Unverified, ""
	}

	if strings.Contains(answerText, trimmed) {
		return VerifiedExact, trimmed
	}

	bestLine := ""
	bestScore := 0.0
	for _, line := range strings.Split(answerText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		score := similarity(trimmed, line)
		if score > bestScore {
			bestScore = score
			bestLine = line
		}
	}

	if bestScore >= threshold {
		return VerifiedFuzzy, bestLine
	}

	return Unverified, ""
}

// similarity returns a 0..1 ratio based on the Levenshtein distance between
// the two strings, measured in runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)

	return 1 - float64(distance)/float64(longest)
}
