package extract

import (
	"regexp"
	"strings"
)

var skipLinePatterns = []*regexp.Regexp{
	// Page number footers like "- 3 -".
	regexp.MustCompile(`^\s*-\s*\d+\s*-\s*$`),
	// Header lines carrying only a student id and name.
	regexp.MustCompile(`^\d{8,10}\s*[가-힣]+$`),
}

// CleanText normalises extracted answer text into paragraphs: boilerplate
// lines are dropped, runs of blank lines collapse, and paragraph boundaries
// are preserved as single blank lines.
func CleanText(text string) string {
	var cleaned []string
	prevBlank := true

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			prevBlank = true
			continue
		}
		if matchesAny(line, skipLinePatterns) {
			continue
		}

		if prevBlank && len(cleaned) > 0 {
			cleaned = append(cleaned, "")
		}
		cleaned = append(cleaned, line)
		prevBlank = false
	}

	return strings.Join(cleaned, "\n")
}

func matchesAny(line string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
