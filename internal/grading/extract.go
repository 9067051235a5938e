package grading

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError indicates a grading response with neither a score table nor a
// total marker, i.e. nothing usable. Partial parses never raise it.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("grading response parse failed: %s", e.Reason)
}

var (
	totalScorePattern = regexp.MustCompile(`(?:총점|[Tt]otal\s*[Ss]core)\s*[:：]?\s*\**\s*(\d+)\s*(?:점|points?)?`)
	summaryPattern    = regexp.MustCompile(`\**(?:총평|Summary)\**\s*[:：]\s*\**\s*([^\n]*)`)
	evidencePattern   = regexp.MustCompile(`(?s)\**근거\s*문장\**\s*[:：]?\s*\**\s*(.*?)(?:\**(?:총점|[Tt]otal\s*[Ss]core)|\z)`)
	quotePattern      = regexp.MustCompile(`["“]([^"”]+)["”]`)
	gradeRowRuler     = regexp.MustCompile(`^[\s|:\-]+$`)
	numberPattern     = regexp.MustCompile(`(\d+)`)
)

// Extractor parses grading responses and verifies evidence spans.
type Extractor struct {
	// FuzzyThreshold is the minimum line similarity accepted as a fuzzy
	// evidence match. Zero means DefaultFuzzyThreshold.
	FuzzyThreshold float64
}

// Extract turns a raw grading response into a Result, verifying every
// claimed evidence span against the original answer text.
//
// The total is taken from the last 총점 marker because models restate totals
// progressively and the final statement is the corrected one. A missing
// total yields nil, never zero. A total that disagrees with the summed item
// scores is kept as reported and flagged with a warning.
func (e Extractor) Extract(response, answerText string) (Result, error) {
	threshold := e.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	result := Result{
		ItemScores: parseScoreTable(response),
		Summary:    parseSummary(response),
	}

	if matches := totalScorePattern.FindAllStringSubmatch(response, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		if total, err := strconv.Atoi(last[1]); err == nil {
			result.TotalScore = &total
		}
	}

	if result.TotalScore == nil && len(result.ItemScores) == 0 {
		return Result{}, &ParseError{Reason: "no score table and no total marker", Raw: response}
	}

	for _, claim := range parseEvidenceClaims(response) {
		status, matched := verify(claim.quote, answerText, threshold)
		result.Evidence = append(result.Evidence, Evidence{
			Criterion:    claim.criterion,
			Quote:        claim.quote,
			Verification: status,
			Matched:      matched,
		})
	}

	if result.TotalScore != nil && len(result.ItemScores) > 0 {
		if sum := result.AwardedSum(); sum != *result.TotalScore {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("총점(%d점)이 항목 점수 합계(%d점)와 일치하지 않습니다", *result.TotalScore, sum))
		}
	}

	return result, nil
}

func parseScoreTable(response string) []ItemScore {
	var items []ItemScore

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Count(trimmed, "|") < 3 {
			continue
		}
		if gradeRowRuler.MatchString(trimmed) {
			continue
		}

		cells := splitTableRow(trimmed)
		if len(cells) != 4 {
			continue
		}
		if isGradeHeader(cells) {
			continue
		}

		maxPoints, okMax := firstNumber(cells[1])
		awarded, okAwarded := firstNumber(cells[2])
		if !okMax || !okAwarded {
			continue
		}

		criterion := stripBold(cells[0])
		if criterion == "" {
			continue
		}

		items = append(items, ItemScore{
			Criterion:     criterion,
			MaxPoints:     maxPoints,
			Awarded:       awarded,
			Justification: stripBold(cells[3]),
		})
	}

	return items
}

func parseSummary(response string) string {
	match := summaryPattern.FindStringSubmatch(response)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(match[1]), "**"))
}

type evidenceClaim struct {
	criterion string
	quote     string
}

func parseEvidenceClaims(response string) []evidenceClaim {
	section := evidencePattern.FindStringSubmatch(response)
	if section == nil {
		return nil
	}

	var claims []evidenceClaim
	lastCriterion := ""

	for _, line := range strings.Split(section[1], "\n") {
		quotes := quotePattern.FindAllStringSubmatchIndex(line, -1)
		if len(quotes) == 0 {
			continue
		}

		prefix := strings.TrimSpace(line[:quotes[0][0]])
		prefix = strings.Trim(prefix, "-*•0123456789. ")
		prefix = strings.TrimSpace(strings.Trim(stripBold(prefix), ":："))
		if prefix != "" {
			lastCriterion = prefix
		}

		for _, loc := range quotes {
			claims = append(claims, evidenceClaim{
				criterion: lastCriterion,
				quote:     line[loc[2]:loc[3]],
			})
		}
	}

	return claims
}

func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

func isGradeHeader(cells []string) bool {
	first := stripBold(cells[0])
	third := stripBold(cells[2])
	return strings.Contains(first, "채점 항목") || strings.EqualFold(first, "criterion") ||
		strings.Contains(third, "부여 점수") || strings.EqualFold(third, "awarded_points")
}

func firstNumber(cell string) (int, bool) {
	match := numberPattern.FindStringSubmatch(stripBold(cell))
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func stripBold(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}
