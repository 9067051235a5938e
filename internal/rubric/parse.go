package rubric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError indicates the model response contained no usable rubric table.
// Raw carries the full response for manual inspection.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rubric parse failed: %s", e.Reason)
}

var (
	pointsPattern = regexp.MustCompile(`(\d+)\s*(?:점|points?)?`)
	totalPattern  = regexp.MustCompile(`(?:배점\s*총합|Total)\s*[:：]?\s*\**\s*(\d+)\s*(?:점|points?)?`)
	rulerPattern  = regexp.MustCompile(`^[\s|:\-]+$`)
)

// Parse recovers a Rubric from free-form model text. It locates the first
// criterion table, tolerating missing boundary pipes, uneven spacing and
// bold markers, and drops rows that do not carry three columns. The declared
// total comes from the last total-declaration line; when the model omits it
// the item sum is used so the rubric stays usable.
func Parse(text string) (Rubric, error) {
	var items []Item

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Count(trimmed, "|") < 2 {
			continue
		}
		if rulerPattern.MatchString(trimmed) {
			continue
		}

		cells := splitRow(trimmed)
		if len(cells) != 3 {
			continue
		}
		if isHeaderRow(cells) {
			continue
		}

		points, ok := parsePoints(cells[1])
		if !ok || points <= 0 {
			continue
		}

		criterion := stripEmphasis(cells[0])
		description := stripEmphasis(cells[2])
		if criterion == "" || description == "" {
			continue
		}

		items = append(items, Item{
			Criterion:   criterion,
			MaxPoints:   points,
			Description: description,
		})
	}

	if len(items) == 0 {
		return Rubric{}, &ParseError{Reason: "no criterion table found", Raw: text}
	}

	rubric := Rubric{Items: items}

	if matches := totalPattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		total, err := strconv.Atoi(last[1])
		if err == nil {
			rubric.DeclaredTotal = total
		}
	}
	if rubric.DeclaredTotal == 0 {
		rubric.DeclaredTotal = rubric.SumPoints()
	}

	return rubric, nil
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

func isHeaderRow(cells []string) bool {
	first := stripEmphasis(cells[0])
	second := stripEmphasis(cells[1])
	return strings.Contains(first, "채점 항목") || strings.EqualFold(first, "criterion") ||
		second == "배점" || strings.EqualFold(second, "max_points")
}

func parsePoints(cell string) (int, bool) {
	match := pointsPattern.FindStringSubmatch(stripEmphasis(cell))
	if match == nil {
		return 0, false
	}
	points, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return points, true
}

func stripEmphasis(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}
