// Package grading turns free-form grading responses into typed results and
// verifies claimed evidence against the original answer text.
package grading

// Verification tags how an evidence span was matched against the answer.
// Every evidence entry carries exactly one tag.
type Verification string

const (
	// VerifiedExact means the span is a verbatim substring of the answer.
	VerifiedExact Verification = "exact"
	// VerifiedFuzzy means a line of the answer matched above the similarity threshold.
	VerifiedFuzzy Verification = "fuzzy"
	// Unverified means no line of the answer supports the span. The span is
	// kept so the instructor can see which evidence is model-fabricated.
	Unverified Verification = "unverified"
)

// ItemScore is one row of the grading table.
type ItemScore struct {
	Criterion     string `json:"criterion"`
	MaxPoints     int    `json:"max_points"`
	Awarded       int    `json:"awarded"`
	Justification string `json:"justification"`
}

// Evidence is a span the model claims to have quoted from the answer.
// Matched holds the answer text that backed the verification: the quote
// itself for exact matches, the closest answer line for fuzzy ones.
type Evidence struct {
	Criterion    string       `json:"criterion"`
	Quote        string       `json:"quote"`
	Verification Verification `json:"verification"`
	Matched      string       `json:"matched,omitempty"`
}

// Result is the structured form of one grading response. TotalScore is nil
// when the response carried no total marker; nil and zero are distinct.
type Result struct {
	ItemScores []ItemScore `json:"item_scores"`
	TotalScore *int        `json:"total_score"`
	Summary    string      `json:"summary"`
	Evidence   []Evidence  `json:"evidence"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// AwardedSum returns the sum of per-item awarded points.
func (r Result) AwardedSum() int {
	sum := 0
	for _, item := range r.ItemScores {
		sum += item.Awarded
	}
	return sum
}
