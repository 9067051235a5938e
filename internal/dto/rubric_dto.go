package dto

import (
	"time"

	"github.com/channwl/DPT-scroring-program/internal/rubric"
)

// FeedbackRequest carries the instructor's natural-language rubric critique.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// RubricResponse describes one rubric version. Consistent reports whether
// the declared total matches the item sum; a mismatch is surfaced in
// Warnings but never blocks acceptance.
type RubricResponse struct {
	ProblemKey    string        `json:"problem_key"`
	Stage         string        `json:"stage"`
	Items         []rubric.Item `json:"items"`
	DeclaredTotal int           `json:"declared_total"`
	RawText       string        `json:"raw_text"`
	Consistent    bool          `json:"consistent"`
	Warnings      []string      `json:"warnings,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
