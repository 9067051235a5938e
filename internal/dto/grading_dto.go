package dto

import (
	"time"

	"github.com/channwl/DPT-scroring-program/internal/grading"
)

// SampleGradeRequest selects the answer to preview-grade. A nil AnswerID
// asks for a randomly sampled answer, mirroring the instructor workflow of
// spot-checking one student before committing to a batch run.
type SampleGradeRequest struct {
	AnswerID *uint `json:"answer_id"`
}

// GradingResultResponse is the full drill-down for one graded answer.
type GradingResultResponse struct {
	AnswerID        uint                `json:"answer_id"`
	StudentName     string              `json:"student_name"`
	StudentID       string              `json:"student_id"`
	RubricStage     string              `json:"rubric_stage"`
	TotalScore      *int                `json:"total_score"`
	Summary         string              `json:"summary"`
	ItemScores      []grading.ItemScore `json:"item_scores"`
	Evidence        []grading.Evidence  `json:"evidence"`
	Warnings        []string            `json:"warnings,omitempty"`
	HighlightedHTML string              `json:"highlighted_html,omitempty"`
	Failed          bool                `json:"failed"`
}

// DistributionBin is one bar of the score histogram.
type DistributionBin struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

// BatchReportResponse aggregates a batch grading run. Results are ordered by
// descending total score with unparsed scores last; aggregate statistics
// cover only results with a non-null total.
type BatchReportResponse struct {
	ID           string                  `json:"id"`
	ProblemKey   string                  `json:"problem_key"`
	RubricStage  string                  `json:"rubric_stage"`
	Total        int                     `json:"total"`
	Graded       int                     `json:"graded"`
	Failed       int                     `json:"failed"`
	Mean         *float64                `json:"mean"`
	Min          *int                    `json:"min"`
	Max          *int                    `json:"max"`
	Distribution []DistributionBin       `json:"distribution"`
	Results      []GradingResultResponse `json:"results"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ProgressEvent reports batch grading progress. It is advisory only; no
// other component depends on its data.
type ProgressEvent struct {
	ProblemKey string `json:"problem_key"`
	BatchID    string `json:"batch_id"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
	Student    string `json:"student"`
	Failed     bool   `json:"failed"`
}
