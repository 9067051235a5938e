package dto

import "time"

// ProblemResponse describes one uploaded exam problem.
type ProblemResponse struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AnswerSummary is one accepted student answer.
type AnswerSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
	Source    string `json:"source"`
	Chars     int    `json:"chars"`
}

// SkippedFile explains why an uploaded answer document was excluded.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// AnswerUploadResponse reports the outcome of an answer upload batch. The
// collection is replaced wholesale, so Accepted is the complete new state.
type AnswerUploadResponse struct {
	ProblemKey string          `json:"problem_key"`
	Accepted   []AnswerSummary `json:"accepted"`
	Skipped    []SkippedFile   `json:"skipped"`
}
