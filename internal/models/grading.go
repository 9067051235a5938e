package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradingRecord is one immutable grading outcome for a (rubric, answer)
// pair. Re-grading creates a new record. TotalScore is null when the model
// response carried no usable total; null is distinct from an earned zero.
type GradingRecord struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProblemKey  string         `gorm:"size:255;not null;index" json:"problem_key"`
	AnswerID    uint           `gorm:"not null" json:"answer_id"`
	BatchID     string         `gorm:"size:36;index" json:"batch_id,omitempty"`
	Rank        int            `gorm:"not null;default:0" json:"rank"`
	StudentName string         `gorm:"size:64;not null" json:"student_name"`
	StudentID   string         `gorm:"size:32;not null" json:"student_id"`
	RubricStage string         `gorm:"size:16;not null" json:"rubric_stage"`
	TotalScore  *int           `json:"total_score"`
	Summary     string         `gorm:"type:text" json:"summary"`
	ItemScores  datatypes.JSON `json:"item_scores"`
	Evidence    datatypes.JSON `json:"evidence"`
	Warnings    datatypes.JSON `json:"warnings"`
	RawResponse string         `gorm:"type:text" json:"raw_response"`
	Failed      bool           `gorm:"not null;default:false" json:"failed"`
	CreatedAt   time.Time      `json:"created_at"`
}

// BatchReport aggregates one batch grading run. Records keep their final
// ranking order via GradingRecord rows sharing this report's BatchID.
type BatchReport struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	ProblemKey   string         `gorm:"size:255;not null;index" json:"problem_key"`
	RubricStage  string         `gorm:"size:16;not null" json:"rubric_stage"`
	Total        int            `gorm:"not null" json:"total"`
	Graded       int            `gorm:"not null" json:"graded"`
	Failed       int            `gorm:"not null" json:"failed"`
	Mean         *float64       `json:"mean"`
	Min          *int           `json:"min"`
	Max          *int           `json:"max"`
	Distribution datatypes.JSON `json:"distribution"`
	CreatedAt    time.Time      `json:"created_at"`
}
