package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rubric lifecycle stages. A problem owns at most one rubric per stage; the
// revised rubric, when present, takes precedence for every grading call.
const (
	RubricStageOriginal = "original"
	RubricStageRevised  = "revised"
)

// Rubric is one stored rubric version. Items holds the parsed criteria as
// JSON; RawText keeps the canonical rendered table that prompts embed.
type Rubric struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ProblemKey    string         `gorm:"size:255;not null;index:idx_rubric_problem_stage,unique" json:"problem_key"`
	Stage         string         `gorm:"size:16;not null;index:idx_rubric_problem_stage,unique" json:"stage"`
	Items         datatypes.JSON `gorm:"not null" json:"items"`
	DeclaredTotal int            `gorm:"not null" json:"declared_total"`
	RawText       string         `gorm:"type:text;not null" json:"raw_text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
