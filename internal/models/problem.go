package models

import "time"

// Problem is one uploaded exam problem. The key is derived from the uploaded
// document's name and stays stable across the grading workflow; the extracted
// text is immutable after creation.
type Problem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:255;not null;uniqueIndex" json:"key"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentAnswer is one gradable answer scoped to a problem. The collection
// for a problem is replaced wholesale on each upload batch.
type StudentAnswer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProblemKey string    `gorm:"size:255;not null;index" json:"problem_key"`
	Name       string    `gorm:"size:64;not null" json:"name"`
	StudentID  string    `gorm:"size:32;not null" json:"student_id"`
	SourceFile string    `gorm:"size:255" json:"source_file"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
