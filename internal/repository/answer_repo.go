package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/models"
)

// AnswerRepository manages the student answer collection for a problem.
type AnswerRepository interface {
	// ReplaceAll swaps the whole collection for the problem in one
	// transaction; uploads are not merged incrementally.
	ReplaceAll(ctx context.Context, problemKey string, answers []models.StudentAnswer) error
	List(ctx context.Context, problemKey string) ([]models.StudentAnswer, error)
	GetByID(ctx context.Context, id uint) (models.StudentAnswer, error)
}

// NewAnswerRepository constructs an answer repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

type answerRepository struct {
	db *gorm.DB
}

func (r *answerRepository) ReplaceAll(ctx context.Context, problemKey string, answers []models.StudentAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("problem_key = ?", problemKey).Delete(&models.StudentAnswer{}).Error; err != nil {
			return err
		}

		if len(answers) == 0 {
			return nil
		}

		for i := range answers {
			answers[i].ProblemKey = problemKey
		}
		return tx.Create(&answers).Error
	})
}

// List returns answers in stable insertion order, which batch grading relies
// on for deterministic tie-breaking.
func (r *answerRepository) List(ctx context.Context, problemKey string) ([]models.StudentAnswer, error) {
	var answers []models.StudentAnswer
	err := r.db.WithContext(ctx).
		Where("problem_key = ?", problemKey).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (models.StudentAnswer, error) {
	var answer models.StudentAnswer
	err := r.db.WithContext(ctx).First(&answer, id).Error
	return answer, err
}
