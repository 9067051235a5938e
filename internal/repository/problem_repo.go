package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/models"
)

// ErrProblemExists indicates a problem with the same key was already uploaded.
var ErrProblemExists = errors.New("problem already exists")

// ProblemRepository exposes persistence operations for exam problems.
type ProblemRepository interface {
	Create(ctx context.Context, problem *models.Problem) error
	GetByKey(ctx context.Context, key string) (models.Problem, error)
	List(ctx context.Context) ([]models.Problem, error)
}

// NewProblemRepository constructs a problem repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

type problemRepository struct {
	db *gorm.DB
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Problem{}).Where("key = ?", problem.Key).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrProblemExists
	}

	return r.db.WithContext(ctx).Create(problem).Error
}

func (r *problemRepository) GetByKey(ctx context.Context, key string) (models.Problem, error) {
	var problem models.Problem
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&problem).Error
	return problem, err
}

func (r *problemRepository) List(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&problems).Error
	return problems, err
}
