package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/models"
)

// ErrRubricExists indicates an attempt to overwrite an original rubric
// without explicit confirmation. Silent replacement would invalidate every
// grading result produced under the old rubric.
var ErrRubricExists = errors.New("original rubric already exists")

// ErrNoRubric indicates the problem has neither an original nor a revised
// rubric yet.
var ErrNoRubric = errors.New("no rubric exists for problem")

// RubricRepository is the canonical rubric store. Each problem owns at most
// one original and one revised rubric; the effective rubric for any grading
// call is the revised one when present, else the original.
type RubricRepository interface {
	GetOriginal(ctx context.Context, problemKey string) (models.Rubric, error)
	SetOriginal(ctx context.Context, rubric *models.Rubric, overwrite bool) error
	GetRevised(ctx context.Context, problemKey string) (models.Rubric, error)
	SetRevised(ctx context.Context, rubric *models.Rubric) error
	GetEffective(ctx context.Context, problemKey string) (models.Rubric, error)
}

// NewRubricRepository constructs the rubric store.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

type rubricRepository struct {
	db *gorm.DB
}

func (r *rubricRepository) GetOriginal(ctx context.Context, problemKey string) (models.Rubric, error) {
	return r.getStage(ctx, problemKey, models.RubricStageOriginal)
}

// SetOriginal stores the generated rubric. Replacing an existing original is
// destructive and requires overwrite; any existing revision is left in place
// so the instructor can review it against the regenerated original.
func (r *rubricRepository) SetOriginal(ctx context.Context, rubric *models.Rubric, overwrite bool) error {
	rubric.Stage = models.RubricStageOriginal

	existing, err := r.getStage(ctx, rubric.ProblemKey, models.RubricStageOriginal)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err == nil {
		if !overwrite {
			return ErrRubricExists
		}
		rubric.ID = existing.ID
		rubric.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(rubric).Error
	}

	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) GetRevised(ctx context.Context, problemKey string) (models.Rubric, error) {
	return r.getStage(ctx, problemKey, models.RubricStageRevised)
}

// SetRevised upserts the revision; revisions are expected to iterate and a
// new one always replaces the previous one. The original is never touched.
func (r *rubricRepository) SetRevised(ctx context.Context, rubric *models.Rubric) error {
	rubric.Stage = models.RubricStageRevised

	existing, err := r.getStage(ctx, rubric.ProblemKey, models.RubricStageRevised)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err == nil {
		rubric.ID = existing.ID
		rubric.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(rubric).Error
	}

	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) GetEffective(ctx context.Context, problemKey string) (models.Rubric, error) {
	revised, err := r.getStage(ctx, problemKey, models.RubricStageRevised)
	if err == nil {
		return revised, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Rubric{}, err
	}

	original, err := r.getStage(ctx, problemKey, models.RubricStageOriginal)
	if err == nil {
		return original, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Rubric{}, ErrNoRubric
	}
	return models.Rubric{}, err
}

func (r *rubricRepository) getStage(ctx context.Context, problemKey, stage string) (models.Rubric, error) {
	var rubric models.Rubric
	err := r.db.WithContext(ctx).
		Where("problem_key = ? AND stage = ?", problemKey, stage).
		First(&rubric).Error
	return rubric, err
}
