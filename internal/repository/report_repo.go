package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/models"
)

// ReportRepository persists grading records and batch reports.
type ReportRepository interface {
	SaveRecord(ctx context.Context, record *models.GradingRecord) error
	SaveReport(ctx context.Context, report *models.BatchReport, records []models.GradingRecord) error
	GetReport(ctx context.Context, id string) (models.BatchReport, []models.GradingRecord, error)
	LatestReport(ctx context.Context, problemKey string) (models.BatchReport, error)
}

// NewReportRepository constructs a report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

type reportRepository struct {
	db *gorm.DB
}

func (r *reportRepository) SaveRecord(ctx context.Context, record *models.GradingRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *reportRepository) SaveReport(ctx context.Context, report *models.BatchReport, records []models.GradingRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return err
		}

		for i := range records {
			records[i].BatchID = report.ID
			records[i].Rank = i + 1
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

func (r *reportRepository) GetReport(ctx context.Context, id string) (models.BatchReport, []models.GradingRecord, error) {
	var report models.BatchReport
	if err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return models.BatchReport{}, nil, err
	}

	var records []models.GradingRecord
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", id).
		Order("rank ASC").
		Find(&records).Error; err != nil {
		return models.BatchReport{}, nil, err
	}

	return report, records, nil
}

func (r *reportRepository) LatestReport(ctx context.Context, problemKey string) (models.BatchReport, error) {
	var report models.BatchReport
	err := r.db.WithContext(ctx).
		Where("problem_key = ?", problemKey).
		Order("created_at DESC").
		First(&report).Error
	return report, err
}
