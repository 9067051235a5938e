package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/grading"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/observability"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

// ErrReportNotFound indicates no batch report exists for the identifier.
var ErrReportNotFound = errors.New("batch report not found")

// BatchService runs batch grading over a problem's whole answer collection
// and serves the resulting reports.
type BatchService interface {
	// Run grades every uploaded answer sequentially. A failure for one
	// student degrades that student's record and never aborts the batch;
	// only context cancellation stops the run early.
	Run(ctx context.Context, problemKey string) (dto.BatchReportResponse, error)
	GetReport(ctx context.Context, id string) (dto.BatchReportResponse, error)
	LatestReport(ctx context.Context, problemKey string) (dto.BatchReportResponse, error)
	ExportCSV(ctx context.Context, id string) ([]byte, error)
}

type batchService struct {
	rubrics   repository.RubricRepository
	answers   repository.AnswerRepository
	reports   repository.ReportRepository
	client    llm.Client
	extractor grading.Extractor
	progress  ProgressPublisher
	redis     *redis.Client
	cacheTTL  time.Duration

	maxEvidence int
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewBatchService constructs the batch grading orchestrator.
func NewBatchService(
	rubrics repository.RubricRepository,
	answers repository.AnswerRepository,
	reports repository.ReportRepository,
	client llm.Client,
	progress ProgressPublisher,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	fuzzyThreshold float64,
	maxEvidence int,
	logger zerolog.Logger,
) BatchService {
	return &batchService{
		rubrics:     rubrics,
		answers:     answers,
		reports:     reports,
		client:      client,
		extractor:   grading.Extractor{FuzzyThreshold: fuzzyThreshold},
		progress:    progress,
		redis:       redisClient,
		cacheTTL:    cacheTTL,
		maxEvidence: maxEvidence,
		logger:      logger.With().Str("component", "batch_service").Logger(),
		tracer:      otel.Tracer("github.com/channwl/DPT-scroring-program/internal/service/batch"),
	}
}

func (s *batchService) Run(ctx context.Context, problemKey string) (dto.BatchReportResponse, error) {
	rubricModel, err := s.rubrics.GetEffective(ctx, problemKey)
	if err != nil {
		return dto.BatchReportResponse{}, err
	}

	students, err := s.answers.List(ctx, problemKey)
	if err != nil {
		return dto.BatchReportResponse{}, err
	}
	if len(students) == 0 {
		return dto.BatchReportResponse{}, ErrNoAnswers
	}

	batchID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "batch.run", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.String("batch.problem_key", problemKey),
		attribute.Int("batch.answers", len(students)),
	))
	defer span.End()

	started := time.Now()
	records := make([]models.GradingRecord, 0, len(students))
	failed := 0

	for i, answer := range students {
		// Cancellation is honored between students, never mid-call.
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return dto.BatchReportResponse{}, err
		}

		record, gradeErr := s.gradeStudent(ctx, problemKey, rubricModel, answer)
		if gradeErr != nil {
			if ctx.Err() != nil {
				span.RecordError(ctx.Err())
				return dto.BatchReportResponse{}, ctx.Err()
			}
			record = degradedRecord(problemKey, answer, rubricModel.Stage, gradeErr)
			failed++
			observability.GradingFailuresTotal().Inc()
			s.logger.Warn().
				Err(gradeErr).
				Str("problem_key", problemKey).
				Str("student", answer.Name).
				Msg("student grading degraded")
		}
		records = append(records, record)

		s.progress.Publish(ctx, dto.ProgressEvent{
			ProblemKey: problemKey,
			BatchID:    batchID,
			Done:       i + 1,
			Total:      len(students),
			Student:    answer.Name,
			Failed:     record.Failed,
		})
	}

	sortRecords(records)

	report, err := buildReport(batchID, problemKey, rubricModel.Stage, records)
	if err != nil {
		return dto.BatchReportResponse{}, err
	}
	report.Failed = failed
	report.Graded = len(records) - failed

	if err := s.reports.SaveReport(ctx, &report, records); err != nil {
		return dto.BatchReportResponse{}, err
	}

	observability.BatchRunsTotal().Inc()
	observability.BatchDurationSeconds().Observe(time.Since(started).Seconds())
	s.logger.Info().
		Str("batch_id", batchID).
		Str("problem_key", problemKey).
		Int("graded", report.Graded).
		Int("failed", report.Failed).
		Dur("elapsed", time.Since(started)).
		Msg("batch grading finished")

	response, err := toReportResponse(report, records)
	if err != nil {
		return dto.BatchReportResponse{}, err
	}
	s.cacheReport(ctx, response)
	return response, nil
}

func (s *batchService) gradeStudent(ctx context.Context, problemKey string, rubricModel models.Rubric, answer models.StudentAnswer) (models.GradingRecord, error) {
	prompt := grading.Prompt(rubricModel.RawText, answer.Name, answer.StudentID, answer.Text, s.maxEvidence)
	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return models.GradingRecord{}, err
	}

	result, err := s.extractor.Extract(raw, answer.Text)
	if err != nil {
		return models.GradingRecord{}, err
	}

	return newGradingRecord(problemKey, answer, rubricModel.Stage, result, raw)
}

// degradedRecord stands in for a student whose grading failed. The null
// total keeps the student out of every aggregate statistic.
func degradedRecord(problemKey string, answer models.StudentAnswer, stage string, cause error) models.GradingRecord {
	raw := ""
	var parseErr *grading.ParseError
	if errors.As(cause, &parseErr) {
		raw = parseErr.Raw
	}

	return models.GradingRecord{
		ProblemKey:  problemKey,
		AnswerID:    answer.ID,
		StudentName: answer.Name,
		StudentID:   answer.StudentID,
		RubricStage: stage,
		Summary:     "채점 실패: " + cause.Error(),
		ItemScores:  []byte("[]"),
		Evidence:    []byte("[]"),
		Warnings:    []byte("[]"),
		RawResponse: raw,
		Failed:      true,
	}
}

// sortRecords orders by descending total with null totals last. The sort is
// stable so equal scores keep their upload order.
func sortRecords(records []models.GradingRecord) {
	sort.SliceStable(records, func(a, b int) bool {
		sa, sb := records[a].TotalScore, records[b].TotalScore
		switch {
		case sa == nil:
			return false
		case sb == nil:
			return true
		default:
			return *sa > *sb
		}
	})
}

func buildReport(batchID, problemKey, stage string, records []models.GradingRecord) (models.BatchReport, error) {
	report := models.BatchReport{
		ID:          batchID,
		ProblemKey:  problemKey,
		RubricStage: stage,
		Total:       len(records),
	}

	var scores []int
	for _, record := range records {
		if record.TotalScore != nil {
			scores = append(scores, *record.TotalScore)
		}
	}

	if len(scores) > 0 {
		sum := 0
		minScore, maxScore := scores[0], scores[0]
		for _, score := range scores {
			sum += score
			if score < minScore {
				minScore = score
			}
			if score > maxScore {
				maxScore = score
			}
		}
		mean := float64(sum) / float64(len(scores))
		report.Mean = &mean
		report.Min = &minScore
		report.Max = &maxScore
	}

	distribution, err := json.Marshal(scoreDistribution(scores))
	if err != nil {
		return models.BatchReport{}, err
	}
	report.Distribution = distribution

	return report, nil
}

func scoreDistribution(scores []int) []dto.DistributionBin {
	counts := make(map[int]int, len(scores))
	for _, score := range scores {
		counts[score]++
	}

	bins := make([]dto.DistributionBin, 0, len(counts))
	for score, count := range counts {
		bins = append(bins, dto.DistributionBin{Score: score, Count: count})
	}
	sort.Slice(bins, func(a, b int) bool { return bins[a].Score < bins[b].Score })
	return bins
}

func (s *batchService) GetReport(ctx context.Context, id string) (dto.BatchReportResponse, error) {
	if cached, ok := s.cachedReport(ctx, id); ok {
		return cached, nil
	}

	report, records, err := s.reports.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchReportResponse{}, ErrReportNotFound
		}
		return dto.BatchReportResponse{}, err
	}

	response, err := toReportResponse(report, records)
	if err != nil {
		return dto.BatchReportResponse{}, err
	}
	s.cacheReport(ctx, response)
	return response, nil
}

func (s *batchService) LatestReport(ctx context.Context, problemKey string) (dto.BatchReportResponse, error) {
	report, err := s.reports.LatestReport(ctx, problemKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchReportResponse{}, ErrReportNotFound
		}
		return dto.BatchReportResponse{}, err
	}
	return s.GetReport(ctx, report.ID)
}

// ExportCSV renders a report as CSV. The UTF-8 BOM is required for Excel to
// open Korean names without mangling them.
func (s *batchService) ExportCSV(ctx context.Context, id string) ([]byte, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"rank", "name", "student_id", "total_score", "summary"}); err != nil {
		return nil, err
	}
	for i, result := range report.Results {
		score := ""
		if result.TotalScore != nil {
			score = strconv.Itoa(*result.TotalScore)
		}
		row := []string{strconv.Itoa(i + 1), result.StudentName, result.StudentID, score, result.Summary}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *batchService) cacheReport(ctx context.Context, response dto.BatchReportResponse) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal report for cache")
		return
	}
	if err := s.redis.Set(ctx, reportCacheKey(response.ID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache report")
	}
}

func (s *batchService) cachedReport(ctx context.Context, id string) (dto.BatchReportResponse, bool) {
	if s.redis == nil {
		return dto.BatchReportResponse{}, false
	}

	payload, err := s.redis.Get(ctx, reportCacheKey(id)).Result()
	if err != nil {
		return dto.BatchReportResponse{}, false
	}

	var response dto.BatchReportResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached report")
		return dto.BatchReportResponse{}, false
	}
	return response, true
}

func reportCacheKey(id string) string {
	return fmt.Sprintf("dpt:report:%s", id)
}

func toReportResponse(report models.BatchReport, records []models.GradingRecord) (dto.BatchReportResponse, error) {
	var distribution []dto.DistributionBin
	if len(report.Distribution) > 0 {
		if err := json.Unmarshal(report.Distribution, &distribution); err != nil {
			return dto.BatchReportResponse{}, err
		}
	}

	results := make([]dto.GradingResultResponse, 0, len(records))
	for _, record := range records {
		result, err := recordToResponse(record)
		if err != nil {
			return dto.BatchReportResponse{}, err
		}
		results = append(results, result)
	}

	return dto.BatchReportResponse{
		ID:           report.ID,
		ProblemKey:   report.ProblemKey,
		RubricStage:  report.RubricStage,
		Total:        report.Total,
		Graded:       report.Graded,
		Failed:       report.Failed,
		Mean:         report.Mean,
		Min:          report.Min,
		Max:          report.Max,
		Distribution: distribution,
		Results:      results,
		CreatedAt:    report.CreatedAt,
	}, nil
}

func recordToResponse(record models.GradingRecord) (dto.GradingResultResponse, error) {
	response := dto.GradingResultResponse{
		AnswerID:    record.AnswerID,
		StudentName: record.StudentName,
		StudentID:   record.StudentID,
		RubricStage: record.RubricStage,
		TotalScore:  record.TotalScore,
		Summary:     record.Summary,
		Failed:      record.Failed,
	}

	if len(record.ItemScores) > 0 {
		if err := json.Unmarshal(record.ItemScores, &response.ItemScores); err != nil {
			return dto.GradingResultResponse{}, err
		}
	}
	if len(record.Evidence) > 0 {
		if err := json.Unmarshal(record.Evidence, &response.Evidence); err != nil {
			return dto.GradingResultResponse{}, err
		}
	}
	if len(record.Warnings) > 0 {
		if err := json.Unmarshal(record.Warnings, &response.Warnings); err != nil {
			return dto.GradingResultResponse{}, err
		}
	}
	return response, nil
}
