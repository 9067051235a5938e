package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/grading"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

// ErrAnswerNotFound indicates the requested answer does not exist.
var ErrAnswerNotFound = errors.New("answer not found")

// ErrNoAnswers indicates the problem has no answers to grade.
var ErrNoAnswers = errors.New("no answers uploaded for problem")

// GradingService grades single answers for rubric validation before a batch
// run is committed.
type GradingService interface {
	GradeAnswer(ctx context.Context, problemKey string, answerID uint) (dto.GradingResultResponse, error)
	GradeRandom(ctx context.Context, problemKey string) (dto.GradingResultResponse, error)
}

type gradingService struct {
	rubrics   repository.RubricRepository
	answers   repository.AnswerRepository
	reports   repository.ReportRepository
	client    llm.Client
	extractor grading.Extractor

	maxEvidence int
	pick        func(n int) int
	logger      zerolog.Logger
}

// NewGradingService constructs a sample grading service.
func NewGradingService(
	rubrics repository.RubricRepository,
	answers repository.AnswerRepository,
	reports repository.ReportRepository,
	client llm.Client,
	fuzzyThreshold float64,
	maxEvidence int,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		rubrics:     rubrics,
		answers:     answers,
		reports:     reports,
		client:      client,
		extractor:   grading.Extractor{FuzzyThreshold: fuzzyThreshold},
		maxEvidence: maxEvidence,
		pick:        rand.Intn,
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) GradeAnswer(ctx context.Context, problemKey string, answerID uint) (dto.GradingResultResponse, error) {
	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingResultResponse{}, ErrAnswerNotFound
		}
		return dto.GradingResultResponse{}, err
	}
	if answer.ProblemKey != problemKey {
		return dto.GradingResultResponse{}, ErrAnswerNotFound
	}

	return s.grade(ctx, problemKey, answer)
}

// GradeRandom samples one answer uniformly. Spot-checking a random student
// is how the instructor validates a rubric before a full batch run.
func (s *gradingService) GradeRandom(ctx context.Context, problemKey string) (dto.GradingResultResponse, error) {
	answers, err := s.answers.List(ctx, problemKey)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}
	if len(answers) == 0 {
		return dto.GradingResultResponse{}, ErrNoAnswers
	}

	return s.grade(ctx, problemKey, answers[s.pick(len(answers))])
}

func (s *gradingService) grade(ctx context.Context, problemKey string, answer models.StudentAnswer) (dto.GradingResultResponse, error) {
	rubricModel, err := s.rubrics.GetEffective(ctx, problemKey)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	prompt := grading.Prompt(rubricModel.RawText, answer.Name, answer.StudentID, answer.Text, s.maxEvidence)
	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	result, err := s.extractor.Extract(raw, answer.Text)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}

	record, err := newGradingRecord(problemKey, answer, rubricModel.Stage, result, raw)
	if err != nil {
		return dto.GradingResultResponse{}, err
	}
	if err := s.reports.SaveRecord(ctx, &record); err != nil {
		return dto.GradingResultResponse{}, err
	}

	s.logger.Info().
		Str("problem_key", problemKey).
		Uint("answer_id", answer.ID).
		Str("student", answer.Name).
		Msg("sample graded")

	response := toGradingResponse(answer.ID, answer.Name, answer.StudentID, rubricModel.Stage, result)
	response.HighlightedHTML = grading.Highlight(answer.Text, result.Evidence)
	return response, nil
}

func newGradingRecord(problemKey string, answer models.StudentAnswer, stage string, result grading.Result, raw string) (models.GradingRecord, error) {
	itemScores, err := json.Marshal(result.ItemScores)
	if err != nil {
		return models.GradingRecord{}, err
	}
	evidence, err := json.Marshal(result.Evidence)
	if err != nil {
		return models.GradingRecord{}, err
	}
	warnings, err := json.Marshal(result.Warnings)
	if err != nil {
		return models.GradingRecord{}, err
	}

	return models.GradingRecord{
		ProblemKey:  problemKey,
		AnswerID:    answer.ID,
		StudentName: answer.Name,
		StudentID:   answer.StudentID,
		RubricStage: stage,
		TotalScore:  result.TotalScore,
		Summary:     result.Summary,
		ItemScores:  itemScores,
		Evidence:    evidence,
		Warnings:    warnings,
		RawResponse: raw,
	}, nil
}

func toGradingResponse(answerID uint, name, studentID, stage string, result grading.Result) dto.GradingResultResponse {
	return dto.GradingResultResponse{
		AnswerID:    answerID,
		StudentName: name,
		StudentID:   studentID,
		RubricStage: stage,
		TotalScore:  result.TotalScore,
		Summary:     result.Summary,
		ItemScores:  result.ItemScores,
		Evidence:    result.Evidence,
		Warnings:    result.Warnings,
	}
}
