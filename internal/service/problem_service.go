package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/extract"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
)

// ErrProblemNotFound indicates the problem key is unknown.
var ErrProblemNotFound = errors.New("problem not found")

// ErrEmptyProblem indicates the uploaded document yielded no usable text.
var ErrEmptyProblem = errors.New("problem document contains no extractable text")

// ProblemService manages exam problem uploads.
type ProblemService interface {
	Create(ctx context.Context, filename string, data []byte) (dto.ProblemResponse, error)
	Get(ctx context.Context, key string) (dto.ProblemResponse, error)
	List(ctx context.Context) ([]dto.ProblemResponse, error)
}

type problemService struct {
	problems repository.ProblemRepository
	logger   zerolog.Logger
}

// NewProblemService constructs a problem service.
func NewProblemService(problems repository.ProblemRepository, logger zerolog.Logger) ProblemService {
	return &problemService{
		problems: problems,
		logger:   logger.With().Str("component", "problem_service").Logger(),
	}
}

// Create extracts the problem text and stores it under a key derived from
// the document name. Problems are immutable once created.
func (s *problemService) Create(ctx context.Context, filename string, data []byte) (dto.ProblemResponse, error) {
	extractor, err := extract.ForContent(data)
	if err != nil {
		return dto.ProblemResponse{}, err
	}

	text, err := extractor.Extract(data)
	if err != nil {
		return dto.ProblemResponse{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return dto.ProblemResponse{}, ErrEmptyProblem
	}

	problem := models.Problem{
		Key:      ProblemKey(filename),
		Filename: filepath.Base(filename),
		Text:     text,
	}

	if err := s.problems.Create(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	s.logger.Info().Str("problem_key", problem.Key).Int("chars", len(text)).Msg("problem created")

	return toProblemResponse(problem), nil
}

func (s *problemService) Get(ctx context.Context, key string) (dto.ProblemResponse, error) {
	problem, err := s.problems.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}

	return toProblemResponse(problem), nil
}

func (s *problemService) List(ctx context.Context) ([]dto.ProblemResponse, error) {
	problems, err := s.problems.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ProblemResponse, 0, len(problems))
	for _, problem := range problems {
		responses = append(responses, toProblemResponse(problem))
	}
	return responses, nil
}

// ProblemKey derives the stable problem key from an uploaded document name.
func ProblemKey(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Join(strings.Fields(base), "_")
}

func toProblemResponse(problem models.Problem) dto.ProblemResponse {
	return dto.ProblemResponse{
		Key:       problem.Key,
		Filename:  problem.Filename,
		Text:      problem.Text,
		CreatedAt: problem.CreatedAt,
	}
}
