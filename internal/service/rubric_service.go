package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/internal/rubric"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

// ErrEmptyFeedback indicates a revision request with no actual feedback.
// Revision is rejected before any model call is made.
var ErrEmptyFeedback = errors.New("feedback must not be empty")

// RubricService generates, revises and serves grading rubrics.
type RubricService interface {
	// Generate creates the original rubric from the problem text. A second
	// call for the same problem fails unless overwrite is set; overwriting
	// keeps any existing revision in place.
	Generate(ctx context.Context, problemKey string, overwrite bool) (dto.RubricResponse, error)
	// Revise builds a revised rubric from instructor feedback applied to the
	// currently effective rubric.
	Revise(ctx context.Context, problemKey, feedback string) (dto.RubricResponse, error)
	// Get returns the rubric for a stage: "original", "revised" or
	// "effective" (revised when present, else original).
	Get(ctx context.Context, problemKey, stage string) (dto.RubricResponse, error)
}

type rubricService struct {
	problems repository.ProblemRepository
	rubrics  repository.RubricRepository
	client   llm.Client
	logger   zerolog.Logger
}

// NewRubricService constructs a rubric service.
func NewRubricService(problems repository.ProblemRepository, rubrics repository.RubricRepository, client llm.Client, logger zerolog.Logger) RubricService {
	return &rubricService{
		problems: problems,
		rubrics:  rubrics,
		client:   client,
		logger:   logger.With().Str("component", "rubric_service").Logger(),
	}
}

func (s *rubricService) Generate(ctx context.Context, problemKey string, overwrite bool) (dto.RubricResponse, error) {
	problem, err := s.problems.GetByKey(ctx, problemKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrProblemNotFound
		}
		return dto.RubricResponse{}, err
	}

	// Check the overwrite guard before spending a model call.
	if !overwrite {
		if _, err := s.rubrics.GetOriginal(ctx, problemKey); err == nil {
			return dto.RubricResponse{}, repository.ErrRubricExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, err
		}
	}

	parsed, model, err := s.complete(ctx, problemKey, rubric.GeneratePrompt(problem.Text))
	if err != nil {
		return dto.RubricResponse{}, err
	}

	if err := s.rubrics.SetOriginal(ctx, model, overwrite); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().
		Str("problem_key", problemKey).
		Bool("overwrite", overwrite).
		Int("items", len(parsed.Items)).
		Msg("rubric generated")

	return toRubricResponse(*model, parsed), nil
}

func (s *rubricService) Revise(ctx context.Context, problemKey, feedback string) (dto.RubricResponse, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return dto.RubricResponse{}, ErrEmptyFeedback
	}

	// Revision iterates on the latest accepted state, so feedback applies to
	// the effective rubric rather than always to the original.
	effective, err := s.rubrics.GetEffective(ctx, problemKey)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	parsed, model, err := s.complete(ctx, problemKey, rubric.RevisePrompt(effective.RawText, feedback))
	if err != nil {
		return dto.RubricResponse{}, err
	}

	if err := s.rubrics.SetRevised(ctx, model); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().
		Str("problem_key", problemKey).
		Int("items", len(parsed.Items)).
		Msg("rubric revised")

	return toRubricResponse(*model, parsed), nil
}

func (s *rubricService) Get(ctx context.Context, problemKey, stage string) (dto.RubricResponse, error) {
	var (
		model models.Rubric
		err   error
	)
	switch stage {
	case models.RubricStageOriginal:
		model, err = s.rubrics.GetOriginal(ctx, problemKey)
	case models.RubricStageRevised:
		model, err = s.rubrics.GetRevised(ctx, problemKey)
	default:
		model, err = s.rubrics.GetEffective(ctx, problemKey)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, repository.ErrNoRubric
		}
		return dto.RubricResponse{}, err
	}

	parsed, perr := rubric.Parse(model.RawText)
	if perr != nil {
		return dto.RubricResponse{}, perr
	}
	return toRubricResponse(model, parsed), nil
}

// complete runs one rubric prompt through the model and parses the reply
// into the stored canonical form.
func (s *rubricService) complete(ctx context.Context, problemKey, prompt string) (rubric.Rubric, *models.Rubric, error) {
	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return rubric.Rubric{}, nil, err
	}

	parsed, err := rubric.Parse(raw)
	if err != nil {
		return rubric.Rubric{}, nil, err
	}

	items, err := json.Marshal(parsed.Items)
	if err != nil {
		return rubric.Rubric{}, nil, err
	}

	return parsed, &models.Rubric{
		ProblemKey:    problemKey,
		Items:         datatypes.JSON(items),
		DeclaredTotal: parsed.DeclaredTotal,
		RawText:       rubric.Render(parsed),
	}, nil
}

func toRubricResponse(model models.Rubric, parsed rubric.Rubric) dto.RubricResponse {
	response := dto.RubricResponse{
		ProblemKey:    model.ProblemKey,
		Stage:         model.Stage,
		Items:         parsed.Items,
		DeclaredTotal: parsed.DeclaredTotal,
		RawText:       model.RawText,
		Consistent:    parsed.Consistent(),
		UpdatedAt:     model.UpdatedAt,
	}
	if !response.Consistent {
		response.Warnings = append(response.Warnings, fmt.Sprintf(
			"배점 총합(%d점)이 항목 배점 합계(%d점)와 일치하지 않습니다", parsed.DeclaredTotal, parsed.SumPoints()))
	}
	return response
}
