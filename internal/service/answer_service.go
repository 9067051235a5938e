package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/extract"
	"github.com/channwl/DPT-scroring-program/internal/ident"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
)

// MinAnswerChars is the minimum extracted length for an answer to be graded.
// Anything at or below this is almost certainly a blank scan or a cover page.
const MinAnswerChars = 20

// UploadedFile is one answer document received from the instructor.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// AnswerService ingests student answer documents.
type AnswerService interface {
	// Ingest replaces the problem's answer collection with the answers
	// extracted from files. Unusable files are reported, not fatal.
	Ingest(ctx context.Context, problemKey string, files []UploadedFile) (dto.AnswerUploadResponse, error)
	List(ctx context.Context, problemKey string) ([]dto.AnswerSummary, error)
}

type answerService struct {
	problems repository.ProblemRepository
	answers  repository.AnswerRepository
	logger   zerolog.Logger
}

// NewAnswerService constructs an answer service.
func NewAnswerService(problems repository.ProblemRepository, answers repository.AnswerRepository, logger zerolog.Logger) AnswerService {
	return &answerService{
		problems: problems,
		answers:  answers,
		logger:   logger.With().Str("component", "answer_service").Logger(),
	}
}

func (s *answerService) Ingest(ctx context.Context, problemKey string, files []UploadedFile) (dto.AnswerUploadResponse, error) {
	if _, err := s.problems.GetByKey(ctx, problemKey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerUploadResponse{}, ErrProblemNotFound
		}
		return dto.AnswerUploadResponse{}, err
	}

	response := dto.AnswerUploadResponse{ProblemKey: problemKey}
	accepted := make([]models.StudentAnswer, 0, len(files))

	for _, file := range files {
		answer, reason := s.ingestOne(file)
		if reason != "" {
			response.Skipped = append(response.Skipped, dto.SkippedFile{Filename: file.Filename, Reason: reason})
			s.logger.Warn().Str("file", file.Filename).Str("reason", reason).Msg("answer skipped")
			continue
		}
		accepted = append(accepted, answer)
	}

	if err := s.answers.ReplaceAll(ctx, problemKey, accepted); err != nil {
		return dto.AnswerUploadResponse{}, err
	}

	for _, answer := range accepted {
		response.Accepted = append(response.Accepted, toAnswerSummary(answer))
	}

	s.logger.Info().
		Str("problem_key", problemKey).
		Int("accepted", len(response.Accepted)).
		Int("skipped", len(response.Skipped)).
		Msg("answer collection replaced")

	return response, nil
}

func (s *answerService) ingestOne(file UploadedFile) (models.StudentAnswer, string) {
	extractor, err := extract.ForContent(file.Data)
	if err != nil {
		return models.StudentAnswer{}, err.Error()
	}

	text, err := extractor.Extract(file.Data)
	if err != nil {
		return models.StudentAnswer{}, "text extraction failed: " + err.Error()
	}

	text = extract.CleanText(text)
	if utf8.RuneCountInString(strings.TrimSpace(text)) <= MinAnswerChars {
		return models.StudentAnswer{}, "answer text too short"
	}

	name, studentID := ident.Identify(file.Filename)
	return models.StudentAnswer{
		Name:       name,
		StudentID:  studentID,
		SourceFile: file.Filename,
		Text:       text,
	}, ""
}

func (s *answerService) List(ctx context.Context, problemKey string) ([]dto.AnswerSummary, error) {
	answers, err := s.answers.List(ctx, problemKey)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.AnswerSummary, 0, len(answers))
	for _, answer := range answers {
		summaries = append(summaries, toAnswerSummary(answer))
	}
	return summaries, nil
}

func toAnswerSummary(answer models.StudentAnswer) dto.AnswerSummary {
	return dto.AnswerSummary{
		ID:        answer.ID,
		Name:      answer.Name,
		StudentID: answer.StudentID,
		Source:    answer.SourceFile,
		Chars:     len([]rune(answer.Text)),
	}
}
