package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/grading"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

func newTestGradingService(t *testing.T, client llm.Client) (GradingService, *gorm.DB, []models.StudentAnswer) {
	t.Helper()

	db := setupServiceDB(t)
	seedProblem(t, db, "exam-1")
	seedRubric(t, db, "exam-1")
	answers := seedAnswers(t, db, "exam-1", 3)

	svc := NewGradingService(
		repository.NewRubricRepository(db),
		repository.NewAnswerRepository(db),
		repository.NewReportRepository(db),
		client,
		grading.DefaultFuzzyThreshold,
		grading.DefaultMaxEvidence,
		testLogger(),
	)
	return svc, db, answers
}

func TestGradeAnswer(t *testing.T) {
	client := &stubClient{t: t, responses: []string{gradingResponse(8)}}
	svc, _, answers := newTestGradingService(t, client)

	result, err := svc.GradeAnswer(context.Background(), "exam-1", answers[1].ID)
	require.NoError(t, err)

	require.Equal(t, answers[1].ID, result.AnswerID)
	require.Equal(t, "학생2", result.StudentName)
	require.Equal(t, models.RubricStageOriginal, result.RubricStage)
	require.NotNil(t, result.TotalScore)
	require.Equal(t, 8, *result.TotalScore)
	require.Len(t, result.ItemScores, 1)
	require.NotEmpty(t, result.Evidence)
	require.Equal(t, grading.VerifiedExact, result.Evidence[0].Verification)
	require.Contains(t, result.HighlightedHTML, "<mark")

	require.Contains(t, client.prompts[0], "학생2")
	require.Contains(t, client.prompts[0], "개념 이해")
}

func TestGradeAnswerPersistsRecord(t *testing.T) {
	client := &stubClient{t: t, responses: []string{gradingResponse(8)}}
	svc, db, answers := newTestGradingService(t, client)

	_, err := svc.GradeAnswer(context.Background(), "exam-1", answers[0].ID)
	require.NoError(t, err)

	// The record is stored outside any batch for later audit.
	var record models.GradingRecord
	require.NoError(t, db.First(&record).Error)
	require.Equal(t, answers[0].ID, record.AnswerID)
	require.Empty(t, record.BatchID)
	require.NotEmpty(t, record.RawResponse)
}

func TestGradeAnswerWrongProblem(t *testing.T) {
	client := &stubClient{t: t}
	svc, _, answers := newTestGradingService(t, client)

	_, err := svc.GradeAnswer(context.Background(), "other-exam", answers[0].ID)
	require.ErrorIs(t, err, ErrAnswerNotFound)
	require.Zero(t, client.calls)
}

func TestGradeAnswerUnknownID(t *testing.T) {
	svc, _, _ := newTestGradingService(t, &stubClient{t: t})

	_, err := svc.GradeAnswer(context.Background(), "exam-1", 9999)
	require.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestGradeRandomWithoutAnswers(t *testing.T) {
	db := setupServiceDB(t)
	seedProblem(t, db, "exam-1")
	seedRubric(t, db, "exam-1")

	svc := NewGradingService(
		repository.NewRubricRepository(db),
		repository.NewAnswerRepository(db),
		repository.NewReportRepository(db),
		&stubClient{t: t},
		grading.DefaultFuzzyThreshold,
		grading.DefaultMaxEvidence,
		testLogger(),
	)

	_, err := svc.GradeRandom(context.Background(), "exam-1")
	require.ErrorIs(t, err, ErrNoAnswers)
}

func TestGradeRandomPicksOne(t *testing.T) {
	client := &stubClient{t: t, responses: []string{gradingResponse(6)}}
	svc, _, _ := newTestGradingService(t, client)

	result, err := svc.GradeRandom(context.Background(), "exam-1")
	require.NoError(t, err)
	require.NotZero(t, result.AnswerID)
	require.Equal(t, 1, client.calls)
}

func TestGradeAnswerPropagatesCallError(t *testing.T) {
	client := &stubClient{t: t, failAt: map[int]error{0: testCallError()}}
	svc, _, answers := newTestGradingService(t, client)

	_, err := svc.GradeAnswer(context.Background(), "exam-1", answers[0].ID)
	require.True(t, llm.IsCallError(err))
}
