package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/models"
)

func setupRubricDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory database per test keeps pooled connections on the
	// same schema without leaking rows between tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Problem{}, &models.Rubric{}, &models.StudentAnswer{}, &models.GradingRecord{}, &models.BatchReport{}))

	return db
}

func rubricFixture(problemKey, raw string, total int) *models.Rubric {
	return &models.Rubric{
		ProblemKey:    problemKey,
		Items:         datatypes.JSON(`[{"criterion":"개념","max_points":5,"description":"설명"}]`),
		DeclaredTotal: total,
		RawText:       raw,
	}
}

func TestRubricStorePrecedence(t *testing.T) {
	repo := NewRubricRepository(setupRubricDB(t))
	ctx := context.Background()

	_, err := repo.GetEffective(ctx, "exam-1")
	require.ErrorIs(t, err, ErrNoRubric)

	require.NoError(t, repo.SetOriginal(ctx, rubricFixture("exam-1", "original", 10), false))

	effective, err := repo.GetEffective(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "original", effective.RawText)
	require.Equal(t, models.RubricStageOriginal, effective.Stage)

	require.NoError(t, repo.SetRevised(ctx, rubricFixture("exam-1", "revised", 12)))

	effective, err = repo.GetEffective(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "revised", effective.RawText)
	require.Equal(t, models.RubricStageRevised, effective.Stage)
}

func TestRubricStoreOriginalOverwriteGuard(t *testing.T) {
	repo := NewRubricRepository(setupRubricDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetOriginal(ctx, rubricFixture("exam-1", "first", 10), false))

	err := repo.SetOriginal(ctx, rubricFixture("exam-1", "second", 10), false)
	require.ErrorIs(t, err, ErrRubricExists)

	original, err := repo.GetOriginal(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "first", original.RawText)

	require.NoError(t, repo.SetOriginal(ctx, rubricFixture("exam-1", "second", 10), true))
	original, err = repo.GetOriginal(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "second", original.RawText)
}

func TestRubricStoreRegenerationKeepsRevision(t *testing.T) {
	repo := NewRubricRepository(setupRubricDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetOriginal(ctx, rubricFixture("exam-1", "original", 10), false))
	require.NoError(t, repo.SetRevised(ctx, rubricFixture("exam-1", "revised", 12)))

	// Regenerating the original must not invalidate the revision.
	require.NoError(t, repo.SetOriginal(ctx, rubricFixture("exam-1", "regenerated", 15), true))

	revised, err := repo.GetRevised(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "revised", revised.RawText)

	effective, err := repo.GetEffective(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "revised", effective.RawText)
}

func TestRubricStoreRevisionReplacesPriorRevision(t *testing.T) {
	repo := NewRubricRepository(setupRubricDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetOriginal(ctx, rubricFixture("exam-1", "original", 10), false))
	require.NoError(t, repo.SetRevised(ctx, rubricFixture("exam-1", "revision-1", 10)))
	require.NoError(t, repo.SetRevised(ctx, rubricFixture("exam-1", "revision-2", 11)))

	revised, err := repo.GetRevised(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "revision-2", revised.RawText)

	original, err := repo.GetOriginal(ctx, "exam-1")
	require.NoError(t, err)
	require.Equal(t, "original", original.RawText)
}

func TestAnswerRepositoryReplaceAll(t *testing.T) {
	db := setupRubricDB(t)
	repo := NewAnswerRepository(db)
	ctx := context.Background()

	first := []models.StudentAnswer{
		{Name: "홍길동", StudentID: "202300001", Text: "첫 번째 답안"},
		{Name: "김철수", StudentID: "202300002", Text: "두 번째 답안"},
	}
	require.NoError(t, repo.ReplaceAll(ctx, "exam-1", first))

	second := []models.StudentAnswer{
		{Name: "이영희", StudentID: "202300003", Text: "새로 업로드된 답안"},
	}
	require.NoError(t, repo.ReplaceAll(ctx, "exam-1", second))

	answers, err := repo.List(ctx, "exam-1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Equal(t, "이영희", answers[0].Name)
}

func TestReportRepositoryRoundTrip(t *testing.T) {
	db := setupRubricDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	nine := 9
	mean := 9.0
	report := &models.BatchReport{
		ID:          "11111111-2222-3333-4444-555555555555",
		ProblemKey:  "exam-1",
		RubricStage: models.RubricStageOriginal,
		Total:       2,
		Graded:      1,
		Failed:      1,
		Mean:        &mean,
		Min:         &nine,
		Max:         &nine,
	}
	records := []models.GradingRecord{
		{ProblemKey: "exam-1", StudentName: "홍길동", StudentID: "202300001", TotalScore: &nine, RubricStage: models.RubricStageOriginal},
		{ProblemKey: "exam-1", StudentName: "김철수", StudentID: "202300002", Failed: true, Summary: "model call failed", RubricStage: models.RubricStageOriginal},
	}

	require.NoError(t, repo.SaveReport(ctx, report, records))

	stored, storedRecords, err := repo.GetReport(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Total)
	require.Len(t, storedRecords, 2)
	require.Equal(t, 1, storedRecords[0].Rank)
	require.Equal(t, "홍길동", storedRecords[0].StudentName)
	require.Nil(t, storedRecords[1].TotalScore)
}
