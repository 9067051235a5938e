package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory database per test keeps pooled connections on the
	// same schema without leaking rows between tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Problem{},
		&models.StudentAnswer{},
		&models.Rubric{},
		&models.GradingRecord{},
		&models.BatchReport{},
	))

	return db
}

// stubClient replays scripted completions. Calls beyond the script fail the
// test; entries in failAt return a transport error instead of a response.
type stubClient struct {
	t         *testing.T
	responses []string
	failAt    map[int]error
	calls     int
	prompts   []string
}

func (c *stubClient) Complete(_ context.Context, prompt string) (string, error) {
	index := c.calls
	c.calls++
	c.prompts = append(c.prompts, prompt)

	if err, ok := c.failAt[index]; ok {
		return "", err
	}
	if index >= len(c.responses) {
		c.t.Fatalf("unexpected model call %d", index)
	}
	return c.responses[index], nil
}

type collectingPublisher struct {
	mu     sync.Mutex
	events []dto.ProgressEvent
}

func (p *collectingPublisher) Publish(_ context.Context, event dto.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func seedProblem(t *testing.T, db *gorm.DB, key string) {
	t.Helper()
	require.NoError(t, repository.NewProblemRepository(db).Create(context.Background(), &models.Problem{
		Key:      key,
		Filename: key + ".txt",
		Text:     "지도학습과 비지도학습의 차이를 설명하시오.",
	}))
}

func seedRubric(t *testing.T, db *gorm.DB, key string) {
	t.Helper()
	require.NoError(t, repository.NewRubricRepository(db).SetOriginal(context.Background(), &models.Rubric{
		ProblemKey:    key,
		Items:         []byte(`[{"criterion":"개념 이해","max_points":10,"description":"개념을 정확히 설명"}]`),
		DeclaredTotal: 10,
		RawText:       rubricText(),
	}, false))
}

func seedAnswers(t *testing.T, db *gorm.DB, key string, count int) []models.StudentAnswer {
	t.Helper()

	answers := make([]models.StudentAnswer, 0, count)
	for i := 0; i < count; i++ {
		answers = append(answers, models.StudentAnswer{
			Name:      fmt.Sprintf("학생%d", i+1),
			StudentID: fmt.Sprintf("20230000%d", i+1),
			Text:      "지도학습은 라벨이 있는 데이터를 사용한다. 비지도학습은 라벨 없이 구조를 찾는다.",
		})
	}
	require.NoError(t, repository.NewAnswerRepository(db).ReplaceAll(context.Background(), key, answers))

	stored, err := repository.NewAnswerRepository(db).List(context.Background(), key)
	require.NoError(t, err)
	return stored
}

func rubricText() string {
	return "| 채점 항목 | 배점 | 세부 기준 |\n" +
		"| --- | --- | --- |\n" +
		"| 개념 이해 | 10 | 개념을 정확히 설명 |\n" +
		"\n**배점 총합: 10점**\n"
}

func gradingResponse(score int) string {
	return fmt.Sprintf("| 채점 항목 | 배점 | 부여 점수 | 평가 근거 |\n"+
		"|---|---|---|---|\n"+
		"| 개념 이해 | 10 | %d | 핵심 개념을 답안에 근거하여 설명함 |\n"+
		"\n**근거 문장:**\n"+
		"- 개념 이해: \"지도학습은 라벨이 있는 데이터를 사용한다\"\n"+
		"\n**총점: %d점**\n"+
		"**총평:** 전반적으로 충실한 답안임\n", score, score)
}

func testCallError() error {
	return &llm.CallError{Provider: "openai", Err: fmt.Errorf("rate limited")}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
