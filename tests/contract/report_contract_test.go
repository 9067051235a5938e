package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/grading"
	"github.com/channwl/DPT-scroring-program/internal/handler"
)

type stubBatchService struct {
	report dto.BatchReportResponse
}

func (s stubBatchService) Run(context.Context, string) (dto.BatchReportResponse, error) {
	return s.report, nil
}

func (s stubBatchService) GetReport(context.Context, string) (dto.BatchReportResponse, error) {
	return s.report, nil
}

func (s stubBatchService) LatestReport(context.Context, string) (dto.BatchReportResponse, error) {
	return s.report, nil
}

func (s stubBatchService) ExportCSV(context.Context, string) ([]byte, error) {
	return nil, nil
}

type stubGradingService struct{}

func (stubGradingService) GradeAnswer(context.Context, string, uint) (dto.GradingResultResponse, error) {
	return dto.GradingResultResponse{}, nil
}

func (stubGradingService) GradeRandom(context.Context, string) (dto.GradingResultResponse, error) {
	return dto.GradingResultResponse{}, nil
}

func TestBatchReportContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "batch_report.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	nine := 9
	ten := 10
	mean := 9.5
	report := dto.BatchReportResponse{
		ID:          "11111111-2222-3333-4444-555555555555",
		ProblemKey:  "exam-1",
		RubricStage: "revised",
		Total:       3,
		Graded:      2,
		Failed:      1,
		Mean:        &mean,
		Min:         &nine,
		Max:         &ten,
		Distribution: []dto.DistributionBin{
			{Score: 9, Count: 1},
			{Score: 10, Count: 1},
		},
		Results: []dto.GradingResultResponse{
			{
				AnswerID:    1,
				StudentName: "홍길동",
				StudentID:   "202300001",
				RubricStage: "revised",
				TotalScore:  &ten,
				Summary:     "전반적으로 우수함",
				ItemScores: []grading.ItemScore{
					{Criterion: "개념 이해", MaxPoints: 10, Awarded: 10, Justification: "개념을 정확히 설명함"},
				},
				Evidence: []grading.Evidence{
					{Criterion: "개념 이해", Quote: "지도학습은 라벨이 있다", Verification: grading.VerifiedExact, Matched: "지도학습은 라벨이 있다"},
				},
			},
			{
				AnswerID:    2,
				StudentName: "김철수",
				StudentID:   "202300002",
				RubricStage: "revised",
				TotalScore:  &nine,
				Summary:     "핵심은 짚었으나 사례가 부족함",
				ItemScores: []grading.ItemScore{
					{Criterion: "개념 이해", MaxPoints: 10, Awarded: 9, Justification: "사례 없이 개념만 설명함"},
				},
				Evidence: []grading.Evidence{
					{Criterion: "개념 이해", Quote: "존재하지 않는 인용", Verification: grading.Unverified},
				},
			},
			{
				AnswerID:    3,
				StudentName: "이영희",
				StudentID:   "202300003",
				RubricStage: "revised",
				Summary:     "채점 실패: model call failed",
				Failed:      true,
			},
		},
		CreatedAt: time.Now().UTC(),
	}

	h := handler.NewGradingHandler(stubGradingService{}, stubBatchService{report: report}, zerolog.Nop())

	app := fiber.New()
	h.RegisterReports(app.Group("/api/v1/reports"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+report.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
