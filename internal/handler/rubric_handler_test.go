package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/handler"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/internal/rubric"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

type mockRubricService struct {
	response     dto.RubricResponse
	err          error
	lastFeedback string
	lastStage    string
}

func (m *mockRubricService) Generate(_ context.Context, _ string, _ bool) (dto.RubricResponse, error) {
	if m.err != nil {
		return dto.RubricResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockRubricService) Revise(_ context.Context, _ string, feedback string) (dto.RubricResponse, error) {
	m.lastFeedback = feedback
	if m.err != nil {
		return dto.RubricResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockRubricService) Get(_ context.Context, _ string, stage string) (dto.RubricResponse, error) {
	m.lastStage = stage
	if m.err != nil {
		return dto.RubricResponse{}, m.err
	}
	return m.response, nil
}

func newRubricApp(svc *mockRubricService) *fiber.App {
	app := fiber.New()
	validate := validator.New(validator.WithRequiredStructEnabled())
	handler.NewRubricHandler(svc, validate, zerolog.New(io.Discard)).Register(app.Group("/api/v1/problems"))
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func TestRubricHandler_GenerateSuccess(t *testing.T) {
	svc := &mockRubricService{response: dto.RubricResponse{
		ProblemKey:    "exam-1",
		Stage:         "original",
		Items:         []rubric.Item{{Criterion: "개념 이해", MaxPoints: 10}},
		DeclaredTotal: 10,
		Consistent:    true,
	}}
	app := newRubricApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/exam-1/rubric/generate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool               `json:"success"`
		Data    dto.RubricResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "exam-1", response.Data.ProblemKey)
	require.Len(t, response.Data.Items, 1)
}

func TestRubricHandler_GenerateConflict(t *testing.T) {
	app := newRubricApp(&mockRubricService{err: repository.ErrRubricExists})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/exam-1/rubric/generate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRubricHandler_GenerateModelFailure(t *testing.T) {
	app := newRubricApp(&mockRubricService{err: &llm.CallError{Provider: "openai", Err: errors.New("timeout")}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/exam-1/rubric/generate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestRubricHandler_GenerateUnparseable(t *testing.T) {
	app := newRubricApp(&mockRubricService{err: &rubric.ParseError{Reason: "no table found", Raw: "죄송합니다만..."}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/exam-1/rubric/generate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			RawResponse string `json:"raw_response"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, "죄송합니다만...", response.Data.RawResponse)
}

func TestRubricHandler_FeedbackRequiresBody(t *testing.T) {
	svc := &mockRubricService{}
	app := newRubricApp(svc)

	body, err := json.Marshal(dto.FeedbackRequest{Feedback: ""})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/exam-1/rubric/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, svc.lastFeedback)
}

func TestRubricHandler_FeedbackSuccess(t *testing.T) {
	svc := &mockRubricService{response: dto.RubricResponse{Stage: "revised"}}
	app := newRubricApp(svc)

	body, err := json.Marshal(dto.FeedbackRequest{Feedback: "배점을 조정해 주세요"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/exam-1/rubric/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "배점을 조정해 주세요", svc.lastFeedback)
}

func TestRubricHandler_GetPassesStage(t *testing.T) {
	svc := &mockRubricService{response: dto.RubricResponse{Stage: "original"}}
	app := newRubricApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/problems/exam-1/rubric?stage=original", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "original", svc.lastStage)
}

func TestRubricHandler_GetNotFound(t *testing.T) {
	app := newRubricApp(&mockRubricService{err: repository.ErrNoRubric})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/problems/exam-1/rubric", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
