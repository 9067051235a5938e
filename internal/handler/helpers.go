package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/grading"
	"github.com/channwl/DPT-scroring-program/internal/middleware"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/internal/rubric"
	"github.com/channwl/DPT-scroring-program/internal/service"
	"github.com/channwl/DPT-scroring-program/internal/utils"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendServiceError maps shared service failures onto HTTP statuses. Model
// call failures surface as 502 because the upstream provider, not this
// service, failed; unparseable model output surfaces as 422 with the raw
// response attached so the instructor can inspect what came back.
func sendServiceError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	var rubricErr *rubric.ParseError
	var gradingErr *grading.ParseError

	switch {
	case errors.Is(err, service.ErrProblemNotFound),
		errors.Is(err, service.ErrAnswerNotFound),
		errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, repository.ErrNoRubric):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrProblemExists),
		errors.Is(err, repository.ErrRubricExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyFeedback),
		errors.Is(err, service.ErrNoAnswers),
		errors.Is(err, service.ErrEmptyProblem):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case llm.IsCallError(err):
		logger.Error().Err(err).Msg("model call failed")
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case errors.As(err, &rubricErr):
		return sendUnparseable(c, rubricErr.Error(), rubricErr.Raw)
	case errors.As(err, &gradingErr):
		return sendUnparseable(c, gradingErr.Error(), gradingErr.Raw)
	default:
		logger.Error().Err(err).Msg("request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func sendUnparseable(c *fiber.Ctx, message, raw string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(utils.APIResponse{
		Success: false,
		Message: message,
		Data:    fiber.Map{"raw_response": raw},
	})
}
