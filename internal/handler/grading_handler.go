package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/service"
	"github.com/channwl/DPT-scroring-program/internal/utils"
)

// GradingHandler serves sample grading, batch runs and report retrieval.
type GradingHandler struct {
	grading service.GradingService
	batch   service.BatchService
	logger  zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(grading service.GradingService, batch service.BatchService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading: grading,
		batch:   batch,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires grading routes under a problem.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:key/grade/sample", h.sample)
	router.Post("/:key/grade/batch", h.batchRun)
	router.Get("/:key/reports/latest", h.latestReport)
}

// RegisterReports wires the report routes that address a batch directly.
func (h *GradingHandler) RegisterReports(router fiber.Router) {
	router.Get("/:id", h.report)
	router.Get("/:id/export", h.exportCSV)
}

func (h *GradingHandler) sample(c *fiber.Ctx) error {
	var payload dto.SampleGradeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	var (
		result dto.GradingResultResponse
		err    error
	)
	if payload.AnswerID != nil {
		result, err = h.grading.GradeAnswer(c.UserContext(), c.Params("key"), *payload.AnswerID)
	} else {
		result, err = h.grading.GradeRandom(c.UserContext(), c.Params("key"))
	}
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "sample graded", result)
}

func (h *GradingHandler) batchRun(c *fiber.Ctx) error {
	report, err := h.batch.Run(c.UserContext(), c.Params("key"))
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "batch graded", report)
}

func (h *GradingHandler) latestReport(c *fiber.Ctx) error {
	report, err := h.batch.LatestReport(c.UserContext(), c.Params("key"))
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "report retrieved", report)
}

func (h *GradingHandler) report(c *fiber.Ctx) error {
	report, err := h.batch.GetReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "report retrieved", report)
}

func (h *GradingHandler) exportCSV(c *fiber.Ctx) error {
	data, err := h.batch.ExportCSV(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="report.csv"`)
	return c.Send(data)
}
