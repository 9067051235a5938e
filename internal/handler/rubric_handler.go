package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/dto"
	"github.com/channwl/DPT-scroring-program/internal/service"
	"github.com/channwl/DPT-scroring-program/internal/utils"
)

// RubricHandler serves rubric generation, revision and retrieval.
type RubricHandler struct {
	service   service.RubricService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricHandler constructs a rubric handler.
func NewRubricHandler(service service.RubricService, validate *validator.Validate, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register wires rubric routes under a problem.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Post("/:key/rubric/generate", h.generate)
	router.Post("/:key/rubric/feedback", h.feedback)
	router.Get("/:key/rubric", h.get)
}

func (h *RubricHandler) generate(c *fiber.Ctx) error {
	overwrite := c.QueryBool("overwrite")

	response, err := h.service.Generate(c.UserContext(), c.Params("key"), overwrite)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric generated", response)
}

func (h *RubricHandler) feedback(c *fiber.Ctx) error {
	var payload dto.FeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "feedback is required")
	}

	response, err := h.service.Revise(c.UserContext(), c.Params("key"), payload.Feedback)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "rubric revised", response)
}

func (h *RubricHandler) get(c *fiber.Ctx) error {
	stage := c.Query("stage")

	response, err := h.service.Get(c.UserContext(), c.Params("key"), stage)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "rubric retrieved", response)
}
