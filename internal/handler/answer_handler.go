package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/service"
	"github.com/channwl/DPT-scroring-program/internal/utils"
)

// AnswerHandler serves student answer uploads.
type AnswerHandler struct {
	service service.AnswerService
	logger  zerolog.Logger
}

// NewAnswerHandler constructs an answer handler.
func NewAnswerHandler(service service.AnswerService, logger zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		service: service,
		logger:  logger.With().Str("component", "answer_handler").Logger(),
	}
}

// Register wires answer routes under a problem.
func (h *AnswerHandler) Register(router fiber.Router) {
	router.Post("/:key/answers", h.upload)
	router.Get("/:key/answers", h.list)
}

func (h *AnswerHandler) upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one answer file is required")
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, header := range headers {
		data, err := readMultipartFile(header)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "failed to read uploaded file "+header.Filename)
		}
		files = append(files, service.UploadedFile{Filename: header.Filename, Data: data})
	}

	response, err := h.service.Ingest(c.UserContext(), c.Params("key"), files)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "answers uploaded", response)
}

func (h *AnswerHandler) list(c *fiber.Ctx) error {
	answers, err := h.service.List(c.UserContext(), c.Params("key"))
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err)
	}
	return utils.SendSuccess(c, "answers retrieved", answers)
}
