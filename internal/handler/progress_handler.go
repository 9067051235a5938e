package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/service"
)

// ProgressHandler wires the batch progress websocket.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Use("/:key", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/:key", websocket.New(h.handleConnection))
}

func (h *ProgressHandler) handleConnection(conn *websocket.Conn) {
	problemKey := strings.TrimSpace(conn.Params("key"))
	if problemKey == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "problem key required"))
		_ = conn.Close()
		return
	}

	h.logger.Info().Str("problem_key", problemKey).Msg("progress websocket connected")
	h.service.ServeConnection(conn, problemKey)
	h.logger.Info().Str("problem_key", problemKey).Msg("progress websocket disconnected")
}
