package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/channwl/DPT-scroring-program/internal/config"
	"github.com/channwl/DPT-scroring-program/internal/handler"
	"github.com/channwl/DPT-scroring-program/internal/middleware"
	"github.com/channwl/DPT-scroring-program/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProblemHandler  *handler.ProblemHandler
	AnswerHandler   *handler.AnswerHandler
	RubricHandler   *handler.RubricHandler
	GradingHandler  *handler.GradingHandler
	ProgressHandler *handler.ProgressHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Generation, revision and grading all trigger model calls, so they sit
	// behind a tighter limiter than plain reads.
	modelCallLimit := middleware.RateLimit("model", 5, time.Minute)

	problems := api.Group("/problems")
	if deps.ProblemHandler != nil {
		deps.ProblemHandler.Register(problems)
	}
	if deps.AnswerHandler != nil {
		deps.AnswerHandler.Register(problems)
	}
	if deps.RubricHandler != nil {
		problems.Use("/:key/rubric/generate", modelCallLimit)
		problems.Use("/:key/rubric/feedback", modelCallLimit)
		deps.RubricHandler.Register(problems)
	}
	if deps.GradingHandler != nil {
		problems.Use("/:key/grade", modelCallLimit)
		deps.GradingHandler.Register(problems)

		reports := api.Group("/reports")
		deps.GradingHandler.RegisterReports(reports)
	}

	if deps.ProgressHandler != nil {
		progress := app.Group("/ws/progress")
		deps.ProgressHandler.Register(progress)
	}
}
