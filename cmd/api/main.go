package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/config"
	"github.com/channwl/DPT-scroring-program/internal/database"
	"github.com/channwl/DPT-scroring-program/internal/handler"
	"github.com/channwl/DPT-scroring-program/internal/middleware"
	"github.com/channwl/DPT-scroring-program/internal/models"
	"github.com/channwl/DPT-scroring-program/internal/repository"
	"github.com/channwl/DPT-scroring-program/internal/router"
	"github.com/channwl/DPT-scroring-program/internal/service"
	"github.com/channwl/DPT-scroring-program/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Problem{},
		&models.StudentAnswer{},
		&models.Rubric{},
		&models.GradingRecord{},
		&models.BatchReport{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	openAI, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: float32(cfg.OpenAITemperature),
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create model client: %v", err)
	}
	client := llm.NewThrottled(openAI, llm.Policy{
		MinInterval:  cfg.ModelMinInterval,
		MaxRetries:   cfg.ModelMaxRetries,
		RetryBackoff: cfg.ModelRetryBackoff,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	problemRepo := repository.NewProblemRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	reportRepo := repository.NewReportRepository(db)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	progressService := service.NewProgressService(redisClient, cfg.ProgressChannel, natsConn, logger)
	progressService.Start(runCtx)

	problemService := service.NewProblemService(problemRepo, logger)
	answerService := service.NewAnswerService(problemRepo, answerRepo, logger)
	rubricService := service.NewRubricService(problemRepo, rubricRepo, client, logger)
	gradingService := service.NewGradingService(rubricRepo, answerRepo, reportRepo, client, cfg.FuzzyThreshold, cfg.MaxEvidence, logger)
	batchService := service.NewBatchService(rubricRepo, answerRepo, reportRepo, client, progressService, redisClient, cfg.ReportCacheTTL, cfg.FuzzyThreshold, cfg.MaxEvidence, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    64 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProblemHandler:  handler.NewProblemHandler(problemService, logger),
		AnswerHandler:   handler.NewAnswerHandler(answerService, logger),
		RubricHandler:   handler.NewRubricHandler(rubricService, validate, logger),
		GradingHandler:  handler.NewGradingHandler(gradingService, batchService, logger),
		ProgressHandler: handler.NewProgressHandler(progressService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancelRun)
}

func waitForShutdown(app *fiber.App, cancelRun context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancelRun()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
