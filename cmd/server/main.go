package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/codearena/mcq-backend/internal/database"
	"github.com/codearena/mcq-backend/internal/handler"
	"github.com/codearena/mcq-backend/internal/idempotency"
	"github.com/codearena/mcq-backend/internal/logger"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/codearena/mcq-backend/internal/router"
	"github.com/codearena/mcq-backend/internal/sampler"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/codearena/mcq-backend/internal/validator"
	"github.com/codearena/mcq-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting MCQ Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	wrongRepo := repository.NewWrongQuestionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo, authService)
	questionService := service.NewQuestionService(questionRepo, categoryRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	tagService := service.NewTagService(tagRepo)
	paperService := service.NewPaperService(paperRepo, questionRepo, categoryRepo)

	guard := idempotency.NewGuard(idempotency.NewRedisStore(rdb), cfg.DuplicateWindow, log)
	assembler := sampler.New(questionRepo, categoryRepo)
	sessionService := service.NewExamSessionService(
		sessionRepo, paperRepo, questionRepo, assembler, wrongRepo, guard, rdb, log)
	wrongService := service.NewWrongQuestionService(wrongRepo, questionRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService),
		Question: handler.NewQuestionHandler(questionService),
		Category: handler.NewCategoryHandler(categoryService),
		Tag:      handler.NewTagHandler(tagService),
		Paper:    handler.NewPaperHandler(paperService),
		Session:  handler.NewSessionHandler(sessionService),
		Wrong:    handler.NewWrongQuestionHandler(wrongService),
		WS:       handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	integrityWorker := worker.NewIntegrityWorker(pool, rdb, log)
	submissionWorker := worker.NewSubmissionWorker(pool, rdb, log)

	go integrityWorker.Start(workerCtx)
	go submissionWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
