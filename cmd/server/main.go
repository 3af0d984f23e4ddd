package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/database"
	"github.com/codearena/codearena-backend/internal/handler"
	"github.com/codearena/codearena-backend/internal/logger"
	"github.com/codearena/codearena-backend/internal/notifier"
	"github.com/codearena/codearena-backend/internal/repository"
	"github.com/codearena/codearena-backend/internal/router"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/codearena/codearena-backend/internal/validator"
	"github.com/codearena/codearena-backend/internal/worker"
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
		Msg("Starting CodeArena Backend")

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
	contestRepo := repository.NewContestRepository(pool)
	roundRepo := repository.NewRoundRepository(pool)
	levelStateRepo := repository.NewLevelStateRepository(pool)
	shortlistRepo := repository.NewShortlistRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	proctoringRepo := repository.NewProctoringRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool)
	countdownStore := repository.NewCountdownStore(rdb)
	configCache := repository.NewProctoringConfigCache(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	events := notifier.NewRedisNotifier(rdb, log)
	authService := service.NewAuthService(cfg, rdb)
	roundService := service.NewRoundService(contestRepo, roundRepo, levelStateRepo, countdownStore, events)
	overrideService := service.NewOverrideService(proctoringRepo, levelStateRepo, submissionRepo, events)
	violationService := service.NewViolationService(proctoringRepo, violationRepo, levelStateRepo, overrideService, configCache, events)
	progressionService := service.NewProgressionService(roundRepo, levelStateRepo, shortlistRepo, submissionRepo, proctoringRepo, events)
	contestService := service.NewContestService(contestRepo, monitorRepo, roundService, countdownStore, events)
	scoreQueue := func(ctx context.Context, participantID int, contestID int64, level int) error {
		return worker.EnqueueScore(ctx, rdb, &worker.ScoreJob{
			ParticipantID: participantID,
			ContestID:     contestID,
			Level:         level,
		})
	}
	questionService := service.NewQuestionService(questionRepo, submissionRepo, roundRepo, progressionService, scoreQueue)
	participantService := service.NewParticipantService(participantRepo, adminRepo, proctoringRepo, authService)
	monitorService := service.NewMonitorService(monitorRepo, rdb)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, participantService),
		Progression: handler.NewProgressionHandler(progressionService, questionService, violationService, roundService),
		Contest:     handler.NewContestHandler(contestService, roundService, progressionService),
		Question:    handler.NewQuestionHandler(questionService),
		Participant: handler.NewParticipantHandler(participantService),
		Proctoring:  handler.NewProctoringHandler(violationService, overrideService),
		Monitor:     handler.NewMonitorHandler(monitorService, contestService, log),
		WS:          handler.NewWSHandler(rdb, progressionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	violationWorker := worker.NewViolationWorker(violationService, rdb, log)
	scoringWorker := worker.NewScoringWorker(submissionRepo, rdb, log)

	go violationWorker.Start(workerCtx)
	go scoringWorker.Start(workerCtx)

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
