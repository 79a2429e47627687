package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/praxis-clinic/praxis/internal/app"
	"github.com/praxis-clinic/praxis/internal/auth"
	"github.com/praxis-clinic/praxis/internal/billing"
	"github.com/praxis-clinic/praxis/internal/guidance"
	"github.com/praxis-clinic/praxis/internal/inquiries"
	"github.com/praxis-clinic/praxis/internal/notes"
	"github.com/praxis-clinic/praxis/internal/patients"
	"github.com/praxis-clinic/praxis/internal/platform/cache"
	"github.com/praxis-clinic/praxis/internal/platform/db"
	"github.com/praxis-clinic/praxis/internal/sessions"
	"github.com/praxis-clinic/praxis/internal/shared"
	"github.com/praxis-clinic/praxis/internal/tasks"
	"github.com/praxis-clinic/praxis/internal/users"
	"github.com/praxis-clinic/praxis/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo)
	authService := auth.NewService(userRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	patientRepo := patients.NewRepository(pool)
	patientService := patients.NewService(patientRepo)
	patientHandler := patients.NewHandler(logger, patientService)

	sessionRepo := sessions.NewRepository(pool)
	sessionService := sessions.NewService(sessionRepo, patientRepo)
	sessionHandler := sessions.NewHandler(logger, sessionService)

	taskRepo := tasks.NewRepository(pool)
	taskService := tasks.NewService(taskRepo, patientRepo)
	taskHandler := tasks.NewHandler(logger, taskService)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, patientRepo)
	billingHandler := billing.NewHandler(logger, billingService)

	guidanceRepo := guidance.NewRepository(pool)
	guidanceService := guidance.NewService(guidanceRepo, patientRepo)
	guidanceHandler := guidance.NewHandler(logger, guidanceService)

	noteRepo := notes.NewRepository(pool)
	noteService := notes.NewService(noteRepo, patientRepo)
	noteHandler := notes.NewHandler(logger, noteService)

	inquiryRepo := inquiries.NewRepository(pool)
	inquiryService := inquiries.NewService(inquiryRepo)
	inquiryHandler := inquiries.NewHandler(logger, inquiryService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Scopes:          userService,
		AuthHandler:     authHandler,
		PatientHandler:  patientHandler,
		SessionHandler:  sessionHandler,
		TaskHandler:     taskHandler,
		BillingHandler:  billingHandler,
		GuidanceHandler: guidanceHandler,
		NoteHandler:     noteHandler,
		InquiryHandler:  inquiryHandler,
		JobHandler:      jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
