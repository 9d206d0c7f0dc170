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

	"github.com/clubforge/clubforge/internal/app"
	"github.com/clubforge/clubforge/internal/audit"
	audithttp "github.com/clubforge/clubforge/internal/audit/http"
	"github.com/clubforge/clubforge/internal/auth"
	"github.com/clubforge/clubforge/internal/authz"
	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/membership"
	"github.com/clubforge/clubforge/internal/observability"
	"github.com/clubforge/clubforge/internal/platform/cache"
	"github.com/clubforge/clubforge/internal/platform/db"
	"github.com/clubforge/clubforge/internal/shared"
	"github.com/clubforge/clubforge/internal/subscription"
	"github.com/clubforge/clubforge/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "clubforge_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	store := directory.NewStore(pool)
	gate := subscription.NewGate(store)
	metrics := observability.NewMetrics()

	auditRepo := audit.NewRepository(pool)
	recorder := audit.NewRecorder(auditRepo, logger, audit.RecorderConfig{
		QueueSize: cfg.AuditQueueSize,
		Metrics:   metrics,
	})
	defer recorder.Close()
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService, audit.NewExporter())

	engine := authz.NewEngine(store, gate, logger)
	assignGuard := authz.NewAssignmentGuard(store, store)
	invariantGuard := authz.NewInvariantGuard(store)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	membershipService := membership.NewService(logger, store, assignGuard, invariantGuard, engine, recorder, idempotencyStore)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(store, authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	authzHandler := authz.NewHandler(logger, engine, membershipService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		AuthzHandler:      authzHandler,
		AuditHandler:      auditHandler,
		PrincipalResolver: store,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
