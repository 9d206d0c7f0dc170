package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/clubforge/clubforge/internal/app"
	"github.com/clubforge/clubforge/internal/audit"
	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/platform/db"
	"github.com/clubforge/clubforge/internal/subscription"
	"github.com/clubforge/clubforge/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	store := directory.NewStore(pool)
	gate := subscription.NewGate(store)

	auditRepo := audit.NewRepository(pool)
	recorder := audit.NewRecorder(auditRepo, logger, audit.RecorderConfig{QueueSize: cfg.AuditQueueSize})
	defer recorder.Close()
	auditService := audit.NewService(auditRepo)

	sweepJob := jobs.NewEntitlementSweepJob(store, gate, recorder, logger, nil)
	reportJob := jobs.NewAuditVolumeReportJob(auditService, logger, nil)

	sweepTask, err := jobs.NewEntitlementSweepTask(jobs.EntitlementSweepPayload{})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	reportTask, err := jobs.NewAuditVolumeReportTask(jobs.AuditVolumeReportPayload{WindowDays: 7})
	if err != nil {
		logger.Error("build report task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskEntitlementSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskAuditVolumeReport, Handler: reportJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 6 * * 1", Task: reportTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
