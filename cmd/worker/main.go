package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hedoomy/backoffice/internal/app"
	"github.com/hedoomy/backoffice/internal/catalog"
	"github.com/hedoomy/backoffice/internal/notify"
	"github.com/hedoomy/backoffice/internal/platform/db"
	"github.com/hedoomy/backoffice/internal/shared"
	"github.com/hedoomy/backoffice/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	mailer := notify.NewMailer(notify.MailerConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	catalogRepo := catalog.NewRepository(pool)
	idemStore := shared.NewIdempotencyStore(pool)

	consistencyTask, err := jobs.NewStockConsistencyTask(time.Now().UTC())
	if err != nil {
		logger.Error("build consistency task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(mailer, logger)},
			{Type: jobs.TaskStockConsistency, Handler: jobs.NewStockConsistencyHandler(catalogRepo, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idemStore, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: consistencyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
