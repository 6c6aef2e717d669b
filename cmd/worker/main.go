package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fids-maurice/expostand/internal/app"
	"github.com/fids-maurice/expostand/internal/platform/db"
	"github.com/fids-maurice/expostand/internal/sales"
	"github.com/fids-maurice/expostand/internal/standtypes"
	"github.com/fids-maurice/expostand/jobs"
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
	if cfg.RedisAddr == "" {
		slog.Default().Error("REDIS_ADDR required for the worker")
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// The overdue scan mutates invoices, so the worker needs the durable
	// store; an in-memory store would be private to this process.
	if cfg.Store != "postgres" {
		logger.Error("worker requires STORE=postgres")
		os.Exit(1)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	service := sales.NewService(
		logger,
		sales.NewSQLQuotationRepository(pool),
		sales.NewSQLInvoiceRepository(pool),
		standtypes.Default(),
		nil,
		sales.ServiceConfig{
			VATRate:         cfg.VATRateDecimal(),
			ValidityDays:    cfg.ValidityDays,
			DueDays:         cfg.DueDays,
			DefaultCurrency: cfg.DefaultCurrency,
		},
	)

	overdueJob := jobs.NewOverdueScanJob(service, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeOverdueScan, Handler: overdueJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewOverdueScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
