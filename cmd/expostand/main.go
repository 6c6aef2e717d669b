package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/fids-maurice/expostand/internal/app"
	"github.com/fids-maurice/expostand/internal/export"
	"github.com/fids-maurice/expostand/internal/inventory"
	"github.com/fids-maurice/expostand/internal/observability"
	"github.com/fids-maurice/expostand/internal/platform/db"
	"github.com/fids-maurice/expostand/internal/sales"
	"github.com/fids-maurice/expostand/internal/shared"
	"github.com/fids-maurice/expostand/internal/standtypes"
	"github.com/fids-maurice/expostand/jobs"
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
	metrics := observability.NewMetrics()
	catalog := standtypes.Default()

	var (
		quotes   sales.QuotationRepository
		invoices sales.InvoiceRepository
	)
	switch cfg.Store {
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := sales.EnsureSchema(ctx, pool); err != nil {
			logger.Error("ensure schema", slog.Any("error", err))
			os.Exit(1)
		}
		quotes = sales.NewSQLQuotationRepository(pool)
		invoices = sales.NewSQLInvoiceRepository(pool)
	default:
		quotes = sales.NewMemoryQuotationRepository()
		invoices = sales.NewMemoryInvoiceRepository()
	}

	var (
		idempotency *shared.IdempotencyStore
		mailQueue   *jobs.Client
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		idempotency = shared.NewIdempotencyStore(redisClient, 24*time.Hour)
		mailQueue = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := mailQueue.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
	}

	service := sales.NewService(logger, quotes, invoices, catalog, metrics, sales.ServiceConfig{
		VATRate:         cfg.VATRateDecimal(),
		ValidityDays:    cfg.ValidityDays,
		DueDays:         cfg.DueDays,
		DefaultCurrency: cfg.DefaultCurrency,
	})
	availability := inventory.NewService(logger, service.Quotations(), catalog, metrics)

	exporter, err := export.NewPDFExporter(cfg.GotenbergURL, &http.Client{Timeout: 30 * time.Second}, export.CompanyDetails{
		Name:    cfg.CompanyName,
		BRN:     cfg.CompanyBRN,
		VATNo:   cfg.CompanyVATNo,
		Address: cfg.CompanyAddress,
		Phone:   cfg.CompanyPhone,
		Email:   cfg.CompanyEmail,
	})
	if err != nil {
		logger.Error("init pdf exporter", slog.Any("error", err))
		os.Exit(1)
	}

	var enqueuer export.EmailEnqueuer
	if mailQueue != nil {
		enqueuer = mailQueue
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SalesHandler:     sales.NewHandler(logger, service, idempotency),
		InventoryHandler: inventory.NewHandler(logger, availability, catalog),
		ExportHandler:    export.NewHandler(logger, exporter, service, enqueuer),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.Store))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
