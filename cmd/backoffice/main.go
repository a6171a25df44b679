package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/hedoomy/backoffice/internal/analytics"
	"github.com/hedoomy/backoffice/internal/app"
	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/auth"
	"github.com/hedoomy/backoffice/internal/catalog"
	"github.com/hedoomy/backoffice/internal/notify"
	"github.com/hedoomy/backoffice/internal/offers"
	"github.com/hedoomy/backoffice/internal/orders"
	"github.com/hedoomy/backoffice/internal/platform/cache"
	"github.com/hedoomy/backoffice/internal/platform/db"
	"github.com/hedoomy/backoffice/internal/shared"
	"github.com/hedoomy/backoffice/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditRecorder := audit.NewRecorder(pool)
	auditReader := audit.NewReader(pool)
	auditHandler := audit.NewHandler(logger, auditReader)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, redisClient, auditRecorder, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService)
	guard := auth.Middleware{Service: authService, Logger: logger}

	catalogCache := catalog.NewCache(redisClient, cfg.CacheTTL)
	if err := catalogCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, auditRecorder, catalogCache)
	catalogHandler := catalog.NewHandler(logger, catalogService, guard)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	ordersRepo := orders.NewRepository(pool)
	ledger := orders.NewLedger(catalogRepo, 3)
	orderLock := shared.NewLock(redisClient, cfg.LockTTL)
	orderNotifier := notify.NewOrderNotifier(jobClient, cfg.AdminEmail)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	ordersService := orders.NewService(ordersRepo, ledger, catalogRepo, auditRecorder, orderLock, orderNotifier, idempotencyStore, orders.ServiceConfig{
		ShippingFee: cfg.ShippingFee,
	})
	ordersHandler := orders.NewHandler(logger, ordersService, guard)

	offersRepo := offers.NewRepository(pool)
	offersService := offers.NewService(offersRepo, catalogRepo, auditRecorder, catalogCache)
	offersHandler := offers.NewHandler(logger, offersService, guard)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsService := analytics.NewService(analyticsRepo, redisClient, cfg.CacheTTL)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, guard)

	jobInspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(jobInspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Guard:            guard,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		OrdersHandler:    ordersHandler,
		OffersHandler:    offersHandler,
		AnalyticsHandler: analyticsHandler,
		AuditHandler:     auditHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppRequestTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
