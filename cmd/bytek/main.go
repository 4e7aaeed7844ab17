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

	"github.com/HcVm/bytek-core-sub001/internal/accounting"
	"github.com/HcVm/bytek-core-sub001/internal/app"
	"github.com/HcVm/bytek-core-sub001/internal/observability"
	"github.com/HcVm/bytek-core-sub001/internal/platform/cache"
	"github.com/HcVm/bytek-core-sub001/internal/platform/db"
	"github.com/HcVm/bytek-core-sub001/internal/shared"
	"github.com/HcVm/bytek-core-sub001/jobs"
	"github.com/HcVm/bytek-core-sub001/migrations"
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

	policy, err := cfg.IncomePolicy()
	if err != nil {
		logger.Error("income policy", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(dbpool, migrations.FS); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Reports fall back to uncached reads when redis is down.
	var reportCache *cache.Versioned
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		reportCache = cache.NewVersioned(nil, cfg.ReportCacheTTL)
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		reportCache = cache.NewVersioned(redisClient, cfg.ReportCacheTTL).WithLogger(logger)
	}

	metrics := observability.NewMetrics()
	module := accounting.NewModule(accounting.Deps{
		Pool:     dbpool,
		Cache:    reportCache,
		Audit:    shared.NewAuditLogger(dbpool),
		Observer: metrics,
		Policy:   policy,
		Logger:   logger,
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: module.Handler(logger),
		JobHandler:        jobs.NewHandler(inspector, jobClient, logger),
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
