package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/HcVm/bytek-core-sub001/internal/accounting"
	"github.com/HcVm/bytek-core-sub001/internal/app"
	jobmetrics "github.com/HcVm/bytek-core-sub001/internal/jobs"
	"github.com/HcVm/bytek-core-sub001/internal/platform/cache"
	"github.com/HcVm/bytek-core-sub001/internal/platform/db"
	"github.com/HcVm/bytek-core-sub001/internal/shared"
	"github.com/HcVm/bytek-core-sub001/jobs"
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

	policy, err := cfg.IncomePolicy()
	if err != nil {
		logger.Error("income policy", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
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
	reportCache := cache.NewVersioned(redisClient, cfg.ReportCacheTTL).WithLogger(logger)

	metrics := jobmetrics.NewMetrics(nil)
	module := accounting.NewModule(accounting.Deps{
		Pool:   pool,
		Cache:  reportCache,
		Audit:  shared.NewAuditLogger(pool),
		Policy: policy,
		Logger: logger,
	})

	integrityJob := jobs.NewGLIntegrityJob(module.Ledger, module.Reports, logger, metrics)
	warmupJob := jobs.NewReportWarmupJob(module.Reports, logger, metrics)
	eventJob := jobs.NewBusinessEventJob(module.Hooks, logger, metrics)

	integrityTask, err := jobs.NewGLIntegrityTask(jobs.GLIntegrityPayload{ReplayAccounts: true})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskGLIntegrity, Handler: integrityJob.Handle},
		{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
	}
	handlers = append(handlers, eventJob.Handlers()...)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron: []jobs.CronRegistration{
			{Spec: cfg.GLIntegrityCron, Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	client := jobs.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	err = reportCache.Subscribe(ctx, func(version int64) {
		if err := client.EnqueueReportWarmup(ctx, version); err != nil {
			logger.Warn("enqueue report warmup", slog.Int64("version", version), slog.Any("error", err))
		}
	})
	if err != nil {
		logger.Warn("subscribe cache bumps", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
