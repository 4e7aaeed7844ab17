package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/reports"
	jobmetrics "github.com/HcVm/bytek-core-sub001/internal/jobs"
)

// StatementBuilder produces the cached financial statements.
type StatementBuilder interface {
	TrialBalance(ctx context.Context) (reports.TrialBalance, error)
	BalanceSheet(ctx context.Context) (reports.BalanceSheet, error)
	IncomeStatement(ctx context.Context) (reports.IncomeStatement, error)
}

// ReportWarmupJob rebuilds statements so the first reader after a posting
// does not pay for the aggregation.
type ReportWarmupJob struct {
	Statements StatementBuilder
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewReportWarmupJob constructs the job handler.
func NewReportWarmupJob(statements StatementBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{Statements: statements, Logger: logger, Metrics: metrics}
}

// Handle executes the warm-up for an Asynq task.
func (j *ReportWarmupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Statements == nil {
		return errors.New("report warmup: dependencies not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskReportWarmup)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := j.Statements.TrialBalance(ctx)
		return err
	})
	g.Go(func() error {
		_, err := j.Statements.BalanceSheet(ctx)
		return err
	})
	g.Go(func() error {
		_, err := j.Statements.IncomeStatement(ctx)
		return err
	})
	err := g.Wait()
	if err != nil && j.Logger != nil {
		j.Logger.Warn("report warmup failed", slog.Int64("version", payload.Version), slog.Any("error", err))
	}
	return tracker.End(err)
}
