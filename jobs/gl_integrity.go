package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/reports"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	jobmetrics "github.com/HcVm/bytek-core-sub001/internal/jobs"
)

// LedgerReader is the aggregator surface replayed by the integrity job.
type LedgerReader interface {
	TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error)
	LedgerForAccount(ctx context.Context, accountID int64) (ledger.LedgerView, error)
}

// BalanceSheetReader builds the balance sheet.
type BalanceSheetReader interface {
	BalanceSheet(ctx context.Context) (reports.BalanceSheet, error)
}

// IntegrityReport summarises one integrity run.
type IntegrityReport struct {
	TrialBalanced     bool
	TotalDebit        decimal.Decimal
	TotalCredit       decimal.Decimal
	SheetBalanced     bool
	SheetDifference   decimal.Decimal
	AccountsReplayed  int
	MismatchedAccount []string
}

// Healthy reports whether every check passed.
func (r IntegrityReport) Healthy() bool {
	return r.TrialBalanced && r.SheetBalanced && len(r.MismatchedAccount) == 0
}

// GLIntegrityJob detects unbalanced data that slipped into the ledger. A
// failed check is logged and counted, never corrected.
type GLIntegrityJob struct {
	Ledger      LedgerReader
	Statements  BalanceSheetReader
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Parallelism int
}

// NewGLIntegrityJob constructs the job handler.
func NewGLIntegrityJob(ledgerReader LedgerReader, statements BalanceSheetReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{Ledger: ledgerReader, Statements: statements, Logger: logger, Metrics: metrics, Parallelism: 4}
}

// Handle executes the integrity job for an Asynq task.
func (j *GLIntegrityJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload GLIntegrityPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run performs the checks and returns what it found.
func (j *GLIntegrityJob) Run(ctx context.Context, payload GLIntegrityPayload) (IntegrityReport, error) {
	if j == nil || j.Ledger == nil || j.Statements == nil {
		return IntegrityReport{}, errors.New("gl integrity: dependencies not configured")
	}
	tracker := j.Metrics.Track(TaskGLIntegrity)

	rows, err := j.Ledger.TrialBalance(ctx)
	if err != nil {
		j.log().Error("load trial balance", slog.Any("error", err))
		return IntegrityReport{}, tracker.End(err)
	}
	report := IntegrityReport{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, row := range rows {
		report.TotalDebit = report.TotalDebit.Add(row.TotalDebit)
		report.TotalCredit = report.TotalCredit.Add(row.TotalCredit)
	}
	report.TrialBalanced = shared.MoneyEqual(report.TotalDebit, report.TotalCredit)
	if !report.TrialBalanced {
		j.Metrics.AddIntegrityBreaches("trial_balance", 1)
		j.log().Error("trial balance does not balance",
			slog.String("debit", report.TotalDebit.StringFixed(2)),
			slog.String("credit", report.TotalCredit.StringFixed(2)))
	}

	sheet, err := j.Statements.BalanceSheet(ctx)
	if err != nil {
		j.log().Error("build balance sheet", slog.Any("error", err))
		return report, tracker.End(err)
	}
	report.SheetBalanced = sheet.IsBalanced
	report.SheetDifference = sheet.Difference
	if !sheet.IsBalanced {
		j.Metrics.AddIntegrityBreaches("balance_sheet", 1)
		j.log().Error("balance sheet does not balance", slog.String("difference", sheet.Difference.StringFixed(2)))
	}

	if payload.ReplayAccounts {
		mismatched, replayed, err := j.replay(ctx, rows)
		if err != nil {
			j.log().Error("replay account ledgers", slog.Any("error", err))
			return report, tracker.End(err)
		}
		report.AccountsReplayed = replayed
		report.MismatchedAccount = mismatched
		j.Metrics.AddIntegrityBreaches("account_replay", len(mismatched))
		for _, code := range mismatched {
			j.log().Error("account ledger disagrees with trial balance", slog.String("account", code))
		}
	}

	j.log().Info("gl integrity check finished",
		slog.Bool("healthy", report.Healthy()),
		slog.Int("accounts_replayed", report.AccountsReplayed))
	return report, tracker.End(nil)
}

// replayAttempts bounds how often suspect accounts are re-read before they
// count as breaches.
const replayAttempts = 3

// replay rebuilds each active account ledger and compares it with the
// aggregated trial balance row. The trial balance and the account ledgers are
// separate reads, so a posting committed between them looks like a mismatch;
// suspects are compared again against a fresh trial balance and only accounts
// that keep disagreeing are reported.
func (j *GLIntegrityJob) replay(ctx context.Context, rows []ledger.TrialBalanceRow) ([]string, int, error) {
	active := make([]ledger.TrialBalanceRow, 0, len(rows))
	for _, row := range rows {
		if row.TotalDebit.IsZero() && row.TotalCredit.IsZero() {
			continue
		}
		active = append(active, row)
	}

	suspects, err := j.compare(ctx, active)
	if err != nil {
		return nil, 0, err
	}
	for attempt := 1; attempt < replayAttempts && len(suspects) > 0; attempt++ {
		fresh, err := j.Ledger.TrialBalance(ctx)
		if err != nil {
			return nil, 0, err
		}
		byID := make(map[int64]ledger.TrialBalanceRow, len(fresh))
		for _, row := range fresh {
			byID[row.AccountID] = row
		}
		retry := make([]ledger.TrialBalanceRow, 0, len(suspects))
		for _, suspect := range suspects {
			if row, ok := byID[suspect.AccountID]; ok {
				suspect = row
			}
			retry = append(retry, suspect)
		}
		j.log().Debug("re-checking account ledgers", slog.Int("attempt", attempt), slog.Int("accounts", len(retry)))
		if suspects, err = j.compare(ctx, retry); err != nil {
			return nil, 0, err
		}
	}

	mismatched := make([]string, 0, len(suspects))
	for _, row := range suspects {
		mismatched = append(mismatched, row.Code)
	}
	slices.Sort(mismatched)
	return mismatched, len(active), nil
}

// compare returns the rows whose account ledger disagrees with them.
func (j *GLIntegrityJob) compare(ctx context.Context, rows []ledger.TrialBalanceRow) ([]ledger.TrialBalanceRow, error) {
	g, ctx := errgroup.WithContext(ctx)
	limit := j.Parallelism
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	var (
		mu         sync.Mutex
		mismatched []ledger.TrialBalanceRow
	)
	for _, row := range rows {
		g.Go(func() error {
			view, err := j.Ledger.LedgerForAccount(ctx, row.AccountID)
			if err != nil {
				return err
			}
			if view.Balance.Equal(row.Balance) &&
				view.TotalDebit.Equal(row.TotalDebit) &&
				view.TotalCredit.Equal(row.TotalCredit) {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			mismatched = append(mismatched, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mismatched, nil
}

func (j *GLIntegrityJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
