package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/reports"
	jobmetrics "github.com/HcVm/bytek-core-sub001/internal/jobs"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeLedger struct {
	rows  []ledger.TrialBalanceRow
	views map[int64]ledger.LedgerView
}

func (f *fakeLedger) TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error) {
	return f.rows, nil
}

func (f *fakeLedger) LedgerForAccount(ctx context.Context, id int64) (ledger.LedgerView, error) {
	v, ok := f.views[id]
	if !ok {
		return ledger.LedgerView{}, errors.New("missing account")
	}
	return v, nil
}

type sheetFromRows struct{ rows []ledger.TrialBalanceRow }

func (s sheetFromRows) BalanceSheet(ctx context.Context) (reports.BalanceSheet, error) {
	return reports.BuildBalanceSheet(s.rows), nil
}

func tbRow(id int64, code string, typ accounts.AccountType, debit, credit string) ledger.TrialBalanceRow {
	n := typ.DefaultNature()
	return ledger.TrialBalanceRow{AccountID: id, Code: code, Type: typ, Nature: n, TotalDebit: d(debit), TotalCredit: d(credit), Balance: n.Signed(d(debit), d(credit))}
}

func viewFor(row ledger.TrialBalanceRow) ledger.LedgerView {
	return ledger.LedgerView{TotalDebit: row.TotalDebit, TotalCredit: row.TotalCredit, Balance: row.Balance}
}

func healthyLedger() *fakeLedger {
	rows := []ledger.TrialBalanceRow{
		tbRow(1, "1212", accounts.AccountTypeAsset, "118", "0"),
		tbRow(2, "40111", accounts.AccountTypeLiability, "0", "18"),
		tbRow(3, "7041", accounts.AccountTypeIncome, "0", "100"),
		tbRow(4, "1041", accounts.AccountTypeAsset, "0", "0"),
	}
	views := map[int64]ledger.LedgerView{}
	for _, r := range rows[:3] {
		views[r.AccountID] = viewFor(r)
	}
	return &fakeLedger{rows: rows, views: views}
}

func TestGLIntegrityHealthyLedger(t *testing.T) {
	fl := healthyLedger()
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewGLIntegrityJob(fl, sheetFromRows{fl.rows}, nil, metrics)

	report, err := job.Run(context.Background(), GLIntegrityPayload{ReplayAccounts: true})
	require.NoError(t, err)
	require.True(t, report.Healthy())
	require.Equal(t, 3, report.AccountsReplayed)
	require.True(t, report.TotalDebit.Equal(d("118")))
}

func TestGLIntegrityFlagsImbalance(t *testing.T) {
	fl := healthyLedger()
	fl.rows[0] = tbRow(1, "1212", accounts.AccountTypeAsset, "128", "0")
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	job := NewGLIntegrityJob(fl, sheetFromRows{fl.rows}, nil, metrics)

	report, err := job.Run(context.Background(), GLIntegrityPayload{ReplayAccounts: true})
	require.NoError(t, err)
	require.False(t, report.Healthy())
	require.False(t, report.TrialBalanced)
	require.False(t, report.SheetBalanced)
	require.True(t, report.SheetDifference.Equal(d("10")))
	require.Equal(t, []string{"1212"}, report.MismatchedAccount)

	families, err := reg.Gather()
	require.NoError(t, err)
	checks := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "bytek_ledger_integrity_breaches_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			checks[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	require.Equal(t, map[string]float64{"trial_balance": 1, "balance_sheet": 1, "account_replay": 1}, checks)
}

// concurrentLedger commits a balanced entry right after the first trial
// balance read, so account ledgers already include it.
type concurrentLedger struct {
	before []ledger.TrialBalanceRow
	after  []ledger.TrialBalanceRow
	reads  int
}

func (c *concurrentLedger) TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error) {
	c.reads++
	if c.reads == 1 {
		return c.before, nil
	}
	return c.after, nil
}

func (c *concurrentLedger) LedgerForAccount(ctx context.Context, id int64) (ledger.LedgerView, error) {
	for _, row := range c.after {
		if row.AccountID == id {
			return viewFor(row), nil
		}
	}
	return ledger.LedgerView{}, errors.New("missing account")
}

func TestGLIntegrityIgnoresPostingDuringReplay(t *testing.T) {
	cl := &concurrentLedger{
		before: []ledger.TrialBalanceRow{
			tbRow(1, "1041", accounts.AccountTypeAsset, "100", "0"),
			tbRow(2, "5011", accounts.AccountTypeEquity, "0", "100"),
		},
		after: []ledger.TrialBalanceRow{
			tbRow(1, "1041", accounts.AccountTypeAsset, "150", "0"),
			tbRow(2, "5011", accounts.AccountTypeEquity, "0", "150"),
		},
	}
	reg := prometheus.NewRegistry()
	job := NewGLIntegrityJob(cl, sheetFromRows{cl.before}, nil, jobmetrics.NewMetrics(reg))

	report, err := job.Run(context.Background(), GLIntegrityPayload{ReplayAccounts: true})
	require.NoError(t, err)
	require.True(t, report.Healthy())
	require.Empty(t, report.MismatchedAccount)
	require.Equal(t, 2, report.AccountsReplayed)
	require.Equal(t, 2, cl.reads)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "bytek_ledger_integrity_breaches_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			require.Zero(t, m.GetCounter().GetValue())
		}
	}
}

func TestGLIntegrityHandleDecodesPayload(t *testing.T) {
	fl := healthyLedger()
	job := NewGLIntegrityJob(fl, sheetFromRows{fl.rows}, nil, nil)

	task, err := NewGLIntegrityTask(GLIntegrityPayload{ReplayAccounts: true})
	require.NoError(t, err)
	require.Equal(t, TaskGLIntegrity, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))

	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskGLIntegrity, []byte("{"))), asynq.SkipRetry)
}

type countingStatements struct{ calls int }

func (c *countingStatements) TrialBalance(ctx context.Context) (reports.TrialBalance, error) {
	return reports.TrialBalance{}, nil
}

func (c *countingStatements) BalanceSheet(ctx context.Context) (reports.BalanceSheet, error) {
	return reports.BalanceSheet{}, nil
}

func (c *countingStatements) IncomeStatement(ctx context.Context) (reports.IncomeStatement, error) {
	return reports.IncomeStatement{}, errors.New("db down")
}

func TestReportWarmupReportsFailure(t *testing.T) {
	job := NewReportWarmupJob(&countingStatements{}, nil, nil)
	task, err := NewReportWarmupTask(7)
	require.NoError(t, err)

	var payload ReportWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, int64(7), payload.Version)
	require.EqualError(t, job.Handle(context.Background(), task), "db down")
}

type stubInspector struct{ pending int }

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: s.pending}, nil
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{pending: 3}, nil, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":3}`, rr.Body.String())
}
