package reports

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
)

// DefaultLoadTimeout bounds a shared trial balance load.
const DefaultLoadTimeout = 30 * time.Second

// TrialBalanceSource yields the per-account balances statements derive from.
type TrialBalanceSource interface {
	TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error)
}

// Service composes financial statements. Statements hold no state of their
// own: each call rebuilds from the current trial balance.
type Service struct {
	source      TrialBalanceSource
	policy      IncomePolicy
	group       singleflight.Group
	loadTimeout time.Duration
}

// NewService constructs the statement generator.
func NewService(source TrialBalanceSource, policy IncomePolicy) *Service {
	return &Service{source: source, policy: policy, loadTimeout: DefaultLoadTimeout}
}

// Policy exposes the income statement parameters in use.
func (s *Service) Policy() IncomePolicy {
	return s.policy
}

// TrialBalance returns balances grouped by chart class.
func (s *Service) TrialBalance(ctx context.Context) (TrialBalance, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(rows), nil
}

// BalanceSheet returns the statement of financial position.
func (s *Service) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(rows), nil
}

// IncomeStatement returns the income statement under the configured policy.
func (s *Service) IncomeStatement(ctx context.Context) (IncomeStatement, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return IncomeStatement{}, err
	}
	return BuildIncomeStatement(rows, s.policy), nil
}

// rows collapses concurrent trial balance loads into one read. The shared
// load outlives any single caller: a caller that goes away stops waiting but
// does not cancel the read for the others.
func (s *Service) rows(ctx context.Context) ([]ledger.TrialBalanceRow, error) {
	ch := s.group.DoChan("trial_balance", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.source.TrialBalance(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]ledger.TrialBalanceRow), nil
	}
}
