package ledger

import (
	"context"
	"strconv"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
)

// AccountReader resolves chart entries.
type AccountReader interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
	List(ctx context.Context) ([]accounts.Account, error)
}

// Cache stores projections under a version bumped by every posting.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Service is the read side of the ledger. It has no side effects beyond
// populating the cache.
type Service struct {
	repo     Repository
	accounts AccountReader
	cache    Cache
}

// NewService builds the aggregator. cache may be nil.
func NewService(repo Repository, accounts AccountReader, cache Cache) *Service {
	return &Service{repo: repo, accounts: accounts, cache: cache}
}

// LedgerForAccount replays every line of accountID into a running balance.
func (s *Service) LedgerForAccount(ctx context.Context, accountID int64) (LedgerView, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return LedgerView{}, err
	}
	return fetch(ctx, s.cache, func(ctx context.Context) (LedgerView, error) {
		movements, err := s.repo.ListMovements(ctx, accountID)
		if err != nil {
			return LedgerView{}, err
		}
		return BuildLedger(account, movements), nil
	}, "ledger", "account", strconv.FormatInt(accountID, 10))
}

// TrialBalance returns the balance of every account in the chart.
func (s *Service) TrialBalance(ctx context.Context) ([]TrialBalanceRow, error) {
	return fetch(ctx, s.cache, func(ctx context.Context) ([]TrialBalanceRow, error) {
		chart, err := s.accounts.List(ctx)
		if err != nil {
			return nil, err
		}
		totals, err := s.repo.SumByAccount(ctx)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(chart, totals), nil
	}, "ledger", "trial_balance")
}

func fetch[T any](ctx context.Context, cache Cache, load func(context.Context) (T, error), parts ...string) (T, error) {
	var out T
	if cache == nil {
		return load(ctx)
	}
	key, err := cache.BuildKey(ctx, parts...)
	if err != nil {
		// No version means no safe key; read the ledger directly.
		return load(ctx)
	}
	err = cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	return out, err
}
