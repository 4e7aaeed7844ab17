package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// Service is the accounting period registry. The current period is always a
// function of an explicit date.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock used when no date is supplied.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CurrentPeriod resolves the period covering date, defaulting to today when
// date is zero. Returns shared.ErrPeriodNotFound when no period exists.
func (s *Service) CurrentPeriod(ctx context.Context, date time.Time) (Period, error) {
	if date.IsZero() {
		date = s.now()
	}
	return s.repo.FindByDate(ctx, date)
}

// IsOpen reports whether the period accepts postings.
func (s *Service) IsOpen(p Period) bool {
	return p.IsOpen()
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// Create opens the calendar month described by in.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	return s.repo.Insert(ctx, in)
}

// Close moves an open period to CLOSED. Closing is one-way.
func (s *Service) Close(ctx context.Context, id, actorID int64) (Period, error) {
	if id == 0 {
		return Period{}, fmt.Errorf("%w: period id required", shared.ErrInvalidInput)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ValidateTransition(current.Status, PeriodStatusClosed); err != nil {
			return err
		}
		if current.Status == PeriodStatusClosed {
			return nil
		}
		return tx.UpdateStatus(ctx, id, PeriodStatusClosed, actorID)
	})
	if err != nil {
		return Period{}, err
	}
	return s.repo.Get(ctx, id)
}
