package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	platformshared "github.com/HcVm/bytek-core-sub001/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log platformshared.AuditLog) error
}

// CacheInvalidator drops cached aggregates once new lines are visible.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// PostingObserver counts posting outcomes.
type PostingObserver interface {
	ObservePosting(outcome string)
	ObserveCacheBumpFailure()
}

const (
	bumpAttempts = 3
	bumpTimeout  = 5 * time.Second
)

// Service appends balanced entries to the general ledger.
type Service struct {
	repo     Repository
	audit    AuditPort
	cache    CacheInvalidator
	observer PostingObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the journal service. audit, cache and observer may be nil.
func NewService(repo Repository, audit AuditPort, cache CacheInvalidator, observer PostingObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, observer: observer, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post validates and persists a new journal entry. Either the header, every
// line and the source link are written together, or nothing is.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	entry, err := s.post(ctx, input)
	s.observe(err)
	if err != nil {
		return JournalEntry{}, err
	}
	s.bump(ctx, entry.ID)
	if s.audit != nil {
		if err := s.audit.Record(ctx, platformshared.AuditLog{
			ActorID:  input.CreatedBy,
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"number":        entry.Number,
				"source_module": entry.SourceModule,
				"source_id":     entry.SourceID,
				"total":         entry.TotalDebit().StringFixed(shared.MoneyPlaces),
			},
			At: s.now(),
		}); err != nil {
			s.logger.Warn("audit record failed", slog.Int64("journal_id", entry.ID), slog.Any("error", err))
		}
	}
	return entry, nil
}

// bump invalidates cached reports once the entry is committed. The entry is
// already durable, so the bump runs even when the caller has gone away; a
// bump that keeps failing leaves reports stale until the cache TTL expires
// and is counted for alerting.
func (s *Service) bump(ctx context.Context, journalID int64) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bumpTimeout)
	defer cancel()
	var err error
	for attempt := 1; attempt <= bumpAttempts && ctx.Err() == nil; attempt++ {
		if err = s.cache.Bump(ctx); err == nil {
			return
		}
		if attempt < bumpAttempts {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
	}
	s.logger.Error("report cache bump failed, reports stale until ttl", slog.Int64("journal_id", journalID), slog.Any("error", err))
	if s.observer != nil {
		s.observer.ObserveCacheBumpFailure()
	}
}

func (s *Service) post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.FindPeriodForPosting(ctx, input.Date)
		if err != nil {
			if errors.Is(err, shared.ErrPeriodNotFound) {
				return shared.Reject(shared.KindNoOpenPeriod, "no period covers %s", input.Date.Format(periods.DateLayout))
			}
			return err
		}
		chart, err := tx.GetAccounts(ctx, input.AccountIDs())
		if err != nil {
			return err
		}
		if err := CheckPosting(input, period, chart); err != nil {
			return err
		}
		inserted, err := tx.InsertJournalEntry(ctx, input, period.ID)
		if err != nil {
			return err
		}
		lines := BuildLines(input, chart)
		if err := tx.InsertJournalLines(ctx, inserted.ID, lines); err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, input.SourceModule, input.SourceID, inserted.ID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return fmt.Errorf("%w: %s/%s", shared.ErrSourceAlreadyLinked, input.SourceModule, input.SourceID)
			}
			return err
		}
		for i := range lines {
			lines[i].JournalID = inserted.ID
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (s *Service) observe(err error) {
	if s.observer == nil {
		return
	}
	switch {
	case err == nil:
		s.observer.ObservePosting("posted")
	case errors.Is(err, shared.ErrSourceAlreadyLinked):
		s.observer.ObservePosting("duplicate")
	default:
		if kind, ok := shared.KindOf(err); ok {
			s.observer.ObservePosting(string(kind))
			return
		}
		s.observer.ObservePosting("error")
	}
}

// List returns entry headers, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, filter)
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}
