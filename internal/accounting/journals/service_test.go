package journals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	platformshared "github.com/HcVm/bytek-core-sub001/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	periods   []periods.Period
	chart     map[int64]accounts.Account
	entries   []JournalEntry
	links     map[string]int64
	seq       int64
	failLines bool
}

func newMemoryRepo() *memoryRepo {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &memoryRepo{
		periods: []periods.Period{
			{ID: 1, Code: "2024-04", StartDate: start.AddDate(0, -1, 0), EndDate: start.AddDate(0, 0, -1), Status: periods.PeriodStatusClosed},
			{ID: 2, Code: "2024-05", StartDate: start, EndDate: start.AddDate(0, 1, -1), Status: periods.PeriodStatusOpen},
		},
		chart: map[int64]accounts.Account{
			10: {ID: 10, Code: "1041", Type: accounts.AccountTypeAsset, Nature: accounts.NatureDebit, IsActive: true},
			11: {ID: 11, Code: "1212", Type: accounts.AccountTypeAsset, Nature: accounts.NatureDebit, IsActive: true},
			20: {ID: 20, Code: "40111", Type: accounts.AccountTypeLiability, Nature: accounts.NatureCredit, IsActive: true},
			30: {ID: 30, Code: "7041", Type: accounts.AccountTypeIncome, Nature: accounts.NatureCredit, IsActive: true},
		},
		links: map[string]int64{},
	}
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]JournalEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return JournalEntry{}, shared.ErrJournalNotFound
}

// WithTx serialises transactions and only publishes staged writes when fn
// succeeds.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{repo: r, links: map[string]int64{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if tx.entry != nil {
		r.entries = append(r.entries, *tx.entry)
		r.seq = tx.entry.Number
	}
	for k, v := range tx.links {
		r.links[k] = v
	}
	return nil
}

type memoryTx struct {
	repo  *memoryRepo
	entry *JournalEntry
	links map[string]int64
}

func (tx *memoryTx) FindPeriodForPosting(ctx context.Context, date time.Time) (periods.Period, error) {
	for _, p := range tx.repo.periods {
		if p.Covers(date) {
			return p, nil
		}
	}
	return periods.Period{}, shared.ErrPeriodNotFound
}

func (tx *memoryTx) GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error) {
	out := map[int64]accounts.Account{}
	for _, id := range ids {
		if a, ok := tx.repo.chart[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (tx *memoryTx) InsertJournalEntry(ctx context.Context, in PostingInput, periodID int64) (JournalEntry, error) {
	number := tx.repo.seq + 1
	entry := JournalEntry{
		ID: number, Number: number, PeriodID: periodID, Date: in.Date, Description: in.Description,
		Type: in.Type, CreatedBy: in.CreatedBy, SourceModule: in.SourceModule, SourceID: in.SourceID,
		PostedAt: time.Now(),
	}
	tx.entry = &entry
	return entry, nil
}

func (tx *memoryTx) InsertJournalLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	if tx.repo.failLines {
		return errors.New("disk full")
	}
	tx.entry.Lines = append([]JournalLine(nil), lines...)
	return nil
}

func (tx *memoryTx) LinkSource(ctx context.Context, module, sourceID string, entryID int64) error {
	key := module + "/" + sourceID
	if _, ok := tx.repo.links[key]; ok {
		return shared.ErrSourceConflict
	}
	tx.links[key] = entryID
	return nil
}

type recordingAudit struct {
	logs []platformshared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log platformshared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type countingCache struct {
	bumps    int
	failures int
}

func (c *countingCache) Bump(ctx context.Context) error {
	c.bumps++
	if c.bumps <= c.failures {
		return errors.New("redis: connection refused")
	}
	return nil
}

type outcomeRecorder struct {
	mu           sync.Mutex
	outcomes     []string
	bumpFailures int
}

func (o *outcomeRecorder) ObserveCacheBumpFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bumpFailures++
}

func (o *outcomeRecorder) ObservePosting(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func saleInput(source string) PostingInput {
	return PostingInput{
		Date:         time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Description:  "Factura F001-1",
		Type:         "VENTA",
		CreatedBy:    7,
		SourceModule: "crm_invoices",
		SourceID:     source,
		Lines: []PostingLineInput{
			{AccountID: 11, Debit: amount("118")},
			{AccountID: 20, Credit: amount("18")},
			{AccountID: 30, Credit: amount("100")},
		},
	}
}

func TestPostBalancedSale(t *testing.T) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	cache := &countingCache{}
	observer := &outcomeRecorder{}
	svc := NewService(repo, audit, cache, observer, nil)

	entry, err := svc.Post(context.Background(), saleInput("inv-1"))
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.Number)
	require.Equal(t, int64(2), entry.PeriodID)
	require.Len(t, entry.Lines, 3)
	require.True(t, entry.TotalDebit().Equal(amount("118")))
	require.True(t, entry.TotalCredit().Equal(amount("118")))
	require.Equal(t, "40111", entry.Lines[1].AccountCode)
	require.Equal(t, 3, entry.Lines[2].LineNo)
	require.Equal(t, entry.ID, entry.Lines[0].JournalID)

	require.Len(t, repo.entries, 1)
	require.Equal(t, 1, cache.bumps)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "journal.post", audit.logs[0].Action)
	require.Equal(t, int64(7), audit.logs[0].ActorID)
	require.Equal(t, []string{"posted"}, observer.outcomes)
}

func TestPostRetriesCacheBump(t *testing.T) {
	cache := &countingCache{failures: 1}
	observer := &outcomeRecorder{}
	svc := NewService(newMemoryRepo(), nil, cache, observer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := svc.Post(ctx, saleInput("inv-bump"))
	require.NoError(t, err)
	require.Equal(t, 2, cache.bumps)
	require.Zero(t, observer.bumpFailures)
}

func TestPostCountsPersistentBumpFailure(t *testing.T) {
	cache := &countingCache{failures: 10}
	observer := &outcomeRecorder{}
	svc := NewService(newMemoryRepo(), nil, cache, observer, nil)

	entry, err := svc.Post(context.Background(), saleInput("inv-stale"))
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.Equal(t, 3, cache.bumps)
	require.Equal(t, 1, observer.bumpFailures)
	require.Equal(t, []string{"posted"}, observer.outcomes)
}

func TestPostRejectsUnbalancedWithDelta(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	in := saleInput("inv-2")
	in.Lines = []PostingLineInput{
		{AccountID: 11, Debit: amount("100")},
		{AccountID: 30, Credit: amount("90")},
	}

	_, err := svc.Post(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	var perr *shared.PostingError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, shared.KindUnbalancedEntry, perr.Kind)
	require.True(t, perr.Delta.Equal(amount("10")))
	require.Empty(t, repo.entries)
}

func TestPostRejectsClosedPeriod(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	in := saleInput("inv-3")
	in.Date = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Post(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
	require.Empty(t, repo.entries)
}

func TestPostRejectsMissingPeriod(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	in := saleInput("inv-4")
	in.Date = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Post(context.Background(), in)
	kind, ok := shared.KindOf(err)
	require.True(t, ok)
	require.Equal(t, shared.KindNoOpenPeriod, kind)
}

func TestPostPreconditionOrder(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*PostingInput)
		kind  shared.ErrorKind
		line  int
		cause error
	}{
		{
			name: "closed period beats unbalanced lines",
			edit: func(in *PostingInput) {
				in.Date = time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
				in.Lines = in.Lines[:1]
			},
			kind: shared.KindPeriodClosed,
		},
		{
			name: "unknown account beats line count",
			edit: func(in *PostingInput) {
				in.Lines = []PostingLineInput{{AccountID: 999, Debit: amount("5")}}
			},
			kind: shared.KindAccountNotFound,
			line: 1,
		},
		{
			name: "code mismatch names the line",
			edit: func(in *PostingInput) { in.Lines[1].AccountCode = "4011" },
			kind: shared.KindAccountNotFound,
			line: 2,
		},
		{
			name: "single line",
			edit: func(in *PostingInput) { in.Lines = in.Lines[:1] },
			kind: shared.KindInsufficientLines,
		},
		{
			name:  "explicit period must match date",
			edit:  func(in *PostingInput) { in.PeriodID = 1 },
			kind:  shared.KindInvalidRequest,
			cause: shared.ErrDateOutOfRange,
		},
		{
			name: "negative amount",
			edit: func(in *PostingInput) { in.Lines[0].Debit = amount("-118") },
			kind: shared.KindInvalidRequest,
			line: 1,
		},
		{
			name: "sub-cent amount",
			edit: func(in *PostingInput) { in.Lines[2].Credit = amount("99.995") },
			kind: shared.KindInvalidRequest,
			line: 3,
		},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := NewService(repo, nil, nil, nil, nil)
			in := saleInput(fmt.Sprintf("order-%d", i))
			tc.edit(&in)

			_, err := svc.Post(context.Background(), in)
			var perr *shared.PostingError
			require.True(t, errors.As(err, &perr), "got %v", err)
			require.Equal(t, tc.kind, perr.Kind)
			require.Equal(t, tc.line, perr.Line)
			if tc.cause != nil {
				require.ErrorIs(t, err, tc.cause)
			}
			require.Empty(t, repo.entries)
		})
	}
}

func TestPostSourceIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	observer := &outcomeRecorder{}
	svc := NewService(repo, nil, nil, observer, nil)

	_, err := svc.Post(context.Background(), saleInput("inv-9"))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), saleInput("inv-9"))
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.Len(t, repo.entries, 1)
	require.Equal(t, []string{"posted", "duplicate"}, observer.outcomes)
}

func TestPostIsAtomicOnWriteFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.failLines = true
	cache := &countingCache{}
	svc := NewService(repo, nil, cache, nil, nil)

	_, err := svc.Post(context.Background(), saleInput("inv-10"))
	require.Error(t, err)
	require.Empty(t, repo.entries)
	require.Empty(t, repo.links)
	require.Zero(t, cache.bumps)

	repo.failLines = false
	entry, err := svc.Post(context.Background(), saleInput("inv-10"))
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.Number)
}

func TestConcurrentPostsGetDistinctNumbers(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	const workers = 16
	var wg sync.WaitGroup
	numbers := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := svc.Post(context.Background(), saleInput(fmt.Sprintf("inv-c%d", i)))
			if err == nil {
				numbers <- entry.Number
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := map[int64]bool{}
	for n := range numbers {
		require.False(t, seen[n], "duplicate number %d", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
	require.Len(t, repo.entries, workers)
}
