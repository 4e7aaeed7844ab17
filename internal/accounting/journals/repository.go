package journals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	"github.com/HcVm/bytek-core-sub001/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the reads and appends a posting performs inside one
// transaction.
type TxRepository interface {
	// FindPeriodForPosting returns the period covering date, share-locked
	// so a concurrent close waits for in-flight postings.
	FindPeriodForPosting(ctx context.Context, date time.Time) (periods.Period, error)
	GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
	InsertJournalEntry(ctx context.Context, in PostingInput, periodID int64) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []JournalLine) error
	LinkSource(ctx context.Context, module, sourceID string, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const selectEntry = `SELECT id, number, period_id, date, description, type, created_by, source_module, source_id, posted_at FROM journal_entries`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.PeriodID, &e.Date, &e.Description, &e.Type, &e.CreatedBy, &e.SourceModule, &e.SourceID, &e.PostedAt)
	return e, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, selectEntry+` ORDER BY number DESC LIMIT $1 OFFSET $2`, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, selectEntry+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, je_id, line_no, account_id, account_code, debit, credit, description
FROM journal_lines WHERE je_id=$1 ORDER BY line_no ASC`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.LineNo, &line.AccountID, &line.AccountCode, &line.Debit, &line.Credit, &line.Description); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) FindPeriodForPosting(ctx context.Context, date time.Time) (periods.Period, error) {
	return periods.ScanPeriod(r.tx.QueryRow(ctx, periods.SelectPeriod+` WHERE $1::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1 FOR SHARE`, date))
}

func (r *txRepository) GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error) {
	out := make(map[int64]accounts.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.tx.Query(ctx, accounts.SelectAccount+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := accounts.ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *txRepository) InsertJournalEntry(ctx context.Context, in PostingInput, periodID int64) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (period_id, date, description, type, created_by, source_module, source_id)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, number, posted_at`, periodID, in.Date, in.Description, in.Type, in.CreatedBy, in.SourceModule, in.SourceID)
	entry := JournalEntry{
		PeriodID:     periodID,
		Date:         in.Date,
		Description:  in.Description,
		Type:         in.Type,
		CreatedBy:    in.CreatedBy,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
	}
	if err := row.Scan(&entry.ID, &entry.Number, &entry.PostedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(`INSERT INTO journal_lines (je_id, line_no, account_id, account_code, debit, credit, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, entryID, line.LineNo, line.AccountID, line.AccountCode, line.Debit, line.Credit, line.Description)
	}
	return r.tx.SendBatch(ctx, batch).Close()
}

func (r *txRepository) LinkSource(ctx context.Context, module, sourceID string, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, je_id) VALUES ($1,$2,$3)`, module, sourceID, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}
