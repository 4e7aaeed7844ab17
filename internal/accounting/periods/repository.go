package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
	"github.com/HcVm/bytek-core-sub001/internal/platform/db"
)

type Repository interface {
	FindByDate(ctx context.Context, date time.Time) (Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	List(ctx context.Context) ([]Period, error)
	Insert(ctx context.Context, in CreateInput) (Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the locked read/update pair used by Close.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Period, error)
	UpdateStatus(ctx context.Context, id int64, status PeriodStatus, actorID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// SelectPeriod is the canonical period projection.
const SelectPeriod = `SELECT id, code, year, month, start_date, end_date, status, closed_at, closed_by, created_at, updated_at FROM periods`

// ScanPeriod reads a period row in SelectPeriod column order.
func ScanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Code, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

// FindByDate returns the period covering the supplied date, whatever its status.
func (r *repository) FindByDate(ctx context.Context, date time.Time) (Period, error) {
	return ScanPeriod(r.db.QueryRow(ctx, SelectPeriod+` WHERE $1::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date))
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	return ScanPeriod(r.db.QueryRow(ctx, SelectPeriod+` WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, SelectPeriod+` ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := ScanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (Period, error) {
	start, end := MonthWindow(in.Year, in.Month)
	p, err := ScanPeriod(r.db.QueryRow(ctx, `INSERT INTO periods (code, year, month, start_date, end_date, status)
VALUES ($1,$2,$3,$4,$5,'OPEN')
RETURNING id, code, year, month, start_date, end_date, status, closed_at, closed_by, created_at, updated_at`,
		MonthCode(in.Year, in.Month), in.Year, in.Month, start, end))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01") {
			return Period{}, shared.ErrPeriodOverlap
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Period, error) {
	return ScanPeriod(r.tx.QueryRow(ctx, SelectPeriod+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status PeriodStatus, actorID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE periods SET status=$2, closed_at=CASE WHEN $2='CLOSED' THEN NOW() ELSE closed_at END,
closed_by=CASE WHEN $2='CLOSED' THEN $3 ELSE closed_by END, updated_at=NOW() WHERE id=$1`, id, status, nullInt(actorID))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrPeriodNotFound
	}
	return nil
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
