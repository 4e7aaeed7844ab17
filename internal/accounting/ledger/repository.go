package ledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads posted lines. Posted lines never change, so every read is
// a projection over an append-only log.
type Repository interface {
	ListMovements(ctx context.Context, accountID int64) ([]Movement, error)
	SumByAccount(ctx context.Context) (map[int64]Totals, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListMovements(ctx context.Context, accountID int64) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `SELECT je.id, je.number, je.date, je.description, jl.line_no, jl.description, jl.debit, jl.credit
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.je_id
WHERE jl.account_id = $1
ORDER BY je.date ASC, je.number ASC, jl.line_no ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.JournalID, &m.Number, &m.Date, &m.Description, &m.LineNo, &m.LineDescription, &m.Debit, &m.Credit); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) SumByAccount(ctx context.Context) (map[int64]Totals, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, COALESCE(SUM(debit),0), COALESCE(SUM(credit),0)
FROM journal_lines GROUP BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Totals)
	for rows.Next() {
		var (
			id            int64
			debit, credit decimal.Decimal
		)
		if err := rows.Scan(&id, &debit, &credit); err != nil {
			return nil, err
		}
		out[id] = Totals{Debit: debit, Credit: credit}
	}
	return out, rows.Err()
}
