package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

type Repository interface {
	Get(ctx context.Context, module, key string) (AccountMapping, error)
	List(ctx context.Context, module string) ([]AccountMapping, error)
	Upsert(ctx context.Context, module, key string, accountID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const selectMapping = `SELECT m.module, m.key, m.account_id, a.code, m.created_at, m.updated_at
FROM account_mappings m JOIN accounts a ON a.id = m.account_id`

func scanMapping(row pgx.Row) (AccountMapping, error) {
	var m AccountMapping
	err := row.Scan(&m.Module, &m.Key, &m.AccountID, &m.AccountCode, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Get resolves an account mapping for the specified key. Arguments must be
// normalized.
func (r *repository) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	mapping, err := scanMapping(r.db.QueryRow(ctx, selectMapping+` WHERE m.module=$1 AND m.key=$2`, module, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.ErrMappingNotFound
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

func (r *repository) List(ctx context.Context, module string) ([]AccountMapping, error) {
	rows, err := r.db.Query(ctx, selectMapping+` WHERE $1 = '' OR m.module=$1 ORDER BY m.module, m.key`, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, module, key string, accountID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO account_mappings (module, key, account_id) VALUES ($1,$2,$3)
ON CONFLICT (module, key) DO UPDATE SET account_id = EXCLUDED.account_id, updated_at = NOW()`, module, key, accountID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return shared.ErrAccountNotFound
	}
	return err
}
