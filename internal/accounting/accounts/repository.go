package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	FindByCode(ctx context.Context, code string) (Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	Insert(ctx context.Context, in CreateInput) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// SelectAccount is the canonical account projection.
const SelectAccount = `SELECT id, code, name, type, nature, parent_id, is_active, created_at, updated_at FROM accounts`

// ScanAccount reads an account row in SelectAccount column order.
func ScanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, SelectAccount+` ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) FindByCode(ctx context.Context, code string) (Account, error) {
	a, err := ScanAccount(r.db.QueryRow(ctx, SelectAccount+` WHERE code=$1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := ScanAccount(r.db.QueryRow(ctx, SelectAccount+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (Account, error) {
	a, err := ScanAccount(r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, nature, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,TRUE) RETURNING id, code, name, type, nature, parent_id, is_active, created_at, updated_at`,
		in.Code, in.Name, in.Type, in.Nature, in.ParentID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateAccount
		}
		return Account{}, err
	}
	return a, nil
}
