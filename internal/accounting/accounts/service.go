package accounts

import (
	"context"
	"strings"
)

// Service is the read-mostly chart of accounts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the whole chart ordered by code.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// FindByCode resolves an account by its code, returning shared.ErrAccountNotFound
// when the chart has no such code.
func (s *Service) FindByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.FindByCode(ctx, strings.TrimSpace(code))
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account. The nature defaults from the type.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	return s.repo.Insert(ctx, in)
}
