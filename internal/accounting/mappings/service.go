package mappings

import (
	"context"
	"fmt"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// Service resolves integration keys to accounts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the account mapped to module/key.
func (s *Service) Resolve(ctx context.Context, module, key string) (AccountMapping, error) {
	module, key = Normalize(module), Normalize(key)
	if module == "" || key == "" {
		return AccountMapping{}, fmt.Errorf("%w: module and key required", shared.ErrMappingNotFound)
	}
	m, err := s.repo.Get(ctx, module, key)
	if err != nil {
		return AccountMapping{}, fmt.Errorf("mapping %s/%s: %w", module, key, err)
	}
	return m, nil
}

// List returns mappings, optionally filtered by module.
func (s *Service) List(ctx context.Context, module string) ([]AccountMapping, error) {
	return s.repo.List(ctx, Normalize(module))
}

// Set points module/key at accountID.
func (s *Service) Set(ctx context.Context, module, key string, accountID int64) error {
	module, key = Normalize(module), Normalize(key)
	if module == "" || key == "" || accountID <= 0 {
		return fmt.Errorf("%w: module, key and account required", shared.ErrInvalidInput)
	}
	return s.repo.Upsert(ctx, module, key, accountID)
}
