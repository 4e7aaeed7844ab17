package mappings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

type memoryRepo struct {
	rows map[string]AccountMapping
}

func (r *memoryRepo) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	m, ok := r.rows[module+"/"+key]
	if !ok {
		return AccountMapping{}, shared.ErrMappingNotFound
	}
	return m, nil
}

func (r *memoryRepo) List(ctx context.Context, module string) ([]AccountMapping, error) {
	var out []AccountMapping
	for _, m := range r.rows {
		if module == "" || m.Module == module {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, module, key string, accountID int64) error {
	r.rows[module+"/"+key] = AccountMapping{Module: module, Key: key, AccountID: accountID}
	return nil
}

func TestResolveFoldsCase(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[string]AccountMapping{}})
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, " CRM_Invoices ", "Receivable", 11))
	m, err := svc.Resolve(ctx, "crm_invoices", "RECEIVABLE")
	require.NoError(t, err)
	require.Equal(t, int64(11), m.AccountID)
	require.Equal(t, "crm_invoices", m.Module)
}

func TestResolveMissing(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[string]AccountMapping{}})
	_, err := svc.Resolve(context.Background(), "payroll", "expense")
	require.ErrorIs(t, err, shared.ErrMappingNotFound)

	_, err = svc.Resolve(context.Background(), "", "expense")
	require.ErrorIs(t, err, shared.ErrMappingNotFound)
}

func TestSetValidates(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[string]AccountMapping{}})
	require.ErrorIs(t, svc.Set(context.Background(), "payroll", "expense", 0), shared.ErrInvalidInput)
}
