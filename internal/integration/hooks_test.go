package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/journals"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/mappings"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

type recordingLedger struct {
	posted  []journals.PostingInput
	sources map[string]bool
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{sources: map[string]bool{}}
}

func (l *recordingLedger) Post(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	if delta := in.Delta(); !delta.IsZero() {
		return journals.JournalEntry{}, shared.RejectUnbalanced(delta)
	}
	key := in.SourceModule + "/" + in.SourceID
	if l.sources[key] {
		return journals.JournalEntry{}, fmt.Errorf("%w: %s", shared.ErrSourceAlreadyLinked, key)
	}
	l.sources[key] = true
	l.posted = append(l.posted, in)
	return journals.JournalEntry{ID: int64(len(l.posted)), Number: int64(len(l.posted))}, nil
}

type staticResolver map[string]mappings.AccountMapping

func (r staticResolver) Resolve(ctx context.Context, module, key string) (mappings.AccountMapping, error) {
	m, ok := r[mappings.Normalize(module)+"/"+mappings.Normalize(key)]
	if !ok {
		return mappings.AccountMapping{}, shared.ErrMappingNotFound
	}
	return m, nil
}

func chart() staticResolver {
	add := func(r staticResolver, module, key string, id int64, code string) {
		r[module+"/"+key] = mappings.AccountMapping{Module: module, Key: key, AccountID: id, AccountCode: code}
	}
	r := staticResolver{}
	add(r, ModuleInvoices, "receivable", 11, "1212")
	add(r, ModuleInvoices, "tax", 20, "40111")
	add(r, ModuleInvoices, "revenue", 30, "7041")
	add(r, ModulePayments, "cash", 10, "1041")
	add(r, ModulePayments, "receivable", 11, "1212")
	add(r, ModuleInventory, "stock", 12, "2011")
	add(r, ModuleInventory, "tax", 20, "40111")
	add(r, ModuleInventory, "payable", 21, "4212")
	add(r, ModulePayroll, "expense", 40, "6211")
	add(r, ModulePayroll, "withholding", 22, "4032")
	add(r, ModulePayroll, "payable", 23, "4111")
	return r
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var may10 = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func TestInvoiceIssuedPostsBalancedSale(t *testing.T) {
	ledger := newRecordingLedger()
	hooks := NewHooks(ledger, chart())

	err := hooks.HandleInvoiceIssued(context.Background(), InvoiceIssued{
		ID: 501, Number: "F001-501", IssuedAt: may10, Customer: "ACME SAC",
		Subtotal: d("100"), Tax: d("18"), IssuedBy: 7,
	})
	require.NoError(t, err)
	require.Len(t, ledger.posted, 1)

	in := ledger.posted[0]
	require.Equal(t, ModuleInvoices, in.SourceModule)
	require.Equal(t, "501", in.SourceID)
	require.Equal(t, int64(7), in.CreatedBy)
	require.Len(t, in.Lines, 3)
	require.Equal(t, "1212", in.Lines[0].AccountCode)
	require.True(t, in.Lines[0].Debit.Equal(d("118")))
	require.True(t, in.Lines[1].Credit.Equal(d("18")))
	require.True(t, in.Lines[2].Credit.Equal(d("100")))
}

func TestRedeliveredEventIsIgnored(t *testing.T) {
	ledger := newRecordingLedger()
	hooks := NewHooks(ledger, chart())
	evt := PaymentCollected{ID: 9, InvoiceNumber: "F001-501", PaidAt: may10, Amount: d("118"), ReceivedBy: 7}

	require.NoError(t, hooks.HandlePaymentCollected(context.Background(), evt))
	require.NoError(t, hooks.HandlePaymentCollected(context.Background(), evt))
	require.Len(t, ledger.posted, 1)
	require.Equal(t, "1041", ledger.posted[0].Lines[0].AccountCode)
}

func TestInventoryReceivedRoundsLines(t *testing.T) {
	ledger := newRecordingLedger()
	hooks := NewHooks(ledger, chart())

	err := hooks.HandleInventoryReceived(context.Background(), InventoryReceived{
		ID: 3, Number: "NI-3", ReceivedAt: may10, Supplier: "Proveedor SA",
		Lines: []ReceiptLine{
			{ProductCode: "P1", Qty: d("3"), UnitCost: d("3.333")},
			{ProductCode: "P2", Qty: d("1"), UnitCost: d("10")},
		},
		Tax: d("3.60"), ReceivedBy: 4,
	})
	require.NoError(t, err)
	in := ledger.posted[0]
	require.True(t, in.Lines[0].Debit.Equal(d("20")))
	require.True(t, in.Lines[2].Credit.Equal(d("23.60")))
	require.True(t, in.Delta().IsZero())
}

func TestPayrollAccrualUsesDeterministicSource(t *testing.T) {
	ledger := newRecordingLedger()
	hooks := NewHooks(ledger, chart())
	evt := PayrollAccrued{Period: "2024-05", Run: 1, AccruedAt: may10, Gross: d("5000"), Withholding: d("650"), ApprovedBy: 2}

	require.NoError(t, hooks.HandlePayrollAccrued(context.Background(), evt))
	require.NoError(t, hooks.HandlePayrollAccrued(context.Background(), evt))
	require.Len(t, ledger.posted, 1)
	in := ledger.posted[0]
	require.Len(t, in.SourceID, 36)
	require.True(t, in.Lines[2].Credit.Equal(d("4350")))

	evt.Run = 2
	require.NoError(t, hooks.HandlePayrollAccrued(context.Background(), evt))
	require.Len(t, ledger.posted, 2)
	require.NotEqual(t, ledger.posted[0].SourceID, ledger.posted[1].SourceID)
}

func TestPayrollRejectsExcessWithholding(t *testing.T) {
	hooks := NewHooks(newRecordingLedger(), chart())
	err := hooks.HandlePayrollAccrued(context.Background(), PayrollAccrued{
		Period: "2024-05", AccruedAt: may10, Gross: d("100"), Withholding: d("150"), ApprovedBy: 2,
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestInvoiceWithoutDateIsInvalid(t *testing.T) {
	ledger := newRecordingLedger()
	hooks := NewHooks(ledger, chart())
	err := hooks.HandleInvoiceIssued(context.Background(), InvoiceIssued{ID: 1, Number: "F1", Subtotal: d("100"), IssuedBy: 1})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Empty(t, ledger.posted)
}

func TestMissingMappingFails(t *testing.T) {
	r := chart()
	delete(r, ModuleInvoices+"/tax")
	hooks := NewHooks(newRecordingLedger(), r)
	err := hooks.HandleInvoiceIssued(context.Background(), InvoiceIssued{ID: 1, Number: "F1", IssuedAt: may10, Subtotal: d("100"), Tax: d("18"), IssuedBy: 1})
	require.ErrorIs(t, err, shared.ErrMappingNotFound)
}

func TestPosterRequiresCaller(t *testing.T) {
	hooks := NewHooks(newRecordingLedger(), chart())
	err := hooks.HandleInvoiceIssued(context.Background(), InvoiceIssued{ID: 1, Number: "F1", IssuedAt: may10, Subtotal: d("100")})
	kind, ok := shared.KindOf(err)
	require.True(t, ok)
	require.Equal(t, shared.KindInvalidRequest, kind)
}
