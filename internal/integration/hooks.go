package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/journals"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/mappings"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// Ledger exposes journal posting operations required by integrations.
type Ledger interface {
	Post(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
}

// AccountResolver provides mapping lookups.
type AccountResolver interface {
	Resolve(ctx context.Context, module, key string) (mappings.AccountMapping, error)
}

// payrollNamespace scopes deterministic payroll source ids.
var payrollNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("bytek.payroll"))

// Hooks turns business events into balanced journal entries.
type Hooks struct {
	ledger   Ledger
	resolver AccountResolver
}

// NewHooks constructs integration hooks.
func NewHooks(ledger Ledger, resolver AccountResolver) *Hooks {
	return &Hooks{ledger: ledger, resolver: resolver}
}

func (h *Hooks) line(ctx context.Context, module, key string, debit, credit decimal.Decimal, desc string) (journals.PostingLineInput, error) {
	m, err := h.resolver.Resolve(ctx, module, key)
	if err != nil {
		return journals.PostingLineInput{}, err
	}
	return journals.PostingLineInput{
		AccountID:   m.AccountID,
		AccountCode: m.AccountCode,
		Debit:       debit,
		Credit:      credit,
		Description: desc,
	}, nil
}

type lineSpec struct {
	key    string
	debit  decimal.Decimal
	credit decimal.Decimal
	desc   string
}

func debit(key string, amount decimal.Decimal, desc string) lineSpec {
	return lineSpec{key: key, debit: amount, credit: decimal.Zero, desc: desc}
}

func credit(key string, amount decimal.Decimal, desc string) lineSpec {
	return lineSpec{key: key, debit: decimal.Zero, credit: amount, desc: desc}
}

func (h *Hooks) lines(ctx context.Context, module string, specs ...lineSpec) ([]journals.PostingLineInput, error) {
	out := make([]journals.PostingLineInput, 0, len(specs))
	for _, spec := range specs {
		if spec.debit.IsZero() && spec.credit.IsZero() {
			continue
		}
		l, err := h.line(ctx, module, spec.key, spec.debit, spec.credit, spec.desc)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// post submits input. Re-delivered events resolve to the entry already
// linked to the source and count as success.
func (h *Hooks) post(ctx context.Context, input journals.PostingInput) error {
	if input.SourceID == "" {
		return fmt.Errorf("%w: integration source id required", shared.ErrInvalidInput)
	}
	_, err := h.ledger.Post(ctx, input)
	if errors.Is(err, shared.ErrSourceAlreadyLinked) {
		return nil
	}
	return err
}

func (h *Hooks) ready() bool {
	return h != nil && h.ledger != nil && h.resolver != nil
}

// HandleInvoiceIssued books receivable against sales and IGV.
func (h *Hooks) HandleInvoiceIssued(ctx context.Context, evt InvoiceIssued) error {
	if !h.ready() {
		return nil
	}
	if evt.IssuedAt.IsZero() {
		return fmt.Errorf("%w: invoice issue date required", shared.ErrInvalidInput)
	}
	subtotal, tax := round2(evt.Subtotal), round2(evt.Tax)
	total := subtotal.Add(tax)
	if !total.IsPositive() {
		return nil
	}
	memo := fmt.Sprintf("Factura %s", evt.Number)
	lines, err := h.lines(ctx, ModuleInvoices,
		debit("receivable", total, evt.Customer),
		credit("tax", tax, "IGV "+evt.Number),
		credit("revenue", subtotal, memo),
	)
	if err != nil {
		return err
	}
	return h.post(ctx, journals.PostingInput{
		Date:         evt.IssuedAt,
		Description:  memo,
		Type:         "venta",
		CreatedBy:    evt.IssuedBy,
		SourceModule: ModuleInvoices,
		SourceID:     strconv.FormatInt(evt.ID, 10),
		Lines:        lines,
	})
}

// HandlePaymentCollected books cash against the receivable.
func (h *Hooks) HandlePaymentCollected(ctx context.Context, evt PaymentCollected) error {
	if !h.ready() {
		return nil
	}
	if evt.PaidAt.IsZero() {
		return fmt.Errorf("%w: payment date required", shared.ErrInvalidInput)
	}
	amount := round2(evt.Amount)
	if !amount.IsPositive() {
		return nil
	}
	memo := fmt.Sprintf("Cobranza %s", evt.InvoiceNumber)
	lines, err := h.lines(ctx, ModulePayments,
		debit("cash", amount, memo),
		credit("receivable", amount, memo),
	)
	if err != nil {
		return err
	}
	return h.post(ctx, journals.PostingInput{
		Date:         evt.PaidAt,
		Description:  memo,
		Type:         "cobranza",
		CreatedBy:    evt.ReceivedBy,
		SourceModule: ModulePayments,
		SourceID:     strconv.FormatInt(evt.ID, 10),
		Lines:        lines,
	})
}

// HandleInventoryReceived books stock and recoverable IGV against payables.
func (h *Hooks) HandleInventoryReceived(ctx context.Context, evt InventoryReceived) error {
	if !h.ready() {
		return nil
	}
	if evt.ReceivedAt.IsZero() {
		return fmt.Errorf("%w: receipt date required", shared.ErrInvalidInput)
	}
	stock := decimal.Zero
	for _, l := range evt.Lines {
		stock = stock.Add(monetary(l.Qty, l.UnitCost))
	}
	tax := round2(evt.Tax)
	total := stock.Add(tax)
	if !stock.IsPositive() {
		return nil
	}
	memo := fmt.Sprintf("Ingreso almacen %s", evt.Number)
	lines, err := h.lines(ctx, ModuleInventory,
		debit("stock", stock, memo),
		debit("tax", tax, "IGV "+evt.Number),
		credit("payable", total, evt.Supplier),
	)
	if err != nil {
		return err
	}
	return h.post(ctx, journals.PostingInput{
		Date:         evt.ReceivedAt,
		Description:  memo,
		Type:         "compra",
		CreatedBy:    evt.ReceivedBy,
		SourceModule: ModuleInventory,
		SourceID:     strconv.FormatInt(evt.ID, 10),
		Lines:        lines,
	})
}

// HandlePayrollAccrued books salary expense against net pay and withholdings.
func (h *Hooks) HandlePayrollAccrued(ctx context.Context, evt PayrollAccrued) error {
	if !h.ready() {
		return nil
	}
	if evt.AccruedAt.IsZero() || evt.Period == "" {
		return fmt.Errorf("%w: payroll period and date required", shared.ErrInvalidInput)
	}
	gross, withholding := round2(evt.Gross), round2(evt.Withholding)
	if !gross.IsPositive() {
		return nil
	}
	if withholding.IsNegative() || withholding.GreaterThan(gross) {
		return fmt.Errorf("%w: payroll withholding %s outside 0..%s", shared.ErrInvalidInput, withholding, gross)
	}
	net := gross.Sub(withholding)
	memo := fmt.Sprintf("Planilla %s", evt.Period)
	lines, err := h.lines(ctx, ModulePayroll,
		debit("expense", gross, memo),
		credit("withholding", withholding, memo),
		credit("payable", net, memo),
	)
	if err != nil {
		return err
	}
	sourceID := uuid.NewSHA1(payrollNamespace, []byte(fmt.Sprintf("%s#%d", evt.Period, evt.Run)))
	return h.post(ctx, journals.PostingInput{
		Date:         evt.AccruedAt,
		Description:  memo,
		Type:         "planilla",
		CreatedBy:    evt.ApprovedBy,
		SourceModule: ModulePayroll,
		SourceID:     sourceID.String(),
		Lines:        lines,
	})
}
