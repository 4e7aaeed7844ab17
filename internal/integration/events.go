package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source modules stamped on entries produced by posters.
const (
	ModuleInvoices  = "crm_invoices"
	ModulePayments  = "crm_payments"
	ModuleInventory = "inventory"
	ModulePayroll   = "payroll"
)

// InvoiceIssued is raised when a sales invoice is emitted.
type InvoiceIssued struct {
	ID       int64           `json:"id"`
	Number   string          `json:"number"`
	IssuedAt time.Time       `json:"issued_at"`
	Customer string          `json:"customer"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	// IssuedBy is the user emitting the invoice.
	IssuedBy int64           `json:"issued_by"`
}

// PaymentCollected is raised when a customer payment is received.
type PaymentCollected struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaidAt        time.Time       `json:"paid_at"`
	Amount        decimal.Decimal `json:"amount"`
	ReceivedBy    int64           `json:"received_by"`
}

// ReceiptLine is one product line of an inventory receipt.
type ReceiptLine struct {
	ProductCode string          `json:"product_code"`
	Qty         decimal.Decimal `json:"qty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// InventoryReceived is raised when purchased goods enter the warehouse.
type InventoryReceived struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	ReceivedAt time.Time       `json:"received_at"`
	Supplier   string          `json:"supplier"`
	Lines      []ReceiptLine   `json:"lines"`
	Tax        decimal.Decimal `json:"tax"`
	ReceivedBy int64           `json:"received_by"`
}

// PayrollAccrued is raised when a payroll run is approved.
type PayrollAccrued struct {
	// Period is the payroll month, e.g. "2024-05".
	Period      string          `json:"period"`
	Run         int             `json:"run"`
	AccruedAt   time.Time       `json:"accrued_at"`
	Gross       decimal.Decimal `json:"gross"`
	Withholding decimal.Decimal `json:"withholding"`
	ApprovedBy  int64           `json:"approved_by"`
}
