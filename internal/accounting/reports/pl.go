package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

var hundred = decimal.NewFromInt(100)

// IncomePolicy holds the statutory parameters of the income statement.
type IncomePolicy struct {
	// TaxRate is the income tax rate in percent, e.g. 29.5.
	TaxRate decimal.Decimal
	// CostPrefixes select the expense accounts reported as cost of sales.
	CostPrefixes []string
}

// DefaultIncomePolicy is the Peruvian general regime: 29.5% and class 69.
func DefaultIncomePolicy() IncomePolicy {
	return IncomePolicy{TaxRate: decimal.RequireFromString("29.5"), CostPrefixes: []string{"69"}}
}

func (p IncomePolicy) isCost(code string) bool {
	for _, prefix := range p.CostPrefixes {
		if prefix != "" && strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// IncomeStatement is the estado de resultados.
type IncomeStatement struct {
	Ingresos          Section         `json:"ingresos"`
	Costos            Section         `json:"costos"`
	Gastos            Section         `json:"gastos"`
	UtilidadBruta     decimal.Decimal `json:"utilidad_bruta"`
	MargenBruto       decimal.Decimal `json:"margen_bruto"`
	UtilidadOperativa decimal.Decimal `json:"utilidad_operativa"`
	ImpuestoRenta     decimal.Decimal `json:"impuesto_renta"`
	UtilidadNeta      decimal.Decimal `json:"utilidad_neta"`
	MargenNeto        decimal.Decimal `json:"margen_neto"`
}

// BuildIncomeStatement splits income and expense rows into ingresos, costos
// and gastos and derives the margins. Tax is only provisioned on a positive
// operating result.
func BuildIncomeStatement(rows []ledger.TrialBalanceRow, policy IncomePolicy) IncomeStatement {
	ingresos := newSection("Ingresos")
	costos := newSection("Costos")
	gastos := newSection("Gastos")

	for _, row := range rows {
		switch row.Type {
		case accounts.AccountTypeIncome:
			ingresos.add(row, accounts.NatureCredit)
		case accounts.AccountTypeExpense:
			if policy.isCost(row.Code) {
				costos.add(row, accounts.NatureDebit)
			} else {
				gastos.add(row, accounts.NatureDebit)
			}
		}
	}
	ingresos.sort()
	costos.sort()
	gastos.sort()

	bruta := ingresos.Total.Sub(costos.Total)
	operativa := bruta.Sub(gastos.Total)
	impuesto := decimal.Zero
	if operativa.IsPositive() {
		impuesto = shared.RoundMoney(operativa.Mul(policy.TaxRate).Div(hundred))
	}
	neta := operativa.Sub(impuesto)

	return IncomeStatement{
		Ingresos:          ingresos,
		Costos:            costos,
		Gastos:            gastos,
		UtilidadBruta:     bruta,
		MargenBruto:       margin(bruta, ingresos.Total),
		UtilidadOperativa: operativa,
		ImpuestoRenta:     impuesto,
		UtilidadNeta:      neta,
		MargenNeto:        margin(neta, ingresos.Total),
	}
}

// margin returns part/total in percent, 0 when total is 0.
func margin(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(2)
}
