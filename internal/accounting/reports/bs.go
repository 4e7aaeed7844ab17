package reports

import (
	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// ResultadoEjercicioLabel names the derived current-year result row.
const ResultadoEjercicioLabel = "Resultado del ejercicio"

// BalanceSheet is the estado de situacion financiera.
type BalanceSheet struct {
	Activos               Section         `json:"activos"`
	Pasivos               Section         `json:"pasivos"`
	Patrimonio            Section         `json:"patrimonio"`
	ResultadoEjercicio    decimal.Decimal `json:"resultado_ejercicio"`
	TotalPasivoPatrimonio decimal.Decimal `json:"total_pasivo_patrimonio"`
	// IsBalanced is derived on every build and never stored. False means an
	// unbalanced entry reached the ledger.
	IsBalanced bool            `json:"is_balanced"`
	Difference decimal.Decimal `json:"difference"`
}

// BuildBalanceSheet partitions trial balance rows into assets, liabilities
// and equity. Equity carries the unclosed income minus expense result.
func BuildBalanceSheet(rows []ledger.TrialBalanceRow) BalanceSheet {
	activos := newSection("Activos")
	pasivos := newSection("Pasivos")
	patrimonio := newSection("Patrimonio")
	resultado := decimal.Zero

	for _, row := range rows {
		switch row.Type {
		case accounts.AccountTypeAsset:
			activos.add(row, accounts.NatureDebit)
		case accounts.AccountTypeLiability:
			pasivos.add(row, accounts.NatureCredit)
		case accounts.AccountTypeEquity:
			patrimonio.add(row, accounts.NatureCredit)
		case accounts.AccountTypeIncome:
			resultado = resultado.Add(accounts.NatureCredit.Signed(row.TotalDebit, row.TotalCredit))
		case accounts.AccountTypeExpense:
			resultado = resultado.Sub(accounts.NatureDebit.Signed(row.TotalDebit, row.TotalCredit))
		}
	}
	if !resultado.IsZero() {
		patrimonio.addLine(SectionLine{Name: ResultadoEjercicioLabel, Amount: resultado})
	}

	activos.sort()
	pasivos.sort()
	patrimonio.sort()

	total := pasivos.Total.Add(patrimonio.Total)
	diff := shared.RoundMoney(activos.Total.Sub(total))
	return BalanceSheet{
		Activos:               activos,
		Pasivos:               pasivos,
		Patrimonio:            patrimonio,
		ResultadoEjercicio:    resultado,
		TotalPasivoPatrimonio: total,
		IsBalanced:            diff.IsZero(),
		Difference:            diff,
	}
}
