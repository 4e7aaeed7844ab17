package integration

import (
	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

func round2(value decimal.Decimal) decimal.Decimal {
	return shared.RoundMoney(value)
}

func monetary(qty, unitCost decimal.Decimal) decimal.Decimal {
	return round2(qty.Mul(unitCost))
}
