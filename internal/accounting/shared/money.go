package shared

import "github.com/shopspring/decimal"

// MoneyPlaces is the fixed currency precision used for every comparison.
const MoneyPlaces = 2

// RoundMoney rounds to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// MoneyEqual compares two amounts at cent precision.
func MoneyEqual(a, b decimal.Decimal) bool {
	return RoundMoney(a).Equal(RoundMoney(b))
}

// HasSubCent reports whether d carries more than two decimal places.
func HasSubCent(d decimal.Decimal) bool {
	return !d.Equal(RoundMoney(d))
}
