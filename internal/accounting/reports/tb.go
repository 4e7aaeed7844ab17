package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// GroupKey returns the two-digit chart class of a code, e.g. "12" for 1212.
func GroupKey(code string) string {
	if len(code) >= 2 {
		return code[:2]
	}
	return code
}

// TrialBalanceGroup aggregates accounts of one chart class.
type TrialBalanceGroup struct {
	Key    string                   `json:"key"`
	Rows   []ledger.TrialBalanceRow `json:"rows"`
	Debit  decimal.Decimal          `json:"debit"`
	Credit decimal.Decimal          `json:"credit"`
}

// TrialBalance is the grouped sumas y saldos report.
type TrialBalance struct {
	Groups      []TrialBalanceGroup `json:"groups"`
	TotalDebit  decimal.Decimal     `json:"total_debit"`
	TotalCredit decimal.Decimal     `json:"total_credit"`
	// IsBalanced holds whenever every posted entry balanced.
	IsBalanced bool `json:"is_balanced"`
}

// BuildTrialBalance groups trial balance rows by chart class.
func BuildTrialBalance(rows []ledger.TrialBalanceRow) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, row := range rows {
		key := GroupKey(row.Code)
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key, Debit: decimal.Zero, Credit: decimal.Zero}
			groups[key] = grp
			keys = append(keys, key)
		}
		grp.Rows = append(grp.Rows, row)
		grp.Debit = grp.Debit.Add(row.TotalDebit)
		grp.Credit = grp.Credit.Add(row.TotalCredit)
	}

	sort.Strings(keys)
	result := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Rows, func(i, j int) bool {
			return grp.Rows[i].Code < grp.Rows[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
	}
	result.IsBalanced = shared.MoneyEqual(result.TotalDebit, result.TotalCredit)
	return result
}
