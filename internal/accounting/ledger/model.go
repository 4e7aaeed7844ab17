package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
)

// Movement is one journal line touching an account, carrying the header
// fields needed for display and ordering.
type Movement struct {
	JournalID       int64           `json:"journal_id"`
	Number          int64           `json:"number"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description"`
	LineNo          int             `json:"line_no"`
	LineDescription string          `json:"line_description,omitempty"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
}

// LedgerRow is a movement plus the account balance right after it.
type LedgerRow struct {
	Movement
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// LedgerView is the general ledger of a single account.
type LedgerView struct {
	Account     accounts.Account `json:"account"`
	Movements   []LedgerRow      `json:"movements"`
	TotalDebit  decimal.Decimal  `json:"total_debit"`
	TotalCredit decimal.Decimal  `json:"total_credit"`
	Balance     decimal.Decimal  `json:"balance"`
}

// Totals sums the debit and credit side of an account.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// TrialBalanceRow is the balance of one account, signed by its nature.
type TrialBalanceRow struct {
	AccountID   int64                `json:"account_id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Type        accounts.AccountType `json:"type"`
	Nature      accounts.Nature      `json:"nature"`
	TotalDebit  decimal.Decimal      `json:"total_debit"`
	TotalCredit decimal.Decimal      `json:"total_credit"`
	Balance     decimal.Decimal      `json:"balance"`
}

// SortMovements orders movements by date, then entry number, then line.
// Entry numbers are unique so the order is total.
func SortMovements(movements []Movement) {
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.LineNo < b.LineNo
	})
}

// BuildLedger replays movements for account in chronological order,
// folding a running balance on the account's natural side. movements is
// not modified.
func BuildLedger(account accounts.Account, movements []Movement) LedgerView {
	sorted := make([]Movement, len(movements))
	copy(sorted, movements)
	SortMovements(sorted)

	view := LedgerView{
		Account:     account,
		Movements:   make([]LedgerRow, 0, len(sorted)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Balance:     decimal.Zero,
	}
	running := decimal.Zero
	for _, m := range sorted {
		running = running.Add(account.Nature.Signed(m.Debit, m.Credit))
		view.TotalDebit = view.TotalDebit.Add(m.Debit)
		view.TotalCredit = view.TotalCredit.Add(m.Credit)
		view.Movements = append(view.Movements, LedgerRow{Movement: m, RunningBalance: running})
	}
	view.Balance = running
	return view
}

// BuildTrialBalance applies the same fold per account across the whole
// chart. Accounts without movements appear with a zero balance. Rows are
// ordered by code.
func BuildTrialBalance(chart []accounts.Account, totals map[int64]Totals) []TrialBalanceRow {
	rows := make([]TrialBalanceRow, 0, len(chart))
	for _, acct := range chart {
		t, ok := totals[acct.ID]
		if !ok {
			t = Totals{Debit: decimal.Zero, Credit: decimal.Zero}
		}
		rows = append(rows, TrialBalanceRow{
			AccountID:   acct.ID,
			Code:        acct.Code,
			Name:        acct.Name,
			Type:        acct.Type,
			Nature:      acct.Nature,
			TotalDebit:  t.Debit,
			TotalCredit: t.Credit,
			Balance:     acct.Balance(t.Debit, t.Credit),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}
