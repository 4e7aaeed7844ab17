package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/ledger"
)

// SectionLine is one account inside a statement section.
type SectionLine struct {
	AccountID int64           `json:"account_id,omitempty"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// Section groups accounts under a statement heading.
type Section struct {
	Label    string          `json:"label"`
	Accounts []SectionLine   `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

func newSection(label string) Section {
	return Section{Label: label, Accounts: []SectionLine{}, Total: decimal.Zero}
}

// add books row on the section's normal side. A contra account (e.g.
// depreciation under assets) therefore reduces the section.
func (s *Section) add(row ledger.TrialBalanceRow, side accounts.Nature) {
	amount := side.Signed(row.TotalDebit, row.TotalCredit)
	s.Accounts = append(s.Accounts, SectionLine{AccountID: row.AccountID, Code: row.Code, Name: row.Name, Amount: amount})
	s.Total = s.Total.Add(amount)
}

func (s *Section) addLine(line SectionLine) {
	s.Accounts = append(s.Accounts, line)
	s.Total = s.Total.Add(line.Amount)
}

func (s *Section) sort() {
	sort.SliceStable(s.Accounts, func(i, j int) bool {
		a, b := s.Accounts[i].Code, s.Accounts[j].Code
		// derived rows without a code go last
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		return a < b
	})
}
