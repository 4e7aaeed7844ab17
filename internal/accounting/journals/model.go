package journals

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry captures posting metadata. Entries are append-only: once
// posted neither the header nor its lines change.
type JournalEntry struct {
	ID           int64         `json:"id"`
	Number       int64         `json:"number"`
	PeriodID     int64         `json:"period_id"`
	Date         time.Time     `json:"date"`
	Description  string        `json:"description"`
	Type         string        `json:"type"`
	CreatedBy    int64         `json:"created_by"`
	SourceModule string        `json:"source_module"`
	SourceID     string        `json:"source_id"`
	PostedAt     time.Time     `json:"posted_at"`
	Lines        []JournalLine `json:"lines,omitempty"`
}

// TotalDebit sums the debit side.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// JournalLine stores debit or credit amount for an account. AccountCode is
// copied from the chart at posting time so the line stays readable if the
// account is renamed later.
type JournalLine struct {
	ID          int64           `json:"id"`
	JournalID   int64           `json:"journal_id"`
	LineNo      int             `json:"line_no"`
	AccountID   int64           `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// ListFilter pages through posted entries.
type ListFilter struct {
	Limit  int
	Offset int
}
