package journals

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// PostingLineInput describes a journal line for posting request.
type PostingLineInput struct {
	AccountID   int64
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Date time.Time
	// PeriodID is optional; when set it must match the period resolved by Date.
	PeriodID     int64
	Description  string
	Type         string
	CreatedBy    int64
	SourceModule string
	SourceID     string
	Lines        []PostingLineInput
}

// Validate checks the request shape. Business preconditions (period,
// accounts, line count, balance) are evaluated by CheckPosting in order.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return shared.Reject(shared.KindInvalidRequest, "date required")
	}
	if strings.TrimSpace(in.SourceModule) == "" {
		return shared.Reject(shared.KindInvalidRequest, "source module required")
	}
	if strings.TrimSpace(in.SourceID) == "" {
		return shared.Reject(shared.KindInvalidRequest, "source id required")
	}
	if in.CreatedBy <= 0 {
		return shared.Reject(shared.KindInvalidRequest, "created by required")
	}
	for idx, line := range in.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.RejectLine(shared.KindInvalidRequest, idx+1, "negative amount")
		}
		if shared.HasSubCent(line.Debit) || shared.HasSubCent(line.Credit) {
			return shared.RejectLine(shared.KindInvalidRequest, idx+1, "amount has more than %d decimal places", shared.MoneyPlaces)
		}
	}
	return nil
}

// AccountIDs returns the distinct accounts referenced by the lines.
func (in PostingInput) AccountIDs() []int64 {
	seen := make(map[int64]struct{}, len(in.Lines))
	out := make([]int64, 0, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		out = append(out, line.AccountID)
	}
	return out
}

// Delta returns sum(debit) - sum(credit) rounded to cents.
func (in PostingInput) Delta() decimal.Decimal {
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range in.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return shared.RoundMoney(debit.Sub(credit))
}

// CheckPosting evaluates the posting preconditions after the period has been
// resolved, in order, first failure wins: period closed, period mismatch,
// unknown accounts, line count, balance.
func CheckPosting(in PostingInput, period periods.Period, chart map[int64]accounts.Account) error {
	if !period.IsOpen() {
		return shared.Reject(shared.KindPeriodClosed, "period %s is closed", period.Code)
	}
	if in.PeriodID != 0 && in.PeriodID != period.ID {
		return shared.Reject(shared.KindInvalidRequest, "period %d does not cover %s", in.PeriodID, in.Date.Format(periods.DateLayout)).
			WithCause(shared.ErrDateOutOfRange)
	}
	for idx, line := range in.Lines {
		acct, ok := chart[line.AccountID]
		if !ok {
			return shared.RejectLine(shared.KindAccountNotFound, idx+1, "account %d is not in the chart", line.AccountID)
		}
		if line.AccountCode != "" && line.AccountCode != acct.Code {
			return shared.RejectLine(shared.KindAccountNotFound, idx+1, "account %d does not carry code %s", line.AccountID, line.AccountCode)
		}
	}
	if len(in.Lines) < 2 {
		return shared.Reject(shared.KindInsufficientLines, "got %d", len(in.Lines))
	}
	if delta := in.Delta(); !delta.IsZero() {
		return shared.RejectUnbalanced(delta)
	}
	return nil
}

// BuildLines materialises the request lines, stamping the chart code on each.
func BuildLines(in PostingInput, chart map[int64]accounts.Account) []JournalLine {
	out := make([]JournalLine, 0, len(in.Lines))
	for idx, line := range in.Lines {
		out = append(out, JournalLine{
			LineNo:      idx + 1,
			AccountID:   line.AccountID,
			AccountCode: chart[line.AccountID].Code,
			Debit:       shared.RoundMoney(line.Debit),
			Credit:      shared.RoundMoney(line.Credit),
			Description: strings.TrimSpace(line.Description),
		})
	}
	return out
}
