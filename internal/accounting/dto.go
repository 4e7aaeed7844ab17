package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/accounts"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/journals"
	"github.com/HcVm/bytek-core-sub001/internal/accounting/periods"
)

// ManualSourceModule tags entries keyed in through the API.
const ManualSourceModule = "manual"

// CreateAccountRequest is the POST /accounts payload.
type CreateAccountRequest struct {
	Code     string `json:"code" validate:"required,numeric,max=12"`
	Name     string `json:"name" validate:"required,max=160"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Nature   string `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

func (r CreateAccountRequest) input() accounts.CreateInput {
	return accounts.CreateInput{
		Code:     r.Code,
		Name:     r.Name,
		Type:     accounts.AccountType(r.Type),
		Nature:   accounts.Nature(r.Nature),
		ParentID: r.ParentID,
	}
}

// CreatePeriodRequest is the POST /periods payload.
type CreatePeriodRequest struct {
	Year  int `json:"year" validate:"required,gte=1900,lte=9999"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

func (r CreatePeriodRequest) input(actorID int64) periods.CreateInput {
	return periods.CreateInput{Year: r.Year, Month: r.Month, ActorID: actorID}
}

// PostJournalLineRequest is one line of a manual entry.
type PostJournalLineRequest struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	AccountCode string          `json:"account_code" validate:"omitempty,numeric"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" validate:"max=255"`
}

// PostJournalRequest is the POST /journals payload. Line count and balance
// are left to the posting checks so the caller gets the ledger's own error
// kinds.
type PostJournalRequest struct {
	Date        string                   `json:"date" validate:"required,datetime=2006-01-02"`
	PeriodID    int64                    `json:"period_id" validate:"omitempty,gt=0"`
	Description string                   `json:"description" validate:"max=255"`
	Type        string                   `json:"type" validate:"omitempty,max=32"`
	Lines       []PostJournalLineRequest `json:"lines" validate:"dive"`
}

func (r PostJournalRequest) input(actorID int64, sourceID string) (journals.PostingInput, error) {
	date, err := time.Parse(periods.DateLayout, r.Date)
	if err != nil {
		return journals.PostingInput{}, err
	}
	kind := r.Type
	if kind == "" {
		kind = "GENERAL"
	}
	in := journals.PostingInput{
		Date:         date,
		PeriodID:     r.PeriodID,
		Description:  r.Description,
		Type:         kind,
		CreatedBy:    actorID,
		SourceModule: ManualSourceModule,
		SourceID:     sourceID,
		Lines:        make([]journals.PostingLineInput, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, journals.PostingLineInput{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}
	return in, nil
}

// PostJournalResponse echoes the identifiers assigned to a posted entry.
type PostJournalResponse struct {
	ID       int64  `json:"id"`
	Number   int64  `json:"number"`
	SourceID string `json:"source_id"`
}

// SetMappingRequest is the PUT /mappings/{module}/{key} payload.
type SetMappingRequest struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
}
