package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// DefaultNature returns the side that increases accounts of this type.
func (t AccountType) DefaultNature() Nature {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NatureDebit
	}
	return NatureCredit
}

// Nature is the side that increases an account balance.
type Nature string

const (
	NatureDebit  Nature = "DEBIT"
	NatureCredit Nature = "CREDIT"
)

// Valid reports whether n is a known nature.
func (n Nature) Valid() bool {
	return n == NatureDebit || n == NatureCredit
}

// Signed converts a debit/credit pair into a balance movement for the nature.
func (n Nature) Signed(debit, credit decimal.Decimal) decimal.Decimal {
	if n == NatureCredit {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// Account models a chart of accounts node. Code and Nature never change once
// the account is referenced by a posted entry.
type Account struct {
	ID        int64       `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Nature    Nature      `json:"nature"`
	ParentID  *int64      `json:"parent_id,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Balance applies the account nature to total debits and credits.
func (a Account) Balance(totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	return a.Nature.Signed(totalDebit, totalCredit)
}

// CreateInput captures a new chart entry.
type CreateInput struct {
	Code     string
	Name     string
	Type     AccountType
	Nature   Nature
	ParentID *int64
}

// Normalize trims fields and fills the nature from the type when omitted.
func (in CreateInput) Normalize() CreateInput {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Type = AccountType(strings.ToUpper(strings.TrimSpace(string(in.Type))))
	in.Nature = Nature(strings.ToUpper(strings.TrimSpace(string(in.Nature))))
	if in.Nature == "" {
		in.Nature = in.Type.DefaultNature()
	}
	return in
}

// Validate ensures the input describes a usable account.
func (in CreateInput) Validate() error {
	if in.Code == "" {
		return fmt.Errorf("%w: code required", shared.ErrInvalidInput)
	}
	for _, r := range in.Code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: code must be numeric", shared.ErrInvalidInput)
		}
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name required", shared.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown account type", shared.ErrInvalidInput)
	}
	if !in.Nature.Valid() {
		return fmt.Errorf("%w: unknown account nature", shared.ErrInvalidInput)
	}
	return nil
}
