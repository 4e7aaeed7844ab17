package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrNoOpenPeriod indicates no period covers the entry date.
	ErrNoOpenPeriod = errors.New("accounting: no accounting period covers the entry date")
	// ErrPeriodClosed indicates the covering period no longer accepts postings.
	ErrPeriodClosed = errors.New("accounting: period is closed")
	// ErrAccountNotFound indicates a line references an unknown account.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrInvalidRequest indicates a malformed posting request.
	ErrInvalidRequest = errors.New("accounting: invalid posting request")
	// ErrDateOutOfRange indicates journal date mismatch.
	ErrDateOutOfRange = errors.New("accounting: date outside period")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("accounting: source link conflict")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrPeriodNotFound indicates the period registry has no matching period.
	ErrPeriodNotFound = errors.New("accounting: period not found")
	// ErrPeriodOverlap indicates a period already exists for the month.
	ErrPeriodOverlap = errors.New("accounting: period overlaps existing range")
	// ErrInvalidPeriodTransition indicates status change not allowed.
	ErrInvalidPeriodTransition = errors.New("accounting: period transition invalid")
	// ErrDuplicateAccount indicates the account code is taken.
	ErrDuplicateAccount = errors.New("accounting: account code already exists")
	// ErrInvalidInput indicates a malformed administrative request.
	ErrInvalidInput = errors.New("accounting: invalid input")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
)

// ErrorKind classifies posting rejections.
type ErrorKind string

const (
	KindInsufficientLines ErrorKind = "InsufficientLines"
	KindUnbalancedEntry   ErrorKind = "UnbalancedEntry"
	KindAccountNotFound   ErrorKind = "AccountNotFound"
	KindNoOpenPeriod      ErrorKind = "NoOpenPeriod"
	KindPeriodClosed      ErrorKind = "PeriodClosed"
	KindInvalidRequest    ErrorKind = "InvalidRequest"
)

var kindSentinels = map[ErrorKind]error{
	KindInsufficientLines: ErrTooFewLines,
	KindUnbalancedEntry:   ErrUnbalanced,
	KindAccountNotFound:   ErrAccountNotFound,
	KindNoOpenPeriod:      ErrNoOpenPeriod,
	KindPeriodClosed:      ErrPeriodClosed,
	KindInvalidRequest:    ErrInvalidRequest,
}

// PostingError is the rejected half of a posting result. Nothing is written
// when a PostingError is returned.
type PostingError struct {
	Kind   ErrorKind
	Detail string
	// Line is the 1-based offending line, 0 when the whole entry is at fault.
	Line int
	// Delta carries sum(debit) - sum(credit) for UnbalancedEntry.
	Delta decimal.Decimal
	cause error
}

// Reject builds a PostingError of the given kind.
func Reject(kind ErrorKind, format string, args ...any) *PostingError {
	return &PostingError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// RejectLine builds a PostingError naming the offending line.
func RejectLine(kind ErrorKind, line int, format string, args ...any) *PostingError {
	e := Reject(kind, format, args...)
	e.Line = line
	return e
}

// RejectUnbalanced reports the debit/credit delta of an entry.
func RejectUnbalanced(delta decimal.Decimal) *PostingError {
	e := Reject(KindUnbalancedEntry, "debits and credits differ by %s", delta.StringFixed(MoneyPlaces))
	e.Delta = delta
	return e
}

// WithCause attaches an underlying error, e.g. ErrDateOutOfRange.
func (e *PostingError) WithCause(err error) *PostingError {
	e.cause = err
	return e
}

func (e *PostingError) Error() string {
	sentinel := kindSentinels[e.Kind]
	msg := "accounting: posting rejected"
	if sentinel != nil {
		msg = sentinel.Error()
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	return msg
}

// Unwrap exposes the kind sentinel and, when present, the attached cause.
func (e *PostingError) Unwrap() []error {
	out := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		out = append(out, sentinel)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// IsValidation reports whether the caller built a bad entry, as opposed to a
// missing or closed period.
func (e *PostingError) IsValidation() bool {
	switch e.Kind {
	case KindNoOpenPeriod, KindPeriodClosed:
		return false
	}
	return true
}

// KindOf extracts the posting error kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var perr *PostingError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return "", false
}
