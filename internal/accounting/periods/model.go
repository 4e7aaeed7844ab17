package periods

import (
	"fmt"
	"time"

	"github.com/HcVm/bytek-core-sub001/internal/accounting/shared"
)

// DateLayout is the calendar date format used for entry dates.
const DateLayout = "2006-01-02"

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period represents a calendar-month fiscal window.
type Period struct {
	ID        int64        `json:"id"`
	Code      string       `json:"code"`
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
	ClosedBy  *int64       `json:"closed_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsOpen reports whether postings are accepted.
func (p Period) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// Covers reports whether date falls inside the period window (inclusive).
func (p Period) Covers(date time.Time) bool {
	day := truncateDay(date)
	return !day.Before(truncateDay(p.StartDate)) && !day.After(truncateDay(p.EndDate))
}

// MonthWindow returns the first and last day of a calendar month.
func MonthWindow(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// MonthCode formats the period code, e.g. 2024-03.
func MonthCode(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateInput opens a new monthly period.
type CreateInput struct {
	Year    int
	Month   int
	ActorID int64
}

// Validate ensures the month is addressable.
func (in CreateInput) Validate() error {
	if in.Year < 1900 || in.Year > 9999 {
		return fmt.Errorf("%w: year out of range", shared.ErrInvalidInput)
	}
	if in.Month < 1 || in.Month > 12 {
		return fmt.Errorf("%w: month must be 1-12", shared.ErrInvalidInput)
	}
	return nil
}
