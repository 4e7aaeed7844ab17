package periods

import "github.com/HcVm/bytek-core-sub001/internal/accounting/shared"

// ValidateTransition enforces the one-way OPEN -> CLOSED lifecycle.
func ValidateTransition(current, target PeriodStatus) error {
	if current == target {
		return nil
	}
	if current == PeriodStatusOpen && target == PeriodStatusClosed {
		return nil
	}
	return shared.ErrInvalidPeriodTransition
}
