package compensation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// Validate checks amount, frequency and month bounds.
func (b BonusRule) Validate() error {
	if b.WorkerID == "" {
		return generic.NewValidationError(generic.KindMissingField, "workerId is required")
	}
	if !b.Amount.IsPositive() {
		return generic.NewValidationError(generic.KindInvalidValue, "bonus amount must be positive")
	}
	if !b.Frequency.Valid() {
		return generic.NewValidationError(generic.KindInvalidValue, "unknown bonus frequency %q", b.Frequency)
	}
	if b.StartMonth.IsZero() {
		return generic.NewValidationError(generic.KindMissingField, "startMonth is required")
	}
	if b.EndMonth != nil && !b.EndMonth.After(b.StartMonth) {
		return generic.NewValidationError(generic.KindInvalidValue,
			"endMonth %s must be after startMonth %s", b.EndMonth, b.StartMonth)
	}
	return nil
}

// DueIn reports whether the bonus pays out in month: the month lies in
// [StartMonth, EndMonth) and is a whole number of cadences after StartMonth.
func (b BonusRule) DueIn(month generic.Month) bool {
	cadence := b.Frequency.cadence()
	if cadence == 0 {
		return false
	}
	if month.Before(b.StartMonth) {
		return false
	}
	if b.EndMonth != nil && !month.Before(*b.EndMonth) {
		return false
	}
	return month.MonthsSince(b.StartMonth)%cadence == 0
}

// AmountFor returns the bonus payable in month, zero when not due.
func (b *BonusRule) AmountFor(month generic.Month) decimal.Decimal {
	if b == nil || !b.DueIn(month) {
		return decimal.Zero
	}
	return b.Amount
}
