/*
pto.go - PTO allocation, carry-forward and excess deduction

PURPOSE:
  Evaluates a worker's PTOPolicy over a period. The rules mirror a period-end
  reconciliation: unused days are carried into the next month up to a cap,
  anything above the cap is forfeited, and usage above the allocation is
  excess that may be monetised.

RULES:
  carriedIn     = min(previous month unused, MaxCarryForwardDays), 0 if carry-forward is off
  allocated     = MonthlyAllocation x months in period + carriedIn
  excessDays    = max(0, used - allocated)
  deduction     = excessDays x dailyRate, only when ExcessDeductionEnabled
  carriedOut    = min(max(0, allocated - used), MaxCarryForwardDays), 0 if carry-forward is off
  forfeited     = unused - carriedOut

CARRY CHAIN:
  The previous month's unused days depend on its own carriedIn, so the
  engine replays months from the policy's EffectiveMonth up to the month
  before the period. Without an EffectiveMonth only the immediately
  preceding month is replayed, with nothing carried into it.

HOLIDAYS:
  With AutoApplyHolidays, holiday dates from the calendar are pre-approved
  non-deducting days: usage recorded on them is not counted and the number
  of holiday workdays in the period is reported as HolidayCredit.
*/
package compensation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// PTO POLICY ENGINE
// =============================================================================

type PTOPolicyEngine struct {
	Calendar generic.HolidayCalendar
}

func NewPTOPolicyEngine(calendar generic.HolidayCalendar) *PTOPolicyEngine {
	if calendar == nil {
		calendar = generic.NoHolidays{}
	}
	return &PTOPolicyEngine{Calendar: calendar}
}

// ValidatePolicy rejects negative allocations and caps.
func ValidatePolicy(policy PTOPolicy) error {
	if policy.MonthlyAllocation.IsNegative() {
		return generic.NewValidationError(generic.KindInvalidValue, "monthlyAllocation must not be negative")
	}
	if policy.MaxCarryForwardDays.IsNegative() {
		return generic.NewValidationError(generic.KindInvalidValue, "maxCarryForwardDays must not be negative")
	}
	return nil
}

// Evaluate applies policy to the usage history over period.
func (e *PTOPolicyEngine) Evaluate(policy PTOPolicy, usage []PTOUsage, period generic.Period, dailyRate decimal.Decimal) (PTOResult, error) {
	if err := period.Validate(); err != nil {
		return PTOResult{}, err
	}
	if err := ValidatePolicy(policy); err != nil {
		return PTOResult{}, err
	}
	if dailyRate.IsNegative() {
		return PTOResult{}, generic.NewValidationError(generic.KindInvalidValue, "daily rate must not be negative")
	}

	// months before the policy takes effect are not covered by it
	if !policy.EffectiveMonth.IsZero() {
		if generic.MonthOf(period.End).Before(policy.EffectiveMonth) {
			return ZeroPTOResult(), nil
		}
		if first := policy.EffectiveMonth.Start(); period.Start.Before(first) {
			period.Start = first
		}
	}

	carriedIn := e.carryInto(policy, usage, generic.MonthOf(period.Start))

	months := decimal.NewFromInt(int64(len(period.Months())))
	allocated := policy.MonthlyAllocation.Mul(months).Add(carriedIn)
	used := e.usedIn(policy, usage, period)

	result := ZeroPTOResult()
	result.CarriedIn = carriedIn
	result.Allocated = allocated
	result.Used = used
	result.ExcessDays = generic.MaxDec(decimal.Zero, used.Sub(allocated))

	unused := generic.MaxDec(decimal.Zero, allocated.Sub(used))
	result.CarriedOut = e.capCarry(policy, unused)
	result.Forfeited = unused.Sub(result.CarriedOut)

	if policy.AutoApplyHolidays {
		result.HolidayCredit = decimal.NewFromInt(int64(e.holidayWorkdays(period)))
	}
	if policy.ExcessDeductionEnabled {
		result.DeductionAmount = result.ExcessDays.Mul(dailyRate)
	}
	return result, nil
}

// carryInto replays the months before first and returns the days carried
// into it.
func (e *PTOPolicyEngine) carryInto(policy PTOPolicy, usage []PTOUsage, first generic.Month) decimal.Decimal {
	if !policy.CarryForwardAllowed {
		return decimal.Zero
	}

	start := first.Prev()
	if !policy.EffectiveMonth.IsZero() {
		if !policy.EffectiveMonth.Before(first) {
			return decimal.Zero
		}
		start = policy.EffectiveMonth
	}

	carry := decimal.Zero
	for m := start; m.Before(first); m = m.Next() {
		allocated := policy.MonthlyAllocation.Add(carry)
		used := e.usedIn(policy, usage, m.Period())
		unused := generic.MaxDec(decimal.Zero, allocated.Sub(used))
		carry = e.capCarry(policy, unused)
	}
	return carry
}

func (e *PTOPolicyEngine) capCarry(policy PTOPolicy, unused decimal.Decimal) decimal.Decimal {
	if !policy.CarryForwardAllowed {
		return decimal.Zero
	}
	return generic.MinDec(unused, policy.MaxCarryForwardDays)
}

func (e *PTOPolicyEngine) usedIn(policy PTOPolicy, usage []PTOUsage, period generic.Period) decimal.Decimal {
	used := decimal.Zero
	for _, u := range usage {
		if !period.Contains(u.Date) {
			continue
		}
		if policy.AutoApplyHolidays && e.Calendar.IsHoliday(u.Date) {
			continue
		}
		used = used.Add(u.Days)
	}
	return used
}

func (e *PTOPolicyEngine) holidayWorkdays(period generic.Period) int {
	count := 0
	for _, d := range period.Days() {
		if d.IsWeekend() {
			continue
		}
		if e.Calendar.IsHoliday(d) {
			count++
		}
	}
	return count
}
