/*
calculator.go - Payable amount for one settlement month

PAY MODELS:
  Fixed:      base = BaseRate (flat per month), commission = 0
  Hourly:     base = regular x BaseRate + overtime x BaseRate x 1.5
  Percentage: commission = billable x BillRate x CommissionShare / 100, base = 0
  Hybrid:     Fixed while the month starts before HybridCycleChangeDate,
              Percentage from then on. No proration inside the boundary month.

TOTAL:
  total = base + commission + bonus - deduction
  A negative total is returned as ValidationError(NegativeTotal); it is never
  clamped to zero.
*/
package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// OvertimeMultiplier is a fixed policy constant, not configuration.
var OvertimeMultiplier = decimal.NewFromFloat(1.5)

// Calculator computes PayResults. It holds no state.
type Calculator struct{}

// EffectiveModel returns the branch a contract uses for month. For Hybrid
// that is Fixed before the cycle change date and Percentage on or after it.
func EffectiveModel(contract PayContract, month generic.Month) PayModel {
	if contract.PayModel != PayHybrid {
		return contract.PayModel
	}
	if month.Start().Before(contract.HybridCycleChangeDate) {
		return PayFixed
	}
	return PayPercentage
}

// Compute returns the pay for month. bonus may be nil.
func (c *Calculator) Compute(contract PayContract, hours HoursWorked, pto PTOResult, month generic.Month, bonus *BonusRule) (PayResult, error) {
	if err := contract.Validate(); err != nil {
		return PayResult{}, err
	}
	if hours.Regular.IsNegative() || hours.Overtime.IsNegative() || hours.Billable.IsNegative() {
		return PayResult{}, generic.NewValidationError(generic.KindInvalidValue, "hours must not be negative")
	}
	if pto.DeductionAmount.IsNegative() {
		return PayResult{}, generic.NewValidationError(generic.KindInvalidValue, "deduction must not be negative")
	}

	applied := EffectiveModel(contract, month)
	result := PayResult{
		ContractID:   contract.ID,
		PayModel:     contract.PayModel,
		AppliedModel: applied,
		Month:        month,
		Currency:     contract.Currency,
		Base:         decimal.Zero,
		Commission:   decimal.Zero,
	}

	switch applied {
	case PayFixed:
		result.Base = contract.BaseRate
	case PayHourly:
		regular := hours.Regular.Mul(contract.BaseRate)
		overtime := hours.Overtime.Mul(contract.BaseRate).Mul(OvertimeMultiplier)
		result.Base = regular.Add(overtime)
	case PayPercentage:
		result.Commission = commission(contract, hours.Billable)
	default:
		return PayResult{}, fmt.Errorf("pay model %q has no computation branch", applied)
	}

	result.Bonus = bonus.AmountFor(month)
	result.Deduction = pto.DeductionAmount
	result.Total = result.Base.Add(result.Commission).Add(result.Bonus).Sub(result.Deduction)

	if result.Total.IsNegative() {
		return PayResult{}, generic.NewValidationError(generic.KindNegativeTotal,
			"computed total %s %s for %s is negative (deduction %s exceeds earnings)",
			result.Total, result.Currency, month, result.Deduction)
	}
	return result, nil
}

func commission(contract PayContract, billable decimal.Decimal) decimal.Decimal {
	return billable.Mul(contract.BillRate).Mul(contract.CommissionShare).Div(hundred)
}
