// Package compensation implements contract resolution, PTO policy evaluation
// and pay computation for workers.
package compensation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// WORKER
// =============================================================================

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleCandidate:
		return true
	}
	return false
}

// Worker is created by user management; the engine only reads it.
type Worker struct {
	ID        generic.WorkerID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// =============================================================================
// PAY MODEL
// =============================================================================

// PayModel is part of the wire contract; the string values must not change.
type PayModel string

const (
	PayFixed      PayModel = "Fixed"
	PayHourly     PayModel = "Hourly"
	PayPercentage PayModel = "Percentage"
	PayHybrid     PayModel = "Hybrid"
)

// PayModels lists every model in declaration order.
var PayModels = []PayModel{PayFixed, PayHourly, PayPercentage, PayHybrid}

func (m PayModel) Valid() bool {
	switch m {
	case PayFixed, PayHourly, PayPercentage, PayHybrid:
		return true
	}
	return false
}

func ParsePayModel(s string) (PayModel, error) {
	m := PayModel(s)
	if !m.Valid() {
		return "", generic.NewValidationError(generic.KindInvalidValue, "unknown pay model %q, want one of %v", s, PayModels)
	}
	return m, nil
}

// =============================================================================
// PAY CONTRACT
// =============================================================================

// PayContract is one compensation arrangement. At most one contract per
// worker is active at any instant; superseded contracts are read-only.
type PayContract struct {
	ID       generic.ContractID
	WorkerID generic.WorkerID
	PayModel PayModel

	BaseRate        decimal.Decimal // per period (Fixed) or per hour (Hourly)
	Currency        generic.Currency
	CommissionShare decimal.Decimal // percent, 0-100
	BillRate        decimal.Decimal // client hourly rate

	// Hybrid switches from Fixed to Percentage on this date.
	HybridCycleChangeDate generic.TimePoint

	StartDate generic.TimePoint
	Active    bool

	CreatedAt    time.Time
	SupersededAt *time.Time
	SupersededBy generic.ContractID
}

// =============================================================================
// PTO POLICY
// =============================================================================

// PTOPolicy holds the PTO switches configured for a worker. MaxCarryForwardDays
// is ignored unless CarryForwardAllowed is set.
type PTOPolicy struct {
	WorkerID               generic.WorkerID
	MonthlyAllocation      decimal.Decimal
	CarryForwardAllowed    bool
	MaxCarryForwardDays    decimal.Decimal
	ExcessDeductionEnabled bool
	AutoApplyHolidays      bool
	EffectiveMonth         generic.Month
}

// PTOUsage is one day (or fraction of a day) of PTO taken.
type PTOUsage struct {
	WorkerID generic.WorkerID
	Date     generic.TimePoint
	Days     decimal.Decimal
}

// PTOResult is the evaluation of a policy over a period.
type PTOResult struct {
	Allocated       decimal.Decimal
	Used            decimal.Decimal
	CarriedIn       decimal.Decimal
	CarriedOut      decimal.Decimal
	Forfeited       decimal.Decimal
	ExcessDays      decimal.Decimal
	HolidayCredit   decimal.Decimal
	DeductionAmount decimal.Decimal
}

// ZeroPTOResult is used when a worker has no PTO policy.
func ZeroPTOResult() PTOResult {
	return PTOResult{
		Allocated:       decimal.Zero,
		Used:            decimal.Zero,
		CarriedIn:       decimal.Zero,
		CarriedOut:      decimal.Zero,
		Forfeited:       decimal.Zero,
		ExcessDays:      decimal.Zero,
		HolidayCredit:   decimal.Zero,
		DeductionAmount: decimal.Zero,
	}
}

// =============================================================================
// BONUS RULE
// =============================================================================

// BonusFrequency is part of the wire contract.
type BonusFrequency string

const (
	BonusMonthly   BonusFrequency = "Monthly"
	BonusQuarterly BonusFrequency = "Quarterly"
	BonusYearly    BonusFrequency = "Yearly"
)

func (f BonusFrequency) Valid() bool {
	return f.cadence() > 0
}

// cadence is the number of months between payouts.
func (f BonusFrequency) cadence() int {
	switch f {
	case BonusMonthly:
		return 1
	case BonusQuarterly:
		return 3
	case BonusYearly:
		return 12
	}
	return 0
}

// BonusRule is an optional recruiter bonus.
type BonusRule struct {
	WorkerID   generic.WorkerID
	Amount     decimal.Decimal
	Frequency  BonusFrequency
	StartMonth generic.Month
	EndMonth   *generic.Month // exclusive; nil means open-ended
}

// =============================================================================
// HOURS & RESULT
// =============================================================================

// HoursWorked is the input of the calculator for one settlement period.
type HoursWorked struct {
	Regular  decimal.Decimal
	Overtime decimal.Decimal
	Billable decimal.Decimal
}

// PayResult is the payable amount for a settlement month.
type PayResult struct {
	ContractID   generic.ContractID
	PayModel     PayModel
	AppliedModel PayModel // Fixed or Percentage for Hybrid; same as PayModel otherwise
	Month        generic.Month
	Currency     generic.Currency

	Base       decimal.Decimal
	Commission decimal.Decimal
	Bonus      decimal.Decimal
	Deduction  decimal.Decimal
	Total      decimal.Decimal
}

func (r PayResult) String() string {
	return fmt.Sprintf("%s %s: base=%s commission=%s bonus=%s deduction=%s total=%s %s",
		r.Month, r.AppliedModel, r.Base, r.Commission, r.Bonus, r.Deduction, r.Total, r.Currency)
}
