/*
Package factory provides JSON to Go compensation config conversion.

PURPOSE:
  Converts JSON contract, PTO policy and bonus rule definitions into the
  compensation package's types. Admin tooling and the HTTP layer send these
  documents; the factory validates them and fills defaults.

JSON SCHEMA:
  contract:
  {
    "worker_id": "w-1",
    "pay_model": "Hybrid",
    "base_rate": "5000",
    "currency": "usd",
    "commission_share": 20,
    "bill_rate": 85,
    "hybrid_cycle_change_date": "2025-06-01",
    "start_date": "2025-01-01",
    "active": true
  }

  pto policy:
  {
    "worker_id": "w-1",
    "monthly_allocation": 1.5,
    "carry_forward_allowed": true,
    "max_carry_forward_days": 5,
    "excess_deduction_enabled": true,
    "auto_apply_holidays": true,
    "effective_month": "2025-01"
  }

  bonus rule:
  {"worker_id": "w-1", "amount": 500, "frequency": "Quarterly",
   "start_month": "2025-01", "end_month": "2026-01"}

  Numbers may be JSON numbers or strings; both decode exactly.

DEFAULTS:
  currency  USD
  active    true

USAGE:
  f := factory.NewConfigFactory()
  contract, err := f.ParseContract(factory.HourlyContractJSON("w-1", 85, "2025-01-01"))

SEE ALSO:
  - presets.go: ready-made JSON documents
  - compensation/contract.go: validation rules applied here
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
)

// DefaultCurrency is used when a contract omits its currency.
const DefaultCurrency = "USD"

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ContractJSON is the JSON representation of a pay contract.
type ContractJSON struct {
	ID                    string          `json:"id,omitempty"`
	WorkerID              string          `json:"worker_id"`
	PayModel              string          `json:"pay_model"`
	BaseRate              decimal.Decimal `json:"base_rate"`
	Currency              string          `json:"currency,omitempty"`
	CommissionShare       decimal.Decimal `json:"commission_share"`
	BillRate              decimal.Decimal `json:"bill_rate"`
	HybridCycleChangeDate string          `json:"hybrid_cycle_change_date,omitempty"`
	StartDate             string          `json:"start_date"`
	Active                *bool           `json:"active,omitempty"` // default true
}

// PTOPolicyJSON is the JSON representation of a PTO policy.
type PTOPolicyJSON struct {
	WorkerID               string          `json:"worker_id"`
	MonthlyAllocation      decimal.Decimal `json:"monthly_allocation"`
	CarryForwardAllowed    bool            `json:"carry_forward_allowed"`
	MaxCarryForwardDays    decimal.Decimal `json:"max_carry_forward_days"`
	ExcessDeductionEnabled bool            `json:"excess_deduction_enabled"`
	AutoApplyHolidays      bool            `json:"auto_apply_holidays"`
	EffectiveMonth         string          `json:"effective_month,omitempty"`
}

// BonusRuleJSON is the JSON representation of a bonus rule.
type BonusRuleJSON struct {
	WorkerID   string          `json:"worker_id"`
	Amount     decimal.Decimal `json:"amount"`
	Frequency  string          `json:"frequency"`
	StartMonth string          `json:"start_month"`
	EndMonth   string          `json:"end_month,omitempty"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts JSON configs to compensation types.
type ConfigFactory struct{}

func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// ParseContract parses and validates a contract document.
func (f *ConfigFactory) ParseContract(jsonStr string) (compensation.PayContract, error) {
	var cj ContractJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return compensation.PayContract{}, fmt.Errorf("failed to parse contract JSON: %w", err)
	}
	return f.ContractFromJSON(cj)
}

// ContractFromJSON converts ContractJSON and validates it for its pay model.
func (f *ConfigFactory) ContractFromJSON(cj ContractJSON) (compensation.PayContract, error) {
	model, err := compensation.ParsePayModel(cj.PayModel)
	if err != nil {
		return compensation.PayContract{}, err
	}
	start, err := parseRequiredDate("start_date", cj.StartDate)
	if err != nil {
		return compensation.PayContract{}, err
	}
	cycle, err := parseOptionalDate("hybrid_cycle_change_date", cj.HybridCycleChangeDate)
	if err != nil {
		return compensation.PayContract{}, err
	}

	currency := cj.Currency
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	active := true
	if cj.Active != nil {
		active = *cj.Active
	}

	contract := compensation.PayContract{
		ID:                    generic.ContractID(cj.ID),
		WorkerID:              generic.WorkerID(cj.WorkerID),
		PayModel:              model,
		BaseRate:              cj.BaseRate,
		Currency:              generic.NormalizeCurrency(currency),
		CommissionShare:       cj.CommissionShare,
		BillRate:              cj.BillRate,
		HybridCycleChangeDate: cycle,
		StartDate:             start,
		Active:                active,
	}
	if err := contract.Validate(); err != nil {
		return compensation.PayContract{}, err
	}
	return contract, nil
}

// ParsePTOPolicy parses and validates a PTO policy document.
func (f *ConfigFactory) ParsePTOPolicy(jsonStr string) (compensation.PTOPolicy, error) {
	var pj PTOPolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return compensation.PTOPolicy{}, fmt.Errorf("failed to parse PTO policy JSON: %w", err)
	}
	return f.PTOPolicyFromJSON(pj)
}

func (f *ConfigFactory) PTOPolicyFromJSON(pj PTOPolicyJSON) (compensation.PTOPolicy, error) {
	if pj.WorkerID == "" {
		return compensation.PTOPolicy{}, generic.NewValidationError(generic.KindMissingField, "worker_id is required")
	}
	effective, err := parseOptionalMonth("effective_month", pj.EffectiveMonth)
	if err != nil {
		return compensation.PTOPolicy{}, err
	}

	policy := compensation.PTOPolicy{
		WorkerID:               generic.WorkerID(pj.WorkerID),
		MonthlyAllocation:      pj.MonthlyAllocation,
		CarryForwardAllowed:    pj.CarryForwardAllowed,
		MaxCarryForwardDays:    pj.MaxCarryForwardDays,
		ExcessDeductionEnabled: pj.ExcessDeductionEnabled,
		AutoApplyHolidays:      pj.AutoApplyHolidays,
		EffectiveMonth:         effective,
	}
	// the cap means nothing without carry-forward
	if !policy.CarryForwardAllowed {
		policy.MaxCarryForwardDays = decimal.Zero
	}
	if err := compensation.ValidatePolicy(policy); err != nil {
		return compensation.PTOPolicy{}, err
	}
	return policy, nil
}

// ParseBonusRule parses and validates a bonus rule document.
func (f *ConfigFactory) ParseBonusRule(jsonStr string) (compensation.BonusRule, error) {
	var bj BonusRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &bj); err != nil {
		return compensation.BonusRule{}, fmt.Errorf("failed to parse bonus rule JSON: %w", err)
	}
	return f.BonusRuleFromJSON(bj)
}

func (f *ConfigFactory) BonusRuleFromJSON(bj BonusRuleJSON) (compensation.BonusRule, error) {
	start, err := parseOptionalMonth("start_month", bj.StartMonth)
	if err != nil {
		return compensation.BonusRule{}, err
	}
	end, err := parseOptionalMonth("end_month", bj.EndMonth)
	if err != nil {
		return compensation.BonusRule{}, err
	}

	rule := compensation.BonusRule{
		WorkerID:   generic.WorkerID(bj.WorkerID),
		Amount:     bj.Amount,
		Frequency:  compensation.BonusFrequency(bj.Frequency),
		StartMonth: start,
	}
	if !end.IsZero() {
		rule.EndMonth = &end
	}
	if err := rule.Validate(); err != nil {
		return compensation.BonusRule{}, err
	}
	return rule, nil
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

func parseRequiredDate(field, value string) (generic.TimePoint, error) {
	if value == "" {
		return generic.TimePoint{}, generic.NewValidationError(generic.KindMissingField, "%s is required", field)
	}
	return parseOptionalDate(field, value)
}

func parseOptionalDate(field, value string) (generic.TimePoint, error) {
	if value == "" {
		return generic.TimePoint{}, nil
	}
	tp, err := generic.ParseDate(value)
	if err != nil {
		return generic.TimePoint{}, generic.NewValidationError(generic.KindInvalidValue,
			"%s must be YYYY-MM-DD, got %q", field, value)
	}
	return tp, nil
}

func parseOptionalMonth(field, value string) (generic.Month, error) {
	if value == "" {
		return generic.Month{}, nil
	}
	m, err := generic.ParseMonth(value)
	if err != nil {
		return generic.Month{}, generic.NewValidationError(generic.KindInvalidValue,
			"%s must be YYYY-MM, got %q", field, value)
	}
	return m, nil
}
