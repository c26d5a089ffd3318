/*
presets.go - Ready-made compensation configs as JSON

Each preset returns a document ConfigFactory accepts, so presets, admin
input and tests all go through the same parsing and validation path.

EXAMPLE:
  jsonStr := factory.HybridContractJSON("w-1", 5000, 85, 20, "2025-01-01", "2025-06-01")
  contract, err := factory.NewConfigFactory().ParseContract(jsonStr)
*/
package factory

import "encoding/json"

// FixedContractJSON returns JSON for a flat monthly salary.
func FixedContractJSON(workerID string, monthlySalary float64, startDate string) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":  workerID,
		"pay_model":  "Fixed",
		"base_rate":  monthlySalary,
		"currency":   DefaultCurrency,
		"start_date": startDate,
	})
}

// HourlyContractJSON returns JSON for an hourly contract.
func HourlyContractJSON(workerID string, hourlyRate float64, startDate string) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":  workerID,
		"pay_model":  "Hourly",
		"base_rate":  hourlyRate,
		"currency":   DefaultCurrency,
		"start_date": startDate,
	})
}

// PercentageContractJSON returns JSON for a commission-only contract.
func PercentageContractJSON(workerID string, billRate, sharePercent float64, startDate string) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":        workerID,
		"pay_model":        "Percentage",
		"bill_rate":        billRate,
		"commission_share": sharePercent,
		"currency":         DefaultCurrency,
		"start_date":       startDate,
	})
}

// HybridContractJSON returns JSON for a salary that turns into commission on
// cycleChangeDate.
func HybridContractJSON(workerID string, monthlySalary, billRate, sharePercent float64, startDate, cycleChangeDate string) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":                workerID,
		"pay_model":                "Hybrid",
		"base_rate":                monthlySalary,
		"bill_rate":                billRate,
		"commission_share":         sharePercent,
		"currency":                 DefaultCurrency,
		"start_date":               startDate,
		"hybrid_cycle_change_date": cycleChangeDate,
	})
}

// StandardPTOPolicyJSON returns JSON for a recruiter PTO policy with capped
// carry-forward, excess deduction and automatic holidays.
func StandardPTOPolicyJSON(workerID string, monthlyDays, maxCarry float64, effectiveMonth string) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":                workerID,
		"monthly_allocation":       monthlyDays,
		"carry_forward_allowed":    true,
		"max_carry_forward_days":   maxCarry,
		"excess_deduction_enabled": true,
		"auto_apply_holidays":      true,
		"effective_month":          effectiveMonth,
	})
}

// UseItOrLosePTOPolicyJSON returns JSON for a policy without carry-forward
// or deductions.
func UseItOrLosePTOPolicyJSON(workerID string, monthlyDays float64) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":          workerID,
		"monthly_allocation": monthlyDays,
	})
}

// QuarterlyBonusJSON returns JSON for an open-ended quarterly bonus.
func QuarterlyBonusJSON(workerID string, amount float64, startMonth string) string {
	return marshalPreset(map[string]interface{}{
		"worker_id":   workerID,
		"amount":      amount,
		"frequency":   "Quarterly",
		"start_month": startMonth,
	})
}

func marshalPreset(v map[string]interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
