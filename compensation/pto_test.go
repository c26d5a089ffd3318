package compensation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
)

func usage(days float64, y int, m time.Month, d int) compensation.PTOUsage {
	return compensation.PTOUsage{WorkerID: "w-1", Date: date(y, m, d), Days: generic.Dec(days)}
}

func TestEvaluate_CarryForwardIsCapped(t *testing.T) {
	// GIVEN: 2 days/month, carry capped at 1.5, nothing used in January
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{
		WorkerID:            "w-1",
		MonthlyAllocation:   generic.Dec(2),
		CarryForwardAllowed: true,
		MaxCarryForwardDays: generic.Dec(1.5),
		EffectiveMonth:      generic.NewMonth(2025, time.January),
	}

	// WHEN: evaluating February
	result, err := engine.Evaluate(policy, nil, generic.NewMonth(2025, time.February).Period(), generic.Dec(100))

	// THEN: 1.5 carried in, the rest of January forfeited
	require.NoError(t, err)
	assertDec(t, "1.5", result.CarriedIn)
	assertDec(t, "3.5", result.Allocated)
	assertDec(t, "1.5", result.CarriedOut)
	assertDec(t, "2", result.Forfeited)
}

func TestEvaluate_CarryChainReplaysFromEffectiveMonth(t *testing.T) {
	// GIVEN: 1 day/month, cap 5, one day used in February
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{
		WorkerID:            "w-1",
		MonthlyAllocation:   generic.Dec(1),
		CarryForwardAllowed: true,
		MaxCarryForwardDays: generic.Dec(5),
		EffectiveMonth:      generic.NewMonth(2025, time.January),
	}
	history := []compensation.PTOUsage{usage(1, 2025, time.February, 10)}

	// WHEN: April
	result, err := engine.Evaluate(policy, history, generic.NewMonth(2025, time.April).Period(), generic.Dec(100))

	// THEN: Jan +1, Feb +1-1, Mar +1 => 2 carried in
	require.NoError(t, err)
	assertDec(t, "2", result.CarriedIn)
	assertDec(t, "3", result.Allocated)
}

func TestEvaluate_NoCarryWhenDisallowed(t *testing.T) {
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{
		WorkerID:            "w-1",
		MonthlyAllocation:   generic.Dec(2),
		MaxCarryForwardDays: generic.Dec(10), // ignored
	}

	result, err := engine.Evaluate(policy, nil, generic.NewMonth(2025, time.March).Period(), generic.Dec(100))

	require.NoError(t, err)
	assertDec(t, "0", result.CarriedIn)
	assertDec(t, "0", result.CarriedOut)
	assertDec(t, "2", result.Forfeited)
}

func TestEvaluate_ExcessDeduction(t *testing.T) {
	// GIVEN: 1 day allocated, 3 days used
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{
		WorkerID:               "w-1",
		MonthlyAllocation:      generic.Dec(1),
		ExcessDeductionEnabled: true,
	}
	history := []compensation.PTOUsage{
		usage(1, 2025, time.May, 5),
		usage(1, 2025, time.May, 6),
		usage(1, 2025, time.May, 7),
		usage(1, 2025, time.April, 30), // outside the period
	}

	// WHEN
	result, err := engine.Evaluate(policy, history, may2025().Period(), generic.Dec(250))

	// THEN
	require.NoError(t, err)
	assertDec(t, "3", result.Used)
	assertDec(t, "2", result.ExcessDays)
	assertDec(t, "500", result.DeductionAmount)
}

func TestEvaluate_ExcessReportedButNotMonetised(t *testing.T) {
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{WorkerID: "w-1", MonthlyAllocation: generic.Dec(1)}
	history := []compensation.PTOUsage{usage(2.5, 2025, time.May, 5)}

	result, err := engine.Evaluate(policy, history, may2025().Period(), generic.Dec(250))

	require.NoError(t, err)
	assertDec(t, "1.5", result.ExcessDays)
	assertDec(t, "0", result.DeductionAmount)
}

func TestEvaluate_MonthBeforeEffectiveMonthIsNotCovered(t *testing.T) {
	// GIVEN: a policy starting in September and three days taken in May
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{
		WorkerID:               "w-1",
		MonthlyAllocation:      generic.Dec(1),
		ExcessDeductionEnabled: true,
		EffectiveMonth:         generic.NewMonth(2025, time.September),
	}
	history := []compensation.PTOUsage{usage(3, 2025, time.May, 5)}

	// WHEN
	result, err := engine.Evaluate(policy, history, may2025().Period(), generic.Dec(250))

	// THEN: nothing allocated, nothing charged
	require.NoError(t, err)
	assertDec(t, "0", result.Allocated)
	assertDec(t, "0", result.Used)
	assertDec(t, "0", result.ExcessDays)
	assertDec(t, "0", result.DeductionAmount)
}

func TestEvaluate_PeriodStraddlingEffectiveMonth(t *testing.T) {
	// GIVEN: policy effective in May, usage in April and May
	engine := compensation.NewPTOPolicyEngine(nil)
	policy := compensation.PTOPolicy{
		WorkerID:               "w-1",
		MonthlyAllocation:      generic.Dec(1),
		ExcessDeductionEnabled: true,
		EffectiveMonth:         generic.NewMonth(2025, time.May),
	}
	history := []compensation.PTOUsage{
		usage(2, 2025, time.April, 15),
		usage(2, 2025, time.May, 5),
	}
	period := generic.Period{Start: date(2025, time.April, 1), End: date(2025, time.May, 31)}

	// WHEN
	result, err := engine.Evaluate(policy, history, period, generic.Dec(100))

	// THEN: only May is allocated and charged
	require.NoError(t, err)
	assertDec(t, "1", result.Allocated)
	assertDec(t, "2", result.Used)
	assertDec(t, "1", result.ExcessDays)
	assertDec(t, "100", result.DeductionAmount)
}

func TestEvaluate_HolidaysAreNotCharged(t *testing.T) {
	// GIVEN: Memorial Day on a Monday, PTO recorded on it
	calendar := generic.HolidayList{{ID: "h-1", Date: date(2025, time.May, 26), Name: "Memorial Day"}}
	engine := compensation.NewPTOPolicyEngine(calendar)
	policy := compensation.PTOPolicy{
		WorkerID:               "w-1",
		MonthlyAllocation:      generic.Dec(1),
		ExcessDeductionEnabled: true,
		AutoApplyHolidays:      true,
	}
	history := []compensation.PTOUsage{
		usage(1, 2025, time.May, 26),
		usage(1, 2025, time.May, 27),
	}

	// WHEN
	result, err := engine.Evaluate(policy, history, may2025().Period(), generic.Dec(100))

	// THEN: only the 27th counts
	require.NoError(t, err)
	assertDec(t, "1", result.Used)
	assertDec(t, "0", result.ExcessDays)
	assertDec(t, "1", result.HolidayCredit)

	// AND without auto-apply the holiday is ordinary usage
	policy.AutoApplyHolidays = false
	result, err = engine.Evaluate(policy, history, may2025().Period(), generic.Dec(100))
	require.NoError(t, err)
	assertDec(t, "2", result.Used)
	assertDec(t, "100", result.DeductionAmount)
}

func TestEvaluate_RejectsBadInput(t *testing.T) {
	engine := compensation.NewPTOPolicyEngine(nil)

	_, err := engine.Evaluate(compensation.PTOPolicy{MonthlyAllocation: generic.Dec(-1)}, nil, may2025().Period(), generic.Dec(1))
	assert.ErrorIs(t, err, generic.ErrValidation)

	backwards := generic.Period{Start: date(2025, time.May, 31), End: date(2025, time.May, 1)}
	_, err = engine.Evaluate(compensation.PTOPolicy{}, nil, backwards, generic.Dec(1))
	assert.Error(t, err)
}

func TestDailyRate(t *testing.T) {
	fixed := compensation.PayContract{PayModel: compensation.PayFixed, BaseRate: generic.Dec(4200)}
	// May 2025 has 22 weekdays
	assertDec(t, "190.91", compensation.DailyRate(fixed, may2025(), nil, 8))

	// one holiday leaves 21
	calendar := generic.HolidayList{{Date: date(2025, time.May, 26)}}
	assertDec(t, "200", compensation.DailyRate(fixed, may2025(), calendar, 8))

	assertDec(t, "680", compensation.DailyRate(hourlyContract(85), may2025(), nil, 8))
	assertDec(t, "595", compensation.DailyRate(hourlyContract(85), may2025(), nil, 7))

	// Hybrid after cutover prices a day as commission on a standard day
	assertDec(t, "136", compensation.DailyRate(hybridContract(), june2025(), nil, 0))
}
