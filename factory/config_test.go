package factory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
)

func TestParseContract_Presets(t *testing.T) {
	f := NewConfigFactory()

	tests := []struct {
		name  string
		json  string
		model compensation.PayModel
	}{
		{"fixed", FixedContractJSON("w-1", 4200, "2025-01-01"), compensation.PayFixed},
		{"hourly", HourlyContractJSON("w-1", 85, "2025-01-01"), compensation.PayHourly},
		{"percentage", PercentageContractJSON("w-1", 85, 20, "2025-01-01"), compensation.PayPercentage},
		{"hybrid", HybridContractJSON("w-1", 5000, 85, 20, "2025-01-01", "2025-06-01"), compensation.PayHybrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.ParseContract(tt.json)
			require.NoError(t, err)
			assert.Equal(t, tt.model, c.PayModel)
			assert.Equal(t, generic.Currency("USD"), c.Currency)
			assert.True(t, c.Active, "active defaults to true")
			assert.Equal(t, 2025, c.StartDate.Year())
		})
	}
}

func TestParseContract_DecimalStringsAndCurrency(t *testing.T) {
	f := NewConfigFactory()

	c, err := f.ParseContract(`{
		"worker_id": "w-1",
		"pay_model": "Hybrid",
		"base_rate": "5000.10",
		"currency": "eur",
		"commission_share": 20,
		"bill_rate": "85",
		"hybrid_cycle_change_date": "2025-06-01",
		"start_date": "2025-01-01",
		"active": false
	}`)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5000.10").Equal(c.BaseRate))
	assert.Equal(t, generic.Currency("EUR"), c.Currency)
	assert.False(t, c.Active)
	assert.True(t, c.HybridCycleChangeDate.Equal(generic.NewTimePoint(2025, time.June, 1)))
}

func TestParseContract_Rejections(t *testing.T) {
	f := NewConfigFactory()

	_, err := f.ParseContract(`{"worker_id": "w-1", "pay_model": "Piecework", "base_rate": 1, "start_date": "2025-01-01"}`)
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.ParseContract(`{"worker_id": "w-1", "pay_model": "Percentage", "start_date": "2025-01-01"}`)
	assert.ErrorIs(t, err, generic.ErrValidation, "percentage needs bill rate and share")

	_, err = f.ParseContract(`{"worker_id": "w-1", "pay_model": "Hourly", "base_rate": 85}`)
	assert.ErrorIs(t, err, generic.ErrValidation, "start date required")

	_, err = f.ParseContract(`{"worker_id": "w-1", "pay_model": "Hourly", "base_rate": 85, "start_date": "01/01/2025"}`)
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.ParseContract(`not json`)
	assert.Error(t, err)
}

func TestParsePTOPolicy(t *testing.T) {
	f := NewConfigFactory()

	p, err := f.ParsePTOPolicy(StandardPTOPolicyJSON("w-1", 1.5, 5, "2025-01"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(p.MonthlyAllocation))
	assert.True(t, p.CarryForwardAllowed)
	assert.True(t, p.AutoApplyHolidays)
	assert.True(t, p.EffectiveMonth.Equal(generic.NewMonth(2025, time.January)))

	p, err = f.ParsePTOPolicy(UseItOrLosePTOPolicyJSON("w-1", 2))
	require.NoError(t, err)
	assert.False(t, p.CarryForwardAllowed)
	assert.True(t, p.EffectiveMonth.IsZero())

	_, err = f.ParsePTOPolicy(`{"worker_id": "w-1", "monthly_allocation": -1}`)
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.ParsePTOPolicy(`{"worker_id": "w-1", "monthly_allocation": 1, "effective_month": "January"}`)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestParseBonusRule(t *testing.T) {
	f := NewConfigFactory()

	b, err := f.ParseBonusRule(QuarterlyBonusJSON("w-1", 1000, "2025-03"))
	require.NoError(t, err)
	assert.Equal(t, compensation.BonusQuarterly, b.Frequency)
	assert.Nil(t, b.EndMonth)
	assert.True(t, b.DueIn(generic.NewMonth(2025, time.June)))

	b, err = f.ParseBonusRule(`{"worker_id": "w-1", "amount": 500, "frequency": "Monthly", "start_month": "2025-01", "end_month": "2025-04"}`)
	require.NoError(t, err)
	require.NotNil(t, b.EndMonth)
	assert.False(t, b.DueIn(generic.NewMonth(2025, time.April)))

	_, err = f.ParseBonusRule(`{"worker_id": "w-1", "amount": 500, "frequency": "Weekly", "start_month": "2025-01"}`)
	assert.ErrorIs(t, err, generic.ErrValidation)
}
