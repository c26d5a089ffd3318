package compensation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// DefaultHoursPerDay is the standard working day used to turn hourly rates
// into daily rates.
const DefaultHoursPerDay = 8

// DailyRate is the value of one PTO day under contract in month. It prices
// excess PTO deductions.
//
//	Fixed:      BaseRate / workdays in month (weekends and holidays excluded), to the cent
//	Hourly:     BaseRate x hoursPerDay
//	Percentage: BillRate x hoursPerDay x CommissionShare / 100
//	Hybrid:     whichever of the above applies to month
func DailyRate(contract PayContract, month generic.Month, calendar generic.HolidayCalendar, hoursPerDay int) decimal.Decimal {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}
	hpd := decimal.NewFromInt(int64(hoursPerDay))

	switch EffectiveModel(contract, month) {
	case PayFixed:
		workdays := len(month.Period().Workdays(calendar))
		if workdays == 0 {
			return decimal.Zero
		}
		return generic.RoundMoney(contract.BaseRate.Div(decimal.NewFromInt(int64(workdays))))
	case PayHourly:
		return contract.BaseRate.Mul(hpd)
	case PayPercentage:
		return commission(contract, hpd)
	}
	return decimal.Zero
}
