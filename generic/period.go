package generic

// =============================================================================
// PERIOD - Closed date range used for PTO evaluation and timesheet filters
// =============================================================================

// Period is the closed range [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Validate rejects a period whose end precedes its start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return NewValidationError(KindMissingField, "period start and end are required")
	}
	if p.End.Before(p.Start) {
		return NewValidationError(KindInvalidValue, "period end %s is before start %s", p.End, p.Start)
	}
	return nil
}

// Contains returns true if t is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns every day in the period.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Workdays returns the weekdays in the period that are not holidays.
func (p Period) Workdays(calendar HolidayCalendar) []TimePoint {
	var days []TimePoint
	for _, d := range p.Days() {
		if d.IsWorkdayIn(calendar) {
			days = append(days, d)
		}
	}
	return days
}

// Months returns each calendar month the period touches, in order.
func (p Period) Months() []Month {
	var months []Month
	last := MonthOf(p.End)
	for m := MonthOf(p.Start); !m.After(last); m = m.Next() {
		months = append(months, m)
	}
	return months
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
