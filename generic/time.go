package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day (settlement works at day granularity)
// =============================================================================

const DateLayout = "2006-01-02"
const MonthLayout = "2006-01"

type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// TimePointOf truncates t to its UTC calendar day.
func TimePointOf(t time.Time) TimePoint {
	t = t.UTC()
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return TimePointOf(t), nil
}

func Today() TimePoint {
	return TimePointOf(time.Now())
}

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

func (tp TimePoint) Year() int              { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month      { return tp.Time.Month() }
func (tp TimePoint) Day() int               { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday  { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool           { return tp.Time.IsZero() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// MONTH - Settlement month (YYYY-MM)
// =============================================================================

// Month identifies a calendar month. Settlement, PTO allocation and bonus
// cadence are all counted in months.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	// Normalise overflow such as month 13.
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthOf returns the month containing tp.
func MonthOf(tp TimePoint) Month {
	return Month{Year: tp.Year(), Month: tp.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start is the first day of the month.
func (m Month) Start() TimePoint { return NewTimePoint(m.Year, m.Month, 1) }

// End is the last day of the month.
func (m Month) End() TimePoint { return m.Next().Start().AddDays(-1) }

func (m Month) Next() Month { return NewMonth(m.Year, m.Month+1) }
func (m Month) Prev() Month { return NewMonth(m.Year, m.Month-1) }

// Period returns [Start, End] of the month.
func (m Month) Period() Period { return Period{Start: m.Start(), End: m.End()} }

func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

// MonthsSince returns how many months m is after other (negative if before).
func (m Month) MonthsSince(other Month) int { return m.index() - other.index() }

func (m Month) Before(other Month) bool { return m.index() < other.index() }
func (m Month) After(other Month) bool  { return m.index() > other.index() }
func (m Month) Equal(other Month) bool  { return m.index() == other.index() }

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// =============================================================================
// HOLIDAY CALENDAR - Company holidays supplied by an outside collaborator
// =============================================================================

// Holiday is a company holiday; it never counts against PTO.
type Holiday struct {
	ID        string
	Date      TimePoint
	Name      string
	Recurring bool // same month/day every year
}

// HolidayCalendar provides holiday lookup.
type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
	HolidaysBetween(from, to TimePoint) []Holiday
}

// NoHolidays is the calendar used when none is configured.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool                { return false }
func (NoHolidays) HolidaysBetween(_, _ TimePoint) []Holiday { return nil }

// HolidayList is a calendar over a loaded set of holidays.
type HolidayList []Holiday

func (l HolidayList) IsHoliday(date TimePoint) bool {
	for _, h := range l {
		if h.HolidayFalls(date) {
			return true
		}
	}
	return false
}

// HolidaysBetween expands recurring holidays into every year of the range.
func (l HolidayList) HolidaysBetween(from, to TimePoint) []Holiday {
	var result []Holiday
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		for _, h := range l {
			if h.HolidayFalls(d) {
				result = append(result, Holiday{ID: h.ID, Date: d, Name: h.Name, Recurring: h.Recurring})
			}
		}
	}
	return result
}

// IsWorkdayIn checks weekends and, when a calendar is given, holidays.
func (tp TimePoint) IsWorkdayIn(calendar HolidayCalendar) bool {
	if tp.IsWeekend() {
		return false
	}
	return calendar == nil || !calendar.IsHoliday(tp)
}

// HolidayFalls reports whether a (possibly recurring) holiday lands on date.
func (h Holiday) HolidayFalls(date TimePoint) bool {
	if h.Recurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	return h.Date.Equal(date)
}
