package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// AddHoliday saves a holiday. Same date and name updates the recurring flag.
func (s *Store) AddHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			recurring = excluded.recurring
	`
	_, err := s.db.ExecContext(ctx, query, h.ID, h.Date.String(), h.Name, h.Recurring, formatTime(s.Now()))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// ListHolidays returns all holidays (for admin UI).
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name, recurring FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var (
			h    generic.Holiday
			date sql.NullString
		)
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date = parseDate(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// IsHoliday checks exact dates and recurring month-day matches. The
// calendar interface has no error return, so a failed lookup is logged and
// reads as "not a holiday". Settlement loads the list through ListHolidays
// instead and never reaches this path.
func (s *Store) IsHoliday(date generic.TimePoint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COUNT(*) FROM holidays
		WHERE (recurring = FALSE AND date = ?)
		   OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
	`
	var count int
	err := s.db.QueryRowContext(context.Background(), query, date.String(), date.Time.Format("01-02")).Scan(&count)
	if err != nil {
		s.Logger.Error("holiday lookup failed", "date", date.String(), "error", err)
		return false
	}
	return count > 0
}

// HolidaysBetween expands recurring holidays into every year of the range.
func (s *Store) HolidaysBetween(from, to generic.TimePoint) []generic.Holiday {
	all, err := s.ListHolidays(context.Background())
	if err != nil {
		s.Logger.Error("holiday listing failed", "from", from.String(), "to", to.String(), "error", err)
		return nil
	}
	return generic.HolidayList(all).HolidaysBetween(from, to)
}
