package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/timesheet"
)

// =============================================================================
// TIMESHEET STORE (timesheet.Repository)
// =============================================================================

const timesheetColumns = `id, consultant_id, consultant_name, client, project, week_ending,
	regular_hours, overtime_hours, bill_rate, status, submitted_date, notes,
	reviewed_by, reviewed_at, rejection_reason, updated_at`

func (s *Store) Create(ctx context.Context, ts timesheet.Timesheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO timesheets (`+timesheetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.ID, ts.ConsultantID, ts.ConsultantName, ts.Client, ts.Project, ts.WeekEnding.String(),
		ts.RegularHours, ts.OvertimeHours, ts.BillRate, ts.Status, formatTime(ts.SubmittedDate),
		nullString(ts.Notes), nullString(ts.ReviewedBy), formatTimePtr(ts.ReviewedAt),
		nullString(ts.RejectionReason), formatTime(ts.UpdatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.NewStateError(generic.KindAlreadyExists, "timesheet %s already exists", ts.ID)
		}
		return fmt.Errorf("failed to create timesheet: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id generic.TimesheetID) (*timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryTimesheets(ctx, `SELECT `+timesheetColumns+` FROM timesheets WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// ListByFilter returns matches in submission (insertion) order.
func (s *Store) ListByFilter(ctx context.Context, filter timesheet.Filter) ([]timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.ConsultantID != "" {
		where = append(where, "consultant_id = ?")
		args = append(args, filter.ConsultantID)
	}
	if filter.Client != "" {
		where = append(where, "client = ?")
		args = append(args, filter.Client)
	}
	if filter.Project != "" {
		where = append(where, "project = ?")
		args = append(args, filter.Project)
	}
	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if !filter.From.IsZero() {
		where = append(where, "week_ending >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "week_ending <= ?")
		args = append(args, filter.To.String())
	}

	query := `SELECT ` + timesheetColumns + ` FROM timesheets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid ASC"

	return s.queryTimesheets(ctx, query, args...)
}

// Save is a compare-and-set on status. Zero affected rows means the stored
// status moved away from expected (or the row is gone).
func (s *Store) Save(ctx context.Context, ts timesheet.Timesheet, expected timesheet.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE timesheets SET
			status = ?, consultant_name = ?, project = ?, notes = ?,
			reviewed_by = ?, reviewed_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		ts.Status, ts.ConsultantName, ts.Project, nullString(ts.Notes),
		nullString(ts.ReviewedBy), formatTimePtr(ts.ReviewedAt), nullString(ts.RejectionReason),
		formatTime(ts.UpdatedAt), ts.ID, expected)
	if err != nil {
		return fmt.Errorf("failed to save timesheet: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timesheets WHERE id = ?", ts.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return generic.NewNotFoundError(generic.KindUnknownTimesheet, "timesheet %s not found", ts.ID)
		}
		return generic.ErrConcurrentModification
	}
	return nil
}

func (s *Store) queryTimesheets(ctx context.Context, query string, args ...any) ([]timesheet.Timesheet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}
	defer rows.Close()

	var result []timesheet.Timesheet
	for rows.Next() {
		var (
			ts              timesheet.Timesheet
			weekEnding      sql.NullString
			submitted       string
			notes           sql.NullString
			reviewedBy      sql.NullString
			reviewedAt      sql.NullString
			rejectionReason sql.NullString
			updatedAt       string
		)
		err := rows.Scan(&ts.ID, &ts.ConsultantID, &ts.ConsultantName, &ts.Client, &ts.Project, &weekEnding,
			&ts.RegularHours, &ts.OvertimeHours, &ts.BillRate, &ts.Status, &submitted, &notes,
			&reviewedBy, &reviewedAt, &rejectionReason, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		ts.WeekEnding = parseDate(weekEnding)
		ts.SubmittedDate = parseTime(submitted)
		ts.Notes = notes.String
		ts.ReviewedBy = reviewedBy.String
		ts.ReviewedAt = parseTimePtr(reviewedAt)
		ts.RejectionReason = rejectionReason.String
		ts.UpdatedAt = parseTime(updatedAt)
		result = append(result, ts)
	}
	return result, rows.Err()
}
