package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// PTO POLICIES, BONUS RULES, PTO USAGE (compensation.PolicyRepository)
// =============================================================================

func (s *Store) SavePTOPolicy(ctx context.Context, p compensation.PTOPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO pto_policies (worker_id, monthly_allocation, carry_forward_allowed, max_carry_forward_days,
			excess_deduction_enabled, auto_apply_holidays, effective_month, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET
			monthly_allocation = excluded.monthly_allocation,
			carry_forward_allowed = excluded.carry_forward_allowed,
			max_carry_forward_days = excluded.max_carry_forward_days,
			excess_deduction_enabled = excluded.excess_deduction_enabled,
			auto_apply_holidays = excluded.auto_apply_holidays,
			effective_month = excluded.effective_month,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.WorkerID, p.MonthlyAllocation, p.CarryForwardAllowed, p.MaxCarryForwardDays,
		p.ExcessDeductionEnabled, p.AutoApplyHolidays, formatMonth(p.EffectiveMonth), formatTime(s.Now()))
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NewNotFoundError(generic.KindUnknownWorker, "worker %s not found", p.WorkerID)
		}
		return fmt.Errorf("failed to save PTO policy: %w", err)
	}
	return nil
}

func (s *Store) GetPTOPolicy(ctx context.Context, workerID generic.WorkerID) (*compensation.PTOPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p              compensation.PTOPolicy
		effectiveMonth sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT worker_id, monthly_allocation, carry_forward_allowed, max_carry_forward_days,
		       excess_deduction_enabled, auto_apply_holidays, effective_month
		FROM pto_policies WHERE worker_id = ?`, workerID,
	).Scan(&p.WorkerID, &p.MonthlyAllocation, &p.CarryForwardAllowed, &p.MaxCarryForwardDays,
		&p.ExcessDeductionEnabled, &p.AutoApplyHolidays, &effectiveMonth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.EffectiveMonth = parseMonth(effectiveMonth)
	return &p, nil
}

func (s *Store) SaveBonusRule(ctx context.Context, b compensation.BonusRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var end sql.NullString
	if b.EndMonth != nil {
		end = formatMonth(*b.EndMonth)
	}

	query := `
		INSERT INTO bonus_rules (worker_id, amount, frequency, start_month, end_month, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET
			amount = excluded.amount,
			frequency = excluded.frequency,
			start_month = excluded.start_month,
			end_month = excluded.end_month,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		b.WorkerID, b.Amount, b.Frequency, b.StartMonth.String(), end, formatTime(s.Now()))
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NewNotFoundError(generic.KindUnknownWorker, "worker %s not found", b.WorkerID)
		}
		return fmt.Errorf("failed to save bonus rule: %w", err)
	}
	return nil
}

func (s *Store) GetBonusRule(ctx context.Context, workerID generic.WorkerID) (*compensation.BonusRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		b          compensation.BonusRule
		startMonth sql.NullString
		endMonth   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT worker_id, amount, frequency, start_month, end_month FROM bonus_rules WHERE worker_id = ?", workerID,
	).Scan(&b.WorkerID, &b.Amount, &b.Frequency, &startMonth, &endMonth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.StartMonth = parseMonth(startMonth)
	if endMonth.Valid {
		m := parseMonth(endMonth)
		b.EndMonth = &m
	}
	return &b, nil
}

func (s *Store) RecordPTOUsage(ctx context.Context, u compensation.PTOUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO pto_usage (worker_id, date, days, created_at) VALUES (?, ?, ?, ?)",
		u.WorkerID, u.Date.String(), u.Days, formatTime(s.Now()))
	if err != nil {
		if isForeignKeyError(err) {
			return generic.NewNotFoundError(generic.KindUnknownWorker, "worker %s not found", u.WorkerID)
		}
		return fmt.Errorf("failed to record PTO usage: %w", err)
	}
	return nil
}

// ListPTOUsage returns usage with from <= date <= to, oldest first.
func (s *Store) ListPTOUsage(ctx context.Context, workerID generic.WorkerID, from, to generic.TimePoint) ([]compensation.PTOUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, date, days FROM pto_usage
		WHERE worker_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, id ASC`,
		workerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query PTO usage: %w", err)
	}
	defer rows.Close()

	var usage []compensation.PTOUsage
	for rows.Next() {
		var (
			u    compensation.PTOUsage
			date sql.NullString
		)
		if err := rows.Scan(&u.WorkerID, &date, &u.Days); err != nil {
			return nil, err
		}
		u.Date = parseDate(date)
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
