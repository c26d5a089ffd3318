package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// WORKERS (compensation.WorkerRepository)
// =============================================================================

func (s *Store) SaveWorker(ctx context.Context, w compensation.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO workers (id, name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role
	`
	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		w.ID, w.Name, nullString(w.Email), w.Role, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

func (s *Store) GetWorker(ctx context.Context, id generic.WorkerID) (*compensation.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w         compensation.Worker
		email     sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, created_at FROM workers WHERE id = ?", id,
	).Scan(&w.ID, &w.Name, &email, &w.Role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Email = email.String
	w.CreatedAt = parseTime(createdAt)
	return &w, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]compensation.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, role, created_at FROM workers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []compensation.Worker
	for rows.Next() {
		var (
			w         compensation.Worker
			email     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&w.ID, &w.Name, &email, &w.Role, &createdAt); err != nil {
			return nil, err
		}
		w.Email = email.String
		w.CreatedAt = parseTime(createdAt)
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// =============================================================================
// CONTRACTS (compensation.ContractRepository)
// =============================================================================

const contractColumns = `id, worker_id, pay_model, base_rate, currency, commission_share, bill_rate,
	hybrid_cycle_change_date, start_date, active, created_at, superseded_at, superseded_by`

// GetActiveContract returns the active contract with the latest start_date
// on or before asOf, or nil.
func (s *Store) GetActiveContract(ctx context.Context, workerID generic.WorkerID, asOf generic.TimePoint) (*compensation.PayContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + contractColumns + `
		FROM contracts
		WHERE worker_id = ? AND active = 1 AND start_date <= ?
		ORDER BY start_date DESC
		LIMIT 1`

	contracts, err := queryContracts(ctx, s.db, query, workerID, asOf.String())
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, nil
	}
	return &contracts[0], nil
}

func (s *Store) ListContracts(ctx context.Context, workerID generic.WorkerID) ([]compensation.PayContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + contractColumns + `
		FROM contracts
		WHERE worker_id = ?
		ORDER BY start_date DESC, created_at DESC`
	return queryContracts(ctx, s.db, query, workerID)
}

// SaveContract deactivates the prior active contract and inserts the new one
// in a single SQL transaction.
func (s *Store) SaveContract(ctx context.Context, c compensation.PayContract) (compensation.PayContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return compensation.PayContract{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := queryContracts(ctx, tx, `SELECT `+contractColumns+` FROM contracts WHERE worker_id = ?`, c.WorkerID)
	if err != nil {
		return compensation.PayContract{}, err
	}
	if c.ID != "" {
		// the ID may belong to another worker
		others, err := queryContracts(ctx, tx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, c.ID)
		if err != nil {
			return compensation.PayContract{}, err
		}
		existing = append(existing, others...)
	}

	plan, err := compensation.PlanActivation(existing, c, s.Now().UTC())
	if err != nil {
		return compensation.PayContract{}, err
	}

	if d := plan.Deactivate; d != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE contracts SET active = 0, superseded_at = ?, superseded_by = ? WHERE id = ? AND active = 1`,
			formatTimePtr(d.SupersededAt), d.SupersededBy, d.ID)
		if err != nil {
			return compensation.PayContract{}, fmt.Errorf("failed to deactivate contract %s: %w", d.ID, err)
		}
	}

	in := plan.Insert
	_, err = tx.ExecContext(ctx, `INSERT INTO contracts (`+contractColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.WorkerID, in.PayModel, in.BaseRate, in.Currency, in.CommissionShare, in.BillRate,
		formatDate(in.HybridCycleChangeDate), in.StartDate.String(), in.Active, formatTime(in.CreatedAt),
		formatTimePtr(in.SupersededAt), nullString(string(in.SupersededBy)))
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return compensation.PayContract{}, generic.NewConsistencyError(generic.KindOverlappingActive,
				"worker %s already has an active contract", in.WorkerID)
		case isForeignKeyError(err):
			return compensation.PayContract{}, generic.NewNotFoundError(generic.KindUnknownWorker,
				"worker %s not found", in.WorkerID)
		}
		return compensation.PayContract{}, fmt.Errorf("failed to insert contract: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return compensation.PayContract{}, fmt.Errorf("failed to commit contract: %w", err)
	}
	return in, nil
}

func queryContracts(ctx context.Context, db execer, query string, args ...any) ([]compensation.PayContract, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []compensation.PayContract
	for rows.Next() {
		var (
			c            compensation.PayContract
			cycleChange  sql.NullString
			startDate    sql.NullString
			createdAt    string
			supersededAt sql.NullString
			supersededBy sql.NullString
		)
		err := rows.Scan(&c.ID, &c.WorkerID, &c.PayModel, &c.BaseRate, &c.Currency, &c.CommissionShare,
			&c.BillRate, &cycleChange, &startDate, &c.Active, &createdAt, &supersededAt, &supersededBy)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		c.HybridCycleChangeDate = parseDate(cycleChange)
		c.StartDate = parseDate(startDate)
		c.CreatedAt = parseTime(createdAt)
		c.SupersededAt = parseTimePtr(supersededAt)
		c.SupersededBy = generic.ContractID(supersededBy.String)
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}
