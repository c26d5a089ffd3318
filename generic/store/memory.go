// Package store provides in-memory repository implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements every repository of the engine, the audit log and the
// holiday calendar behind one mutex. Contract activation and timesheet CAS
// happen under the write lock, so readers never see a half-applied change.
type Memory struct {
	mu         sync.RWMutex
	workers    map[generic.WorkerID]compensation.Worker
	contracts  map[generic.WorkerID][]compensation.PayContract
	policies   map[generic.WorkerID]compensation.PTOPolicy
	bonuses    map[generic.WorkerID]compensation.BonusRule
	usage      map[generic.WorkerID][]compensation.PTOUsage
	timesheets map[generic.TimesheetID]timesheet.Timesheet
	order      []generic.TimesheetID // insertion order
	holidays   []generic.Holiday
	audit      []generic.AuditEntry

	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		workers:    make(map[generic.WorkerID]compensation.Worker),
		contracts:  make(map[generic.WorkerID][]compensation.PayContract),
		policies:   make(map[generic.WorkerID]compensation.PTOPolicy),
		bonuses:    make(map[generic.WorkerID]compensation.BonusRule),
		usage:      make(map[generic.WorkerID][]compensation.PTOUsage),
		timesheets: make(map[generic.TimesheetID]timesheet.Timesheet),
		Now:        time.Now,
	}
}

// =============================================================================
// WORKERS
// =============================================================================

func (m *Memory) GetWorker(_ context.Context, id generic.WorkerID) (*compensation.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *Memory) SaveWorker(_ context.Context, w compensation.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[w.ID] = w
	return nil
}

func (m *Memory) ListWorkers(_ context.Context) ([]compensation.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]compensation.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (m *Memory) GetActiveContract(_ context.Context, workerID generic.WorkerID, asOf generic.TimePoint) (*compensation.PayContract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return compensation.PickActive(m.contracts[workerID], asOf), nil
}

func (m *Memory) ListContracts(_ context.Context, workerID generic.WorkerID) ([]compensation.PayContract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]compensation.PayContract, len(m.contracts[workerID]))
	copy(result, m.contracts[workerID])
	return result, nil
}

// SaveContract applies the activation plan under the write lock.
func (m *Memory) SaveContract(_ context.Context, c compensation.PayContract) (compensation.PayContract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.contracts[c.WorkerID]
	plan, err := compensation.PlanActivation(existing, c, m.Now().UTC())
	if err != nil {
		return compensation.PayContract{}, err
	}

	updated := make([]compensation.PayContract, 0, len(existing)+1)
	for _, e := range existing {
		if plan.Deactivate != nil && e.ID == plan.Deactivate.ID {
			e = *plan.Deactivate
		}
		updated = append(updated, e)
	}
	updated = append(updated, plan.Insert)
	m.contracts[c.WorkerID] = updated
	return plan.Insert, nil
}

// =============================================================================
// POLICIES, BONUSES, PTO USAGE
// =============================================================================

func (m *Memory) GetPTOPolicy(_ context.Context, workerID generic.WorkerID) (*compensation.PTOPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[workerID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SavePTOPolicy(_ context.Context, p compensation.PTOPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[p.WorkerID] = p
	return nil
}

func (m *Memory) GetBonusRule(_ context.Context, workerID generic.WorkerID) (*compensation.BonusRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bonuses[workerID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) SaveBonusRule(_ context.Context, b compensation.BonusRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bonuses[b.WorkerID] = b
	return nil
}

func (m *Memory) ListPTOUsage(_ context.Context, workerID generic.WorkerID, from, to generic.TimePoint) ([]compensation.PTOUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []compensation.PTOUsage
	for _, u := range m.usage[workerID] {
		if u.Date.AfterOrEqual(from) && u.Date.BeforeOrEqual(to) {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *Memory) RecordPTOUsage(_ context.Context, u compensation.PTOUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.usage[u.WorkerID]
	i := sort.Search(len(list), func(i int) bool { return list[i].Date.After(u.Date) })
	list = append(list, compensation.PTOUsage{})
	copy(list[i+1:], list[i:])
	list[i] = u
	m.usage[u.WorkerID] = list
	return nil
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (m *Memory) Create(_ context.Context, ts timesheet.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.timesheets[ts.ID]; exists {
		return generic.NewStateError(generic.KindAlreadyExists, "timesheet %s already exists", ts.ID)
	}
	m.timesheets[ts.ID] = ts
	m.order = append(m.order, ts.ID)
	return nil
}

func (m *Memory) Get(_ context.Context, id generic.TimesheetID) (*timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.timesheets[id]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

// ListByFilter returns matches in submission order.
func (m *Memory) ListByFilter(_ context.Context, filter timesheet.Filter) ([]timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []timesheet.Timesheet
	for _, id := range m.order {
		ts := m.timesheets[id]
		if filter.Matches(ts) {
			result = append(result, ts)
		}
	}
	return result, nil
}

// Save writes ts only if the stored status still equals expected.
func (m *Memory) Save(_ context.Context, ts timesheet.Timesheet, expected timesheet.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.timesheets[ts.ID]
	if !ok {
		return generic.NewNotFoundError(generic.KindUnknownTimesheet, "timesheet %s not found", ts.ID)
	}
	if current.Status != expected {
		return generic.ErrConcurrentModification
	}
	m.timesheets[ts.ID] = ts
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) AddHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays = append(m.holidays, h)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.Holiday, len(m.holidays))
	copy(result, m.holidays)
	return result, nil
}

func (m *Memory) IsHoliday(date generic.TimePoint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.HolidayList(m.holidays).IsHoliday(date)
}

func (m *Memory) HolidaysBetween(from, to generic.TimePoint) []generic.Holiday {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.HolidayList(m.holidays).HolidaysBetween(from, to)
}

// =============================================================================
// AUDIT
// =============================================================================

func (m *Memory) Append(_ context.Context, entry generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) Query(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []generic.AuditEntry
	for _, e := range m.audit {
		if filter.Matches(e) {
			result = append(result, e)
		}
	}
	return result, nil
}
