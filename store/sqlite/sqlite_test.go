/*
sqlite_test.go - Store tests against an in-memory SQLite database

Tests for:
- Contract activation (single active row, supersede, monotonic start)
- Timesheet compare-and-set
- Policy, usage and holiday round-trips
- Audit payloads
*/
package sqlite

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

func seedWorker(t *testing.T, s *Store, id generic.WorkerID, role compensation.Role) {
	t.Helper()
	err := s.SaveWorker(context.Background(), compensation.Worker{
		ID: id, Name: "Worker " + string(id), Role: role, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func hourly(id generic.ContractID, worker generic.WorkerID, rate float64, start string) compensation.PayContract {
	return compensation.PayContract{
		ID:        id,
		WorkerID:  worker,
		PayModel:  compensation.PayHourly,
		BaseRate:  generic.Dec(rate),
		Currency:  "USD",
		StartDate: day(start),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// WORKERS & CONTRACTS
// =============================================================================

func TestWorkers_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.GetWorker(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	seedWorker(t, s, "w-2", compensation.RoleRecruiter)
	seedWorker(t, s, "w-1", compensation.RoleCandidate)

	w, err := s.GetWorker(ctx, "w-2")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, compensation.RoleRecruiter, w.Role)

	all, err := s.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveContract_SupersedesAndResolves(t *testing.T) {
	// GIVEN
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleCandidate)

	_, err := s.SaveContract(ctx, hourly("c-1", "w-1", 80, "2025-01-01"))
	require.NoError(t, err)

	// WHEN: a second contract is activated
	_, err = s.SaveContract(ctx, hourly("c-2", "w-1", 90, "2025-06-01"))
	require.NoError(t, err)

	// THEN: exactly one active, the old one superseded
	contracts, err := s.ListContracts(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	active := 0
	for _, c := range contracts {
		if c.Active {
			active++
			assert.Equal(t, generic.ContractID("c-2"), c.ID)
			continue
		}
		assert.Equal(t, generic.ContractID("c-2"), c.SupersededBy)
		assert.NotNil(t, c.SupersededAt)
	}
	assert.Equal(t, 1, active)

	got, err := s.GetActiveContract(ctx, "w-1", day("2025-07-01"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, generic.ContractID("c-2"), got.ID)
	assert.True(t, decimal.NewFromInt(90).Equal(got.BaseRate))

	none, err := s.GetActiveContract(ctx, "w-1", day("2025-03-01"))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSaveContract_Rejections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleCandidate)

	_, err := s.SaveContract(ctx, hourly("c-1", "w-1", 80, "2025-03-01"))
	require.NoError(t, err)

	_, err = s.SaveContract(ctx, hourly("c-2", "w-1", 80, "2025-02-01"))
	assert.Equal(t, generic.KindNonMonotonicStart, generic.KindOf(err))

	_, err = s.SaveContract(ctx, hourly("c-1", "w-1", 85, "2025-04-01"))
	assert.Equal(t, generic.KindSupersededReadOnly, generic.KindOf(err))

	_, err = s.SaveContract(ctx, hourly("c-3", "ghost", 80, "2025-01-01"))
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestSaveContract_ConcurrentActivationsKeepOneActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleCandidate)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := generic.ContractID("c-" + string(rune('a'+i)))
			_, _ = s.SaveContract(ctx, hourly(id, "w-1", 80, "2025-01-01"))
		}(i)
	}
	wg.Wait()

	contracts, err := s.ListContracts(ctx, "w-1")
	require.NoError(t, err)
	active := 0
	for _, c := range contracts {
		if c.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestHybridContract_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleRecruiter)

	c := compensation.PayContract{
		ID: "c-h", WorkerID: "w-1", PayModel: compensation.PayHybrid,
		BaseRate: generic.Dec(5000), BillRate: generic.Dec(85), CommissionShare: generic.Dec(20),
		Currency: "USD", HybridCycleChangeDate: day("2025-06-01"), StartDate: day("2025-01-01"),
		Active: true, CreatedAt: time.Now().UTC(),
	}
	_, err := s.SaveContract(ctx, c)
	require.NoError(t, err)

	got, err := s.GetActiveContract(ctx, "w-1", day("2025-06-15"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.HybridCycleChangeDate.Equal(day("2025-06-01")))
	assert.True(t, decimal.NewFromInt(20).Equal(got.CommissionShare))
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func newTimesheet(id, weekEnding string) timesheet.Timesheet {
	now := time.Now().UTC()
	return timesheet.Timesheet{
		ID:             generic.TimesheetID(id),
		ConsultantID:   "w-1",
		ConsultantName: "John Doe",
		Client:         "TechCorp",
		Project:        "Migration",
		WeekEnding:     day(weekEnding),
		RegularHours:   generic.Dec(40),
		OvertimeHours:  generic.Dec(2.5),
		BillRate:       generic.Dec(85),
		Status:         timesheet.StatusSubmitted,
		SubmittedDate:  now,
		UpdatedAt:      now,
	}
}

func TestTimesheets_CreateGetList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newTimesheet("ts-2", "2025-05-09")))
	require.NoError(t, s.Create(ctx, newTimesheet("ts-1", "2025-05-02")))

	err := s.Create(ctx, newTimesheet("ts-1", "2025-05-02"))
	assert.Equal(t, generic.KindAlreadyExists, generic.KindOf(err))

	got, err := s.Get(ctx, "ts-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, generic.Dec(2.5).Equal(got.OvertimeHours))
	assert.True(t, got.WeekEnding.Equal(day("2025-05-02")))

	missing, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.ListByFilter(ctx, timesheet.Filter{ConsultantID: "w-1", Client: "TechCorp"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, generic.TimesheetID("ts-2"), list[0].ID, "insertion order")

	list, err = s.ListByFilter(ctx, timesheet.Filter{From: day("2025-05-05")})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = s.ListByFilter(ctx, timesheet.Filter{Statuses: []timesheet.Status{timesheet.StatusApproved}})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTimesheets_SaveIsCompareAndSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newTimesheet("ts-1", "2025-05-02")))

	next := newTimesheet("ts-1", "2025-05-02")
	next.Status = timesheet.StatusPending
	require.NoError(t, s.Save(ctx, next, timesheet.StatusSubmitted))

	// stale expectation loses
	stale := next
	stale.Status = timesheet.StatusApproved
	err := s.Save(ctx, stale, timesheet.StatusSubmitted)
	assert.ErrorIs(t, err, generic.ErrConcurrentModification)

	got, err := s.Get(ctx, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusPending, got.Status)

	ghost := newTimesheet("ghost", "2025-05-02")
	assert.ErrorIs(t, s.Save(ctx, ghost, timesheet.StatusSubmitted), generic.ErrNotFound)
}

// =============================================================================
// POLICIES, USAGE, HOLIDAYS, AUDIT
// =============================================================================

func TestPolicies_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleRecruiter)

	none, err := s.GetPTOPolicy(ctx, "w-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	policy := compensation.PTOPolicy{
		WorkerID: "w-1", MonthlyAllocation: generic.Dec(1.5), CarryForwardAllowed: true,
		MaxCarryForwardDays: generic.Dec(5), ExcessDeductionEnabled: true,
		EffectiveMonth: generic.NewMonth(2025, time.January),
	}
	require.NoError(t, s.SavePTOPolicy(ctx, policy))
	policy.MonthlyAllocation = generic.Dec(2)
	require.NoError(t, s.SavePTOPolicy(ctx, policy), "upsert")

	got, err := s.GetPTOPolicy(ctx, "w-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, generic.Dec(2).Equal(got.MonthlyAllocation))
	assert.True(t, got.CarryForwardAllowed)
	assert.True(t, got.EffectiveMonth.Equal(generic.NewMonth(2025, time.January)))

	end := generic.NewMonth(2026, time.January)
	rule := compensation.BonusRule{
		WorkerID: "w-1", Amount: generic.Dec(1000), Frequency: compensation.BonusQuarterly,
		StartMonth: generic.NewMonth(2025, time.March), EndMonth: &end,
	}
	require.NoError(t, s.SaveBonusRule(ctx, rule))
	gotRule, err := s.GetBonusRule(ctx, "w-1")
	require.NoError(t, err)
	require.NotNil(t, gotRule)
	require.NotNil(t, gotRule.EndMonth)
	assert.True(t, gotRule.EndMonth.Equal(end))

	rule.WorkerID = "ghost"
	assert.ErrorIs(t, s.SaveBonusRule(ctx, rule), generic.ErrNotFound)
}

func TestPTOUsage_RangeIsInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleRecruiter)

	for _, d := range []string{"2025-04-30", "2025-05-01", "2025-05-31", "2025-06-01"} {
		require.NoError(t, s.RecordPTOUsage(ctx, compensation.PTOUsage{WorkerID: "w-1", Date: day(d), Days: generic.Dec(1)}))
	}

	got, err := s.ListPTOUsage(ctx, "w-1", day("2025-05-01"), day("2025-05-31"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(day("2025-05-01")))
}

func TestHolidays_Recurring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddHoliday(ctx, generic.Holiday{ID: "h-1", Date: day("2024-12-25"), Name: "Christmas", Recurring: true}))
	require.NoError(t, s.AddHoliday(ctx, generic.Holiday{ID: "h-2", Date: day("2025-05-26"), Name: "Memorial Day"}))

	assert.True(t, s.IsHoliday(day("2025-12-25")), "recurring matches any year")
	assert.True(t, s.IsHoliday(day("2025-05-26")))
	assert.False(t, s.IsHoliday(day("2026-05-26")), "one-off holiday")

	between := s.HolidaysBetween(day("2025-05-01"), day("2025-12-31"))
	assert.Len(t, between, 2)

	all, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHolidays_LookupFailureIsLogged(t *testing.T) {
	// GIVEN: a store whose connection is gone
	s := newTestStore(t)
	var logs bytes.Buffer
	s.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	require.NoError(t, s.Close())

	// WHEN / THEN: lookups fall back to "no holiday" and say why
	assert.False(t, s.IsHoliday(day("2025-12-25")))
	assert.Nil(t, s.HolidaysBetween(day("2025-01-01"), day("2025-12-31")))
	assert.Contains(t, logs.String(), "holiday lookup failed")
	assert.Contains(t, logs.String(), "holiday listing failed")
}

func TestAudit_AppendAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	worker := generic.WorkerID("w-1")

	require.NoError(t, s.Append(ctx, generic.AuditEntry{
		ID: "a-1", Timestamp: time.Now().UTC(), ActorID: "admin", Action: generic.AuditTimesheetRejected,
		SubjectID: "ts-1", WorkerID: worker, Payload: map[string]any{"reason": "duplicate"},
	}))
	require.NoError(t, s.Append(ctx, generic.AuditEntry{
		ID: "a-2", Timestamp: time.Now().UTC(), ActorID: "admin", Action: generic.AuditContractActivated,
		SubjectID: "c-1", WorkerID: "w-2",
	}))

	entries, err := s.Query(ctx, generic.AuditFilter{WorkerID: &worker})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "duplicate", entries[0].Payload["reason"])
}

func TestReset_ClearsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWorker(t, s, "w-1", compensation.RoleCandidate)
	require.NoError(t, s.Create(ctx, newTimesheet("ts-1", "2025-05-02")))

	require.NoError(t, s.Reset(ctx))

	workers, err := s.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Empty(t, workers)
	got, err := s.Get(ctx, "ts-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
