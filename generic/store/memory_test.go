package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/timesheet"
)

func tp(s string) generic.TimePoint {
	d, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMemory_ContractActivation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first := compensation.PayContract{ID: "c-1", WorkerID: "w-1", PayModel: compensation.PayHourly, StartDate: tp("2025-01-01"), Active: true}
	second := compensation.PayContract{ID: "c-2", WorkerID: "w-1", PayModel: compensation.PayHourly, StartDate: tp("2025-04-01"), Active: true}

	_, err := m.SaveContract(ctx, first)
	require.NoError(t, err)
	_, err = m.SaveContract(ctx, second)
	require.NoError(t, err)

	active, err := m.GetActiveContract(ctx, "w-1", tp("2025-05-01"))
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, generic.ContractID("c-2"), active.ID)

	list, err := m.ListContracts(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Active)

	// returned slices are copies
	list[0].Active = true
	again, _ := m.ListContracts(ctx, "w-1")
	assert.False(t, again[0].Active)
}

func TestMemory_PTOUsageSortedAndInclusive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, d := range []string{"2025-05-31", "2025-05-01", "2025-04-30", "2025-05-15"} {
		require.NoError(t, m.RecordPTOUsage(ctx, compensation.PTOUsage{WorkerID: "w-1", Date: tp(d), Days: generic.Dec(1)}))
	}

	got, err := m.ListPTOUsage(ctx, "w-1", tp("2025-05-01"), tp("2025-05-31"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Equal(tp("2025-05-01")))
	assert.True(t, got[2].Date.Equal(tp("2025-05-31")))
}

func TestMemory_TimesheetCAS(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	ts := timesheet.Timesheet{ID: "ts-1", ConsultantID: "w-1", Client: "TechCorp", WeekEnding: tp("2025-05-02"), Status: timesheet.StatusSubmitted}
	require.NoError(t, m.Create(ctx, ts))

	ts.Status = timesheet.StatusPending
	require.NoError(t, m.Save(ctx, ts, timesheet.StatusSubmitted))

	ts.Status = timesheet.StatusApproved
	assert.ErrorIs(t, m.Save(ctx, ts, timesheet.StatusSubmitted), generic.ErrConcurrentModification)

	got, err := m.Get(ctx, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusPending, got.Status)
}

func TestMemory_HolidaysAndAudit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.AddHoliday(ctx, generic.Holiday{ID: "h-1", Date: tp("2020-07-04"), Name: "Independence Day", Recurring: true}))

	assert.True(t, m.IsHoliday(tp("2025-07-04")))
	assert.False(t, m.IsHoliday(tp("2025-07-05")))
	assert.Len(t, m.HolidaysBetween(tp("2025-01-01"), tp("2026-12-31")), 2)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.Append(ctx, generic.AuditEntry{ID: "a-1", Timestamp: from.Add(-time.Hour), Action: generic.AuditTimesheetApproved}))
	require.NoError(t, m.Append(ctx, generic.AuditEntry{ID: "a-2", Timestamp: from.Add(time.Hour), Action: generic.AuditTimesheetApproved}))

	entries, err := m.Query(ctx, generic.AuditFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a-2", entries[0].ID)
}
