package timesheet

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/generic"
)

func sheet(id string, consultant generic.WorkerID, client, project, weekEnding string, regular, overtime, rate float64, status Status) Timesheet {
	we, _ := generic.ParseDate(weekEnding)
	return Timesheet{
		ID:             generic.TimesheetID(id),
		ConsultantID:   consultant,
		ConsultantName: string(consultant),
		Client:         client,
		Project:        project,
		WeekEnding:     we,
		RegularHours:   generic.Dec(regular),
		OvertimeHours:  generic.Dec(overtime),
		BillRate:       generic.Dec(rate),
		Status:         status,
		SubmittedDate:  we.Time.Add(18 * time.Hour),
	}
}

func TestGroup_TotalsAndOrdering(t *testing.T) {
	// GIVEN: three weeks for John Doe at TechCorp, out of order
	input := []Timesheet{
		sheet("ts-2", "john", "TechCorp", "Migration", "2025-05-09", 40, 3, 85, StatusPending),
		sheet("ts-1", "john", "TechCorp", "Migration", "2025-05-02", 40, 5, 85, StatusApproved),
		sheet("ts-3", "john", "TechCorp", "Migration", "2025-05-16", 38, 0, 85, StatusPending),
	}

	// WHEN
	groups := NewAggregator(nil).Group(input)

	// THEN
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, GroupKey{ConsultantID: "john", Client: "TechCorp"}, g.Key)
	assert.True(t, decimal.NewFromInt(126).Equal(g.TotalHours), "total hours %s", g.TotalHours)
	assert.True(t, decimal.NewFromInt(10710).Equal(g.TotalAmount), "total amount %s", g.TotalAmount)
	assert.Equal(t, 2, g.PendingCount)
	assert.Equal(t, 1, g.ApprovedCount)
	assert.Empty(t, g.Warnings)

	ids := []generic.TimesheetID{g.Timesheets[0].ID, g.Timesheets[1].ID, g.Timesheets[2].ID}
	assert.Equal(t, []generic.TimesheetID{"ts-3", "ts-2", "ts-1"}, ids, "newest week first")
	assert.Equal(t, input[2].SubmittedDate, g.LastSubmissionDate)
}

func TestGroup_FirstAppearanceOrderAndKeys(t *testing.T) {
	input := []Timesheet{
		sheet("a", "jane", "Acme", "P1", "2025-05-02", 8, 0, 50, StatusSubmitted),
		sheet("b", "john", "TechCorp", "P2", "2025-05-02", 8, 0, 85, StatusPending),
		sheet("c", "jane", "Globex", "P3", "2025-05-02", 8, 0, 60, StatusPending),
		sheet("d", "jane", "Acme", "P1", "2025-05-09", 8, 0, 50, StatusRejected),
	}

	groups := NewAggregator(nil).Group(input)

	require.Len(t, groups, 3)
	assert.Equal(t, "Acme", groups[0].Key.Client)
	assert.Equal(t, "TechCorp", groups[1].Key.Client)
	assert.Equal(t, "Globex", groups[2].Key.Client)
	assert.Len(t, groups[0].Timesheets, 2)
	assert.Zero(t, groups[0].PendingCount, "submitted and rejected are not tallied")
	assert.Zero(t, groups[0].ApprovedCount)
}

func TestGroup_DivergentProjectIsAWarning(t *testing.T) {
	input := []Timesheet{
		sheet("a", "john", "TechCorp", "Migration", "2025-05-02", 40, 0, 85, StatusPending),
		sheet("b", "john", "TechCorp", "Support", "2025-05-09", 10, 0, 85, StatusPending),
	}

	groups := NewAggregator(nil).Group(input)

	require.Len(t, groups, 1)
	assert.Equal(t, "Migration", groups[0].Project)
	assert.Len(t, groups[0].Warnings, 1)
	assert.Len(t, groups[0].Timesheets, 2)
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, NewAggregator(nil).Group(nil))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusSubmitted, StatusPending))
	assert.True(t, CanTransition(StatusPending, StatusApproved))
	assert.True(t, CanTransition(StatusPending, StatusRejected))

	assert.False(t, CanTransition(StatusSubmitted, StatusApproved))
	assert.False(t, CanTransition(StatusApproved, StatusApproved))
	assert.False(t, CanTransition(StatusApproved, StatusPending))
	assert.False(t, CanTransition(StatusRejected, StatusPending))
}

func TestFilter_Matches(t *testing.T) {
	ts := sheet("a", "john", "TechCorp", "Migration", "2025-05-09", 40, 0, 85, StatusPending)
	from, _ := generic.ParseDate("2025-05-01")
	to, _ := generic.ParseDate("2025-05-09")

	assert.True(t, Filter{}.Matches(ts))
	assert.True(t, Filter{ConsultantID: "john", Statuses: []Status{StatusApproved, StatusPending}}.Matches(ts))
	assert.True(t, Filter{From: from, To: to}.Matches(ts), "bounds are inclusive")
	assert.False(t, Filter{Client: "Acme"}.Matches(ts))
	assert.False(t, Filter{Statuses: []Status{StatusApproved}}.Matches(ts))
	assert.False(t, Filter{To: from}.Matches(ts))
}
