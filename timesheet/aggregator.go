package timesheet

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregator groups timesheets by (consultant, client).
type Aggregator struct {
	Logger *slog.Logger
}

func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{Logger: logger}
}

// Group returns one ConsultantGroup per key, in order of first appearance.
// TotalAmount is the client-billable amount, independent of how the
// consultant is paid.
func (a *Aggregator) Group(timesheets []Timesheet) []ConsultantGroup {
	index := make(map[GroupKey]int)
	var groups []ConsultantGroup

	for _, ts := range timesheets {
		key := GroupKey{ConsultantID: ts.ConsultantID, Client: ts.Client}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ConsultantGroup{
				Key:            key,
				ConsultantName: ts.ConsultantName,
				Project:        ts.Project,
				TotalHours:     decimal.Zero,
				TotalAmount:    decimal.Zero,
			})
		}

		g := &groups[i]
		g.Timesheets = append(g.Timesheets, ts)
		g.TotalHours = g.TotalHours.Add(ts.TotalHours())
		g.TotalAmount = g.TotalAmount.Add(ts.BillableAmount())

		switch ts.Status {
		case StatusPending:
			g.PendingCount++
		case StatusApproved:
			g.ApprovedCount++
		}
		if ts.SubmittedDate.After(g.LastSubmissionDate) {
			g.LastSubmissionDate = ts.SubmittedDate
		}
		if ts.Project != g.Project {
			msg := fmt.Sprintf("timesheet %s is for project %q, group uses %q", ts.ID, ts.Project, g.Project)
			g.Warnings = append(g.Warnings, msg)
			a.Logger.Warn("divergent project in consultant group",
				"consultant_id", key.ConsultantID,
				"client", key.Client,
				"timesheet_id", ts.ID,
				"project", ts.Project,
				"group_project", g.Project)
		}
	}

	for i := range groups {
		members := groups[i].Timesheets
		sort.SliceStable(members, func(x, y int) bool {
			return members[x].WeekEnding.After(members[y].WeekEnding)
		})
	}
	return groups
}
