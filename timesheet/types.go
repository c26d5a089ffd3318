// Package timesheet implements timesheet grouping and the approval lifecycle.
package timesheet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is part of the wire contract; the string values must not change.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", generic.NewValidationError(generic.KindInvalidValue, "unknown timesheet status %q", s)
	}
	return st, nil
}

// =============================================================================
// TIMESHEET
// =============================================================================

// Timesheet is one week of hours for a consultant on a client engagement.
// It is never deleted; status changes go through StateMachine only.
type Timesheet struct {
	ID             generic.TimesheetID
	ConsultantID   generic.WorkerID
	ConsultantName string
	Client         string
	Project        string
	WeekEnding     generic.TimePoint
	RegularHours   decimal.Decimal
	OvertimeHours  decimal.Decimal
	BillRate       decimal.Decimal
	Status         Status
	SubmittedDate  time.Time
	Notes          string

	ReviewedBy      string
	ReviewedAt      *time.Time
	RejectionReason string
	UpdatedAt       time.Time
}

// TotalHours is regular plus overtime.
func (t Timesheet) TotalHours() decimal.Decimal {
	return t.RegularHours.Add(t.OvertimeHours)
}

// BillableAmount is the client-billable total for the week.
func (t Timesheet) BillableAmount() decimal.Decimal {
	return t.RegularHours.Mul(t.BillRate).Add(t.OvertimeHours.Mul(t.BillRate))
}

// Validate checks the fields required on submission.
func (t Timesheet) Validate() error {
	switch {
	case t.ConsultantID == "":
		return generic.NewValidationError(generic.KindMissingField, "consultant is required")
	case t.Client == "":
		return generic.NewValidationError(generic.KindMissingField, "client is required")
	case t.WeekEnding.IsZero():
		return generic.NewValidationError(generic.KindMissingField, "weekEnding is required")
	case t.RegularHours.IsNegative() || t.OvertimeHours.IsNegative():
		return generic.NewValidationError(generic.KindInvalidValue, "hours must not be negative")
	case t.BillRate.IsNegative():
		return generic.NewValidationError(generic.KindInvalidValue, "billRate must not be negative")
	}
	return nil
}

// =============================================================================
// FILTER
// =============================================================================

// Filter selects timesheets. Zero-valued fields match everything.
type Filter struct {
	ConsultantID generic.WorkerID
	Client       string
	Project      string
	Statuses     []Status
	From         generic.TimePoint // weekEnding >= From
	To           generic.TimePoint // weekEnding <= To
}

func (f Filter) Matches(t Timesheet) bool {
	if f.ConsultantID != "" && t.ConsultantID != f.ConsultantID {
		return false
	}
	if f.Client != "" && t.Client != f.Client {
		return false
	}
	if f.Project != "" && t.Project != f.Project {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if t.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.From.IsZero() && t.WeekEnding.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.WeekEnding.After(f.To) {
		return false
	}
	return true
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository persists timesheets. Save is a compare-and-set on status: it
// writes only if the stored status still equals expected, otherwise it
// returns generic.ErrConcurrentModification.
type Repository interface {
	Create(ctx context.Context, ts Timesheet) error
	Get(ctx context.Context, id generic.TimesheetID) (*Timesheet, error)
	ListByFilter(ctx context.Context, filter Filter) ([]Timesheet, error)
	Save(ctx context.Context, ts Timesheet, expected Status) error
}

// =============================================================================
// GROUPS
// =============================================================================

// GroupKey identifies a ConsultantGroup.
type GroupKey struct {
	ConsultantID generic.WorkerID
	Client       string
}

// ConsultantGroup is derived from timesheets and never stored.
type ConsultantGroup struct {
	Key                GroupKey
	ConsultantName     string
	Project            string
	TotalHours         decimal.Decimal
	TotalAmount        decimal.Decimal
	PendingCount       int
	ApprovedCount      int
	LastSubmissionDate time.Time
	Timesheets         []Timesheet // newest WeekEnding first
	Warnings           []string
}

// BulkResult is the outcome of a bulk approval. Skips are not errors.
type BulkResult struct {
	ApprovedCount int
	SkippedCount  int
	ApprovedIDs   []generic.TimesheetID
	SkippedIDs    []generic.TimesheetID
}
