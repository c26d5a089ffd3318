/*
store.go - Audit log contract

PURPOSE:
  Contract records and timesheets are never deleted; together with the
  audit log they form the history of who changed what. Repository
  interfaces for the records themselves live next to their domain types
  (compensation.ContractRepository, timesheet.Repository) so this package
  stays domain-agnostic.

APPEND-ONLY CONTRACT:
  AuditLog has Append and Query. No Update, no Delete.

IMPLEMENTATIONS:
  - store/sqlite: audit_log table
  - generic/store: slice guarded by a mutex
*/
package generic

import (
	"context"
	"time"
)

type AuditAction string

const (
	AuditTimesheetSubmitted AuditAction = "timesheet_submitted"
	AuditTimesheetPending   AuditAction = "timesheet_pending"
	AuditTimesheetApproved  AuditAction = "timesheet_approved"
	AuditTimesheetRejected  AuditAction = "timesheet_rejected"
	AuditContractActivated  AuditAction = "contract_activated"
	AuditContractSuperseded AuditAction = "contract_superseded"
)

// AuditEntry records who did what when.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	Action    AuditAction
	SubjectID string // timesheet or contract ID
	WorkerID  WorkerID
	Payload   map[string]any
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	SubjectID *string
	WorkerID  *WorkerID
	ActorID   *string
	Actions   []AuditAction
	From      *time.Time
	To        *time.Time
}

// Matches reports whether entry satisfies every set field of the filter.
func (f AuditFilter) Matches(entry AuditEntry) bool {
	if f.SubjectID != nil && entry.SubjectID != *f.SubjectID {
		return false
	}
	if f.WorkerID != nil && entry.WorkerID != *f.WorkerID {
		return false
	}
	if f.ActorID != nil && entry.ActorID != *f.ActorID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == entry.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// NopAuditLog discards entries.
type NopAuditLog struct{}

func (NopAuditLog) Append(context.Context, AuditEntry) error { return nil }
func (NopAuditLog) Query(context.Context, AuditFilter) ([]AuditEntry, error) {
	return nil, nil
}
