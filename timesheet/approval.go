/*
approval.go - Timesheet approval lifecycle

STATES:

	(new) --Submit--> submitted --MarkPending--> pending --Approve--> approved
	                                                    \--Reject---> rejected

	approved and rejected are terminal. Re-submission means a new Timesheet.

CONCURRENCY:
  Every transition is read-validate-write with a compare-and-set on the
  stored status (Repository.Save). The loser of a race gets
  StateError(InvalidTransition) instead of overwriting the winner.

BULK APPROVAL:
  BulkApprove snapshots the (consultant, client) group and applies the same
  guarded Approve to each pending member. Members that are not pending, or
  that changed between the snapshot and their own CAS, are skipped and
  counted; the batch is best-effort, never all-or-nothing.

IDEMPOTENCY:
  Approving an approved timesheet is a conflict, not a no-op.
*/
package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/settlement-engine/generic"
)

// transitions lists the allowed from -> to edges.
var transitions = map[Status][]Status{
	StatusSubmitted: {StatusPending},
	StatusPending:   {StatusApproved, StatusRejected},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateMachine drives timesheets through their lifecycle.
type StateMachine struct {
	Repo       Repository
	Audit      generic.AuditLog
	Aggregator *Aggregator
	Logger     *slog.Logger
	Now        func() time.Time

	// AutoQueue moves a submitted timesheet straight to pending.
	AutoQueue bool
}

func NewStateMachine(repo Repository, audit generic.AuditLog, logger *slog.Logger) *StateMachine {
	if audit == nil {
		audit = generic.NopAuditLog{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StateMachine{
		Repo:       repo,
		Audit:      audit,
		Aggregator: NewAggregator(logger),
		Logger:     logger,
		Now:        time.Now,
	}
}

// Submit creates the timesheet in submitted state (pending with AutoQueue).
func (m *StateMachine) Submit(ctx context.Context, ts Timesheet) (*Timesheet, error) {
	if ts.Status != "" {
		return nil, generic.NewStateError(generic.KindInvalidTransition,
			"submit is only valid for a new timesheet, got status %q", ts.Status)
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	if ts.ID == "" {
		ts.ID = generic.TimesheetID(uuid.NewString())
	}

	now := m.Now().UTC()
	ts.Status = StatusSubmitted
	if m.AutoQueue {
		// auto-queued sheets are stored pending in one write
		ts.Status = StatusPending
	}
	ts.SubmittedDate = now
	ts.UpdatedAt = now

	if err := m.Repo.Create(ctx, ts); err != nil {
		return nil, err
	}
	m.audit(ctx, ts, string(ts.ConsultantID), generic.AuditTimesheetSubmitted, nil)
	if m.AutoQueue {
		m.audit(ctx, ts, "system", generic.AuditTimesheetPending, nil)
	}
	return &ts, nil
}

// MarkPending queues a submitted timesheet for review.
func (m *StateMachine) MarkPending(ctx context.Context, id generic.TimesheetID) (*Timesheet, error) {
	return m.transition(ctx, id, StatusPending, "system", func(ts *Timesheet) {})
}

// Approve is valid only from pending.
func (m *StateMachine) Approve(ctx context.Context, id generic.TimesheetID, actorID string) (*Timesheet, error) {
	return m.transition(ctx, id, StatusApproved, actorID, func(ts *Timesheet) {
		now := m.Now().UTC()
		ts.ReviewedBy = actorID
		ts.ReviewedAt = &now
	})
}

// Reject is valid only from pending. reason may be empty.
func (m *StateMachine) Reject(ctx context.Context, id generic.TimesheetID, actorID, reason string) (*Timesheet, error) {
	return m.transition(ctx, id, StatusRejected, actorID, func(ts *Timesheet) {
		now := m.Now().UTC()
		ts.ReviewedBy = actorID
		ts.ReviewedAt = &now
		ts.RejectionReason = reason
	})
}

// BulkApprove approves every pending member of the (consultant, client) group.
func (m *StateMachine) BulkApprove(ctx context.Context, consultantID generic.WorkerID, client, actorID string) (BulkResult, error) {
	members, err := m.Repo.ListByFilter(ctx, Filter{ConsultantID: consultantID, Client: client})
	if err != nil {
		return BulkResult{}, fmt.Errorf("load group %s/%s: %w", consultantID, client, err)
	}
	if len(members) == 0 {
		return BulkResult{}, generic.NewNotFoundError(generic.KindUnknownGroup,
			"no timesheets for consultant %s and client %s", consultantID, client)
	}

	var result BulkResult
	for _, group := range m.Aggregator.Group(members) {
		for _, ts := range group.Timesheets {
			if ts.Status != StatusPending {
				result.skip(ts.ID)
				continue
			}
			if _, err := m.Approve(ctx, ts.ID, actorID); err != nil {
				if errors.Is(err, generic.ErrState) {
					result.skip(ts.ID)
					continue
				}
				return result, err
			}
			result.ApprovedCount++
			result.ApprovedIDs = append(result.ApprovedIDs, ts.ID)
		}
	}

	m.Logger.Info("bulk approve finished",
		"consultant_id", consultantID,
		"client", client,
		"actor_id", actorID,
		"approved", result.ApprovedCount,
		"skipped", result.SkippedCount)
	return result, nil
}

func (r *BulkResult) skip(id generic.TimesheetID) {
	r.SkippedCount++
	r.SkippedIDs = append(r.SkippedIDs, id)
}

// transition loads the record, validates the edge and writes with CAS.
func (m *StateMachine) transition(ctx context.Context, id generic.TimesheetID, to Status, actorID string, mutate func(*Timesheet)) (*Timesheet, error) {
	current, err := m.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, generic.NewNotFoundError(generic.KindUnknownTimesheet, "timesheet %s not found", id)
	}

	from := current.Status
	if !CanTransition(from, to) {
		return nil, generic.NewStateError(generic.KindInvalidTransition,
			"timesheet %s cannot move from %s to %s", id, from, to)
	}

	next := *current
	next.Status = to
	next.UpdatedAt = m.Now().UTC()
	mutate(&next)

	if err := m.Repo.Save(ctx, next, from); err != nil {
		if errors.Is(err, generic.ErrConcurrentModification) {
			return nil, generic.NewStateError(generic.KindInvalidTransition,
				"timesheet %s changed concurrently; %s -> %s not applied", id, from, to)
		}
		return nil, err
	}

	var payload map[string]any
	if next.RejectionReason != "" {
		payload = map[string]any{"reason": next.RejectionReason}
	}
	m.audit(ctx, next, actorID, auditActionFor(to), payload)
	return &next, nil
}

func auditActionFor(s Status) generic.AuditAction {
	switch s {
	case StatusPending:
		return generic.AuditTimesheetPending
	case StatusApproved:
		return generic.AuditTimesheetApproved
	case StatusRejected:
		return generic.AuditTimesheetRejected
	}
	return generic.AuditTimesheetSubmitted
}

func (m *StateMachine) audit(ctx context.Context, ts Timesheet, actorID string, action generic.AuditAction, payload map[string]any) {
	entry := generic.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: m.Now().UTC(),
		ActorID:   actorID,
		Action:    action,
		SubjectID: string(ts.ID),
		WorkerID:  ts.ConsultantID,
		Payload:   payload,
	}
	if err := m.Audit.Append(ctx, entry); err != nil {
		m.Logger.Warn("audit append failed", "action", action, "timesheet_id", ts.ID, "error", err)
	}
}
