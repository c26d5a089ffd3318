/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  h.validate.Struct before touching the service. Domain rules (pay model
  requirements, transitions) are still enforced by the core.

MONEY AND HOURS:
  Serialized as decimal strings ("4037.5"), never floats.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: ContractJSON, PTOPolicyJSON, BonusRuleJSON
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/timesheet"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateWorkerRequest is the request to create a worker.
type CreateWorkerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"required,oneof=admin recruiter candidate"`
}

// SubmitTimesheetRequest is the request to submit a week of hours.
type SubmitTimesheetRequest struct {
	ID            string          `json:"id"`
	ConsultantID  string          `json:"consultant_id" validate:"required"`
	Consultant    string          `json:"consultant"`
	Client        string          `json:"client" validate:"required"`
	Project       string          `json:"project"`
	WeekEnding    string          `json:"week_ending" validate:"required,datetime=2006-01-02"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	BillRate      decimal.Decimal `json:"bill_rate"`
	Notes         string          `json:"notes"`
}

// ReviewRequest carries the reviewer for approve / reject / bulk approve.
type ReviewRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	Reason  string `json:"reason"`
}

// BulkApproveRequest identifies a consultant group.
type BulkApproveRequest struct {
	ConsultantID string `json:"consultant_id" validate:"required"`
	Client       string `json:"client" validate:"required"`
	ActorID      string `json:"actor_id" validate:"required"`
}

// PTOUsageRequest records PTO days taken.
type PTOUsageRequest struct {
	Date string          `json:"date" validate:"required,datetime=2006-01-02"`
	Days decimal.Decimal `json:"days"`
}

// CreateHolidayRequest adds a company holiday.
type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required"`
	Recurring bool   `json:"recurring"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ContractDTO represents a pay contract.
type ContractDTO struct {
	ID                    string          `json:"id"`
	WorkerID              string          `json:"worker_id"`
	PayModel              string          `json:"pay_model"`
	BaseRate              decimal.Decimal `json:"base_rate"`
	Currency              string          `json:"currency"`
	CommissionShare       decimal.Decimal `json:"commission_share"`
	BillRate              decimal.Decimal `json:"bill_rate"`
	HybridCycleChangeDate string          `json:"hybrid_cycle_change_date,omitempty"`
	StartDate             string          `json:"start_date"`
	Active                bool            `json:"active"`
	CreatedAt             string          `json:"created_at,omitempty"`
	SupersededAt          string          `json:"superseded_at,omitempty"`
	SupersededBy          string          `json:"superseded_by,omitempty"`
}

// TimesheetDTO represents a timesheet.
type TimesheetDTO struct {
	ID              string          `json:"id"`
	ConsultantID    string          `json:"consultant_id"`
	Consultant      string          `json:"consultant"`
	Client          string          `json:"client"`
	Project         string          `json:"project"`
	WeekEnding      string          `json:"week_ending"`
	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	BillRate        decimal.Decimal `json:"bill_rate"`
	Status          string          `json:"status"`
	SubmittedDate   string          `json:"submitted_date"`
	Notes           string          `json:"notes,omitempty"`
	ReviewedBy      string          `json:"reviewed_by,omitempty"`
	ReviewedAt      string          `json:"reviewed_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// ConsultantGroupDTO represents one (consultant, client) group.
type ConsultantGroupDTO struct {
	ConsultantID       string          `json:"consultant_id"`
	Consultant         string          `json:"consultant"`
	Client             string          `json:"client"`
	Project            string          `json:"project"`
	TotalHours         decimal.Decimal `json:"total_hours"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PendingCount       int             `json:"pending_count"`
	ApprovedCount      int             `json:"approved_count"`
	LastSubmissionDate string          `json:"last_submission_date,omitempty"`
	Timesheets         []TimesheetDTO  `json:"timesheets"`
	Warnings           []string        `json:"warnings,omitempty"`
}

// BulkResultDTO is the outcome of a bulk approval.
type BulkResultDTO struct {
	ApprovedCount int      `json:"approved_count"`
	SkippedCount  int      `json:"skipped_count"`
	ApprovedIDs   []string `json:"approved_ids"`
	SkippedIDs    []string `json:"skipped_ids"`
}

// PTOResultDTO is the PTO evaluation for a settlement month.
type PTOResultDTO struct {
	Allocated       decimal.Decimal `json:"allocated"`
	Used            decimal.Decimal `json:"used"`
	CarriedIn       decimal.Decimal `json:"carried_in"`
	CarriedOut      decimal.Decimal `json:"carried_out"`
	Forfeited       decimal.Decimal `json:"forfeited"`
	ExcessDays      decimal.Decimal `json:"excess_days"`
	HolidayCredit   decimal.Decimal `json:"holiday_credit"`
	DeductionAmount decimal.Decimal `json:"deduction_amount"`
}

// PayDTO is the settlement statement for one worker and month.
type PayDTO struct {
	WorkerID      string          `json:"worker_id"`
	Month         string          `json:"month"`
	ContractID    string          `json:"contract_id"`
	PayModel      string          `json:"pay_model"`
	AppliedModel  string          `json:"applied_model"`
	Currency      string          `json:"currency"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	BillableHours decimal.Decimal `json:"billable_hours"`
	Base          decimal.Decimal `json:"base"`
	Commission    decimal.Decimal `json:"commission"`
	Bonus         decimal.Decimal `json:"bonus"`
	Deduction     decimal.Decimal `json:"deduction"`
	Total         decimal.Decimal `json:"total"`
	PTO           PTOResultDTO    `json:"pto"`
}

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// AuditEntryDTO represents an audit log entry.
type AuditEntryDTO struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id,omitempty"`
	Action    string         `json:"action"`
	SubjectID string         `json:"subject_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response. Error carries the error
// kind when the failure is a typed domain error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toWorkerDTO(w compensation.Worker) WorkerDTO {
	dto := WorkerDTO{ID: string(w.ID), Name: w.Name, Email: w.Email, Role: string(w.Role)}
	if !w.CreatedAt.IsZero() {
		dto.CreatedAt = w.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toContractDTO(c compensation.PayContract) ContractDTO {
	dto := ContractDTO{
		ID:              string(c.ID),
		WorkerID:        string(c.WorkerID),
		PayModel:        string(c.PayModel),
		BaseRate:        c.BaseRate,
		Currency:        string(c.Currency),
		CommissionShare: c.CommissionShare,
		BillRate:        c.BillRate,
		StartDate:       c.StartDate.String(),
		Active:          c.Active,
		SupersededBy:    string(c.SupersededBy),
	}
	if !c.HybridCycleChangeDate.IsZero() {
		dto.HybridCycleChangeDate = c.HybridCycleChangeDate.String()
	}
	if !c.CreatedAt.IsZero() {
		dto.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	if c.SupersededAt != nil {
		dto.SupersededAt = c.SupersededAt.Format(time.RFC3339)
	}
	return dto
}

func toContractDTOs(contracts []compensation.PayContract) []ContractDTO {
	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c)
	}
	return dtos
}

func toTimesheetDTO(ts timesheet.Timesheet) TimesheetDTO {
	dto := TimesheetDTO{
		ID:              string(ts.ID),
		ConsultantID:    string(ts.ConsultantID),
		Consultant:      ts.ConsultantName,
		Client:          ts.Client,
		Project:         ts.Project,
		WeekEnding:      ts.WeekEnding.String(),
		RegularHours:    ts.RegularHours,
		OvertimeHours:   ts.OvertimeHours,
		BillRate:        ts.BillRate,
		Status:          string(ts.Status),
		SubmittedDate:   ts.SubmittedDate.Format(time.RFC3339),
		Notes:           ts.Notes,
		ReviewedBy:      ts.ReviewedBy,
		RejectionReason: ts.RejectionReason,
	}
	if ts.ReviewedAt != nil {
		dto.ReviewedAt = ts.ReviewedAt.Format(time.RFC3339)
	}
	return dto
}

func toGroupDTO(g timesheet.ConsultantGroup) ConsultantGroupDTO {
	dto := ConsultantGroupDTO{
		ConsultantID:  string(g.Key.ConsultantID),
		Consultant:    g.ConsultantName,
		Client:        g.Key.Client,
		Project:       g.Project,
		TotalHours:    g.TotalHours,
		TotalAmount:   g.TotalAmount,
		PendingCount:  g.PendingCount,
		ApprovedCount: g.ApprovedCount,
		Timesheets:    make([]TimesheetDTO, len(g.Timesheets)),
		Warnings:      g.Warnings,
	}
	if !g.LastSubmissionDate.IsZero() {
		dto.LastSubmissionDate = g.LastSubmissionDate.Format(time.RFC3339)
	}
	for i, ts := range g.Timesheets {
		dto.Timesheets[i] = toTimesheetDTO(ts)
	}
	return dto
}

func toBulkResultDTO(r timesheet.BulkResult) BulkResultDTO {
	dto := BulkResultDTO{
		ApprovedCount: r.ApprovedCount,
		SkippedCount:  r.SkippedCount,
		ApprovedIDs:   make([]string, 0, len(r.ApprovedIDs)),
		SkippedIDs:    make([]string, 0, len(r.SkippedIDs)),
	}
	for _, id := range r.ApprovedIDs {
		dto.ApprovedIDs = append(dto.ApprovedIDs, string(id))
	}
	for _, id := range r.SkippedIDs {
		dto.SkippedIDs = append(dto.SkippedIDs, string(id))
	}
	return dto
}

func toPayDTO(st settlement.Statement) PayDTO {
	p := st.Pay
	return PayDTO{
		WorkerID:      string(st.Worker.ID),
		Month:         p.Month.String(),
		ContractID:    string(p.ContractID),
		PayModel:      string(p.PayModel),
		AppliedModel:  string(p.AppliedModel),
		Currency:      string(p.Currency),
		RegularHours:  st.Hours.Regular,
		OvertimeHours: st.Hours.Overtime,
		BillableHours: st.Hours.Billable,
		Base:          p.Base,
		Commission:    p.Commission,
		Bonus:         p.Bonus,
		Deduction:     p.Deduction,
		Total:         p.Total,
		PTO: PTOResultDTO{
			Allocated:       st.PTO.Allocated,
			Used:            st.PTO.Used,
			CarriedIn:       st.PTO.CarriedIn,
			CarriedOut:      st.PTO.CarriedOut,
			Forfeited:       st.PTO.Forfeited,
			ExcessDays:      st.PTO.ExcessDays,
			HolidayCredit:   st.PTO.HolidayCredit,
			DeductionAmount: st.PTO.DeductionAmount,
		},
	}
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339Nano),
		ActorID:   e.ActorID,
		Action:    string(e.Action),
		SubjectID: e.SubjectID,
		WorkerID:  string(e.WorkerID),
		Payload:   e.Payload,
	}
}
