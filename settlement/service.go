/*
Package settlement wires the compensation and timesheet engines into the
operations the HTTP layer consumes.

OPERATIONS:
  ResolveContract   active contract for a worker on a date
  ComputePay        payable amount for a settlement month
  ApproveTimesheet  pending -> approved
  RejectTimesheet   pending -> rejected
  BulkApprove       every pending member of a (consultant, client) group
  Aggregate         ConsultantGroups over a filter

  plus the write paths that feed them: workers, contracts, PTO policies,
  bonus rules, PTO usage, holidays and timesheet submission.

DATA FLOW (ComputePay):
  worker -> contract as of the month's last day -> approved hours with
  weekEnding in the month -> PTO evaluation priced at the daily rate ->
  bonus (recruiters only) -> Calculator.

The service holds no state of its own. Everything lives in the Store.
*/
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/timesheet"
)

// HolidayRepository stores the company holiday calendar.
type HolidayRepository interface {
	generic.HolidayCalendar
	AddHoliday(ctx context.Context, h generic.Holiday) error
	ListHolidays(ctx context.Context) ([]generic.Holiday, error)
}

// Store is everything the service persists. Both store/sqlite and
// generic/store implement it.
type Store interface {
	compensation.WorkerRepository
	compensation.ContractRepository
	compensation.PolicyRepository
	timesheet.Repository
	HolidayRepository
	generic.AuditLog
}

type Options struct {
	AutoQueue   bool
	HoursPerDay int
	Logger      *slog.Logger
}

// Service is the settlement facade.
type Service struct {
	store  Store
	logger *slog.Logger

	Resolver    *compensation.ContractResolver
	Calculator  *compensation.Calculator
	Aggregator  *timesheet.Aggregator
	Approvals   *timesheet.StateMachine
	HoursPerDay int
	Now         func() time.Time
}

func New(store Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hpd := opts.HoursPerDay
	if hpd <= 0 {
		hpd = compensation.DefaultHoursPerDay
	}

	approvals := timesheet.NewStateMachine(store, store, logger)
	approvals.AutoQueue = opts.AutoQueue

	return &Service{
		store:       store,
		logger:      logger,
		Resolver:    compensation.NewContractResolver(store, store, logger),
		Calculator:  &compensation.Calculator{},
		Aggregator:  approvals.Aggregator,
		Approvals:   approvals,
		HoursPerDay: hpd,
		Now:         time.Now,
	}
}

// Statement is the full breakdown behind a PayResult.
type Statement struct {
	Worker   compensation.Worker
	Contract compensation.PayContract
	Hours    compensation.HoursWorked
	PTO      compensation.PTOResult
	Bonus    *compensation.BonusRule
	Pay      compensation.PayResult
}

// =============================================================================
// WORKERS
// =============================================================================

// RegisterWorker validates and stores a worker, assigning an ID when empty.
func (s *Service) RegisterWorker(ctx context.Context, w compensation.Worker) (compensation.Worker, error) {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return compensation.Worker{}, generic.NewValidationError(generic.KindMissingField, "name is required")
	}
	if !w.Role.Valid() {
		return compensation.Worker{}, generic.NewValidationError(generic.KindInvalidValue, "unknown role %q", w.Role)
	}
	if w.ID == "" {
		w.ID = generic.WorkerID(uuid.NewString())
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.Now().UTC()
	}
	if err := s.store.SaveWorker(ctx, w); err != nil {
		return compensation.Worker{}, err
	}
	return w, nil
}

// Worker returns NotFoundError(UnknownWorker) for an unknown ID.
func (s *Service) Worker(ctx context.Context, id generic.WorkerID) (*compensation.Worker, error) {
	w, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, generic.NewNotFoundError(generic.KindUnknownWorker, "worker %s not found", id)
	}
	return w, nil
}

func (s *Service) Workers(ctx context.Context) ([]compensation.Worker, error) {
	return s.store.ListWorkers(ctx)
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (s *Service) ResolveContract(ctx context.Context, workerID generic.WorkerID, date generic.TimePoint) (*compensation.PayContract, error) {
	return s.Resolver.Resolve(ctx, workerID, date)
}

// SaveContract stores a new contract for a known worker. An active contract
// supersedes the worker's current one.
func (s *Service) SaveContract(ctx context.Context, c compensation.PayContract, actorID string) (compensation.PayContract, error) {
	if _, err := s.Worker(ctx, c.WorkerID); err != nil {
		return compensation.PayContract{}, err
	}
	return s.Resolver.Activate(ctx, c, actorID)
}

func (s *Service) ContractHistory(ctx context.Context, workerID generic.WorkerID) ([]compensation.PayContract, error) {
	return s.Resolver.History(ctx, workerID)
}

// =============================================================================
// PTO & BONUS CONFIGURATION
// =============================================================================

func (s *Service) SavePTOPolicy(ctx context.Context, p compensation.PTOPolicy) error {
	if _, err := s.Worker(ctx, p.WorkerID); err != nil {
		return err
	}
	if err := compensation.ValidatePolicy(p); err != nil {
		return err
	}
	if !p.CarryForwardAllowed {
		p.MaxCarryForwardDays = decimal.Zero
	}
	return s.store.SavePTOPolicy(ctx, p)
}

// SaveBonusRule accepts rules for recruiters only.
func (s *Service) SaveBonusRule(ctx context.Context, b compensation.BonusRule) error {
	w, err := s.Worker(ctx, b.WorkerID)
	if err != nil {
		return err
	}
	if w.Role != compensation.RoleRecruiter {
		return generic.NewValidationError(generic.KindInvalidValue,
			"bonus rules apply to recruiters only, worker %s is %s", w.ID, w.Role)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	return s.store.SaveBonusRule(ctx, b)
}

func (s *Service) RecordPTOUsage(ctx context.Context, u compensation.PTOUsage) error {
	if _, err := s.Worker(ctx, u.WorkerID); err != nil {
		return err
	}
	if u.Date.IsZero() {
		return generic.NewValidationError(generic.KindMissingField, "date is required")
	}
	if !u.Days.IsPositive() {
		return generic.NewValidationError(generic.KindInvalidValue, "days must be positive")
	}
	return s.store.RecordPTOUsage(ctx, u)
}

func (s *Service) AddHoliday(ctx context.Context, h generic.Holiday) (generic.Holiday, error) {
	if h.Date.IsZero() {
		return generic.Holiday{}, generic.NewValidationError(generic.KindMissingField, "date is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return generic.Holiday{}, generic.NewValidationError(generic.KindMissingField, "name is required")
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if err := s.store.AddHoliday(ctx, h); err != nil {
		return generic.Holiday{}, err
	}
	return h, nil
}

func (s *Service) Holidays(ctx context.Context) ([]generic.Holiday, error) {
	return s.store.ListHolidays(ctx)
}

// =============================================================================
// PAY
// =============================================================================

// ComputePay returns the payable amount for month.
func (s *Service) ComputePay(ctx context.Context, workerID generic.WorkerID, month generic.Month) (compensation.PayResult, error) {
	st, err := s.Settle(ctx, workerID, month)
	if err != nil {
		return compensation.PayResult{}, err
	}
	return st.Pay, nil
}

// Settle computes the pay for month together with its inputs.
func (s *Service) Settle(ctx context.Context, workerID generic.WorkerID, month generic.Month) (Statement, error) {
	if month.IsZero() {
		return Statement{}, generic.NewValidationError(generic.KindMissingField, "settlement month is required")
	}
	w, err := s.Worker(ctx, workerID)
	if err != nil {
		return Statement{}, err
	}
	contract, err := s.Resolver.Resolve(ctx, workerID, month.End())
	if err != nil {
		return Statement{}, err
	}

	hours, err := s.approvedHours(ctx, workerID, month)
	if err != nil {
		return Statement{}, err
	}

	pto, err := s.evaluatePTO(ctx, *contract, month)
	if err != nil {
		return Statement{}, err
	}

	var bonus *compensation.BonusRule
	if w.Role == compensation.RoleRecruiter {
		if bonus, err = s.store.GetBonusRule(ctx, workerID); err != nil {
			return Statement{}, err
		}
	}

	pay, err := s.Calculator.Compute(*contract, hours, pto, month, bonus)
	if err != nil {
		if generic.KindOf(err) == generic.KindNegativeTotal {
			s.logger.Warn("negative pay total rejected",
				"worker_id", workerID,
				"month", month.String(),
				"contract_id", contract.ID,
				"deduction", pto.DeductionAmount.String())
		}
		return Statement{}, err
	}

	return Statement{
		Worker:   *w,
		Contract: *contract,
		Hours:    hours,
		PTO:      pto,
		Bonus:    bonus,
		Pay:      pay,
	}, nil
}

// approvedHours sums approved timesheets whose weekEnding falls in month.
func (s *Service) approvedHours(ctx context.Context, workerID generic.WorkerID, month generic.Month) (compensation.HoursWorked, error) {
	sheets, err := s.store.ListByFilter(ctx, timesheet.Filter{
		ConsultantID: workerID,
		Statuses:     []timesheet.Status{timesheet.StatusApproved},
		From:         month.Start(),
		To:           month.End(),
	})
	if err != nil {
		return compensation.HoursWorked{}, err
	}

	hours := compensation.HoursWorked{Regular: decimal.Zero, Overtime: decimal.Zero, Billable: decimal.Zero}
	for _, ts := range sheets {
		hours.Regular = hours.Regular.Add(ts.RegularHours)
		hours.Overtime = hours.Overtime.Add(ts.OvertimeHours)
	}
	hours.Billable = hours.Regular.Add(hours.Overtime)
	return hours, nil
}

func (s *Service) evaluatePTO(ctx context.Context, contract compensation.PayContract, month generic.Month) (compensation.PTOResult, error) {
	policy, err := s.store.GetPTOPolicy(ctx, contract.WorkerID)
	if err != nil {
		return compensation.PTOResult{}, err
	}
	if policy == nil {
		return compensation.ZeroPTOResult(), nil
	}

	from := month.Prev().Start()
	if !policy.EffectiveMonth.IsZero() && policy.EffectiveMonth.Before(month) {
		from = policy.EffectiveMonth.Start()
	}
	usage, err := s.store.ListPTOUsage(ctx, contract.WorkerID, from, month.End())
	if err != nil {
		return compensation.PTOResult{}, err
	}

	// the calendar is loaded once so a lookup failure surfaces as an error
	holidays, err := s.store.ListHolidays(ctx)
	if err != nil {
		return compensation.PTOResult{}, fmt.Errorf("load holiday calendar: %w", err)
	}
	calendar := generic.HolidayList(holidays)

	rate := compensation.DailyRate(contract, month, calendar, s.HoursPerDay)
	return compensation.NewPTOPolicyEngine(calendar).Evaluate(*policy, usage, month.Period(), rate)
}

// =============================================================================
// TIMESHEETS
// =============================================================================

// SubmitTimesheet fills the consultant name from the worker record when the
// caller left it empty.
func (s *Service) SubmitTimesheet(ctx context.Context, ts timesheet.Timesheet) (*timesheet.Timesheet, error) {
	if ts.ConsultantName == "" && ts.ConsultantID != "" {
		w, err := s.store.GetWorker(ctx, ts.ConsultantID)
		if err != nil {
			return nil, err
		}
		if w != nil {
			ts.ConsultantName = w.Name
		}
	}
	return s.Approvals.Submit(ctx, ts)
}

func (s *Service) Timesheet(ctx context.Context, id generic.TimesheetID) (*timesheet.Timesheet, error) {
	ts, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, generic.NewNotFoundError(generic.KindUnknownTimesheet, "timesheet %s not found", id)
	}
	return ts, nil
}

func (s *Service) MarkPending(ctx context.Context, id generic.TimesheetID) (*timesheet.Timesheet, error) {
	return s.Approvals.MarkPending(ctx, id)
}

func (s *Service) ApproveTimesheet(ctx context.Context, id generic.TimesheetID, actorID string) (*timesheet.Timesheet, error) {
	return s.Approvals.Approve(ctx, id, actorID)
}

func (s *Service) RejectTimesheet(ctx context.Context, id generic.TimesheetID, actorID, reason string) (*timesheet.Timesheet, error) {
	return s.Approvals.Reject(ctx, id, actorID, reason)
}

func (s *Service) BulkApprove(ctx context.Context, consultantID generic.WorkerID, client, actorID string) (timesheet.BulkResult, error) {
	return s.Approvals.BulkApprove(ctx, consultantID, client, actorID)
}

// Aggregate groups the timesheets matching filter.
func (s *Service) Aggregate(ctx context.Context, filter timesheet.Filter) ([]timesheet.ConsultantGroup, error) {
	sheets, err := s.store.ListByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.Aggregator.Group(sheets), nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *Service) AuditTrail(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	return s.store.Query(ctx, filter)
}

