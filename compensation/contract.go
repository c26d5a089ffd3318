/*
contract.go - Contract validation, activation planning and repositories

PURPOSE:
  Validates a PayContract against the requirements of its pay model and
  decides what an activation does to the worker's existing contracts.
  Repositories call PlanActivation inside their own atomic unit so the
  "at most one active contract" rule is written once and enforced by every
  store.

ACTIVATION RULES:
  1. New active contract deactivates the prior active one.
  2. New StartDate must be >= the prior active StartDate.
  3. A superseded contract is read-only: re-saving it is rejected.
  4. Two active contracts already present is reported, not repaired.

SEE ALSO:
  - resolver.go: ContractResolver built on ContractRepository
  - store/sqlite/contracts.go, generic/store/memory.go: implementations
*/
package compensation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// REPOSITORIES
// =============================================================================

// ContractRepository persists contracts. SaveContract must deactivate the
// previous active contract and insert the new one as a single atomic unit
// with respect to GetActiveContract.
type ContractRepository interface {
	GetActiveContract(ctx context.Context, workerID generic.WorkerID, asOf generic.TimePoint) (*PayContract, error)
	ListContracts(ctx context.Context, workerID generic.WorkerID) ([]PayContract, error)
	SaveContract(ctx context.Context, contract PayContract) (PayContract, error)
}

type WorkerRepository interface {
	GetWorker(ctx context.Context, id generic.WorkerID) (*Worker, error)
	SaveWorker(ctx context.Context, worker Worker) error
	ListWorkers(ctx context.Context) ([]Worker, error)
}

// PolicyRepository holds PTO policies, bonus rules and PTO usage.
// GetPTOPolicy and GetBonusRule return (nil, nil) when nothing is configured.
type PolicyRepository interface {
	GetPTOPolicy(ctx context.Context, workerID generic.WorkerID) (*PTOPolicy, error)
	SavePTOPolicy(ctx context.Context, policy PTOPolicy) error
	GetBonusRule(ctx context.Context, workerID generic.WorkerID) (*BonusRule, error)
	SaveBonusRule(ctx context.Context, rule BonusRule) error
	ListPTOUsage(ctx context.Context, workerID generic.WorkerID, from, to generic.TimePoint) ([]PTOUsage, error)
	RecordPTOUsage(ctx context.Context, usage PTOUsage) error
}

// =============================================================================
// VALIDATION
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Validate checks the fields the contract's pay model depends on.
func (c PayContract) Validate() error {
	if c.WorkerID == "" {
		return generic.NewValidationError(generic.KindMissingField, "workerId is required")
	}
	if !c.PayModel.Valid() {
		return generic.NewValidationError(generic.KindInvalidValue, "unknown pay model %q", c.PayModel)
	}
	if !c.Currency.Valid() {
		return generic.NewValidationError(generic.KindInvalidValue, "currency %q must be a three letter code", c.Currency)
	}
	if c.StartDate.IsZero() {
		return generic.NewValidationError(generic.KindMissingField, "startDate is required")
	}
	if c.BaseRate.IsNegative() || c.BillRate.IsNegative() || c.CommissionShare.IsNegative() {
		return generic.NewValidationError(generic.KindInvalidValue, "rates must not be negative")
	}

	switch c.PayModel {
	case PayFixed:
		return c.requireBaseRate()
	case PayHourly:
		return c.requireBaseRate()
	case PayPercentage:
		return c.requireCommission()
	case PayHybrid:
		if err := c.requireBaseRate(); err != nil {
			return err
		}
		if err := c.requireCommission(); err != nil {
			return err
		}
		if c.HybridCycleChangeDate.IsZero() {
			return generic.NewValidationError(generic.KindMissingField, "Hybrid contract requires hybridCycleChangeDate")
		}
	}
	return nil
}

func (c PayContract) requireBaseRate() error {
	if !c.BaseRate.IsPositive() {
		return generic.NewValidationError(generic.KindMissingField, "%s contract requires a positive baseRate", c.PayModel)
	}
	return nil
}

func (c PayContract) requireCommission() error {
	if !c.BillRate.IsPositive() {
		return generic.NewValidationError(generic.KindMissingField, "%s contract requires a positive billRate", c.PayModel)
	}
	if !c.CommissionShare.IsPositive() || c.CommissionShare.GreaterThan(hundred) {
		return generic.NewValidationError(generic.KindInvalidValue,
			"%s contract requires commissionShare in (0, 100], got %s", c.PayModel, c.CommissionShare)
	}
	return nil
}

// =============================================================================
// ACTIVATION PLANNING
// =============================================================================

// Activation is what a store must apply atomically.
type Activation struct {
	Insert     PayContract
	Deactivate *PayContract // prior active contract, already marked superseded
}

// PlanActivation checks incoming against the worker's existing contracts.
func PlanActivation(existing []PayContract, incoming PayContract, now time.Time) (Activation, error) {
	var prior *PayContract
	for i := range existing {
		c := existing[i]
		if c.ID == incoming.ID {
			return Activation{}, generic.NewConsistencyError(generic.KindSupersededReadOnly,
				"contract %s already exists and is read-only", c.ID)
		}
		if !c.Active {
			continue
		}
		if prior != nil {
			return Activation{}, generic.NewConsistencyError(generic.KindOverlappingActive,
				"worker %s has two active contracts (%s, %s)", incoming.WorkerID, prior.ID, c.ID)
		}
		prior = &c
	}

	plan := Activation{Insert: incoming}
	if !incoming.Active || prior == nil {
		return plan, nil
	}
	if incoming.StartDate.Before(prior.StartDate) {
		return Activation{}, generic.NewConsistencyError(generic.KindNonMonotonicStart,
			"new contract starts %s, before active contract %s starting %s",
			incoming.StartDate, prior.ID, prior.StartDate)
	}

	superseded := *prior
	superseded.Active = false
	superseded.SupersededAt = &now
	superseded.SupersededBy = incoming.ID
	plan.Deactivate = &superseded
	return plan, nil
}
