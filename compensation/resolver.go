package compensation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// CONTRACT RESOLVER
// =============================================================================

// ContractResolver answers "which contract applies to this worker today".
type ContractResolver struct {
	Repo   ContractRepository
	Audit  generic.AuditLog
	Logger *slog.Logger
	Now    func() time.Time
}

func NewContractResolver(repo ContractRepository, audit generic.AuditLog, logger *slog.Logger) *ContractResolver {
	if audit == nil {
		audit = generic.NopAuditLog{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractResolver{Repo: repo, Audit: audit, Logger: logger, Now: time.Now}
}

// Resolve returns the active contract with StartDate <= asOf.
func (r *ContractResolver) Resolve(ctx context.Context, workerID generic.WorkerID, asOf generic.TimePoint) (*PayContract, error) {
	contract, err := r.Repo.GetActiveContract(ctx, workerID, asOf)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, generic.NewNotFoundError(generic.KindNoActiveContract,
			"no active contract for worker %s as of %s", workerID, asOf)
	}
	return contract, nil
}

// History lists every contract of the worker, newest StartDate first.
func (r *ContractResolver) History(ctx context.Context, workerID generic.WorkerID) ([]PayContract, error) {
	contracts, err := r.Repo.ListContracts(ctx, workerID)
	if err != nil {
		return nil, err
	}
	SortByStartDesc(contracts)
	return contracts, nil
}

// Activate validates and stores a new contract, superseding the active one.
func (r *ContractResolver) Activate(ctx context.Context, contract PayContract, actorID string) (PayContract, error) {
	if contract.ID == "" {
		contract.ID = generic.ContractID(uuid.NewString())
	}
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = r.Now().UTC()
	}
	if err := contract.Validate(); err != nil {
		return PayContract{}, err
	}

	saved, err := r.Repo.SaveContract(ctx, contract)
	if err != nil {
		return PayContract{}, fmt.Errorf("save contract %s: %w", contract.ID, err)
	}

	r.Logger.Info("contract saved",
		"contract_id", saved.ID,
		"worker_id", saved.WorkerID,
		"pay_model", saved.PayModel,
		"start_date", saved.StartDate.String(),
		"active", saved.Active)

	if saved.Active {
		r.audit(ctx, generic.AuditEntry{
			ActorID:   actorID,
			Action:    generic.AuditContractActivated,
			SubjectID: string(saved.ID),
			WorkerID:  saved.WorkerID,
			Payload:   map[string]any{"pay_model": string(saved.PayModel), "start_date": saved.StartDate.String()},
		})
		r.auditSuperseded(ctx, saved, actorID)
	}
	return saved, nil
}

func (r *ContractResolver) auditSuperseded(ctx context.Context, saved PayContract, actorID string) {
	contracts, err := r.Repo.ListContracts(ctx, saved.WorkerID)
	if err != nil {
		r.Logger.Warn("list contracts for audit failed", "worker_id", saved.WorkerID, "error", err)
		return
	}
	for _, c := range contracts {
		if c.SupersededBy != saved.ID {
			continue
		}
		r.Logger.Info("contract superseded", "contract_id", c.ID, "superseded_by", saved.ID)
		r.audit(ctx, generic.AuditEntry{
			ActorID:   actorID,
			Action:    generic.AuditContractSuperseded,
			SubjectID: string(c.ID),
			WorkerID:  c.WorkerID,
			Payload:   map[string]any{"superseded_by": string(saved.ID)},
		})
	}
}

func (r *ContractResolver) audit(ctx context.Context, entry generic.AuditEntry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = r.Now().UTC()
	if err := r.Audit.Append(ctx, entry); err != nil {
		r.Logger.Warn("audit append failed", "action", entry.Action, "subject", entry.SubjectID, "error", err)
	}
}

// SortByStartDesc orders contracts newest StartDate first, then newest CreatedAt.
func SortByStartDesc(contracts []PayContract) {
	sort.SliceStable(contracts, func(i, j int) bool {
		a, b := contracts[i], contracts[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// PickActive applies the resolution rule to an in-memory list: among active
// contracts with StartDate <= asOf, the latest StartDate wins.
func PickActive(contracts []PayContract, asOf generic.TimePoint) *PayContract {
	var best *PayContract
	for i := range contracts {
		c := contracts[i]
		if !c.Active || c.StartDate.After(asOf) {
			continue
		}
		if best == nil || c.StartDate.After(best.StartDate) {
			best = &c
		}
	}
	return best
}
