package compensation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/generic/store"
)

// =============================================================================
// VALIDATION
// =============================================================================

func TestPayContract_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*compensation.PayContract)
		kind   generic.Kind
	}{
		{"valid hybrid", func(*compensation.PayContract) {}, ""},
		{"missing worker", func(c *compensation.PayContract) { c.WorkerID = "" }, generic.KindMissingField},
		{"unknown model", func(c *compensation.PayContract) { c.PayModel = "Piecework" }, generic.KindInvalidValue},
		{"bad currency", func(c *compensation.PayContract) { c.Currency = "dollars" }, generic.KindInvalidValue},
		{"missing cycle change", func(c *compensation.PayContract) { c.HybridCycleChangeDate = generic.TimePoint{} }, generic.KindMissingField},
		{"missing bill rate", func(c *compensation.PayContract) { c.BillRate = generic.Dec(0) }, generic.KindMissingField},
		{"share above 100", func(c *compensation.PayContract) { c.CommissionShare = generic.Dec(120) }, generic.KindInvalidValue},
		{"negative rate", func(c *compensation.PayContract) { c.BaseRate = generic.Dec(-1) }, generic.KindInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := hybridContract()
			tt.mutate(&c)
			err := c.Validate()
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, generic.ErrValidation)
			assert.Equal(t, tt.kind, generic.KindOf(err))
		})
	}
}

func TestPayContract_PercentageRequiresCommissionFields(t *testing.T) {
	c := compensation.PayContract{
		WorkerID: "w-1", PayModel: compensation.PayPercentage, Currency: "USD",
		StartDate: date(2025, time.January, 1),
	}
	assert.ErrorIs(t, c.Validate(), generic.ErrValidation)
}

// =============================================================================
// ACTIVATION PLANNING
// =============================================================================

func TestParsePayModel(t *testing.T) {
	m, err := compensation.ParsePayModel("Hybrid")
	require.NoError(t, err)
	assert.Equal(t, compensation.PayHybrid, m)

	_, err = compensation.ParsePayModel("Piecework")
	assert.ErrorIs(t, err, generic.ErrValidation)
	for _, known := range compensation.PayModels {
		assert.Contains(t, err.Error(), string(known), "the message lists accepted models")
	}
}

func TestPlanActivation_SupersedesPriorActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	prior := hourlyContract(80)
	prior.ID = "c-old"
	next := hourlyContract(90)
	next.ID = "c-new"
	next.StartDate = date(2025, time.June, 1)

	plan, err := compensation.PlanActivation([]compensation.PayContract{prior}, next, now)

	require.NoError(t, err)
	require.NotNil(t, plan.Deactivate)
	assert.Equal(t, generic.ContractID("c-old"), plan.Deactivate.ID)
	assert.False(t, plan.Deactivate.Active)
	assert.Equal(t, generic.ContractID("c-new"), plan.Deactivate.SupersededBy)
	assert.Equal(t, now, *plan.Deactivate.SupersededAt)
	assert.Equal(t, next, plan.Insert)
}

func TestPlanActivation_Rejections(t *testing.T) {
	now := time.Now()
	prior := hourlyContract(80)
	prior.ID = "c-old"
	prior.StartDate = date(2025, time.March, 1)

	t.Run("start before active contract", func(t *testing.T) {
		next := hourlyContract(90)
		next.ID = "c-new"
		next.StartDate = date(2025, time.February, 1)
		_, err := compensation.PlanActivation([]compensation.PayContract{prior}, next, now)
		assert.ErrorIs(t, err, generic.ErrConsistency)
		assert.Equal(t, generic.KindNonMonotonicStart, generic.KindOf(err))
	})

	t.Run("resaving an existing contract", func(t *testing.T) {
		_, err := compensation.PlanActivation([]compensation.PayContract{prior}, prior, now)
		assert.Equal(t, generic.KindSupersededReadOnly, generic.KindOf(err))
	})

	t.Run("two active contracts already stored", func(t *testing.T) {
		other := prior
		other.ID = "c-other"
		next := hourlyContract(90)
		next.ID = "c-new"
		next.StartDate = date(2025, time.June, 1)
		_, err := compensation.PlanActivation([]compensation.PayContract{prior, other}, next, now)
		assert.Equal(t, generic.KindOverlappingActive, generic.KindOf(err))
	})

	t.Run("inactive incoming is inserted as is", func(t *testing.T) {
		draft := hourlyContract(90)
		draft.ID = "c-draft"
		draft.Active = false
		draft.StartDate = date(2024, time.January, 1)
		plan, err := compensation.PlanActivation([]compensation.PayContract{prior}, draft, now)
		require.NoError(t, err)
		assert.Nil(t, plan.Deactivate)
	})
}

// =============================================================================
// RESOLVER
// =============================================================================

func TestContractResolver_ResolveAndHistory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	resolver := compensation.NewContractResolver(mem, mem, nil)

	// GIVEN: no contract
	_, err := resolver.Resolve(ctx, "w-1", date(2025, time.May, 1))
	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.Equal(t, generic.KindNoActiveContract, generic.KindOf(err))

	// WHEN: two contracts are activated in order
	first := hourlyContract(80)
	first.ID = "c-1"
	_, err = resolver.Activate(ctx, first, "admin-1")
	require.NoError(t, err)

	second := hourlyContract(90)
	second.ID = "c-2"
	second.StartDate = date(2025, time.July, 1)
	_, err = resolver.Activate(ctx, second, "admin-1")
	require.NoError(t, err)

	// THEN: only the newest is active, and only from its start date
	got, err := resolver.Resolve(ctx, "w-1", date(2025, time.August, 1))
	require.NoError(t, err)
	assert.Equal(t, generic.ContractID("c-2"), got.ID)

	_, err = resolver.Resolve(ctx, "w-1", date(2025, time.May, 1))
	assert.ErrorIs(t, err, generic.ErrNotFound, "superseded contracts never resolve")

	history, err := resolver.History(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, generic.ContractID("c-2"), history[0].ID)
	assert.False(t, history[1].Active)
	assert.Equal(t, generic.ContractID("c-2"), history[1].SupersededBy)

	// AND: both activations and the supersede are audited
	entries, err := mem.Query(ctx, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditContractSuperseded}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c-1", entries[0].SubjectID)
	assert.Equal(t, "admin-1", entries[0].ActorID)
}

func TestContractResolver_ActivateValidates(t *testing.T) {
	mem := store.NewMemory()
	resolver := compensation.NewContractResolver(mem, nil, nil)

	bad := hourlyContract(0)
	_, err := resolver.Activate(context.Background(), bad, "admin")
	assert.ErrorIs(t, err, generic.ErrValidation)

	contracts, err := mem.ListContracts(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestPickActive_LatestStartWins(t *testing.T) {
	a := hourlyContract(80)
	a.ID = "a"
	b := hourlyContract(90)
	b.ID = "b"
	b.StartDate = date(2025, time.March, 1)

	got := compensation.PickActive([]compensation.PayContract{a, b}, date(2025, time.April, 1))
	require.NotNil(t, got)
	assert.Equal(t, generic.ContractID("b"), got.ID)

	assert.Nil(t, compensation.PickActive([]compensation.PayContract{b}, date(2025, time.February, 1)))
}
