/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates workers, contracts, policies and
	timesheets that demonstrate one part of the settlement flow.

AVAILABLE SCENARIOS:

	hourly-consultant:  John Doe at TechCorp, 85/h, three weeks awaiting review
	recruiter-hybrid:   Salary until June 2025, commission after; PTO + bonus
	contract-change:    Fixed salary superseded by an hourly contract

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create workers through the service
 3. Build contracts and policies from factory presets
 4. Submit timesheets and move them through review

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "recruiter-hybrid"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxx(ctx, svc, f)
 3. Register it in scenarioLoaders

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler context
  - factory/presets.go: Contract and policy JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/factory"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/timesheet"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "hourly-consultant",
		Name:        "Hourly Consultant",
		Description: "John Doe at TechCorp, 85/h, 126 hours across three weeks awaiting bulk approval",
	},
	{
		ID:          "recruiter-hybrid",
		Name:        "Recruiter Hybrid",
		Description: "Fixed salary until 2025-06-01 then 20% commission, capped PTO carry-forward, quarterly bonus",
	},
	{
		ID:          "contract-change",
		Name:        "Contract Change",
		Description: "Fixed salary contract superseded by an hourly contract mid-year",
	},
}

type scenarioLoader func(ctx context.Context, svc *settlement.Service, f *factory.ConfigFactory) error

var scenarioLoaders = map[string]scenarioLoader{
	"hourly-consultant": loadHourlyConsultant,
	"recruiter-hybrid":  loadRecruiterHybrid,
	"contract-change":   loadContractChange,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "Reset not supported by this store", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx, h.Service, h.Factory); err != nil {
		h.Logger.Error("scenario load failed", "scenario", req.ScenarioID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data. POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "Reset not supported by this store", nil)
		return
	}
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// SeedDemo loads every scenario into an empty store. Scenario IDs do not
// overlap, so they coexist.
func SeedDemo(ctx context.Context, svc *settlement.Service) error {
	f := factory.NewConfigFactory()
	for _, s := range scenarios {
		if err := scenarioLoaders[s.ID](ctx, svc, f); err != nil {
			return fmt.Errorf("seed %s: %w", s.ID, err)
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadHourlyConsultant(ctx context.Context, svc *settlement.Service, f *factory.ConfigFactory) error {
	if _, err := svc.RegisterWorker(ctx, compensation.Worker{
		ID:    "w-john",
		Name:  "John Doe",
		Email: "john.doe@example.com",
		Role:  compensation.RoleCandidate,
	}); err != nil {
		return err
	}

	contract, err := f.ParseContract(factory.HourlyContractJSON("w-john", 85, "2025-01-01"))
	if err != nil {
		return err
	}
	if _, err := svc.SaveContract(ctx, contract, "scenario"); err != nil {
		return err
	}

	// 45 + 43 + 38 = 126 hours, 10710 at 85/h
	weeks := []struct {
		id       string
		ending   string
		regular  float64
		overtime float64
	}{
		{"ts-john-1", "2025-05-02", 40, 5},
		{"ts-john-2", "2025-05-09", 40, 3},
		{"ts-john-3", "2025-05-16", 38, 0},
	}
	for _, wk := range weeks {
		if err := submitPending(ctx, svc, timesheet.Timesheet{
			ID:            generic.TimesheetID(wk.id),
			ConsultantID:  "w-john",
			Client:        "TechCorp",
			Project:       "Platform Migration",
			WeekEnding:    mustDate(wk.ending),
			RegularHours:  generic.Dec(wk.regular),
			OvertimeHours: generic.Dec(wk.overtime),
			BillRate:      generic.Dec(85),
		}); err != nil {
			return err
		}
	}
	return nil
}

func loadRecruiterHybrid(ctx context.Context, svc *settlement.Service, f *factory.ConfigFactory) error {
	if _, err := svc.RegisterWorker(ctx, compensation.Worker{
		ID:    "w-jane",
		Name:  "Jane Smith",
		Email: "jane.smith@example.com",
		Role:  compensation.RoleRecruiter,
	}); err != nil {
		return err
	}

	contract, err := f.ParseContract(factory.HybridContractJSON("w-jane", 5000, 85, 20, "2025-01-01", "2025-06-01"))
	if err != nil {
		return err
	}
	if _, err := svc.SaveContract(ctx, contract, "scenario"); err != nil {
		return err
	}

	policy, err := f.ParsePTOPolicy(factory.StandardPTOPolicyJSON("w-jane", 1.5, 5, "2025-01"))
	if err != nil {
		return err
	}
	if err := svc.SavePTOPolicy(ctx, policy); err != nil {
		return err
	}

	bonus, err := f.ParseBonusRule(factory.QuarterlyBonusJSON("w-jane", 1000, "2025-03"))
	if err != nil {
		return err
	}
	if err := svc.SaveBonusRule(ctx, bonus); err != nil {
		return err
	}

	if _, err := svc.AddHoliday(ctx, generic.Holiday{Date: mustDate("2025-05-26"), Name: "Memorial Day"}); err != nil {
		return err
	}
	for _, d := range []string{"2025-05-12", "2025-05-13", "2025-05-14"} {
		if err := svc.RecordPTOUsage(ctx, compensation.PTOUsage{WorkerID: "w-jane", Date: mustDate(d), Days: generic.Dec(1)}); err != nil {
			return err
		}
	}

	// Placement billed through Jane after the cutover, approved.
	ts := timesheet.Timesheet{
		ID:           "ts-jane-1",
		ConsultantID: "w-jane",
		Client:       "Acme Staffing",
		Project:      "Placements",
		WeekEnding:   mustDate("2025-06-06"),
		RegularHours: generic.Dec(40),
		BillRate:     generic.Dec(85),
	}
	if err := submitPending(ctx, svc, ts); err != nil {
		return err
	}
	_, err = svc.ApproveTimesheet(ctx, ts.ID, "admin")
	return err
}

func loadContractChange(ctx context.Context, svc *settlement.Service, f *factory.ConfigFactory) error {
	if _, err := svc.RegisterWorker(ctx, compensation.Worker{
		ID:   "w-alex",
		Name: "Alex Kim",
		Role: compensation.RoleCandidate,
	}); err != nil {
		return err
	}

	fixed, err := f.ParseContract(factory.FixedContractJSON("w-alex", 4200, "2025-01-01"))
	if err != nil {
		return err
	}
	if _, err := svc.SaveContract(ctx, fixed, "scenario"); err != nil {
		return err
	}

	hourly, err := f.ParseContract(factory.HourlyContractJSON("w-alex", 60, "2025-07-01"))
	if err != nil {
		return err
	}
	_, err = svc.SaveContract(ctx, hourly, "scenario")
	return err
}

// submitPending submits ts and queues it for review when the service did
// not already do so.
func submitPending(ctx context.Context, svc *settlement.Service, ts timesheet.Timesheet) error {
	saved, err := svc.SubmitTimesheet(ctx, ts)
	if err != nil {
		return err
	}
	if saved.Status == timesheet.StatusSubmitted {
		_, err = svc.MarkPending(ctx, saved.ID)
	}
	return err
}

func mustDate(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}
