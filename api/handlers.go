/*
handlers.go - HTTP API handlers for the settlement engine

PURPOSE:
  Exposes the settlement service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to settlement.Service.

ENDPOINTS:
  Workers:
    GET    /api/workers                      List workers
    POST   /api/workers                      Create worker
    GET    /api/workers/{id}                 Get worker
    GET    /api/workers/{id}/contract?date=  Contract in force on date (default today)
    GET    /api/workers/{id}/contracts       Contract history, newest first
    POST   /api/workers/{id}/contracts       Save contract (supersedes the active one)
    PUT    /api/workers/{id}/pto-policy      Set PTO policy
    PUT    /api/workers/{id}/bonus-rule      Set bonus rule (recruiters)
    POST   /api/workers/{id}/pto-usage       Record PTO days
    GET    /api/workers/{id}/pay?month=      Settlement statement for YYYY-MM
    GET    /api/workers/{id}/audit           Audit trail

  Timesheets:
    POST   /api/timesheets                   Submit
    GET    /api/timesheets                   Consultant groups (filterable)
    GET    /api/timesheets/{id}              Get one
    POST   /api/timesheets/{id}/pending      submitted -> pending
    POST   /api/timesheets/{id}/approve      pending -> approved
    POST   /api/timesheets/{id}/reject       pending -> rejected
    POST   /api/timesheets/bulk-approve      Approve a consultant group

  Holidays:
    GET    /api/holidays
    POST   /api/holidays

ERROR HANDLING:
  Typed domain errors map to HTTP status:
  - 400: ValidationError, malformed input
  - 404: NotFoundError
  - 409: StateError, ConsistencyError
  - 500: anything else (logged)
  The body is {"error": <kind>, "details": <message>}.

ACTOR:
  Reviews take actor_id from the body. Contract and policy writes take it
  from the X-Actor-ID header and fall back to "api".

SECURITY NOTE:
  No authentication. Actor IDs are trusted as sent.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/warp/settlement-engine/compensation"
	"github.com/warp/settlement-engine/factory"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears all stored data. Used by the demo scenario endpoints.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *settlement.Service
	Factory *factory.ConfigFactory
	Store   Resetter
	Logger  *slog.Logger

	validate   *validator.Validate
	translator ut.Translator

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler. store may be nil, in which case the
// reset endpoint reports 501.
func NewHandler(svc *settlement.Service, store Resetter, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		Service:    svc,
		Factory:    factory.NewConfigFactory(),
		Store:      store,
		Logger:     logger,
		validate:   validate,
		translator: trans,
	}, nil
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Service.Workers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Service.Worker(r.Context(), workerIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	worker, err := h.Service.RegisterWorker(r.Context(), compensation.Worker{
		ID:    generic.WorkerID(req.ID),
		Name:  req.Name,
		Email: req.Email,
		Role:  compensation.Role(req.Role),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// GetContract resolves the contract in force. GET /api/workers/{id}/contract?date=YYYY-MM-DD
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	asOf := generic.Today()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := generic.ParseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		asOf = parsed
	}

	contract, err := h.Service.ResolveContract(r.Context(), workerIDParam(r), asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(*contract))
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Service.ContractHistory(r.Context(), workerIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTOs(contracts))
}

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var cj factory.ContractJSON
	if err := json.NewDecoder(r.Body).Decode(&cj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cj.WorkerID = string(workerIDParam(r))

	contract, err := h.Factory.ContractFromJSON(cj)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	saved, err := h.Service.SaveContract(r.Context(), contract, actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractDTO(saved))
}

// =============================================================================
// PTO & BONUS HANDLERS
// =============================================================================

func (h *Handler) PutPTOPolicy(w http.ResponseWriter, r *http.Request) {
	var pj factory.PTOPolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	pj.WorkerID = string(workerIDParam(r))

	policy, err := h.Factory.PTOPolicyFromJSON(pj)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.Service.SavePTOPolicy(r.Context(), policy); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pj)
}

func (h *Handler) PutBonusRule(w http.ResponseWriter, r *http.Request) {
	var bj factory.BonusRuleJSON
	if err := json.NewDecoder(r.Body).Decode(&bj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	bj.WorkerID = string(workerIDParam(r))

	rule, err := h.Factory.BonusRuleFromJSON(bj)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.Service.SaveBonusRule(r.Context(), rule); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bj)
}

func (h *Handler) RecordPTOUsage(w http.ResponseWriter, r *http.Request) {
	var req PTOUsageRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, _ := generic.ParseDate(req.Date)

	usage := compensation.PTOUsage{WorkerID: workerIDParam(r), Date: date, Days: req.Days}
	if err := h.Service.RecordPTOUsage(r.Context(), usage); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "recorded", "date": req.Date, "days": req.Days})
}

// =============================================================================
// PAY HANDLER
// =============================================================================

// GetPay returns the settlement statement. GET /api/workers/{id}/pay?month=YYYY-MM
func (h *Handler) GetPay(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	st, err := h.Service.Settle(r.Context(), workerIDParam(r), month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayDTO(st))
}

func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	workerID := workerIDParam(r)
	entries, err := h.Service.AuditTrail(r.Context(), generic.AuditFilter{WorkerID: &workerID})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	var req SubmitTimesheetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	weekEnding, _ := generic.ParseDate(req.WeekEnding)

	ts, err := h.Service.SubmitTimesheet(r.Context(), timesheet.Timesheet{
		ID:             generic.TimesheetID(req.ID),
		ConsultantID:   generic.WorkerID(req.ConsultantID),
		ConsultantName: req.Consultant,
		Client:         req.Client,
		Project:        req.Project,
		WeekEnding:     weekEnding,
		RegularHours:   req.RegularHours,
		OvertimeHours:  req.OvertimeHours,
		BillRate:       req.BillRate,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimesheetDTO(*ts))
}

// ListTimesheetGroups returns consultant groups.
// GET /api/timesheets?consultant_id=&client=&project=&status=pending,approved&from=&to=
func (h *Handler) ListTimesheetGroups(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	groups, err := h.Service.Aggregate(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]ConsultantGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": dtos})
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Service.Timesheet(r.Context(), timesheetIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(*ts))
}

func (h *Handler) MarkPending(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Service.MarkPending(r.Context(), timesheetIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(*ts))
}

func (h *Handler) ApproveTimesheet(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ts, err := h.Service.ApproveTimesheet(r.Context(), timesheetIDParam(r), req.ActorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(*ts))
}

func (h *Handler) RejectTimesheet(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ts, err := h.Service.RejectTimesheet(r.Context(), timesheetIDParam(r), req.ActorID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(*ts))
}

func (h *Handler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req BulkApproveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.Service.BulkApprove(r.Context(), generic.WorkerID(req.ConsultantID), req.Client, req.ActorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBulkResultDTO(result))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Service.Holidays(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, _ := generic.ParseDate(req.Date)

	holiday, err := h.Service.AddHoliday(r.Context(), generic.Holiday{Date: date, Name: req.Name, Recurring: req.Recurring})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "Internal server error", err)
		return
	}

	kind := string(generic.KindOf(err))
	if kind == "" {
		kind = http.StatusText(status)
	}
	writeError(w, status, kind, err)
}

// decodeAndValidate reads the JSON body into v and runs struct validation.
// It writes a 400 and returns false on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			messages := make([]string, len(verrs))
			for i, fe := range verrs {
				messages[i] = fe.Translate(h.translator)
			}
			writeError(w, http.StatusBadRequest, string(generic.KindMissingField), errors.New(strings.Join(messages, "; ")))
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func parseFilter(r *http.Request) (timesheet.Filter, error) {
	q := r.URL.Query()
	filter := timesheet.Filter{
		ConsultantID: generic.WorkerID(q.Get("consultant_id")),
		Client:       q.Get("client"),
		Project:      q.Get("project"),
	}
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := timesheet.ParseStatus(strings.TrimSpace(s))
			if err != nil {
				return timesheet.Filter{}, err
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	for name, dst := range map[string]*generic.TimePoint{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		tp, err := generic.ParseDate(raw)
		if err != nil {
			return timesheet.Filter{}, generic.NewValidationError(generic.KindInvalidValue, "%s must be YYYY-MM-DD", name)
		}
		*dst = tp
	}
	return filter, nil
}

func workerIDParam(r *http.Request) generic.WorkerID {
	return generic.WorkerID(chi.URLParam(r, "id"))
}

func timesheetIDParam(r *http.Request) generic.TimesheetID {
	return generic.TimesheetID(chi.URLParam(r, "id"))
}

func actorID(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get("X-Actor-ID")); a != "" {
		return a
	}
	return "api"
}
