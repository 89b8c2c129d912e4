/*
handlers.go - HTTP API handlers for the withholding engine

PURPOSE:
  Exposes the calculator and the calculation journal via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the payg
  package for every amount.

ENDPOINTS:
  Calculations:
    POST   /api/calculations                    Calculate and journal
    POST   /api/calculations/preview            Calculate only
    POST   /api/calculations/batch              Payroll run
    GET    /api/calculations?limit=             Recent calculations
    GET    /api/calculations/{id}               One calculation
    GET    /api/workers/{ref}/calculations      Fiscal year history

  Scales:
    GET    /api/scales                          Registered scales
    GET    /api/scales/{id}/tables              Published coefficient versions

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/{id}/run              Run a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:   Journal persistence
  - Journal: Stamps IDs and resolves idempotent retries
  - Catalog: Scales, calculator and adjustment factory

IDEMPOTENCY:
  POST /api/calculations honours an Idempotency-Key header. A replayed key
  returns the original record with 200 instead of 201 and sets
  Idempotent-Replayed: true. Batches derive one key per item.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record or scale not found
  - 409: Idempotency conflict
  - 422: Rule data or partition defect for this input
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/internal/logging"
	"github.com/manageitwa/payg-tax/payg"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"

	defaultListLimit = 50
	maxListLimit     = 500
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   generic.ResettableStore
	Journal *generic.Journal
	Catalog *factory.Catalog

	// BatchWorkers bounds concurrent calculations in one batch.
	BatchWorkers int
	// MaxBatchItems rejects larger batches with 400.
	MaxBatchItems int

	log *zap.Logger
}

// NewHandler creates a new handler over store and catalog.
func NewHandler(store generic.ResettableStore, catalog *factory.Catalog) *Handler {
	return &Handler{
		Store:         store,
		Journal:       generic.NewJournal(store),
		Catalog:       catalog,
		BatchWorkers:  8,
		MaxBatchItems: 5000,
		log:           logging.Component("api"),
	}
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// CreateCalculation calculates the withheld amount and journals it.
func (h *Handler) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerRef == "" {
		writeError(w, http.StatusBadRequest, "worker_ref is required", nil)
		return
	}

	payer, payee, pay, err := req.toDomain(h.Catalog.Adjustments())
	if err != nil {
		writeDomainError(w, "Invalid calculation input", err)
		return
	}

	res, err := h.Catalog.Calculator().Calculate(payer, payee, pay)
	if err != nil {
		h.logFailure(req.WorkerRef, err)
		writeDomainError(w, "Calculation failed", err)
		return
	}

	key := r.Header.Get(headerIdempotencyKey)
	rec, replayed, err := h.Journal.Record(r.Context(), toRecord(req, payee, pay, res, key))
	if err != nil {
		writeDomainError(w, "Failed to record calculation", err)
		return
	}

	if replayed {
		h.log.Info("idempotent replay",
			zap.String("calculation_id", string(rec.ID)),
			zap.String("idempotency_key", key))
		w.Header().Set(headerReplayed, "true")
		writeJSON(w, http.StatusOK, toCalculationDTO(rec))
		return
	}

	h.log.Info("calculation recorded",
		zap.String("calculation_id", string(rec.ID)),
		zap.String("worker_ref", req.WorkerRef),
		zap.String("scale", string(res.Scale)),
		zap.String("withheld", res.Withheld.String()))
	writeJSON(w, http.StatusCreated, toCalculationDTO(rec))
}

// PreviewCalculation calculates without journaling.
func (h *Handler) PreviewCalculation(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payer, payee, pay, err := req.toDomain(h.Catalog.Adjustments())
	if err != nil {
		writeDomainError(w, "Invalid calculation input", err)
		return
	}

	res, err := h.Catalog.Calculator().Calculate(payer, payee, pay)
	if err != nil {
		h.logFailure(req.WorkerRef, err)
		writeDomainError(w, "Calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RunBatch calculates a payroll run. One item failing never fails the run.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items must not be empty", nil)
		return
	}
	if len(req.Items) > h.MaxBatchItems {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("batch exceeds %d items", h.MaxBatchItems), nil)
		return
	}

	resp := BatchResponse{Results: make([]BatchItemDTO, len(req.Items))}

	// Items that fail to parse are reported without being calculated.
	type parsed struct {
		payee payg.Payee
		pay   payg.Earning
	}
	inputs := make(map[int]parsed, len(req.Items))
	var items []payg.BatchItem
	var positions []int
	for i, item := range req.Items {
		resp.Results[i].WorkerRef = item.WorkerRef
		payer, payee, pay, err := item.toDomain(h.Catalog.Adjustments())
		if err != nil {
			resp.Results[i].Error = err.Error()
			continue
		}
		inputs[i] = parsed{payee: payee, pay: pay}
		items = append(items, payg.BatchItem{
			Ref:      generic.WorkerRef(item.WorkerRef),
			Employer: payer,
			Worker:   payee,
			Payment:  pay,
		})
		positions = append(positions, i)
	}

	results, err := payg.RunBatch(r.Context(), h.Catalog.Calculator(), items, h.BatchWorkers)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Batch cancelled", err)
		return
	}

	key := r.Header.Get(headerIdempotencyKey)
	total := decimal.Zero
	for j, br := range results {
		i := positions[j]
		if br.Err != nil {
			h.logFailure(req.Items[i].WorkerRef, br.Err)
			resp.Results[i].Error = br.Err.Error()
			continue
		}
		res := br.Result
		resp.Results[i].Result = &res
		total = total.Add(res.Withheld)

		if !req.Record {
			continue
		}
		itemKey := ""
		if key != "" {
			itemKey = fmt.Sprintf("%s/%d", key, i)
		}
		in := inputs[i]
		rec, _, err := h.Journal.Record(r.Context(), toRecord(req.Items[i], in.payee, in.pay, res, itemKey))
		if err != nil {
			resp.Results[i].Error = err.Error()
			continue
		}
		resp.Results[i].CalculationID = string(rec.ID)
	}

	for _, item := range resp.Results {
		if item.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	resp.Withheld = total

	h.log.Info("batch processed",
		zap.Int("items", len(req.Items)),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
		zap.Bool("recorded", req.Record))
	writeJSON(w, http.StatusOK, resp)
}

// GetCalculation returns one journaled calculation.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	id := generic.CalculationID(chi.URLParam(r, "id"))

	rec, err := h.Journal.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Calculation not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(rec))
}

// ListCalculations returns recent calculations, newest first.
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = min(n, maxListLimit)
	}

	recs, err := h.Journal.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTOs(recs))
}

// WorkerHistory returns a worker's calculations in one fiscal year. The
// year is named by its ending year: fiscal_year=2025 is July 2024 to June
// 2025. Defaults to the current fiscal year. No totals are computed.
func (h *Handler) WorkerHistory(w http.ResponseWriter, r *http.Request) {
	ref := generic.WorkerRef(chi.URLParam(r, "ref"))

	period := generic.AustralianFiscalYear.PeriodFor(generic.Today())
	if s := r.URL.Query().Get("fiscal_year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 2000 || year > 2100 {
			writeError(w, http.StatusBadRequest, "fiscal_year must be a year such as 2025", err)
			return
		}
		period = generic.AustralianFiscalYear.FiscalYear(year)
	}

	recs, err := h.Journal.History(r.Context(), ref, period)
	if err != nil {
		writeDomainError(w, "Failed to load history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"worker_ref":   ref,
		"period_start": period.Start.String(),
		"period_end":   period.End.String(),
		"calculations": toCalculationDTOs(recs),
	})
}

// =============================================================================
// SCALE HANDLERS
// =============================================================================

// ListScales returns every registered scale in classification order.
func (h *Handler) ListScales(w http.ResponseWriter, r *http.Request) {
	scales := h.Catalog.Scales()
	dtos := make([]ScaleDTO, len(scales))
	for i, s := range scales {
		dtos[i] = toScaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetScaleTables returns the published coefficient versions of one scale.
func (h *Handler) GetScaleTables(w http.ResponseWriter, r *http.Request) {
	id := payg.ScaleID(chi.URLParam(r, "id"))

	scale, ok := h.Catalog.Scale(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Scale not found", fmt.Errorf("unknown scale %q", id))
		return
	}
	writeJSON(w, http.StatusOK, toScaleTablesDTO(scale))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears the journal. Development only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.log.Warn("journal reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health reports liveness and the number of registered scales.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"scales": len(h.Catalog.Scales()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

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

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return http.StatusConflict
	case generic.IsConfigurationDefect(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) logFailure(worker string, err error) {
	if generic.IsConfigurationDefect(err) {
		h.log.Error("calculation defect", zap.String("worker_ref", worker), zap.Error(err))
		return
	}
	h.log.Debug("calculation rejected", zap.String("worker_ref", worker), zap.Error(err))
}
