/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Calculate and record, idempotent replay
- Preview without journaling
- Batch runs with per-item failures
- Error status mapping
- Journal reads and fiscal year history
- Scale introspection
*/
package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/store/sqlite"
)

func setupTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog, err := factory.NewDefaultCatalog()
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	h := NewHandler(store, catalog)
	return h, NewRouter(h, RouterOptions{Quiet: true})
}

func do(t *testing.T, srv http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func residentRequest(ref, payDate, gross string) CalculationRequest {
	return CalculationRequest{
		WorkerRef: ref,
		Worker: WorkerDTO{
			Residency: "resident",
			HasTFN:    true,
			PayCycle:  "weekly",
		},
		Payment: PaymentDTO{PayDate: payDate, Gross: decimal.RequireFromString(gross)},
	}
}

func mustEqualDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !decimal.RequireFromString(want).Equal(got) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

// =============================================================================
// CALCULATIONS
// =============================================================================

func TestCreateCalculation_RecordsResult(t *testing.T) {
	// GIVEN: a weekly resident without the threshold claim
	_, srv := setupTestServer(t)

	// WHEN: posting a calculation
	rec := do(t, srv, http.MethodPost, "/api/calculations", residentRequest("emp-1", "2024-10-15", "931"))

	// THEN: it is calculated under scale 1 and journaled
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[CalculationDTO](t, rec)
	if got.ID == "" {
		t.Error("Expected a calculation ID")
	}
	if got.Scale != "nat1004.scale1" {
		t.Errorf("Expected nat1004.scale1, got %s", got.Scale)
	}
	mustEqualDecimal(t, "233", got.Withheld)

	fetched := do(t, srv, http.MethodGet, "/api/calculations/"+got.ID, nil)
	if fetched.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", fetched.Code)
	}
	if decode[CalculationDTO](t, fetched).PayDate != "2024-10-15" {
		t.Error("Expected pay date to round-trip")
	}
}

func TestCreateCalculation_WithAdjustments(t *testing.T) {
	_, srv := setupTestServer(t)
	req := residentRequest("emp-1", "2024-10-10", "625")
	req.Worker.ClaimsThreshold = true
	req.Worker.Adjustments = []factory.AdjustmentJSON{{Type: "medicare_levy_reduction", Spouse: true}}

	rec := do(t, srv, http.MethodPost, "/api/calculations", req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[CalculationDTO](t, rec)
	if len(got.Adjustments) != 1 || got.Adjustments[0].Kind != "medicare_levy_reduction" {
		t.Fatalf("Expected one levy line, got %+v", got.Adjustments)
	}
	mustEqualDecimal(t, "55", got.Base)
	mustEqualDecimal(t, "-13", got.Adjustments[0].Amount)
	mustEqualDecimal(t, "42", got.Withheld)
}

func TestCreateCalculation_IdempotentReplay(t *testing.T) {
	// GIVEN: a calculation recorded under an idempotency key
	_, srv := setupTestServer(t)
	body := residentRequest("emp-1", "2024-10-15", "931")
	first := do(t, srv, http.MethodPost, "/api/calculations", body, "Idempotency-Key", "run-7/emp-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", first.Code)
	}

	// WHEN: the client retries with the same key
	second := do(t, srv, http.MethodPost, "/api/calculations", body, "Idempotency-Key", "run-7/emp-1")

	// THEN: the original record comes back with 200
	if second.Code != http.StatusOK {
		t.Fatalf("Expected 200 on replay, got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("Expected replay header")
	}
	if decode[CalculationDTO](t, first).ID != decode[CalculationDTO](t, second).ID {
		t.Error("Expected the same calculation ID")
	}

	list := decode[[]CalculationDTO](t, do(t, srv, http.MethodGet, "/api/calculations", nil))
	if len(list) != 1 {
		t.Errorf("Expected 1 journaled calculation, got %d", len(list))
	}
}

func TestCreateCalculation_Errors(t *testing.T) {
	_, srv := setupTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"malformed json", `{"worker_ref":`, http.StatusBadRequest},
		{"unknown field", `{"worker_ref":"x","salary":1}`, http.StatusBadRequest},
		{"missing worker ref", residentRequest("", "2024-10-15", "100"), http.StatusBadRequest},
		{"bad pay cycle", func() CalculationRequest {
			r := residentRequest("x", "2024-10-15", "100")
			r.Worker.PayCycle = "yearly"
			return r
		}(), http.StatusBadRequest},
		{"bad date", residentRequest("x", "15/10/2024", "100"), http.StatusBadRequest},
		{"negative gross", residentRequest("x", "2024-10-15", "-1"), http.StatusBadRequest},
		{"unknown adjustment", func() CalculationRequest {
			r := residentRequest("x", "2024-10-15", "100")
			r.Worker.Adjustments = []factory.AdjustmentJSON{{Type: "bonus"}}
			return r
		}(), http.StatusBadRequest},
		{"before first table", residentRequest("x", "2019-07-01", "100"), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/calculations", tt.body)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if decode[ErrorResponse](t, rec).Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestPreviewCalculation_DoesNotRecord(t *testing.T) {
	_, srv := setupTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/calculations/preview", residentRequest("emp-1", "2024-10-15", "931"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var res struct {
		Scale    string          `json:"scale"`
		Variant  string          `json:"variant"`
		Withheld decimal.Decimal `json:"withheld"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Scale != "nat1004.scale1" || res.Variant != "scale1" {
		t.Errorf("Unexpected scale %s/%s", res.Scale, res.Variant)
	}
	mustEqualDecimal(t, "233", res.Withheld)

	list := decode[[]CalculationDTO](t, do(t, srv, http.MethodGet, "/api/calculations", nil))
	if len(list) != 0 {
		t.Errorf("Expected nothing journaled, got %d", len(list))
	}
}

// =============================================================================
// BATCH
// =============================================================================

func TestRunBatch_PerItemFailures(t *testing.T) {
	// GIVEN: a run with two good items and two bad ones
	_, srv := setupTestServer(t)
	bad := residentRequest("emp-bad", "2024-10-15", "100")
	bad.Worker.Residency = "martian"
	early := residentRequest("emp-early", "2019-01-01", "100")

	body := BatchRequest{
		Items: []CalculationRequest{
			residentRequest("emp-1", "2024-10-15", "931"),
			bad,
			early,
			residentRequest("emp-2", "2021-03-01", "0"),
		},
		Record: true,
	}

	// WHEN: the batch runs
	rec := do(t, srv, http.MethodPost, "/api/calculations/batch", body, "Idempotency-Key", "run-1")

	// THEN: failures are reported per item and the rest are journaled
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[BatchResponse](t, rec)
	if resp.Succeeded != 2 || resp.Failed != 2 {
		t.Fatalf("Expected 2/2, got %d/%d", resp.Succeeded, resp.Failed)
	}
	if resp.Results[0].WorkerRef != "emp-1" || resp.Results[0].CalculationID == "" {
		t.Errorf("Expected emp-1 first and recorded, got %+v", resp.Results[0])
	}
	if resp.Results[1].Error == "" || resp.Results[2].Error == "" {
		t.Error("Expected errors on items 1 and 2")
	}
	mustEqualDecimal(t, "233", resp.Withheld)

	// Replaying the run does not double-journal
	do(t, srv, http.MethodPost, "/api/calculations/batch", body, "Idempotency-Key", "run-1")
	list := decode[[]CalculationDTO](t, do(t, srv, http.MethodGet, "/api/calculations?limit=100", nil))
	if len(list) != 2 {
		t.Errorf("Expected 2 journaled calculations, got %d", len(list))
	}
}

func TestRunBatch_Limits(t *testing.T) {
	h, srv := setupTestServer(t)
	h.MaxBatchItems = 1

	empty := do(t, srv, http.MethodPost, "/api/calculations/batch", BatchRequest{})
	if empty.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty batch, got %d", empty.Code)
	}

	tooMany := do(t, srv, http.MethodPost, "/api/calculations/batch", BatchRequest{Items: []CalculationRequest{
		residentRequest("a", "2024-10-15", "1"),
		residentRequest("b", "2024-10-15", "1"),
	}})
	if tooMany.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized batch, got %d", tooMany.Code)
	}
}

// =============================================================================
// JOURNAL READS
// =============================================================================

func TestGetCalculation_NotFound(t *testing.T) {
	_, srv := setupTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/calculations/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestListCalculations_BadLimit(t *testing.T) {
	_, srv := setupTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/calculations?limit=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestWorkerHistory_FiscalYear(t *testing.T) {
	// GIVEN: calculations on both sides of 1 July 2024
	_, srv := setupTestServer(t)
	for _, payDate := range []string{"2024-06-28", "2024-07-05", "2024-10-15", "2025-07-04"} {
		rec := do(t, srv, http.MethodPost, "/api/calculations", residentRequest("emp-1", payDate, "931"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	// WHEN: asking for fiscal year 2025
	rec := do(t, srv, http.MethodGet, "/api/workers/emp-1/calculations?fiscal_year=2025", nil)

	// THEN: only July 2024 to June 2025 comes back, in pay date order
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		PeriodStart  string           `json:"period_start"`
		PeriodEnd    string           `json:"period_end"`
		Calculations []CalculationDTO `json:"calculations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PeriodStart != "2024-07-01" || body.PeriodEnd != "2025-06-30" {
		t.Errorf("Unexpected period %s..%s", body.PeriodStart, body.PeriodEnd)
	}
	if len(body.Calculations) != 2 {
		t.Fatalf("Expected 2 calculations, got %d", len(body.Calculations))
	}
	if body.Calculations[0].PayDate != "2024-07-05" || body.Calculations[1].PayDate != "2024-10-15" {
		t.Errorf("Unexpected order: %s, %s", body.Calculations[0].PayDate, body.Calculations[1].PayDate)
	}

	bad := do(t, srv, http.MethodGet, "/api/workers/emp-1/calculations?fiscal_year=last", nil)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", bad.Code)
	}
}

func TestResetDatabase(t *testing.T) {
	_, srv := setupTestServer(t)
	do(t, srv, http.MethodPost, "/api/calculations", residentRequest("emp-1", "2024-10-15", "931"))

	if rec := do(t, srv, http.MethodPost, "/api/reset", nil); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	list := decode[[]CalculationDTO](t, do(t, srv, http.MethodGet, "/api/calculations", nil))
	if len(list) != 0 {
		t.Errorf("Expected empty journal, got %d", len(list))
	}
}

// =============================================================================
// SCALES
// =============================================================================

func TestListScales(t *testing.T) {
	h, srv := setupTestServer(t)

	scales := decode[[]ScaleDTO](t, do(t, srv, http.MethodGet, "/api/scales", nil))
	if len(scales) != len(h.Catalog.Scales()) {
		t.Fatalf("Expected %d scales, got %d", len(h.Catalog.Scales()), len(scales))
	}
	if scales[0].ID != "nat1004.scale4" || scales[0].Kind != "flat" {
		t.Errorf("Expected the no-TFN scale first, got %+v", scales[0])
	}
	if scales[1].ID != "nat75331" || scales[1].Kind != "tiers" {
		t.Errorf("Expected the holiday maker scale second, got %+v", scales[1])
	}
}

func TestGetScaleTables(t *testing.T) {
	_, srv := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/scales/nat1004.scale2/tables", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	tables := decode[ScaleTablesDTO](t, rec)
	if tables.Scale.Kind != "brackets" {
		t.Errorf("Expected brackets, got %s", tables.Scale.Kind)
	}
	if len(tables.Versions) < 2 {
		t.Fatalf("Expected at least two published versions, got %d", len(tables.Versions))
	}
	if tables.Versions[0].Effective != "2020-10-13" {
		t.Errorf("Expected first version 2020-10-13, got %s", tables.Versions[0].Effective)
	}

	whm := decode[ScaleTablesDTO](t, do(t, srv, http.MethodGet, "/api/scales/nat75331/tables", nil))
	if len(whm.Versions) == 0 || whm.Versions[0].Tiers == nil {
		t.Error("Expected tier versions for nat75331")
	}

	missing := do(t, srv, http.MethodGet, "/api/scales/nat9999/tables", nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", missing.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{generic.ErrInvalidInput, http.StatusBadRequest},
		{generic.ErrRecordNotFound, http.StatusNotFound},
		{generic.ErrDuplicateIdempotencyKey, http.StatusConflict},
		{&generic.AmbiguousScaleError{}, http.StatusUnprocessableEntity},
		{generic.ErrMalformedBrackets, http.StatusUnprocessableEntity},
		{http.ErrBodyNotAllowed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
