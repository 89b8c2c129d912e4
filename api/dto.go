/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calculation model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Calculation:
    CalculationRequest, EmployerDTO, WorkerDTO, PaymentDTO, CalculationDTO

  Batch:
    BatchRequest, BatchItemDTO, BatchResponse

  Scales:
    ScaleDTO, ScaleTablesDTO, TableVersionDTO

  Scenarios:
    ScenarioDTO, ScenarioRunDTO

MONEY:
  Amounts are decimal.Decimal. Requests accept either a JSON number or a
  quoted string; responses always carry quoted strings.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/adjustments.go: AdjustmentJSON declarations
*/
package api

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// =============================================================================
// CALCULATION REQUEST
// =============================================================================

// EmployerDTO describes the payer.
type EmployerDTO struct {
	RegisteredForSpecialRate bool `json:"registered_for_special_rate"`
}

// WorkerDTO describes the payee's declarations.
type WorkerDTO struct {
	Residency       string                   `json:"residency"`
	HasTFN          bool                     `json:"has_tfn"`
	PayCycle        string                   `json:"pay_cycle"`
	ClaimsThreshold bool                     `json:"claims_threshold"`
	LevyExemption   string                   `json:"levy_exemption,omitempty"`
	SeniorsOffset   string                   `json:"seniors_offset,omitempty"`
	StudyLoan       bool                     `json:"study_loan"`
	YTDGross        decimal.Decimal          `json:"ytd_gross"`
	Adjustments     []factory.AdjustmentJSON `json:"adjustments,omitempty"`
}

// PaymentDTO is one pay event.
type PaymentDTO struct {
	PayDate string          `json:"pay_date"`
	Gross   decimal.Decimal `json:"gross"`
}

// CalculationRequest is the body of POST /api/calculations.
type CalculationRequest struct {
	WorkerRef string            `json:"worker_ref"`
	Employer  EmployerDTO       `json:"employer"`
	Worker    WorkerDTO         `json:"worker"`
	Payment   PaymentDTO        `json:"payment"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// toDomain parses enums and dates and builds the worker's adjustments.
func (req CalculationRequest) toDomain(adj *factory.AdjustmentFactory) (payg.Payer, payg.Payee, payg.Earning, error) {
	payer := payg.Payer{RegisteredForSpecialRate: req.Employer.RegisteredForSpecialRate}

	residency, err := payg.ParseResidency(req.Worker.Residency)
	if err != nil {
		return payer, payg.Payee{}, payg.Earning{}, err
	}
	cycle, err := payg.ParsePayCycle(req.Worker.PayCycle)
	if err != nil {
		return payer, payg.Payee{}, payg.Earning{}, err
	}
	exemption := payg.ExemptionNone
	if req.Worker.LevyExemption != "" {
		if exemption, err = payg.ParseLevyExemption(req.Worker.LevyExemption); err != nil {
			return payer, payg.Payee{}, payg.Earning{}, err
		}
	}
	seniors := payg.SeniorsNone
	if req.Worker.SeniorsOffset != "" {
		if seniors, err = payg.ParseSeniorsOffset(req.Worker.SeniorsOffset); err != nil {
			return payer, payg.Payee{}, payg.Earning{}, err
		}
	}
	declared, err := adj.NewAdjustments(req.Worker.Adjustments)
	if err != nil {
		return payer, payg.Payee{}, payg.Earning{}, err
	}
	payDate, err := generic.ParseDate(req.Payment.PayDate)
	if err != nil {
		return payer, payg.Payee{}, payg.Earning{}, fmt.Errorf("pay_date: %w", err)
	}

	payee := payg.Payee{
		Residency:       residency,
		HasTFN:          req.Worker.HasTFN,
		Cycle:           cycle,
		ClaimsThreshold: req.Worker.ClaimsThreshold,
		Exemption:       exemption,
		Seniors:         seniors,
		StudyLoan:       req.Worker.StudyLoan,
		YTDGross:        req.Worker.YTDGross,
		Adjustments:     declared,
	}
	return payer, payee, payg.Earning{Date: payDate, Gross: req.Payment.Gross}, nil
}

// =============================================================================
// CALCULATION RESPONSE
// =============================================================================

// LineDTO is one adjustment applied on top of the scale amount.
type LineDTO struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// CalculationDTO is a journaled calculation.
type CalculationDTO struct {
	ID             string            `json:"id"`
	WorkerRef      string            `json:"worker_ref"`
	PayDate        string            `json:"pay_date"`
	PayCycle       string            `json:"pay_cycle"`
	Gross          decimal.Decimal   `json:"gross"`
	Scale          string            `json:"scale"`
	Base           decimal.Decimal   `json:"base"`
	Adjustments    []LineDTO         `json:"adjustments"`
	Withheld       decimal.Decimal   `json:"withheld"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

func toCalculationDTO(rec generic.Record) CalculationDTO {
	return CalculationDTO{
		ID:        string(rec.ID),
		WorkerRef: string(rec.WorkerRef),
		PayDate:   rec.PayDate.String(),
		PayCycle:  rec.PayCycle,
		Gross:     rec.Gross,
		Scale:     rec.Scale,
		Base:      rec.Base,
		Adjustments: lo.Map(rec.Lines, func(l generic.RecordLine, _ int) LineDTO {
			return LineDTO{Kind: l.Kind, Amount: l.Amount}
		}),
		Withheld:       rec.Withheld,
		IdempotencyKey: rec.IdempotencyKey,
		Metadata:       rec.Metadata,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
}

func toCalculationDTOs(recs []generic.Record) []CalculationDTO {
	return lo.Map(recs, func(rec generic.Record, _ int) CalculationDTO {
		return toCalculationDTO(rec)
	})
}

// toRecord turns a calculator result into a journal record.
func toRecord(req CalculationRequest, payee payg.Payee, pay payg.Earning, res payg.Result, key string) generic.Record {
	return generic.Record{
		WorkerRef: generic.WorkerRef(req.WorkerRef),
		PayDate:   pay.Date,
		PayCycle:  string(payee.Cycle),
		Gross:     pay.Gross,
		Scale:     string(res.Scale),
		Base:      res.Base,
		Lines: lo.Map(res.Lines, func(l payg.Line, _ int) generic.RecordLine {
			return generic.RecordLine{Kind: l.Kind, Amount: l.Amount}
		}),
		Withheld:       res.Withheld,
		IdempotencyKey: key,
		Metadata:       req.Metadata,
	}
}

// =============================================================================
// BATCH
// =============================================================================

// BatchRequest is a payroll run. Items are calculated in parallel; when
// Record is set each successful item is journaled.
type BatchRequest struct {
	Items  []CalculationRequest `json:"items"`
	Record bool                 `json:"record"`
}

// BatchItemDTO is the outcome of one item. Error is set when the item could
// not be parsed, calculated or recorded.
type BatchItemDTO struct {
	WorkerRef     string       `json:"worker_ref"`
	Result        *payg.Result `json:"result,omitempty"`
	CalculationID string       `json:"calculation_id,omitempty"`
	Error         string       `json:"error,omitempty"`
}

type BatchResponse struct {
	Results   []BatchItemDTO  `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Withheld  decimal.Decimal `json:"total_withheld"`
}

// =============================================================================
// SCALES
// =============================================================================

// ScaleDTO describes one registered scale.
type ScaleDTO struct {
	ID          string `json:"id"`
	Variant     string `json:"variant"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// BracketDTO is one coefficient row.
type BracketDTO struct {
	Upper    decimal.Decimal `json:"upper"`
	Rate     decimal.Decimal `json:"rate"`
	Subtract decimal.Decimal `json:"subtract"`
}

// TableVersionDTO is one published version of a scale's data.
type TableVersionDTO struct {
	Effective string       `json:"effective"`
	Brackets  []BracketDTO `json:"brackets,omitempty"`
	Tiers     *payg.Tiers  `json:"tiers,omitempty"`
}

type ScaleTablesDTO struct {
	Scale    ScaleDTO          `json:"scale"`
	Versions []TableVersionDTO `json:"versions"`
}

func scaleKind(s payg.Scale) string {
	switch s.(type) {
	case payg.TableSource:
		return "brackets"
	case payg.TierSource:
		return "tiers"
	default:
		return "flat"
	}
}

func toScaleDTO(s payg.Scale) ScaleDTO {
	return ScaleDTO{
		ID:          string(s.ID()),
		Variant:     string(s.Variant()),
		Description: s.Description(),
		Kind:        scaleKind(s),
	}
}

func toScaleTablesDTO(s payg.Scale) ScaleTablesDTO {
	out := ScaleTablesDTO{Scale: toScaleDTO(s), Versions: []TableVersionDTO{}}
	switch src := s.(type) {
	case payg.TableSource:
		for _, v := range src.Tables() {
			out.Versions = append(out.Versions, TableVersionDTO{
				Effective: v.Effective.String(),
				Brackets: lo.Map(v.Value, func(b generic.Bracket, _ int) BracketDTO {
					return BracketDTO{Upper: b.Upper, Rate: b.Rate, Subtract: b.Subtract}
				}),
			})
		}
	case payg.TierSource:
		for _, v := range src.Tiers() {
			tiers := v.Value
			out.Versions = append(out.Versions, TableVersionDTO{Effective: v.Effective.String(), Tiers: &tiers})
		}
	}
	return out
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Expected    string `json:"expected"`
}

// ScenarioRunDTO reports one scenario run against its expected outcome.
type ScenarioRunDTO struct {
	Scenario ScenarioDTO      `json:"scenario"`
	Results  []ScenarioResult `json:"results"`
	Passed   bool             `json:"passed"`
}

// ScenarioResult is one calculation inside a scenario. Check names what is
// compared: the withheld total, one adjustment line, or the chosen scale.
type ScenarioResult struct {
	Label         string `json:"label"`
	Scale         string `json:"scale"`
	Check         string `json:"check"`
	Expected      string `json:"expected"`
	Actual        string `json:"actual"`
	Passed        bool   `json:"passed"`
	CalculationID string `json:"calculation_id,omitempty"`
}

// =============================================================================
// MISC
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
