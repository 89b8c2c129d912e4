/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:

	Provides pre-built payroll situations with known published outcomes.
	Running a scenario calculates each case, journals it and reports the
	actual amount next to the expected one.

AVAILABLE SCENARIOS:

	resident-no-threshold: NAT 1004 scale 1, weekly
	no-tfn:                Flat no-TFN rate
	holiday-maker:         NAT 75331 with year-to-date gross
	levy-spouse:           Medicare levy reduction, spouse only
	no-tfn-precedence:     No TFN wins over every other attribute
	extra-pay-period:      53rd week / 27th fortnight surcharge

HOW SCENARIOS WORK:
 1. Build each case's worker through the adjustment factory
 2. Calculate with the default catalog
 3. Journal under key scenario/<id>/<case>, so re-running replays
 4. Compare the checked value against the published one

USAGE VIA API:

	POST /api/scenarios/levy-spouse/run

ADDING NEW SCENARIOS:
 1. Add a scenario to 'scenarios' with its cases
 2. Pick a check: withheld total, one adjustment kind, or the scale id

SEE ALSO:
  - handlers.go: Handler dependencies
  - factory/scales.go: Default catalog
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/adjustments"
	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const (
	checkWithheld = "withheld"
	checkScale    = "scale"
)

type scenarioCase struct {
	label    string
	employer payg.Payer
	worker   payg.Payee
	decls    []factory.AdjustmentJSON
	payDate  string
	gross    string
	// check is checkWithheld, checkScale or an adjustment kind.
	check  string
	expect string
}

type scenario struct {
	dto   ScenarioDTO
	cases []scenarioCase
}

func weeklyResident(threshold bool) payg.Payee {
	return payg.Payee{Residency: payg.Resident, HasTFN: true, Cycle: payg.CycleWeekly, ClaimsThreshold: threshold}
}

var scenarios = []scenario{
	{
		dto: ScenarioDTO{
			ID:          "resident-no-threshold",
			Name:        "Resident, no tax-free threshold",
			Description: "Weekly resident with a TFN who does not claim the threshold, paid in October 2024",
			Expected:    "931 weekly withholds 233 under NAT 1004 scale 1",
		},
		cases: []scenarioCase{
			{label: "weekly 931", worker: weeklyResident(false), payDate: "2024-10-15", gross: "931", check: checkWithheld, expect: "233"},
		},
	},
	{
		dto: ScenarioDTO{
			ID:          "no-tfn",
			Name:        "No TFN declaration",
			Description: "Resident without a TFN on file",
			Expected:    "1000 withholds 470 (47% with cents dropped)",
		},
		cases: []scenarioCase{
			{
				label:   "weekly 1000",
				worker:  payg.Payee{Residency: payg.Resident, Cycle: payg.CycleWeekly},
				payDate: "2021-03-01", gross: "1000", check: checkWithheld, expect: "470",
			},
		},
	},
	{
		dto: ScenarioDTO{
			ID:          "holiday-maker",
			Name:        "Working holiday maker",
			Description: "Registered employer, year-to-date gross 450",
			Expected:    "90 withholds 14 at 15%",
		},
		cases: []scenarioCase{
			{
				label:    "weekly 90",
				employer: payg.Payer{RegisteredForSpecialRate: true},
				worker: payg.Payee{
					Residency: payg.HolidayMaker, HasTFN: true, Cycle: payg.CycleWeekly,
					YTDGross: decimal.NewFromInt(450),
				},
				payDate: "2024-10-15", gross: "90", check: checkWithheld, expect: "14",
			},
		},
	},
	{
		dto: ScenarioDTO{
			ID:          "levy-spouse",
			Name:        "Medicare levy reduction",
			Description: "Resident claiming the threshold with a spouse and no children",
			Expected:    "625 weekly reduces withholding by 13",
		},
		cases: []scenarioCase{
			{
				label:   "weekly 625",
				worker:  weeklyResident(true),
				decls:   []factory.AdjustmentJSON{{Type: adjustments.KindLevyReduction, Spouse: true}},
				payDate: "2024-10-10", gross: "625", check: adjustments.KindLevyReduction, expect: "-13",
			},
		},
	},
	{
		dto: ScenarioDTO{
			ID:          "no-tfn-precedence",
			Name:        "No TFN wins",
			Description: "Without a TFN every other declaration is ignored",
			Expected:    "Always NAT 1004 scale 4",
		},
		cases: []scenarioCase{
			{
				label:   "foreign",
				worker:  payg.Payee{Residency: payg.Foreign, Cycle: payg.CycleWeekly},
				payDate: "2024-10-15", gross: "800", check: checkScale, expect: "nat1004.scale4",
			},
			{
				label:    "registered holiday maker",
				employer: payg.Payer{RegisteredForSpecialRate: true},
				worker:   payg.Payee{Residency: payg.HolidayMaker, Cycle: payg.CycleFortnightly},
				payDate:  "2024-10-15", gross: "800", check: checkScale, expect: "nat1004.scale4",
			},
			{
				label: "study loan senior",
				worker: payg.Payee{
					Residency: payg.Resident, Cycle: payg.CycleMonthly, ClaimsThreshold: true,
					StudyLoan: true, Seniors: payg.SeniorsSingle, Exemption: payg.ExemptionHalf,
				},
				payDate: "2022-01-14", gross: "800", check: checkScale, expect: "nat1004.scale4",
			},
		},
	},
	{
		dto: ScenarioDTO{
			ID:          "extra-pay-period",
			Name:        "Extra pay period",
			Description: "Surcharge for years with 53 weekly or 27 fortnightly pays",
			Expected:    "+10 weekly at 3461, +40 fortnightly at 6922, nothing monthly",
		},
		cases: []scenarioCase{
			{
				label:   "weekly 3461",
				worker:  weeklyResident(true),
				decls:   []factory.AdjustmentJSON{{Type: adjustments.KindExtraPayPeriod}},
				payDate: "2024-10-15", gross: "3461", check: adjustments.KindExtraPayPeriod, expect: "10",
			},
			{
				label: "fortnightly 6922",
				worker: payg.Payee{
					Residency: payg.Resident, HasTFN: true, Cycle: payg.CycleFortnightly, ClaimsThreshold: true,
				},
				decls:   []factory.AdjustmentJSON{{Type: adjustments.KindExtraPayPeriod}},
				payDate: "2024-10-15", gross: "6922", check: adjustments.KindExtraPayPeriod, expect: "40",
			},
			{
				label: "monthly 15000",
				worker: payg.Payee{
					Residency: payg.Resident, HasTFN: true, Cycle: payg.CycleMonthly, ClaimsThreshold: true,
				},
				decls:   []factory.AdjustmentJSON{{Type: adjustments.KindExtraPayPeriod}},
				payDate: "2024-10-15", gross: "15000", check: adjustments.KindExtraPayPeriod, expect: "0",
			},
		},
	},
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lo.Map(scenarios, func(s scenario, _ int) ScenarioDTO {
		return s.dto
	}))
}

// RunScenario calculates and journals every case of one scenario.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sc, ok := lo.Find(scenarios, func(s scenario) bool { return s.dto.ID == id })
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", fmt.Errorf("unknown scenario %q", id))
		return
	}

	run, err := h.runScenario(r.Context(), sc)
	if err != nil {
		writeDomainError(w, "Scenario failed", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) runScenario(ctx context.Context, sc scenario) (ScenarioRunDTO, error) {
	run := ScenarioRunDTO{Scenario: sc.dto, Passed: true}

	for _, c := range sc.cases {
		worker := c.worker
		declared, err := h.Catalog.Adjustments().NewAdjustments(c.decls)
		if err != nil {
			return run, err
		}
		worker.Adjustments = declared

		pay := payg.Earning{Date: generic.MustParseDate(c.payDate), Gross: decimal.RequireFromString(c.gross)}
		res, err := h.Catalog.Calculator().Calculate(c.employer, worker, pay)
		if err != nil {
			return run, fmt.Errorf("%s: %w", c.label, err)
		}

		actual := checkedValue(res, c.check)
		result := ScenarioResult{
			Label:    c.label,
			Scale:    string(res.Scale),
			Check:    c.check,
			Expected: c.expect,
			Actual:   actual,
			Passed:   matches(c.expect, actual),
		}

		req := CalculationRequest{
			WorkerRef: "scenario-" + sc.dto.ID,
			Metadata:  map[string]string{"scenario": sc.dto.ID, "case": c.label},
		}
		key := fmt.Sprintf("scenario/%s/%s", sc.dto.ID, c.label)
		rec, _, err := h.Journal.Record(ctx, toRecord(req, worker, pay, res, key))
		if err != nil {
			return run, err
		}
		result.CalculationID = string(rec.ID)

		run.Results = append(run.Results, result)
		run.Passed = run.Passed && result.Passed
	}
	return run, nil
}

// checkedValue extracts the compared value from a result. An adjustment
// kind that produced no line counts as zero.
func checkedValue(res payg.Result, check string) string {
	switch check {
	case checkWithheld:
		return res.Withheld.String()
	case checkScale:
		return string(res.Scale)
	}
	total := decimal.Zero
	for _, l := range res.Lines {
		if l.Kind == check {
			total = total.Add(l.Amount)
		}
	}
	return total.String()
}

func matches(expected, actual string) bool {
	e, errE := decimal.NewFromString(expected)
	a, errA := decimal.NewFromString(actual)
	if errE == nil && errA == nil {
		return e.Equal(a)
	}
	return expected == actual
}
