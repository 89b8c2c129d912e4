/*
levy.go - Medicare levy reduction

PURPOSE:
  Low income families pay a reduced Medicare levy. Workers claiming a
  spouse or children have less withheld, through a negative delta applied
  on top of the NAT 1004 scale 2 (no exemption) or scale 6 (half exemption)
  amount.

FIVE SEGMENTS (weekly gross w, family threshold thr):
  w < lower                 -> 0
  lower <= w < mid          -> round((w - rampFrom) * rampRate)
  mid <= w <= thr           -> round(w * levyRate)
  thr < w < shadingOut      -> round(thr*levyRate - (w - thr)*taperRate)
  w >= shadingOut           -> 0

  shadingOut = floor(thr * shadeNum / shadeDen)

  The weekly result is converted to the pay cycle and negated.

FAMILY THRESHOLD:
  Spouse only: the published weekly constant.
  Otherwise:   round((baseAnnual + min(children, 10) * perChild) / 52, 2)

VERSIONS:
  Constants are published per income year and loaded from
  factory/data/levy.yaml. The pay date selects the version.

SEE ALSO:
  - payg/adjustment.go: Pipeline contract
  - factory/adjustments.go: Builds reductions from declarations
*/
package adjustments

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

const KindLevyReduction = "medicare_levy_reduction"

// =============================================================================
// FORMULA DATA
// =============================================================================

// LevyBand holds the constants of one exemption level.
type LevyBand struct {
	Lower     decimal.Decimal `yaml:"lower" json:"lower"`
	RampFrom  decimal.Decimal `yaml:"ramp_from" json:"ramp_from"`
	Mid       decimal.Decimal `yaml:"mid" json:"mid"`
	RampRate  decimal.Decimal `yaml:"ramp_rate" json:"ramp_rate"`
	LevyRate  decimal.Decimal `yaml:"levy_rate" json:"levy_rate"`
	TaperRate decimal.Decimal `yaml:"taper_rate" json:"taper_rate"`
	ShadeNum  decimal.Decimal `yaml:"shade_num" json:"shade_num"`
	ShadeDen  decimal.Decimal `yaml:"shade_den" json:"shade_den"`
}

// LevyFormula is one published version of the reduction constants.
type LevyFormula struct {
	SpouseOnlyThreshold decimal.Decimal `yaml:"spouse_only_threshold" json:"spouse_only_threshold"`
	BaseAnnual          decimal.Decimal `yaml:"base_annual" json:"base_annual"`
	PerChild            decimal.Decimal `yaml:"per_child" json:"per_child"`
	MaxChildren         int             `yaml:"max_children" json:"max_children"`
	None                LevyBand        `yaml:"none" json:"none"`
	Half                LevyBand        `yaml:"half" json:"half"`
}

var weeksPerYear = decimal.NewFromInt(52)

// FamilyThreshold returns the weekly income at which the reduction starts
// to taper.
func (f LevyFormula) FamilyThreshold(c Claims) decimal.Decimal {
	if c.Spouse && c.Children == 0 {
		return f.SpouseOnlyThreshold
	}
	maxChildren := f.MaxChildren
	if maxChildren <= 0 {
		maxChildren = 10
	}
	children := lo.Clamp(c.Children, 0, maxChildren)
	annual := f.BaseAnnual.Add(decimal.NewFromInt(int64(children)).Mul(f.PerChild))
	return generic.RoundCents(annual.Div(weeksPerYear))
}

// Weekly evaluates the five segment reduction for a weekly gross, as a
// non-negative amount.
func (b LevyBand) Weekly(weekly, threshold decimal.Decimal) decimal.Decimal {
	shadingOut := b.ShadingOut(threshold)
	switch {
	case weekly.LessThan(b.Lower), weekly.GreaterThanOrEqual(shadingOut):
		return decimal.Zero
	case weekly.LessThan(b.Mid):
		return generic.Round(weekly.Sub(b.RampFrom).Mul(b.RampRate))
	case weekly.LessThanOrEqual(threshold):
		return generic.Round(weekly.Mul(b.LevyRate))
	default:
		return generic.Round(threshold.Mul(b.LevyRate).Sub(weekly.Sub(threshold).Mul(b.TaperRate)))
	}
}

// ShadingOut returns the weekly gross at which the reduction reaches zero.
func (b LevyBand) ShadingOut(threshold decimal.Decimal) decimal.Decimal {
	return generic.DiscardCents(threshold.Mul(b.ShadeNum).Div(b.ShadeDen))
}

// =============================================================================
// ADJUSTMENT
// =============================================================================

// Claims are the dependants a worker declares for the reduction.
type Claims struct {
	Spouse   bool `json:"spouse"`
	Children int  `json:"children"`
}

// LevyReduction implements payg.Adjustment.
type LevyReduction struct {
	claims   Claims
	formulas generic.Versions[LevyFormula]
}

func NewLevyReduction(claims Claims, formulas generic.Versions[LevyFormula]) *LevyReduction {
	return &LevyReduction{claims: claims, formulas: formulas.Sorted()}
}

func (r *LevyReduction) Kind() string   { return KindLevyReduction }
func (r *LevyReduction) Claims() Claims { return r.claims }

func (r *LevyReduction) Eligible(e payg.Employer, w payg.Worker, _ payg.Scale, p payg.Payment) bool {
	if _, ok := generic.Select(r.formulas, p.PayDate()); !ok {
		return false
	}
	if !w.ClaimsTaxFreeThreshold() || !w.HasIdentifierOnFile() {
		return false
	}
	if payg.EffectiveResidency(e, w) != payg.Resident {
		return false
	}
	if !r.claims.Spouse && r.claims.Children <= 0 {
		return false
	}
	switch w.LevyExemptionLevel() {
	case payg.ExemptionFull:
		return false
	case payg.ExemptionHalf:
		return r.claims.Children > 0
	}
	return true
}

// Amount returns the reduction as a value <= 0. Study-loan and seniors
// scales never carry it, whatever their variant.
func (r *LevyReduction) Amount(_ payg.Employer, w payg.Worker, s payg.Scale, p payg.Payment) (decimal.Decimal, error) {
	if lr, ok := s.(payg.LevyReducer); !ok || !lr.LevyReducible() {
		return decimal.Zero, nil
	}
	formula, ok := generic.Select(r.formulas, p.PayDate())
	if !ok {
		return decimal.Zero, nil
	}

	var band LevyBand
	switch s.Variant() {
	case payg.Scale2:
		band = formula.None
	case payg.Scale6:
		band = formula.Half
	default:
		return decimal.Zero, nil
	}

	cycle := w.PayCycle()
	weekly := payg.ToWeeklyGross(cycle, p.GrossAmount())
	reduction := band.Weekly(weekly, formula.FamilyThreshold(r.claims))
	return payg.FromWeeklyTax(cycle, reduction).Neg(), nil
}

var _ payg.Adjustment = (*LevyReduction)(nil)
