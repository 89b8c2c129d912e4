package payg

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// HOLIDAY MAKER SCALE (NAT 75331)
// =============================================================================

// Tier applies Rate while year-to-date gross is at most UpTo.
type Tier struct {
	UpTo decimal.Decimal `yaml:"up_to" json:"up_to"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// Tiers is one published version of the working holiday maker rates.
type Tiers struct {
	Bands   []Tier          `yaml:"bands" json:"bands"`
	TopRate decimal.Decimal `yaml:"top_rate" json:"top_rate"`
}

// Rate returns the rate for a year-to-date gross. The comparison is
// inclusive; amounts above the last band use TopRate and report false.
func (t Tiers) Rate(ytd decimal.Decimal) (decimal.Decimal, bool) {
	for _, band := range t.Bands {
		if ytd.LessThanOrEqual(band.UpTo) {
			return band.Rate, true
		}
	}
	return t.TopRate, false
}

// HolidayMakerScale withholds from working holiday makers whose employer is
// registered for the special rate. The gross is not converted to weekly.
type HolidayMakerScale struct {
	window    generic.Window
	predicate Predicate
	tiers     generic.Versions[Tiers]
}

func NewHolidayMakerScale(window generic.Window, predicate Predicate, tiers generic.Versions[Tiers]) (*HolidayMakerScale, error) {
	if len(tiers) == 0 {
		return nil, &generic.MissingCoefficientTableError{Rule: "nat75331"}
	}
	sorted := tiers.Sorted()
	for _, v := range sorted {
		for i := 1; i < len(v.Value.Bands); i++ {
			if !v.Value.Bands[i].UpTo.GreaterThan(v.Value.Bands[i-1].UpTo) {
				return nil, fmt.Errorf("nat75331@%s: %w: tiers not ascending", v.Effective, generic.ErrMalformedBrackets)
			}
		}
	}
	return &HolidayMakerScale{window: window, predicate: predicate, tiers: sorted}, nil
}

func (s *HolidayMakerScale) ID() ScaleID      { return "nat75331" }
func (s *HolidayMakerScale) Variant() Variant { return VariantHolidayMaker }
func (s *HolidayMakerScale) Description() string {
	return "NAT 75331: working holiday makers"
}

func (s *HolidayMakerScale) Tiers() generic.Versions[Tiers] { return s.tiers }

func (s *HolidayMakerScale) Eligible(e Employer, w Worker, p Payment) bool {
	return s.window.Contains(p.PayDate()) && s.predicate(e, w, p)
}

func (s *HolidayMakerScale) Withheld(_ Employer, w Worker, p Payment) (decimal.Decimal, error) {
	tiers, ok := generic.Select(s.tiers, p.PayDate())
	if !ok {
		earliest, _ := s.tiers.Earliest()
		return decimal.Zero, &generic.MissingCoefficientTableError{
			Rule:     string(s.ID()),
			PayDate:  p.PayDate(),
			Earliest: earliest,
		}
	}

	gross := p.GrossAmount()
	if !w.HasIdentifierOnFile() {
		return flatDiscardCents(gross, tiers.TopRate), nil
	}

	rate, inBand := tiers.Rate(w.YearToDateGross())
	if !inBand {
		return flatDiscardCents(gross, rate), nil
	}
	if !gross.IsPositive() {
		return decimal.Zero, nil
	}
	return generic.Round(gross.Mul(rate)), nil
}

var _ Scale = (*HolidayMakerScale)(nil)
