package payg

import (
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// NO IDENTIFIER SCALE (NAT 1004 scale 4)
// =============================================================================

var (
	residentNoTFNRate = decimal.RequireFromString("0.47")
	foreignNoTFNRate  = decimal.RequireFromString("0.45")
)

// NoIdentifierScale withholds a flat rate when no tax file number is on
// file, whatever the worker's other attributes. Cents are discarded before
// and after applying the rate, never rounded.
type NoIdentifierScale struct {
	window generic.Window
}

func NewNoIdentifierScale(window generic.Window) *NoIdentifierScale {
	return &NoIdentifierScale{window: window}
}

func (s *NoIdentifierScale) ID() ScaleID      { return "nat1004.scale4" }
func (s *NoIdentifierScale) Variant() Variant { return Scale4 }
func (s *NoIdentifierScale) Description() string {
	return "NAT 1004 scale 4: no tax file number provided"
}

func (s *NoIdentifierScale) Eligible(_ Employer, w Worker, p Payment) bool {
	return s.window.Contains(p.PayDate()) && !w.HasIdentifierOnFile()
}

func (s *NoIdentifierScale) Withheld(_ Employer, w Worker, p Payment) (decimal.Decimal, error) {
	rate := foreignNoTFNRate
	if w.ResidencyCategory() == Resident {
		rate = residentNoTFNRate
	}
	return flatDiscardCents(p.GrossAmount(), rate), nil
}

// flatDiscardCents computes floor(floor(gross) * rate).
func flatDiscardCents(gross, rate decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return generic.DiscardCents(generic.DiscardCents(gross).Mul(rate))
}

var _ Scale = (*NoIdentifierScale)(nil)
