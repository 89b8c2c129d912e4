/*
scale.go - Tax scale contract

PURPOSE:
  A Scale is one withholding formula together with the predicate that says
  when it applies. Scales are stateless and shared across calculations.

VARIANTS:
  BracketScale:      Weekly coefficient brackets (NAT 1004, NAT 3539, NAT 4466)
  NoIdentifierScale: Flat rate with cents discarded (NAT 1004 scale 4)
  HolidayMakerScale: Flat rate tiered by year-to-date gross (NAT 75331)

SEE ALSO:
  - partition.go: Eligibility predicates of the default scales
  - classifier.go: Picks exactly one eligible scale
*/
package payg

import (
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// Scale computes the pre-adjustment withheld amount for eligible inputs.
type Scale interface {
	ID() ScaleID
	Variant() Variant
	Description() string
	Eligible(e Employer, w Worker, p Payment) bool
	Withheld(e Employer, w Worker, p Payment) (decimal.Decimal, error)
}

// Predicate is an eligibility test over the calculation inputs.
type Predicate func(e Employer, w Worker, p Payment) bool

// TableSource is implemented by scales backed by coefficient tables.
type TableSource interface {
	Tables() generic.Versions[generic.Brackets]
}

// LevyReducer is implemented by scales that may carry a Medicare levy
// reduction. Only the general NAT 1004 scales report true.
type LevyReducer interface {
	LevyReducible() bool
}

// TierSource is implemented by scales backed by year-to-date tiers.
type TierSource interface {
	Tiers() generic.Versions[Tiers]
}
