package payg

import (
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// PAY-CYCLE CONVERSION
// =============================================================================

var (
	ninetyNine = decimal.RequireFromString("0.99")
	oneCent    = decimal.RequireFromString("0.01")
	two        = decimal.NewFromInt(2)
	three      = decimal.NewFromInt(3)
	five       = decimal.NewFromInt(5)
	thirteen   = decimal.NewFromInt(13)
)

// ToWeeklyGross converts gross earnings for a pay cycle to the weekly
// equivalent used by the coefficient tables. The result always ends in .99.
//
// Monthly amounts ending in exactly 33 cents gain a cent first, so that a
// third of an annual figure lands in the same bracket as the weekly amount.
func ToWeeklyGross(cycle PayCycle, gross decimal.Decimal) decimal.Decimal {
	var weekly decimal.Decimal
	switch cycle {
	case CycleCasual, CycleDaily:
		weekly = gross.Mul(five)
	case CycleFortnightly:
		weekly = gross.Div(two)
	case CycleMonthly:
		if generic.Cents(gross) == 33 {
			gross = gross.Add(oneCent)
		}
		weekly = gross.Mul(three).Div(thirteen)
	case CycleQuarterly:
		weekly = gross.Div(thirteen)
	default:
		weekly = gross
	}
	return generic.DiscardCents(weekly).Add(ninetyNine)
}

// FromWeeklyTax converts a weekly withheld amount back to the pay cycle.
func FromWeeklyTax(cycle PayCycle, weekly decimal.Decimal) decimal.Decimal {
	switch cycle {
	case CycleCasual, CycleDaily:
		return generic.Round(weekly.Div(five))
	case CycleFortnightly:
		return weekly.Mul(two)
	case CycleMonthly:
		return generic.Round(weekly.Mul(thirteen).Div(three))
	case CycleQuarterly:
		return weekly.Mul(thirteen)
	default:
		return weekly
	}
}
