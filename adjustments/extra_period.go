package adjustments

import (
	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/payg"
)

const KindExtraPayPeriod = "extra_pay_period"

// =============================================================================
// EXTRA PAY PERIOD
// =============================================================================

// A year with 53 weekly or 27 fortnightly pays would otherwise under
// withhold; the worker may ask for a flat extra amount per pay.

type extraBand struct {
	min, max     decimal.Decimal
	minInclusive bool
	unbounded    bool
	amount       decimal.Decimal
}

func (b extraBand) matches(gross decimal.Decimal) bool {
	if b.minInclusive {
		if gross.LessThan(b.min) {
			return false
		}
	} else if gross.LessThanOrEqual(b.min) {
		return false
	}
	return b.unbounded || gross.LessThanOrEqual(b.max)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Published bands, evaluated in order. The fortnightly bands overlap between
// 4540 and 4549 as published; the first match wins.
var extraBands = map[payg.PayCycle][]extraBand{
	payg.CycleWeekly: {
		{min: dec("875"), max: dec("2299"), minInclusive: true, amount: dec("3")},
		{min: dec("2300"), max: dec("3449"), minInclusive: true, amount: dec("5")},
		{min: dec("3450"), minInclusive: true, unbounded: true, amount: dec("10")},
	},
	payg.CycleFortnightly: {
		{min: dec("1750"), max: dec("4549"), amount: dec("13")},
		{min: dec("4540"), max: dec("6749"), amount: dec("21")},
		{min: dec("6750"), minInclusive: true, unbounded: true, amount: dec("40")},
	},
}

// ExtraPayPeriod implements payg.Adjustment.
type ExtraPayPeriod struct{}

func NewExtraPayPeriod() *ExtraPayPeriod { return &ExtraPayPeriod{} }

func (ExtraPayPeriod) Kind() string { return KindExtraPayPeriod }

func (ExtraPayPeriod) Eligible(_ payg.Employer, w payg.Worker, _ payg.Scale, _ payg.Payment) bool {
	_, ok := extraBands[w.PayCycle()]
	return ok
}

func (ExtraPayPeriod) Amount(e payg.Employer, w payg.Worker, s payg.Scale, p payg.Payment) (decimal.Decimal, error) {
	base, err := s.Withheld(e, w, p)
	if err != nil {
		return decimal.Zero, err
	}
	if base.IsZero() {
		return decimal.Zero, nil
	}

	gross := p.GrossAmount()
	for _, band := range extraBands[w.PayCycle()] {
		if band.matches(gross) {
			return band.amount, nil
		}
	}
	return decimal.Zero, nil
}

var _ payg.Adjustment = ExtraPayPeriod{}
