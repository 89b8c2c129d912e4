package payg_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func newCatalog(t *testing.T) *factory.Catalog {
	t.Helper()
	catalog, err := factory.NewDefaultCatalog()
	require.NoError(t, err)
	return catalog
}

func scaleByID(t *testing.T, catalog *factory.Catalog, id payg.ScaleID) payg.Scale {
	t.Helper()
	s, ok := catalog.Scale(id)
	require.True(t, ok, "scale %s not registered", id)
	return s
}

func resident(cycle payg.PayCycle) payg.Payee {
	return payg.Payee{
		Residency:       payg.Resident,
		HasTFN:          true,
		Cycle:           cycle,
		ClaimsThreshold: true,
		Exemption:       payg.ExemptionNone,
		Seniors:         payg.SeniorsNone,
	}
}

func earning(on generic.TimePoint, gross string) payg.Earning {
	return payg.Earning{Date: on, Gross: d(gross)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func factoryLevy(spouse bool, children int) factory.AdjustmentJSON {
	return factory.AdjustmentJSON{Type: "medicare_levy_reduction", Spouse: spouse, Children: children}
}

func factoryExtra() factory.AdjustmentJSON {
	return factory.AdjustmentJSON{Type: "extra_pay_period"}
}

func factoryOffset() factory.AdjustmentJSON {
	return factory.AdjustmentJSON{Type: "tax_offset"}
}
