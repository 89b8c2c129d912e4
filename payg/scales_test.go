package payg_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// =============================================================================
// BRACKET SCALES
// =============================================================================

func TestNat1004Scale1_July2024(t *testing.T) {
	// GIVEN: a resident not claiming the tax-free threshold, paid in October 2024
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat1004.scale1")
	worker := resident(payg.CycleWeekly)
	worker.ClaimsThreshold = false
	on := date(2024, time.October, 15)

	// WHEN/THEN: weekly amounts match the published withholding table
	weekly := []struct{ gross, want string }{
		{"116", "19"}, {"150", "24"}, {"499", "95"}, {"931", "233"}, {"932", "233"},
		{"1052", "271"}, {"1053", "272"}, {"1281", "345"}, {"2246", "653"},
		{"3303", "1066"}, {"3653", "1230"},
	}
	for _, tc := range weekly {
		got, err := scale.Withheld(payg.Payer{}, worker, earning(on, tc.gross))
		require.NoError(t, err)
		assertDecimal(t, tc.want, got, "weekly gross", tc.gross)
	}

	worker.Cycle = payg.CycleFortnightly
	fortnightly := []struct{ gross, want string }{
		{"232", "38"}, {"500", "90"}, {"1000", "190"},
	}
	for _, tc := range fortnightly {
		got, err := scale.Withheld(payg.Payer{}, worker, earning(on, tc.gross))
		require.NoError(t, err)
		assertDecimal(t, tc.want, got, "fortnightly gross", tc.gross)
	}
}

func TestNat1004Scale2_July2024(t *testing.T) {
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat1004.scale2")
	worker := resident(payg.CycleWeekly)
	on := date(2024, time.October, 15)

	cases := []struct{ gross, want string }{
		{"0", "0"}, {"360", "0"}, {"361", "0"}, {"370", "2"}, {"500", "22"},
		{"625", "55"}, {"931", "121"}, {"1281", "234"},
	}
	for _, tc := range cases {
		got, err := scale.Withheld(payg.Payer{}, worker, earning(on, tc.gross))
		require.NoError(t, err)
		assertDecimal(t, tc.want, got, "gross", tc.gross)
	}
}

func TestNat1004Scale2_October2020Table(t *testing.T) {
	// GIVEN: a pay date before the 2024 table
	// THEN: the 2020 table still applies
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat1004.scale2")
	worker := resident(payg.CycleWeekly)
	on := date(2022, time.October, 10)

	cases := []struct{ gross, want string }{
		{"358", "0"}, {"359", "0"}, {"370", "2"}, {"437", "15"}, {"514", "37"}, {"721", "83"},
	}
	for _, tc := range cases {
		got, err := scale.Withheld(payg.Payer{}, worker, earning(on, tc.gross))
		require.NoError(t, err)
		assertDecimal(t, tc.want, got, "gross", tc.gross)
	}
}

func TestBracketScale_MissingCoefficientTable(t *testing.T) {
	// GIVEN: a pay date before the earliest table
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat1004.scale2")

	// WHEN: the scale is invoked directly
	_, err := scale.Withheld(payg.Payer{}, resident(payg.CycleWeekly), earning(date(2019, time.August, 1), "1000"))

	// THEN: a missing-table error names the rule and the earliest date
	var missing *generic.MissingCoefficientTableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "nat1004.scale2", missing.Rule)
	assert.Equal(t, "2020-10-13", missing.Earliest.String())
	assert.True(t, generic.IsConfigurationDefect(err))

	// and the scale is not eligible on that date
	assert.False(t, scale.Eligible(payg.Payer{}, resident(payg.CycleWeekly), earning(date(2019, time.August, 1), "1000")))
}

func TestBracketScale_MalformedTableNamesRule(t *testing.T) {
	// GIVEN: a valid table whose sentinel is below the weekly gross
	scale, err := payg.NewBracketScale(payg.BracketScaleConfig{
		ID:        "test.scale",
		Window:    generic.OpenFrom(date(2020, time.October, 13)),
		Predicate: func(payg.Employer, payg.Worker, payg.Payment) bool { return true },
		Tables: generic.Versions[generic.Brackets]{{
			Effective: date(2020, time.October, 13),
			Value: generic.Brackets{
				{Upper: d("100"), Rate: d("0.1"), Subtract: d("0")},
				{Upper: d("999999"), Rate: d("0.2"), Subtract: d("10")},
			},
		}},
	})
	require.NoError(t, err)

	// WHEN: the weekly gross exceeds the sentinel
	_, err = scale.Withheld(payg.Payer{}, resident(payg.CycleWeekly), earning(date(2024, time.July, 1), "2000000"))

	// THEN: the error reports the scale
	var malformed *generic.MalformedBracketsError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "test.scale", malformed.Rule)
}

func TestNewBracketScale_RejectsMalformedTables(t *testing.T) {
	_, err := payg.NewBracketScale(payg.BracketScaleConfig{
		ID:        "broken",
		Predicate: func(payg.Employer, payg.Worker, payg.Payment) bool { return true },
		Tables: generic.Versions[generic.Brackets]{{
			Effective: date(2020, time.October, 13),
			Value:     generic.Brackets{{Upper: d("100"), Rate: d("0.1"), Subtract: d("0")}},
		}},
	})
	assert.ErrorIs(t, err, generic.ErrMalformedBrackets)

	_, err = payg.NewBracketScale(payg.BracketScaleConfig{
		ID:        "empty",
		Predicate: func(payg.Employer, payg.Worker, payg.Payment) bool { return true },
	})
	assert.ErrorIs(t, err, generic.ErrMissingCoefficientTable)
}

func TestNat3539_StudyLoanWithholdsMore(t *testing.T) {
	catalog := newCatalog(t)
	worker := resident(payg.CycleWeekly)
	worker.StudyLoan = true
	on := date(2024, time.October, 15)

	stsl, err := scaleByID(t, catalog, "nat3539.scale2").Withheld(payg.Payer{}, worker, earning(on, "1100"))
	require.NoError(t, err)
	base, err := scaleByID(t, catalog, "nat1004.scale2").Withheld(payg.Payer{}, worker, earning(on, "1100"))
	require.NoError(t, err)

	assertDecimal(t, "186", stsl)
	assertDecimal(t, "175", base)
}

func TestNat4466_ExemptionTablesFallBackBeforeJuly2024(t *testing.T) {
	// GIVEN: a single senior with a full levy exemption
	catalog := newCatalog(t)
	worker := resident(payg.CycleWeekly)
	worker.Seniors = payg.SeniorsSingle
	worker.Exemption = payg.ExemptionFull
	fmle := scaleByID(t, catalog, "nat4466.single.fmle")
	single := scaleByID(t, catalog, "nat4466.single")

	// WHEN: paid after 1 July 2024
	// THEN: the exemption table applies
	got, err := fmle.Withheld(payg.Payer{}, worker, earning(date(2024, time.October, 15), "1100"))
	require.NoError(t, err)
	assertDecimal(t, "153", got)

	got, err = single.Withheld(payg.Payer{}, worker, earning(date(2024, time.October, 15), "1100"))
	require.NoError(t, err)
	assertDecimal(t, "175", got)

	// WHEN: paid before 1 July 2024
	// THEN: the base 2020 table of the category applies
	got, err = fmle.Withheld(payg.Payer{}, worker, earning(date(2023, time.October, 15), "1100"))
	require.NoError(t, err)
	assertDecimal(t, "197", got)
}

// =============================================================================
// FLAT SCALES
// =============================================================================

func TestNoIdentifierScale(t *testing.T) {
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat1004.scale4")
	on := date(2024, time.October, 15)

	cases := []struct {
		residency payg.Residency
		gross     string
		want      string
	}{
		{payg.Resident, "1000", "470"},
		{payg.Resident, "1000.99", "470"}, // cents discarded before the rate
		{payg.Resident, "333", "156"},     // 156.51 -> cents discarded after
		{payg.Foreign, "1000", "450"},
		{payg.HolidayMaker, "1000", "450"},
		{payg.Resident, "0", "0"},
	}
	for _, tc := range cases {
		worker := payg.Payee{Residency: tc.residency, Cycle: payg.CycleWeekly}
		got, err := scale.Withheld(payg.Payer{}, worker, earning(on, tc.gross))
		require.NoError(t, err)
		assertDecimal(t, tc.want, got, tc.residency, tc.gross)
	}
}

func TestHolidayMakerScale(t *testing.T) {
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat75331")
	registered := payg.Payer{RegisteredForSpecialRate: true}

	cases := []struct {
		name  string
		on    generic.TimePoint
		ytd   string
		gross string
		tfn   bool
		want  string
	}{
		{"first band", date(2024, time.October, 15), "450", "90", true, "14"},
		{"band bound is inclusive", date(2024, time.October, 15), "45000", "1000", true, "150"},
		{"2024 second band", date(2024, time.October, 15), "100000", "1000", true, "300"},
		{"2020 second band", date(2023, time.October, 15), "100000", "1000", true, "325"},
		{"2024 third band", date(2024, time.October, 15), "185000", "1000", true, "370"},
		{"2020 above top band", date(2023, time.October, 15), "185000", "1000.50", true, "450"},
		{"2024 above top band", date(2024, time.October, 15), "200000", "1000.50", true, "450"},
		{"no TFN", date(2024, time.October, 15), "0", "1000.99", false, "450"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			worker := payg.Payee{Residency: payg.HolidayMaker, HasTFN: tc.tfn, Cycle: payg.CycleWeekly, YTDGross: d(tc.ytd)}
			got, err := scale.Withheld(registered, worker, earning(tc.on, tc.gross))
			require.NoError(t, err)
			assertDecimal(t, tc.want, got)
		})
	}
}

func TestHolidayMakerScale_BeforeFirstTiers(t *testing.T) {
	catalog := newCatalog(t)
	scale := scaleByID(t, catalog, "nat75331")
	worker := payg.Payee{Residency: payg.HolidayMaker, HasTFN: true, Cycle: payg.CycleWeekly}

	_, err := scale.Withheld(payg.Payer{RegisteredForSpecialRate: true}, worker, earning(date(2019, time.July, 1), "100"))
	assert.ErrorIs(t, err, generic.ErrMissingCoefficientTable)
}
