package generic_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/manageitwa/payg-tax/generic"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound_FloorWithHalfThreshold(t *testing.T) {
	// GIVEN: values around the 0.5 threshold, including negatives
	// WHEN: rounding with the authority's rule
	// THEN: halves go up, negatives are not rounded symmetrically
	cases := []struct {
		in   string
		want string
	}{
		{"2.5", "3"},
		{"2.49", "2"},
		{"-0.5", "0"},
		{"-0.51", "-1"},
		{"-1.5", "-1"},
		{"0", "0"},
		{"12.5198", "13"},
		{"13.5", "14"},
		{"3.5", "4"},
		{"4.5", "5"},
	}
	for _, tc := range cases {
		got := generic.Round(d(tc.in))
		assert.True(t, got.Equal(d(tc.want)), "Round(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestDiscardCents(t *testing.T) {
	assert.True(t, generic.DiscardCents(d("470.99")).Equal(d("470")))
	assert.True(t, generic.DiscardCents(d("470")).Equal(d("470")))
}

func TestRoundCents(t *testing.T) {
	// 47873 / 52 = 920.6346...
	assert.True(t, generic.RoundCents(d("47873").Div(d("52"))).Equal(d("920.63")))
	assert.True(t, generic.RoundCents(d("1.005")).Equal(d("1.01")))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(33), generic.Cents(d("1000.33")))
	assert.Equal(t, int64(0), generic.Cents(d("1000")))
	assert.Equal(t, int64(5), generic.Cents(d("12.05")))
}
