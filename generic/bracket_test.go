package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manageitwa/payg-tax/generic"
)

func scale2Of2024() generic.Brackets {
	return generic.Brackets{
		{Upper: d("361"), Rate: d("0"), Subtract: d("0")},
		{Upper: d("500"), Rate: d("0.16"), Subtract: d("57.8462")},
		{Upper: d("625"), Rate: d("0.26"), Subtract: d("107.8462")},
		{Upper: d("999999999"), Rate: d("0.47"), Subtract: d("650.6154")},
	}
}

func TestBrackets_ResolveFirstUpperAboveWeekly(t *testing.T) {
	table := scale2Of2024()

	b, err := table.Resolve(d("360.99"))
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	b, err = table.Resolve(d("500.99"))
	require.NoError(t, err)
	assert.True(t, b.Rate.Equal(d("0.26")))

	// Upper bound is exclusive
	b, err = table.Resolve(d("500"))
	require.NoError(t, err)
	assert.True(t, b.Rate.Equal(d("0.26")))
}

func TestBrackets_ResolveWithoutSentinel(t *testing.T) {
	// GIVEN: a table missing its sentinel
	table := generic.Brackets{{Upper: d("100"), Rate: d("0.1"), Subtract: d("0")}}

	// WHEN: resolving above the last bound
	_, err := table.Resolve(d("150.99"))

	// THEN: a malformed-brackets error is returned
	var malformed *generic.MalformedBracketsError
	require.True(t, errors.As(err, &malformed))
	assert.True(t, errors.Is(err, generic.ErrMalformedBrackets))
	assert.True(t, generic.IsConfigurationDefect(err))
}

func TestBrackets_Validate(t *testing.T) {
	assert.NoError(t, scale2Of2024().Validate())

	assert.Error(t, generic.Brackets{}.Validate())

	unsorted := generic.Brackets{
		{Upper: d("500"), Rate: d("0.1"), Subtract: d("0")},
		{Upper: d("361"), Rate: d("0"), Subtract: d("0")},
		{Upper: d("999999999"), Rate: d("0.47"), Subtract: d("0")},
	}
	assert.ErrorIs(t, unsorted.Validate(), generic.ErrMalformedBrackets)

	duplicate := generic.Brackets{
		{Upper: d("361"), Rate: d("0"), Subtract: d("0")},
		{Upper: d("361"), Rate: d("0.1"), Subtract: d("0")},
		{Upper: d("999999999"), Rate: d("0.47"), Subtract: d("0")},
	}
	assert.ErrorIs(t, duplicate.Validate(), generic.ErrMalformedBrackets)

	// The 2020 seniors couple table ends at 999999 as published
	shortSentinel := generic.Brackets{
		{Upper: d("521"), Rate: d("0"), Subtract: d("0")},
		{Upper: d("999999"), Rate: d("0.47"), Subtract: d("563.5196")},
	}
	assert.NoError(t, shortSentinel.Validate())
}

func TestBracket_Apply(t *testing.T) {
	b := generic.Bracket{Upper: d("2246"), Rate: d("0.32"), Subtract: d("65.7202")}
	// 1000.99 * 0.32 - 65.7202 = 254.5966
	assert.True(t, b.Apply(d("1000.99")).Equal(d("254.5966")))
}

func TestRuleSet_AddAndLookup(t *testing.T) {
	rs := generic.NewRuleSet("nat1004", "test")
	require.NoError(t, rs.Add("scale2", date(2024, time.July, 1), scale2Of2024()))
	require.NoError(t, rs.Add("scale2", date(2020, time.October, 13), scale2Of2024()))

	versions := rs.Rule("scale2")
	require.Len(t, versions, 2)
	assert.Equal(t, "2020-10-13", versions[0].Effective.String())
	assert.Equal(t, []string{"scale2"}, rs.Rules())
	assert.Nil(t, rs.Rule("scale9"))

	// Same rule and date twice is rejected
	err := rs.Add("scale2", date(2024, time.July, 1), scale2Of2024())
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	// Malformed tables are rejected on load
	err = rs.Add("broken", date(2024, time.July, 1), generic.Brackets{})
	assert.ErrorIs(t, err, generic.ErrMalformedBrackets)
}
