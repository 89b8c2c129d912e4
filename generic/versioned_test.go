package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manageitwa/payg-tax/generic"
)

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func TestSelect_LastVersionOnOrBeforeDate(t *testing.T) {
	// GIVEN: versions effective Oct 2020, Jul 2022 and Jul 2024
	versions := generic.Versions[string]{
		{Effective: date(2020, time.October, 13), Value: "2020"},
		{Effective: date(2022, time.July, 1), Value: "2022"},
		{Effective: date(2024, time.July, 1), Value: "2024"},
	}

	cases := []struct {
		on    generic.TimePoint
		want  string
		found bool
	}{
		{date(2020, time.October, 12), "", false},
		{date(2020, time.October, 13), "2020", true},
		{date(2022, time.June, 30), "2020", true},
		{date(2022, time.July, 1), "2022", true},
		{date(2024, time.June, 30), "2022", true},
		{date(2030, time.January, 1), "2024", true},
	}
	for _, tc := range cases {
		got, ok := generic.Select(versions, tc.on)
		assert.Equal(t, tc.found, ok, "date %s", tc.on)
		assert.Equal(t, tc.want, got, "date %s", tc.on)
	}
}

func TestSelect_Empty(t *testing.T) {
	_, ok := generic.Select(generic.Versions[int]{}, date(2024, time.July, 1))
	assert.False(t, ok)
}

func TestMerge_PrimaryWinsTies(t *testing.T) {
	// GIVEN: a general rule with two eras and a specific rule from the second era
	general := generic.Versions[string]{
		{Effective: date(2020, time.October, 13), Value: "single"},
		{Effective: date(2024, time.July, 1), Value: "single"},
	}
	specific := generic.Versions[string]{
		{Effective: date(2024, time.July, 1), Value: "single-fmle"},
	}

	// WHEN: merging with the specific rule as primary
	merged := generic.Merge(specific, general)

	// THEN: earlier dates fall back, later dates use the specific table
	require.Len(t, merged, 2)
	got, _ := generic.Select(merged, date(2023, time.March, 1))
	assert.Equal(t, "single", got)
	got, _ = generic.Select(merged, date(2024, time.October, 15))
	assert.Equal(t, "single-fmle", got)
}

func TestMerge_LaterGeneralVersionSupersedesSpecific(t *testing.T) {
	general := generic.Versions[string]{
		{Effective: date(2020, time.October, 13), Value: "base-2020"},
		{Effective: date(2026, time.July, 1), Value: "base-2026"},
	}
	specific := generic.Versions[string]{
		{Effective: date(2024, time.July, 1), Value: "specific-2024"},
	}

	merged := generic.Merge(specific, general)

	require.Len(t, merged, 3)
	got, _ := generic.Select(merged, date(2026, time.July, 2))
	assert.Equal(t, "base-2026", got)
}

func TestVersions_Sorted(t *testing.T) {
	vs := generic.Versions[int]{
		{Effective: date(2024, time.July, 1), Value: 3},
		{Effective: date(2020, time.October, 13), Value: 1},
		{Effective: date(2022, time.July, 1), Value: 2},
	}
	sorted := vs.Sorted()
	assert.Equal(t, 1, sorted[0].Value)
	assert.Equal(t, 3, sorted[2].Value)
	// original untouched
	assert.Equal(t, 3, vs[0].Value)

	earliest, ok := sorted.Earliest()
	require.True(t, ok)
	assert.Equal(t, "2020-10-13", earliest.String())
}

func TestWindow_Contains(t *testing.T) {
	open := generic.OpenFrom(date(2020, time.October, 13))
	assert.False(t, open.Contains(date(2020, time.October, 12)))
	assert.True(t, open.Contains(date(2020, time.October, 13)))
	assert.True(t, open.Contains(date(2099, time.January, 1)))

	end := date(2024, time.June, 30)
	closed := generic.Window{From: date(2020, time.October, 13), To: &end}
	assert.True(t, closed.Contains(end))
	assert.False(t, closed.Contains(date(2024, time.July, 1)))
}
