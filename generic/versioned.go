/*
versioned.go - Effective-dated rule versions

PURPOSE:
  Rates change on published dates. Every dated rule in the system, whether a
  coefficient table, a tier list or a formula constant set, is stored as an
  ascending sequence of versions and resolved by a single algorithm:
  the last version whose effective date is on or before the pay date wins.

EXISTENCE WINDOWS:
  Window expresses when a rule exists at all. Superseded rate tables are
  versions, not windows; a closed window is reserved for a rule that was
  genuinely retired.

MERGING:
  Merge lets a specific rule override a general one from its own start date
  while earlier dates keep resolving to the general rule:

    general:  2020-10-13 single,  2024-07-01 single
    specific:                     2024-07-01 single-fmle
    merged:   2020-10-13 single,  2024-07-01 single-fmle

SEE ALSO:
  - bracket.go: RuleSet stores Versions[Brackets]
  - payg/bracket_scale.go: Resolves a table per pay date
*/
package generic

import "sort"

// =============================================================================
// VERSION
// =============================================================================

// Version is a value that applies from Effective onwards, until superseded.
type Version[T any] struct {
	Effective TimePoint `json:"effective"`
	Value     T         `json:"value"`
}

// Versions is an ascending sequence of versions.
type Versions[T any] []Version[T]

// Sorted returns a copy ordered by effective date. Equal dates keep their
// relative order.
func (vs Versions[T]) Sorted() Versions[T] {
	out := make(Versions[T], len(vs))
	copy(out, vs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Effective.Before(out[j].Effective)
	})
	return out
}

// Earliest returns the first effective date, or false when empty.
func (vs Versions[T]) Earliest() (TimePoint, bool) {
	if len(vs) == 0 {
		return TimePoint{}, false
	}
	return vs[0].Effective, true
}

// Select returns the value of the last version effective on or before date.
// Returns false when date precedes every version.
func Select[T any](vs Versions[T], date TimePoint) (T, bool) {
	var (
		selected T
		found    bool
	)
	for _, v := range vs {
		if v.Effective.After(date) {
			break
		}
		selected = v.Value
		found = true
	}
	return selected, found
}

// Merge combines two ascending sequences. When both contain a version with
// the same effective date, the primary version is kept.
func Merge[T any](primary, fallback Versions[T]) Versions[T] {
	out := make(Versions[T], 0, len(primary)+len(fallback))
	i, j := 0, 0
	for i < len(primary) || j < len(fallback) {
		switch {
		case j >= len(fallback):
			out = append(out, primary[i])
			i++
		case i >= len(primary):
			out = append(out, fallback[j])
			j++
		case primary[i].Effective.Equal(fallback[j].Effective):
			out = append(out, primary[i])
			i++
			j++
		case primary[i].Effective.Before(fallback[j].Effective):
			out = append(out, primary[i])
			i++
		default:
			out = append(out, fallback[j])
			j++
		}
	}
	return out
}

// =============================================================================
// WINDOW - Existence range of a rule
// =============================================================================

// Window is the date range in which a rule exists. A nil To means open ended.
type Window struct {
	From TimePoint
	To   *TimePoint
}

// OpenFrom returns a window starting at from with no end.
func OpenFrom(from TimePoint) Window {
	return Window{From: from}
}

// Contains reports whether date lies within the window, both ends inclusive.
func (w Window) Contains(date TimePoint) bool {
	if date.Before(w.From) {
		return false
	}
	return w.To == nil || date.BeforeOrEqual(*w.To)
}
