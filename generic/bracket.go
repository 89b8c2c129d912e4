package generic

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BRACKET - One band of a coefficient table
// =============================================================================

// SentinelFloor is the smallest upper bound accepted as a terminal bracket.
// Published tables use 999999999; one historical table uses 999999.
var SentinelFloor = decimal.NewFromInt(999999)

// Bracket applies withheld = weekly*Rate - Subtract to weekly gross amounts
// strictly below Upper.
type Bracket struct {
	Upper    decimal.Decimal `json:"upper"`
	Rate     decimal.Decimal `json:"rate"`
	Subtract decimal.Decimal `json:"subtract"`
}

// IsZero reports the (0, 0) bracket, which always withholds nothing.
func (b Bracket) IsZero() bool {
	return b.Rate.IsZero() && b.Subtract.IsZero()
}

// Apply computes weekly*Rate - Subtract, before rounding.
func (b Bracket) Apply(weekly decimal.Decimal) decimal.Decimal {
	return weekly.Mul(b.Rate).Sub(b.Subtract)
}

// Brackets is a coefficient table, ascending by Upper, ending in a sentinel.
type Brackets []Bracket

// Resolve returns the first bracket whose upper bound exceeds weekly.
func (bs Brackets) Resolve(weekly decimal.Decimal) (Bracket, error) {
	for _, b := range bs {
		if b.Upper.GreaterThan(weekly) {
			return b, nil
		}
	}
	return Bracket{}, &MalformedBracketsError{
		Weekly: weekly,
		Reason: "no bracket above weekly gross",
	}
}

// Validate checks the table invariants: non-empty, strictly ascending, and
// terminated by a sentinel bound.
func (bs Brackets) Validate() error {
	if len(bs) == 0 {
		return &MalformedBracketsError{Reason: "empty table"}
	}
	ascending := sort.SliceIsSorted(bs, func(i, j int) bool {
		return bs[i].Upper.LessThan(bs[j].Upper)
	})
	if !ascending {
		return &MalformedBracketsError{Reason: "upper bounds not ascending"}
	}
	for i := 1; i < len(bs); i++ {
		if bs[i].Upper.Equal(bs[i-1].Upper) {
			return &MalformedBracketsError{Reason: fmt.Sprintf("duplicate upper bound %s", bs[i].Upper)}
		}
	}
	if last := bs[len(bs)-1]; last.Upper.LessThan(SentinelFloor) {
		return &MalformedBracketsError{Reason: fmt.Sprintf("missing sentinel, last bound %s", last.Upper)}
	}
	return nil
}

// =============================================================================
// RULE SET - Named, effective-dated coefficient tables
// =============================================================================

// RuleSet groups the tables of one published schedule (e.g. NAT 1004) by
// rule name, each rule holding its ascending versions.
type RuleSet struct {
	ID          RuleID
	Description string
	rules       map[string]Versions[Brackets]
}

func NewRuleSet(id RuleID, description string) *RuleSet {
	return &RuleSet{ID: id, Description: description, rules: make(map[string]Versions[Brackets])}
}

// Add registers a table for rule effective from the given date.
func (rs *RuleSet) Add(rule string, effective TimePoint, table Brackets) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("%s/%s@%s: %w", rs.ID, rule, effective, err)
	}
	for _, v := range rs.rules[rule] {
		if v.Effective.Equal(effective) {
			return fmt.Errorf("%s/%s: %w: duplicate effective date %s", rs.ID, rule, ErrInvalidInput, effective)
		}
	}
	rs.rules[rule] = append(rs.rules[rule], Version[Brackets]{Effective: effective, Value: table}).Sorted()
	return nil
}

// Rule returns the versions of a rule, or nil if the rule is unknown.
func (rs *RuleSet) Rule(rule string) Versions[Brackets] {
	return rs.rules[rule]
}

// Rules returns the rule names in sorted order.
func (rs *RuleSet) Rules() []string {
	names := make([]string, 0, len(rs.rules))
	for name := range rs.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
