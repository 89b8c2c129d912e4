/*
Package generic provides the domain-agnostic calculation primitives.

PURPOSE:
  This package contains the building blocks shared by every withholding
  rule: money arithmetic with the authority's rounding rule, effective-dated
  rule versions, coefficient brackets, an ordered registry, and the append
  only calculation journal. It knows nothing about residency, pay cycles or
  any specific scale; those live in the payg package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: type-safe IDs for calculations, workers and rules

DESIGN PRINCIPLES:
  1. Precision: every amount is a decimal.Decimal, never a float64
  2. Rounding: floor based with a 0.5 threshold, never banker's rounding
  3. Immutability: rule data is loaded once and shared read-only

USAGE:
  weekly := decimal.RequireFromString("1000.99")
  tax := generic.Round(weekly.Mul(rate).Sub(subtract))

SEE ALSO:
  - money.go: Round, DiscardCents, RoundCents over decimal.Decimal
  - bracket.go: Coefficient brackets and rule sets
  - versioned.go: Effective-dated version selection
  - store.go: Calculation journal persistence
*/
package generic

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CalculationID string
type WorkerRef string
type RuleID string
