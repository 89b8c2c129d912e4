/*
adjustment.go - Eligibility-gated deltas applied after the base scale

PURPOSE:
  A worker declares an ordered list of adjustments (levy reduction, extra
  pay period, offsets). Each eligible adjustment adds a signed delta to the
  base amount withheld by the scale.

PIPELINE RULES:
  1. Adjustments are evaluated in declared order
  2. Ineligibility is a boolean, never an error
  3. Every delta is computed from (employer, worker, scale, payment) alone,
     never from the running total, so order never changes a delta's value

SEE ALSO:
  - adjustments/: Concrete adjustments
  - calculator.go: Runs the pipeline after classification
*/
package payg

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Adjustment is a stateless rule, parameterised at construction.
type Adjustment interface {
	Kind() string
	Eligible(e Employer, w Worker, s Scale, p Payment) bool
	Amount(e Employer, w Worker, s Scale, p Payment) (decimal.Decimal, error)
}

// Line is one applied adjustment.
type Line struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// ApplyAdjustments adds every eligible declared adjustment to base. It
// returns the total and one line per eligible adjustment, including those
// that contributed zero.
func ApplyAdjustments(base decimal.Decimal, e Employer, w Worker, s Scale, p Payment) (decimal.Decimal, []Line, error) {
	total := base
	var lines []Line
	for _, adj := range w.DeclaredAdjustments() {
		if adj == nil || !adj.Eligible(e, w, s, p) {
			continue
		}
		delta, err := adj.Amount(e, w, s, p)
		if err != nil {
			return decimal.Zero, nil, fmt.Errorf("adjustment %s: %w", adj.Kind(), err)
		}
		total = total.Add(delta)
		lines = append(lines, Line{Kind: adj.Kind(), Amount: delta})
	}
	return total, lines, nil
}
