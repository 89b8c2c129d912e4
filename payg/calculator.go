/*
calculator.go - Withholding orchestrator

PURPOSE:
  Composes the engine: classify, compute the base amount from the selected
  scale, then apply the declared adjustments.

    withheld = ApplyAdjustments(scale.Withheld(e, w, p), e, w, scale, p)

  The calculator holds only the read-only classifier. No caching, no state:
  the same inputs always produce the same result, and calculations can run
  in parallel without synchronization.

SEE ALSO:
  - classifier.go: Scale selection
  - adjustment.go: Adjustment pipeline
  - batch.go: Parallel payroll runs
*/
package payg

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// Result explains one calculation.
type Result struct {
	Scale       ScaleID         `json:"scale"`
	Variant     Variant         `json:"variant"`
	Description string          `json:"description"`
	Base        decimal.Decimal `json:"base"`
	Lines       []Line          `json:"adjustments,omitempty"`
	Withheld    decimal.Decimal `json:"withheld"`
}

type Calculator struct {
	classifier *Classifier
}

func NewCalculator(classifier *Classifier) *Calculator {
	return &Calculator{classifier: classifier}
}

func (c *Calculator) Classifier() *Classifier {
	return c.classifier
}

// Calculate returns the withheld amount with its breakdown.
func (c *Calculator) Calculate(e Employer, w Worker, p Payment) (Result, error) {
	if err := validate(w, p); err != nil {
		return Result{}, err
	}

	scale, err := c.classifier.Classify(e, w, p)
	if err != nil {
		return Result{}, err
	}

	base, err := scale.Withheld(e, w, p)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", scale.ID(), err)
	}

	total, lines, err := ApplyAdjustments(base, e, w, scale, p)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Scale:       scale.ID(),
		Variant:     scale.Variant(),
		Description: scale.Description(),
		Base:        base,
		Lines:       lines,
		Withheld:    total,
	}, nil
}

// ComputeWithheld returns only the amount to withhold.
func (c *Calculator) ComputeWithheld(e Employer, w Worker, p Payment) (decimal.Decimal, error) {
	res, err := c.Calculate(e, w, p)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Withheld, nil
}

func validate(w Worker, p Payment) error {
	if p.GrossAmount().IsNegative() {
		return fmt.Errorf("%w: gross amount %s is negative", generic.ErrInvalidInput, p.GrossAmount())
	}
	if p.PayDate().IsZero() {
		return fmt.Errorf("%w: pay date is required", generic.ErrInvalidInput)
	}
	if _, err := ParsePayCycle(string(w.PayCycle())); err != nil {
		return err
	}
	return nil
}
