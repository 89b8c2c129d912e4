package payg

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier selects the single applicable scale from an explicit, ordered
// registry assembled at startup.
type Classifier struct {
	scales *generic.Registry[Scale]
}

func NewClassifier(scales ...Scale) (*Classifier, error) {
	reg := generic.NewRegistry(func(s Scale) string { return string(s.ID()) })
	if err := reg.Register(scales...); err != nil {
		return nil, fmt.Errorf("registering scales: %w", err)
	}
	return &Classifier{scales: reg}, nil
}

// Classify evaluates every registered predicate. Exactly one match is
// required; none is unsupported input and more than one is a defect in the
// eligibility partition.
func (c *Classifier) Classify(e Employer, w Worker, p Payment) (Scale, error) {
	matches := lo.Filter(c.scales.All(), func(s Scale, _ int) bool {
		return s.Eligible(e, w, p)
	})

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &generic.NoApplicableScaleError{
			PayDate: p.PayDate(),
			Detail:  describe(w),
		}
	default:
		return nil, &generic.AmbiguousScaleError{
			PayDate: p.PayDate(),
			Matches: lo.Map(matches, func(s Scale, _ int) string { return string(s.ID()) }),
		}
	}
}

// Scales returns the registered scales in registration order.
func (c *Classifier) Scales() []Scale {
	return c.scales.All()
}

// Lookup returns a scale by ID.
func (c *Classifier) Lookup(id ScaleID) (Scale, bool) {
	return c.scales.Lookup(string(id))
}

func describe(w Worker) string {
	return fmt.Sprintf("residency=%s tfn=%t cycle=%s threshold=%t exemption=%s seniors=%s stsl=%t",
		w.ResidencyCategory(), w.HasIdentifierOnFile(), w.PayCycle(), w.ClaimsTaxFreeThreshold(),
		w.LevyExemptionLevel(), w.SeniorsOffsetCategory(), w.HasStudyLoanDebt())
}
