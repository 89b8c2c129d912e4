package factory

import (
	"fmt"

	"github.com/manageitwa/payg-tax/adjustments"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// =============================================================================
// ADJUSTMENT DECLARATIONS
// =============================================================================

// AdjustmentJSON declares one adjustment on a worker.
//
//	{"type": "medicare_levy_reduction", "spouse": true, "children": 2}
//	{"type": "extra_pay_period"}
//	{"type": "tax_offset"}
type AdjustmentJSON struct {
	Type     string `json:"type" yaml:"type"`
	Spouse   bool   `json:"spouse,omitempty" yaml:"spouse,omitempty"`
	Children int    `json:"children,omitempty" yaml:"children,omitempty"`
}

// AdjustmentFactory builds adjustments from declarations.
type AdjustmentFactory struct {
	levy generic.Versions[adjustments.LevyFormula]
}

func NewAdjustmentFactory(levy generic.Versions[adjustments.LevyFormula]) *AdjustmentFactory {
	return &AdjustmentFactory{levy: levy}
}

// NewAdjustment converts one declaration.
func (f *AdjustmentFactory) NewAdjustment(aj AdjustmentJSON) (payg.Adjustment, error) {
	switch aj.Type {
	case adjustments.KindLevyReduction:
		if aj.Children < 0 {
			return nil, fmt.Errorf("%w: children must not be negative", generic.ErrInvalidInput)
		}
		claims := adjustments.Claims{Spouse: aj.Spouse, Children: aj.Children}
		return adjustments.NewLevyReduction(claims, f.levy), nil
	case adjustments.KindExtraPayPeriod:
		return adjustments.NewExtraPayPeriod(), nil
	case adjustments.KindTaxOffset:
		return adjustments.NewTaxOffset(), nil
	default:
		return nil, fmt.Errorf("%w: unknown adjustment type %q", generic.ErrInvalidInput, aj.Type)
	}
}

// NewAdjustments converts declarations, keeping their order.
func (f *AdjustmentFactory) NewAdjustments(decls []AdjustmentJSON) ([]payg.Adjustment, error) {
	out := make([]payg.Adjustment, 0, len(decls))
	for i, aj := range decls {
		adj, err := f.NewAdjustment(aj)
		if err != nil {
			return nil, fmt.Errorf("adjustment %d: %w", i, err)
		}
		out = append(out, adj)
	}
	return out, nil
}

// ToJSON converts an adjustment back to its declaration.
func ToJSON(adj payg.Adjustment) AdjustmentJSON {
	aj := AdjustmentJSON{Type: adj.Kind()}
	if lr, ok := adj.(*adjustments.LevyReduction); ok {
		aj.Spouse = lr.Claims().Spouse
		aj.Children = lr.Claims().Children
	}
	return aj
}
