package factory

import (
	"fmt"
	"time"

	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

// =============================================================================
// DEFAULT CATALOG
// =============================================================================

// FirstSupportedDate is the start of every default scale's window.
var FirstSupportedDate = generic.NewTimePoint(2020, time.October, 13)

var variantDescriptions = map[payg.Variant]string{
	payg.Scale1: "tax-free threshold not claimed",
	payg.Scale2: "tax-free threshold claimed",
	payg.Scale3: "foreign resident",
	payg.Scale5: "full Medicare levy exemption",
	payg.Scale6: "half Medicare levy exemption",
}

var seniorsCategories = []struct {
	offset payg.SeniorsOffset
	rule   string
	label  string
}{
	{payg.SeniorsSingle, "single", "single"},
	{payg.SeniorsIllnessSeparated, "illness-separated", "illness separated couple"},
	{payg.SeniorsCouple, "couple", "member of a couple"},
}

var seniorsExemptions = []struct {
	exemption payg.LevyExemption
	suffix    string
	label     string
}{
	{payg.ExemptionNone, "", ""},
	{payg.ExemptionFull, "fmle", ", full Medicare levy exemption"},
	{payg.ExemptionHalf, "hmle", ", half Medicare levy exemption"},
}

// DefaultScales builds the scale list in classification priority order.
func DefaultScales(data *Data) ([]payg.Scale, error) {
	window := generic.OpenFrom(FirstSupportedDate)
	scales := []payg.Scale{payg.NewNoIdentifierScale(window)}

	whm, err := payg.NewHolidayMakerScale(window, payg.RegisteredHolidayMaker, data.HolidayMaker)
	if err != nil {
		return nil, err
	}
	scales = append(scales, whm)

	stsl, err := variantScales(data.Nat3539, "NAT 3539", window, payg.StudyLoan, false)
	if err != nil {
		return nil, err
	}
	scales = append(scales, stsl...)

	seniors, err := seniorsScales(data.Nat4466, window)
	if err != nil {
		return nil, err
	}
	scales = append(scales, seniors...)

	general, err := variantScales(data.Nat1004, "NAT 1004", window, payg.General, true)
	if err != nil {
		return nil, err
	}
	return append(scales, general...), nil
}

func variantScales(rs *generic.RuleSet, label string, window generic.Window, predicate func(payg.Variant) payg.Predicate, levyReducible bool) ([]payg.Scale, error) {
	scales := make([]payg.Scale, 0, len(payg.BracketVariants))
	for _, v := range payg.BracketVariants {
		s, err := payg.NewBracketScale(payg.BracketScaleConfig{
			ID:          payg.ScaleID(fmt.Sprintf("%s.%s", rs.ID, v)),
			Variant:     v,
			Description: fmt.Sprintf("%s %s: %s", label, v, variantDescriptions[v]),
			Window:      window,
			Predicate:   predicate(v),
			Tables:      rs.Rule(string(v)),

			LevyReducible: levyReducible,
		})
		if err != nil {
			return nil, err
		}
		scales = append(scales, s)
	}
	return scales, nil
}

// seniorsScales builds one scale per offset category and exemption level.
// The exemption tables start later than the base tables; before then the
// base table of the category applies.
func seniorsScales(rs *generic.RuleSet, window generic.Window) ([]payg.Scale, error) {
	var scales []payg.Scale
	for _, c := range seniorsCategories {
		base := rs.Rule(c.rule)
		for _, x := range seniorsExemptions {
			id := fmt.Sprintf("%s.%s", rs.ID, c.rule)
			tables := base
			if x.suffix != "" {
				id += "." + x.suffix
				tables = generic.Merge(rs.Rule(c.rule+"-"+x.suffix), base)
			}
			s, err := payg.NewBracketScale(payg.BracketScaleConfig{
				ID:          payg.ScaleID(id),
				Variant:     payg.VariantSeniors,
				Description: fmt.Sprintf("NAT 4466: seniors and pensioners, %s%s", c.label, x.label),
				Window:      window,
				Predicate:   payg.Seniors(c.offset, x.exemption),
				Tables:      tables,
			})
			if err != nil {
				return nil, err
			}
			scales = append(scales, s)
		}
	}
	return scales, nil
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog bundles the loaded data with the classifier and adjustment
// factory built from it. Everything in it is read-only.
type Catalog struct {
	data        *Data
	classifier  *payg.Classifier
	calculator  *payg.Calculator
	adjustments *AdjustmentFactory
}

func NewCatalog(data *Data) (*Catalog, error) {
	scales, err := DefaultScales(data)
	if err != nil {
		return nil, fmt.Errorf("building scales: %w", err)
	}
	classifier, err := payg.NewClassifier(scales...)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		data:        data,
		classifier:  classifier,
		calculator:  payg.NewCalculator(classifier),
		adjustments: NewAdjustmentFactory(data.Levy),
	}, nil
}

// NewDefaultCatalog builds the catalog from the embedded rate data.
func NewDefaultCatalog() (*Catalog, error) {
	data, err := LoadDefaultData()
	if err != nil {
		return nil, err
	}
	return NewCatalog(data)
}

func (c *Catalog) Data() *Data                     { return c.data }
func (c *Catalog) Classifier() *payg.Classifier    { return c.classifier }
func (c *Catalog) Calculator() *payg.Calculator    { return c.calculator }
func (c *Catalog) Adjustments() *AdjustmentFactory { return c.adjustments }
func (c *Catalog) Scales() []payg.Scale            { return c.classifier.Scales() }
func (c *Catalog) Scale(id payg.ScaleID) (payg.Scale, bool) {
	return c.classifier.Lookup(id)
}
