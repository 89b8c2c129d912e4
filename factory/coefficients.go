/*
Package factory converts published rate data into engine objects.

PURPOSE:
  Coefficient tables, working holiday maker tiers and levy reduction
  constants change every income year. They live in YAML files embedded in
  the binary, so an annual update is a data edit. This package decodes
  those files, validates them, and assembles the default scale catalog and
  adjustments from them.

YAML SCHEMA (coefficient tables):
  rule_set: nat1004
  description: "..."
  tables:
    - rule: scale2
      effective: "2024-07-01"
      brackets:
        - {upper: 361, rate: 0, subtract: 0}
        - {upper: 500, rate: 0.16, subtract: 57.8462}
        - {upper: 999999999, rate: 0.47, subtract: 650.6154}

  Numbers are decoded straight into decimal.Decimal from their source
  text; nothing passes through float64. Unknown fields are rejected.

KEY FEATURES:
  - Validates every table (ascending bounds, sentinel) at load time
  - Rejects duplicate effective dates per rule
  - Custom data sets can be loaded from any io.Reader

USAGE:
  data, err := factory.LoadDefaultData()
  catalog, err := factory.NewCatalog(data)
  calc := catalog.Calculator()

SEE ALSO:
  - scales.go: Default scale catalog
  - adjustments.go: Adjustment declarations
  - data/: Published rate data
*/
package factory

import (
	"bytes"
	"embed"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/manageitwa/payg-tax/adjustments"
	"github.com/manageitwa/payg-tax/generic"
	"github.com/manageitwa/payg-tax/payg"
)

//go:embed data/*.yaml
var dataFS embed.FS

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// RuleSetYAML is the file representation of a coefficient rule set.
type RuleSetYAML struct {
	RuleSet     string      `yaml:"rule_set"`
	Description string      `yaml:"description"`
	Tables      []TableYAML `yaml:"tables"`
}

// TableYAML is one version of one rule.
type TableYAML struct {
	Rule      string        `yaml:"rule"`
	Effective string        `yaml:"effective"`
	Brackets  []BracketYAML `yaml:"brackets"`
}

type BracketYAML struct {
	Upper    decimal.Decimal `yaml:"upper"`
	Rate     decimal.Decimal `yaml:"rate"`
	Subtract decimal.Decimal `yaml:"subtract"`
}

// TiersYAML is the file representation of the working holiday maker rates.
type TiersYAML struct {
	RuleSet     string `yaml:"rule_set"`
	Description string `yaml:"description"`
	Versions    []struct {
		Effective  string `yaml:"effective"`
		payg.Tiers `yaml:",inline"`
	} `yaml:"versions"`
}

// LevyYAML is the file representation of the levy reduction constants.
type LevyYAML struct {
	Formulas []struct {
		Effective               string `yaml:"effective"`
		adjustments.LevyFormula `yaml:",inline"`
	} `yaml:"formulas"`
}

// =============================================================================
// LOADERS
// =============================================================================

func decodeStrict(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(out)
}

// LoadRuleSet decodes and validates a coefficient rule set.
func LoadRuleSet(r io.Reader) (*generic.RuleSet, error) {
	var doc RuleSetYAML
	if err := decodeStrict(r, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule set: %w", err)
	}
	if doc.RuleSet == "" {
		return nil, fmt.Errorf("%w: rule set without rule_set id", generic.ErrInvalidInput)
	}

	rs := generic.NewRuleSet(generic.RuleID(doc.RuleSet), doc.Description)
	for _, t := range doc.Tables {
		effective, err := generic.ParseDate(t.Effective)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", doc.RuleSet, t.Rule, err)
		}
		table := make(generic.Brackets, len(t.Brackets))
		for i, b := range t.Brackets {
			table[i] = generic.Bracket{Upper: b.Upper, Rate: b.Rate, Subtract: b.Subtract}
		}
		if err := rs.Add(t.Rule, effective, table); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// LoadTiers decodes the working holiday maker tier versions.
func LoadTiers(r io.Reader) (generic.Versions[payg.Tiers], error) {
	var doc TiersYAML
	if err := decodeStrict(r, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tiers: %w", err)
	}
	versions := make(generic.Versions[payg.Tiers], 0, len(doc.Versions))
	for _, v := range doc.Versions {
		effective, err := generic.ParseDate(v.Effective)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.RuleSet, err)
		}
		if len(v.Bands) == 0 {
			return nil, fmt.Errorf("%s@%s: %w: no bands", doc.RuleSet, v.Effective, generic.ErrMalformedBrackets)
		}
		versions = append(versions, generic.Version[payg.Tiers]{Effective: effective, Value: v.Tiers})
	}
	return versions.Sorted(), nil
}

// LoadLevyFormulas decodes the levy reduction constant versions.
func LoadLevyFormulas(r io.Reader) (generic.Versions[adjustments.LevyFormula], error) {
	var doc LevyYAML
	if err := decodeStrict(r, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse levy formulas: %w", err)
	}
	versions := make(generic.Versions[adjustments.LevyFormula], 0, len(doc.Formulas))
	for _, f := range doc.Formulas {
		effective, err := generic.ParseDate(f.Effective)
		if err != nil {
			return nil, fmt.Errorf("levy formula: %w", err)
		}
		if f.None.ShadeDen.IsZero() || f.Half.ShadeDen.IsZero() {
			return nil, fmt.Errorf("levy formula %s: %w: shade_den must be non-zero", f.Effective, generic.ErrInvalidInput)
		}
		versions = append(versions, generic.Version[adjustments.LevyFormula]{Effective: effective, Value: f.LevyFormula})
	}
	return versions.Sorted(), nil
}

// =============================================================================
// DEFAULT DATA
// =============================================================================

// Data is the complete set of published rates the default catalog needs.
type Data struct {
	Nat1004      *generic.RuleSet
	Nat3539      *generic.RuleSet
	Nat4466      *generic.RuleSet
	HolidayMaker generic.Versions[payg.Tiers]
	Levy         generic.Versions[adjustments.LevyFormula]
}

// LoadDefaultData decodes the embedded rate files.
func LoadDefaultData() (*Data, error) {
	open := func(name string) (io.Reader, error) {
		b, err := dataFS.ReadFile("data/" + name)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(b), nil
	}

	data := &Data{}
	for name, dst := range map[string]**generic.RuleSet{
		"nat1004.yaml": &data.Nat1004,
		"nat3539.yaml": &data.Nat3539,
		"nat4466.yaml": &data.Nat4466,
	} {
		r, err := open(name)
		if err != nil {
			return nil, err
		}
		rs, err := LoadRuleSet(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		*dst = rs
	}

	r, err := open("nat75331.yaml")
	if err != nil {
		return nil, err
	}
	if data.HolidayMaker, err = LoadTiers(r); err != nil {
		return nil, err
	}

	r, err = open("levy.yaml")
	if err != nil {
		return nil, err
	}
	if data.Levy, err = LoadLevyFormulas(r); err != nil {
		return nil, err
	}
	return data, nil
}
