package payg

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// BRACKET SCALE
// =============================================================================

// BracketScaleConfig describes a coefficient scale.
type BracketScaleConfig struct {
	ID          ScaleID
	Variant     Variant
	Description string
	Window      generic.Window
	Predicate   Predicate
	Tables      generic.Versions[generic.Brackets]

	// LevyReducible marks the general scales the Medicare levy reduction
	// applies to.
	LevyReducible bool
}

// BracketScale withholds from weekly coefficient brackets. One scale holds
// every published version of its table; the pay date selects the version.
type BracketScale struct {
	id          ScaleID
	variant     Variant
	description string
	window      generic.Window
	predicate   Predicate
	tables      generic.Versions[generic.Brackets]
	levy        bool
}

func NewBracketScale(cfg BracketScaleConfig) (*BracketScale, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: bracket scale without ID", generic.ErrInvalidInput)
	}
	if cfg.Predicate == nil {
		return nil, fmt.Errorf("%w: bracket scale %s has no predicate", generic.ErrInvalidInput, cfg.ID)
	}
	if len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("%s: %w", cfg.ID, &generic.MissingCoefficientTableError{Rule: string(cfg.ID)})
	}
	tables := cfg.Tables.Sorted()
	for _, v := range tables {
		if err := v.Value.Validate(); err != nil {
			return nil, fmt.Errorf("%s@%s: %w", cfg.ID, v.Effective, err)
		}
	}
	return &BracketScale{
		id:          cfg.ID,
		variant:     cfg.Variant,
		description: cfg.Description,
		window:      cfg.Window,
		predicate:   cfg.Predicate,
		tables:      tables,
		levy:        cfg.LevyReducible,
	}, nil
}

func (s *BracketScale) ID() ScaleID         { return s.id }
func (s *BracketScale) Variant() Variant    { return s.variant }
func (s *BracketScale) Description() string { return s.description }

func (s *BracketScale) Tables() generic.Versions[generic.Brackets] { return s.tables }
func (s *BracketScale) LevyReducible() bool                         { return s.levy }

func (s *BracketScale) Eligible(e Employer, w Worker, p Payment) bool {
	return s.window.Contains(p.PayDate()) && s.predicate(e, w, p)
}

// Withheld converts the gross to a weekly amount, resolves its bracket in
// the table effective on the pay date, and converts the rounded weekly tax
// back to the worker's pay cycle.
func (s *BracketScale) Withheld(_ Employer, w Worker, p Payment) (decimal.Decimal, error) {
	gross := p.GrossAmount()
	if !gross.IsPositive() {
		return decimal.Zero, nil
	}

	table, ok := generic.Select(s.tables, p.PayDate())
	if !ok {
		earliest, _ := s.tables.Earliest()
		return decimal.Zero, &generic.MissingCoefficientTableError{
			Rule:     string(s.id),
			PayDate:  p.PayDate(),
			Earliest: earliest,
		}
	}

	cycle := w.PayCycle()
	weekly := ToWeeklyGross(cycle, gross)
	if !weekly.IsPositive() {
		return decimal.Zero, nil
	}

	bracket, err := table.Resolve(weekly)
	if err != nil {
		var malformed *generic.MalformedBracketsError
		if errors.As(err, &malformed) {
			malformed.Rule = string(s.id)
		}
		return decimal.Zero, err
	}
	if bracket.IsZero() {
		return decimal.Zero, nil
	}

	return FromWeeklyTax(cycle, generic.Round(bracket.Apply(weekly))), nil
}

var _ Scale = (*BracketScale)(nil)
