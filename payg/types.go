/*
Package payg implements the PAYG withholding engine.

PURPOSE:
  Computes the amount to withhold from one wage payment. The engine picks
  exactly one tax scale for an (employer, worker, payment) combination,
  applies it, then layers the worker's declared adjustments on top.

KEY CONCEPTS IN THIS FILE (types.go):
  - Enumerations: PayCycle, Residency, LevyExemption, SeniorsOffset
  - Data contracts: Employer, Worker, Payment
  - Value types: Payer, Payee, Earning (ready-made contract implementations)

DATA CONTRACTS:
  The engine reads its inputs only through the Employer, Worker and Payment
  interfaces. Callers with their own payroll records implement those
  interfaces directly; everyone else uses the value types below.

SEE ALSO:
  - classifier.go: Selects the single applicable scale
  - calculator.go: Composes classification, scale and adjustments
  - generic/bracket.go: Coefficient tables
*/
package payg

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// PayCycle is how often a worker is paid.
type PayCycle string

const (
	CycleCasual      PayCycle = "casual"
	CycleDaily       PayCycle = "daily"
	CycleWeekly      PayCycle = "weekly"
	CycleFortnightly PayCycle = "fortnightly"
	CycleMonthly     PayCycle = "monthly"
	CycleQuarterly   PayCycle = "quarterly"
)

// PayCycles lists every supported cycle.
var PayCycles = []PayCycle{CycleCasual, CycleDaily, CycleWeekly, CycleFortnightly, CycleMonthly, CycleQuarterly}

func ParsePayCycle(s string) (PayCycle, error) {
	for _, c := range PayCycles {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown pay cycle %q", generic.ErrInvalidInput, s)
}

// Residency is the worker's residency category for tax purposes.
type Residency string

const (
	Resident     Residency = "resident"
	Foreign      Residency = "foreign"
	HolidayMaker Residency = "holiday_maker"
)

var Residencies = []Residency{Resident, Foreign, HolidayMaker}

func ParseResidency(s string) (Residency, error) {
	for _, r := range Residencies {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown residency %q", generic.ErrInvalidInput, s)
}

// LevyExemption is the worker's Medicare levy exemption level.
type LevyExemption string

const (
	ExemptionNone LevyExemption = "none"
	ExemptionHalf LevyExemption = "half"
	ExemptionFull LevyExemption = "full"
)

var LevyExemptions = []LevyExemption{ExemptionNone, ExemptionHalf, ExemptionFull}

func ParseLevyExemption(s string) (LevyExemption, error) {
	if s == "" {
		return ExemptionNone, nil
	}
	for _, x := range LevyExemptions {
		if string(x) == s {
			return x, nil
		}
	}
	return "", fmt.Errorf("%w: unknown levy exemption %q", generic.ErrInvalidInput, s)
}

// SeniorsOffset is the seniors and pensioners tax offset category claimed.
type SeniorsOffset string

const (
	SeniorsNone             SeniorsOffset = "none"
	SeniorsSingle           SeniorsOffset = "single"
	SeniorsIllnessSeparated SeniorsOffset = "illness_separated"
	SeniorsCouple           SeniorsOffset = "couple"
)

var SeniorsOffsets = []SeniorsOffset{SeniorsNone, SeniorsSingle, SeniorsIllnessSeparated, SeniorsCouple}

func ParseSeniorsOffset(s string) (SeniorsOffset, error) {
	if s == "" {
		return SeniorsNone, nil
	}
	for _, o := range SeniorsOffsets {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: unknown seniors offset %q", generic.ErrInvalidInput, s)
}

// ScaleID identifies a registered scale, e.g. "nat1004.scale2".
type ScaleID string

// Variant is the withholding variant a scale applies. Adjustments key off it.
type Variant string

const (
	Scale1              Variant = "scale1" // threshold not claimed
	Scale2              Variant = "scale2" // threshold claimed
	Scale3              Variant = "scale3" // foreign resident
	Scale4              Variant = "scale4" // no identifier on file
	Scale5              Variant = "scale5" // full levy exemption
	Scale6              Variant = "scale6" // half levy exemption
	VariantSeniors      Variant = "seniors"
	VariantHolidayMaker Variant = "holiday_maker"
)

// =============================================================================
// DATA CONTRACTS
// =============================================================================

// Employer is the payer of the wage.
type Employer interface {
	IsRegisteredForSpecialRate() bool
}

// Worker is the payee. Immutable for the duration of a calculation.
type Worker interface {
	ResidencyCategory() Residency
	HasIdentifierOnFile() bool
	PayCycle() PayCycle
	ClaimsTaxFreeThreshold() bool
	LevyExemptionLevel() LevyExemption
	SeniorsOffsetCategory() SeniorsOffset
	HasStudyLoanDebt() bool
	// YearToDateGross is only read by the working holiday maker scale.
	YearToDateGross() decimal.Decimal
	DeclaredAdjustments() []Adjustment
}

// Payment is one withholding event.
type Payment interface {
	PayDate() generic.TimePoint
	GrossAmount() decimal.Decimal
}

// =============================================================================
// VALUE TYPES
// =============================================================================

// Payer implements Employer.
type Payer struct {
	RegisteredForSpecialRate bool
}

func (p Payer) IsRegisteredForSpecialRate() bool { return p.RegisteredForSpecialRate }

// Payee implements Worker.
type Payee struct {
	Residency       Residency
	HasTFN          bool
	Cycle           PayCycle
	ClaimsThreshold bool
	Exemption       LevyExemption
	Seniors         SeniorsOffset
	StudyLoan       bool
	YTDGross        decimal.Decimal
	Adjustments     []Adjustment
}

func (p Payee) ResidencyCategory() Residency     { return p.Residency }
func (p Payee) HasIdentifierOnFile() bool        { return p.HasTFN }
func (p Payee) PayCycle() PayCycle               { return p.Cycle }
func (p Payee) ClaimsTaxFreeThreshold() bool     { return p.ClaimsThreshold }
func (p Payee) HasStudyLoanDebt() bool           { return p.StudyLoan }
func (p Payee) YearToDateGross() decimal.Decimal { return p.YTDGross }
func (p Payee) DeclaredAdjustments() []Adjustment {
	return p.Adjustments
}

func (p Payee) LevyExemptionLevel() LevyExemption {
	if p.Exemption == "" {
		return ExemptionNone
	}
	return p.Exemption
}

func (p Payee) SeniorsOffsetCategory() SeniorsOffset {
	if p.Seniors == "" {
		return SeniorsNone
	}
	return p.Seniors
}

// Earning implements Payment.
type Earning struct {
	Date  generic.TimePoint
	Gross decimal.Decimal
}

func (e Earning) PayDate() generic.TimePoint   { return e.Date }
func (e Earning) GrossAmount() decimal.Decimal { return e.Gross }

var (
	_ Employer = Payer{}
	_ Worker   = Payee{}
	_ Payment  = Earning{}
)

// EffectiveResidency returns the residency used for scale selection. A
// working holiday maker whose employer is not registered for the special
// rate is withheld as a foreign resident.
func EffectiveResidency(e Employer, w Worker) Residency {
	r := w.ResidencyCategory()
	if r == HolidayMaker && !e.IsRegisteredForSpecialRate() {
		return Foreign
	}
	return r
}
