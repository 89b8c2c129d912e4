/*
partition.go - Eligibility partition of the default scales

PURPOSE:
  Every input on or after the first supported date must match exactly one
  scale. The predicates here are applied in priority order, and each one
  encodes the negation of every rule above it so the set stays disjoint:

    1. No TFN on file                           -> nat1004.scale4
    2. Holiday maker, registered employer       -> nat75331
    3. Study or training loan debt              -> nat3539.<variant>
    4. Effective resident claiming seniors offset -> nat4466.<category>[.fmle|.hmle]
    5. Everyone else                            -> nat1004.<variant>

  Variant (rules 3 and 5): foreign -> scale3, no threshold claim -> scale1,
  full exemption -> scale5, half exemption -> scale6, otherwise scale2.

  A holiday maker whose employer is not registered is withheld as a
  foreign resident (see EffectiveResidency).

SEE ALSO:
  - factory/scales.go: Builds the default catalog from these predicates
  - classifier_test.go: Exhaustive cross-product check of the partition
*/
package payg

// =============================================================================
// VARIANT SELECTION
// =============================================================================

// VariantFor returns the NAT 1004 / NAT 3539 scale variant for a worker.
func VariantFor(e Employer, w Worker) Variant {
	switch {
	case EffectiveResidency(e, w) == Foreign:
		return Scale3
	case !w.ClaimsTaxFreeThreshold():
		return Scale1
	case w.LevyExemptionLevel() == ExemptionFull:
		return Scale5
	case w.LevyExemptionLevel() == ExemptionHalf:
		return Scale6
	default:
		return Scale2
	}
}

// BracketVariants are the variants published as coefficient tables.
var BracketVariants = []Variant{Scale1, Scale2, Scale3, Scale5, Scale6}

// =============================================================================
// PREDICATES
// =============================================================================

// NoIdentifier matches workers without a TFN on file.
func NoIdentifier(_ Employer, w Worker, _ Payment) bool {
	return !w.HasIdentifierOnFile()
}

// RegisteredHolidayMaker matches rule 2.
func RegisteredHolidayMaker(e Employer, w Worker, _ Payment) bool {
	return w.HasIdentifierOnFile() &&
		w.ResidencyCategory() == HolidayMaker &&
		e.IsRegisteredForSpecialRate()
}

func isHolidayMakerRate(e Employer, w Worker) bool {
	return w.ResidencyCategory() == HolidayMaker && e.IsRegisteredForSpecialRate()
}

// StudyLoan matches rule 3 for one variant.
func StudyLoan(variant Variant) Predicate {
	return func(e Employer, w Worker, _ Payment) bool {
		return w.HasIdentifierOnFile() &&
			!isHolidayMakerRate(e, w) &&
			w.HasStudyLoanDebt() &&
			VariantFor(e, w) == variant
	}
}

// Seniors matches rule 4 for one offset category and exemption level.
func Seniors(category SeniorsOffset, exemption LevyExemption) Predicate {
	return func(e Employer, w Worker, _ Payment) bool {
		return w.HasIdentifierOnFile() &&
			!isHolidayMakerRate(e, w) &&
			!w.HasStudyLoanDebt() &&
			EffectiveResidency(e, w) == Resident &&
			w.SeniorsOffsetCategory() == category &&
			w.LevyExemptionLevel() == exemption
	}
}

func claimsSeniorsOffset(e Employer, w Worker) bool {
	return EffectiveResidency(e, w) == Resident && w.SeniorsOffsetCategory() != SeniorsNone
}

// General matches rule 5 for one variant.
func General(variant Variant) Predicate {
	return func(e Employer, w Worker, _ Payment) bool {
		return w.HasIdentifierOnFile() &&
			!isHolidayMakerRate(e, w) &&
			!w.HasStudyLoanDebt() &&
			!claimsSeniorsOffset(e, w) &&
			VariantFor(e, w) == variant
	}
}
