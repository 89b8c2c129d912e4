package generic

import "time"

// =============================================================================
// PERIOD - Inclusive date range used for history queries
// =============================================================================

// Period is an inclusive [Start, End] date range.
//
// Example: Australian fiscal year 2025 is Jul 1 2024 - Jun 30 2025.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Validate rejects periods that end before they start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodConfig describes a twelve-month income year by the month it starts.
type PeriodConfig struct {
	StartMonth time.Month
}

// AustralianFiscalYear is the July to June income year.
var AustralianFiscalYear = PeriodConfig{StartMonth: time.July}

// =============================================================================
// PERIOD CALCULATOR
// =============================================================================

// PeriodFor returns the income year that contains date.
func (pc PeriodConfig) PeriodFor(date TimePoint) Period {
	start := NewTimePoint(date.Year(), pc.startMonth(), 1)
	if date.Before(start) {
		start = start.AddYears(-1)
	}
	return pc.from(start)
}

// FiscalYear returns the income year ending in endingYear. For the
// Australian configuration, FiscalYear(2025) is 2024-07-01 to 2025-06-30.
func (pc PeriodConfig) FiscalYear(endingYear int) Period {
	start := NewTimePoint(endingYear, pc.startMonth(), 1)
	if pc.startMonth() != time.January {
		start = start.AddYears(-1)
	}
	return pc.from(start)
}

func (pc PeriodConfig) from(start TimePoint) Period {
	return Period{Start: start, End: start.AddYears(1).AddDays(-1)}
}

func (pc PeriodConfig) startMonth() time.Month {
	if pc.StartMonth == 0 {
		return time.January
	}
	return pc.StartMonth
}
