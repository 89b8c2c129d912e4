package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date used for pay dates and effective dates
// =============================================================================

// TimePoint is a calendar day in UTC. Pay dates and rule effective dates are
// compared at day granularity only.
type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, s)
	}
	return FromTime(t), nil
}

// MustParseDate parses a YYYY-MM-DD date or panics. Use for literals only.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddYears(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(n, 0, 0)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(DateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD for JSON and YAML.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}
