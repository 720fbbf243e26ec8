package cohort

import (
	"math"
	"strings"
	"time"
)

// daysPerYear converts day deltas to ages; 365.25 absorbs leap years.
const daysPerYear = 365.25

// dateLayouts are tried in order when coercing freeform date strings.
// Source exports mix ISO timestamps (with and without zone), bare
// dates, and US-style slashed dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate coerces a freeform date string to a timezone-naive time.
// Unparseable or empty input yields nil, never an error: rows with null
// critical dates are excluded from date-dependent selection downstream
// rather than crashing the batch.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			naive := Naive(t)
			return &naive
		}
	}
	return nil
}

// Naive strips the timezone from a time, keeping its wall-clock fields.
// Every date comparison and subtraction in this package assumes its
// operands went through Naive first; mixing zoned and naive values
// produces silently wrong deltas.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// NaivePtr is the pointer form of Naive, passing nil through.
func NaivePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	naive := Naive(*t)
	return &naive
}

// daysBetween returns whole days from a to b, truncated toward zero.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// absDaysBetween returns the absolute whole-day distance between two
// optional dates, or nil when either is missing.
func absDaysBetween(a, b *time.Time) *int {
	if a == nil || b == nil {
		return nil
	}
	d := daysBetween(*a, *b)
	if d < 0 {
		d = -d
	}
	return &d
}

// ageYears returns the rounded age in years at a reference date, or nil
// when either date is missing.
func ageYears(birth, at *time.Time) *int {
	if birth == nil || at == nil {
		return nil
	}
	age := int(math.Round(float64(daysBetween(*birth, *at)) / daysPerYear))
	return &age
}

// addDays shifts an optional date forward by n days, passing nil
// through.
func addDays(t *time.Time, n int) *time.Time {
	if t == nil {
		return nil
	}
	shifted := t.AddDate(0, 0, n)
	return &shifted
}

func intPtr(n int) *int { return &n }
