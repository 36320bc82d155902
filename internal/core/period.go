package core

import "time"

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type (
	// Period is a user-facing window selector.
	Period string

	// Window is a half-open UTC time range [Start, End) scoping every read.
	Window struct {
		Start time.Time
		End   time.Time
	}
)

// ParsePeriod maps a raw filter value onto a known period. Anything
// unrecognized falls back to monthly: this is a user-facing filter with a
// safe default, never an error.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s)
	default:
		return PeriodMonthly
	}
}

// IsValid reports whether the period is one of the three known values.
func (p Period) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	default:
		return false
	}
}

func (p Period) String() string {
	return string(p)
}

// Resolve computes the window for a period relative to now.
//
//	daily:   UTC midnight of now's calendar day up to now
//	weekly:  exactly now minus 7 days up to now (no calendar-week alignment)
//	monthly: first of now's UTC month at 00:00 up to now
//
// The end bound is always now itself, so a window never admits data with
// OccurredAt >= End.
func (p Period) Resolve(now time.Time) Window {
	now = now.UTC()
	var start time.Time
	switch p {
	case PeriodDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeekly:
		start = now.Add(-7 * 24 * time.Hour)
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return Window{Start: start, End: now}
}

// Contains reports whether t falls inside the half-open range.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End)
}

// IsZero reports whether both bounds are unset.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
