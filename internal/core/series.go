package core

import "time"

// ChartSeries is a dense, axis-stable sequence of (label, value) pairs.
// Labels and Data always have the same length; fixed-universe series carry
// every slot even when its value is zero. A series is never absent: the
// empty-window rendering of a fixed axis is all zeros, and of a data-driven
// axis is the empty series.
type ChartSeries struct {
	Labels []string
	Data   []Money
}

// WeekdayLabels is the fixed Sunday-first axis for the weekday series.
// It matches time.Weekday ordering (0 = Sunday).
var WeekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// NewWeekdaySeries returns an all-zero seven-slot series, Sunday through
// Saturday.
func NewWeekdaySeries() ChartSeries {
	s := ChartSeries{
		Labels: make([]string, 7),
		Data:   make([]Money, 7),
	}
	copy(s.Labels, WeekdayLabels[:])
	return s
}

// NewHourSeries returns an all-zero 24-slot series labeled "00:00".."23:00".
func NewHourSeries() ChartSeries {
	s := ChartSeries{
		Labels: make([]string, 24),
		Data:   make([]Money, 24),
	}
	for h := 0; h < 24; h++ {
		s.Labels[h] = FormatHour(h)
	}
	return s
}

// Sum adds up the series values. Used for cross-aggregate reconciliation
// against the window's expense total.
func (s ChartSeries) Sum() Money {
	var total Money
	for _, v := range s.Data {
		total = total.Add(v)
	}
	return total
}

// Len returns the number of axis slots.
func (s ChartSeries) Len() int {
	return len(s.Labels)
}

// WeekdayIndex maps a UTC timestamp onto the Sunday-first axis.
func WeekdayIndex(t time.Time) int {
	return int(t.UTC().Weekday())
}
