// Package series computes the occurrence dates of a recurring lesson series:
// a walk forward from a first date keeping days whose weekday belongs to a
// chosen set, bounded either by an inclusive end date or by a target number
// of occurrences.
package series

import "time"

// Hard caps on generated series. A series never exceeds MaxOccurrences rows
// and never spans more than MaxSpanDays from its first date.
const (
	MaxOccurrences = 300
	MaxSpanDays    = 366
)

// WeekdaySet is the set of weekdays eligible for lesson occurrence.
// Numbering follows time.Weekday: 0 is Sunday.
type WeekdaySet map[time.Weekday]struct{}

// NewWeekdaySet builds a WeekdaySet from raw weekday numbers. Values outside
// 0..6 are ignored.
func NewWeekdaySet(days []int) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			set[time.Weekday(d)] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the weekday of t is in the set.
func (s WeekdaySet) Contains(t time.Time) bool {
	_, ok := s[t.Weekday()]
	return ok
}

// ByDateRange returns every date from first to last inclusive whose weekday
// is in the set, in ascending order. The result is capped at MaxOccurrences.
func ByDateRange(first, last time.Time, days WeekdaySet) []time.Time {
	first = midnightUTC(first)
	last = midnightUTC(last)

	var dates []time.Time
	if len(days) == 0 {
		return dates
	}
	for d := first; !d.After(last) && len(dates) < MaxOccurrences; d = d.AddDate(0, 0, 1) {
		if days.Contains(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// ByCount walks forward from first collecting dates whose weekday is in the
// set until count dates are found. The walk is additionally bounded by
// MaxSpanDays, so a sparse weekday set yields fewer dates rather than an
// unbounded span.
func ByCount(first time.Time, days WeekdaySet, count int) []time.Time {
	first = midnightUTC(first)

	if count > MaxOccurrences {
		count = MaxOccurrences
	}

	var dates []time.Time
	if len(days) == 0 || count <= 0 {
		return dates
	}
	d := first
	for offset := 0; offset <= MaxSpanDays && len(dates) < count; offset++ {
		if days.Contains(d) {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates
}

// ClampLastDate bounds last so the span from first never exceeds MaxSpanDays.
// An over-long range collapses to one year after the first date.
func ClampLastDate(first, last time.Time) time.Time {
	first = midnightUTC(first)
	last = midnightUTC(last)

	if last.Sub(first) > MaxSpanDays*24*time.Hour {
		return first.AddDate(1, 0, 0)
	}
	return last
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
