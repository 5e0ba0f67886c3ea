// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package compare

import (
	"time"

	"github.com/storelens/storelens/internal/models"
)

// Period is a closed date window.
type Period struct {
	Start time.Time
	End   time.Time
}

// shiftPeriod derives the prior-period window for a comparison type.
// Shifts operate on calendar dates, not fixed day counts: a one-month shift
// from a month-end date lands on the last valid day of the prior month
// instead of overflowing into the next one.
func shiftPeriod(p Period, ct models.ComparisonType) (Period, bool) {
	switch ct {
	case models.ComparisonYoY:
		return Period{Start: addMonthsClamped(p.Start, -12), End: addMonthsClamped(p.End, -12)}, true
	case models.ComparisonMoM:
		return Period{Start: addMonthsClamped(p.Start, -1), End: addMonthsClamped(p.End, -1)}, true
	case models.ComparisonWoW:
		return Period{Start: p.Start.AddDate(0, 0, -7), End: p.End.AddDate(0, 0, -7)}, true
	default:
		return Period{}, false
	}
}

// addMonthsClamped shifts t by the given number of months, clamping the day
// of month to the target month's last valid day. Go's AddDate normalizes
// overflow instead (Mar 31 minus one month becomes Mar 2 or 3), which would
// silently compare the wrong window.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	// Normalize to the first of the target month, then clamp the day.
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)

	last := daysInMonth(target.Year(), target.Month())
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// yearToDate returns the [year start, now] primary window and the same range
// shifted one year back (clamped for leap days).
func yearToDate(now time.Time) (Period, Period) {
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	primary := Period{Start: start, End: now}
	prior := Period{
		Start: addMonthsClamped(start, -12),
		End:   addMonthsClamped(now, -12),
	}
	return primary, prior
}
