// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package filterctx

import (
	"time"

	"github.com/storelens/storelens/internal/models"
)

// Window resolves the filter context's date mode into a concrete start/end
// pair at the given reference time. All-time returns (nil, nil): the
// compiler omits the date predicate entirely. Open-ended presets close at
// "now", so "this month" means month-start through the reference instant.
func Window(fc models.FilterContext, now time.Time) (start, end *time.Time) {
	switch fc.DateMode {
	case models.DateModeAllTime:
		return nil, nil
	case models.DateModeCustom:
		return fc.StartDate, fc.EndDate
	case models.DateModePreset:
		return presetWindow(fc.DatePreset, now)
	default:
		return nil, nil
	}
}

// presetWindow maps a preset name to its concrete window. Unknown presets
// fall back to all-time rather than guessing.
func presetWindow(preset string, now time.Time) (*time.Time, *time.Time) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch preset {
	case models.PresetToday:
		return &dayStart, &now

	case models.PresetYesterday:
		start := dayStart.AddDate(0, 0, -1)
		end := dayStart.Add(-time.Nanosecond)
		return &start, &end

	case models.PresetThisWeek:
		// Weeks start on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		start := dayStart.AddDate(0, 0, -offset)
		return &start, &now

	case models.PresetThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &start, &now

	case models.PresetLastMonth:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := firstOfThis.AddDate(0, -1, 0)
		end := firstOfThis.Add(-time.Nanosecond)
		return &start, &end

	case models.PresetThisYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return &start, &now

	case models.PresetLast7Days:
		start := dayStart.AddDate(0, 0, -7)
		return &start, &now

	case models.PresetLast30Days:
		start := dayStart.AddDate(0, 0, -30)
		return &start, &now

	default:
		return nil, nil
	}
}
