// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package filterctx

import (
	"testing"
	"time"

	"github.com/storelens/storelens/internal/models"
)

func TestWindowPresets(t *testing.T) {
	// Friday, mid-afternoon.
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		preset    string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{models.PresetToday, day(2026, 8, 28), now},
		{models.PresetYesterday, day(2026, 8, 27), day(2026, 8, 28).Add(-time.Nanosecond)},
		{models.PresetThisWeek, day(2026, 8, 24), now}, // Monday start
		{models.PresetThisMonth, day(2026, 8, 1), now},
		{models.PresetLastMonth, day(2026, 7, 1), day(2026, 8, 1).Add(-time.Nanosecond)},
		{models.PresetThisYear, day(2026, 1, 1), now},
		{models.PresetLast7Days, day(2026, 8, 21), now},
		{models.PresetLast30Days, day(2026, 7, 29), now},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			fc := models.FilterContext{DateMode: models.DateModePreset, DatePreset: tt.preset}
			start, end := Window(fc, now)
			if start == nil || end == nil {
				t.Fatalf("Window() = (%v, %v), want bounded", start, end)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestWindowUnbounded(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		fc   models.FilterContext
	}{
		{"all time", models.FilterContext{DateMode: models.DateModeAllTime}},
		{"unknown preset", models.FilterContext{DateMode: models.DateModePreset, DatePreset: "fortnight"}},
		{"zero value", models.FilterContext{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.fc, now)
			if start != nil || end != nil {
				t.Errorf("Window() = (%v, %v), want (nil, nil)", start, end)
			}
		})
	}
}

func TestWindowCustomPassesRangeThrough(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	fc := models.FilterContext{DateMode: models.DateModeCustom, StartDate: &start, EndDate: &end}
	gotStart, gotEnd := Window(fc, now)
	if gotStart == nil || !gotStart.Equal(start) {
		t.Errorf("start = %v, want %v", gotStart, start)
	}
	if gotEnd == nil || !gotEnd.Equal(end) {
		t.Errorf("end = %v, want %v", gotEnd, end)
	}
}
