// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package models defines the shared data contracts of the Storelens core:
// filter context snapshots, metric definitions, compiled query specs, the
// widget data payload returned to renderers and the drill-down contracts.
package models

import "time"

// DateMode selects how the active date window is derived.
type DateMode string

const (
	// DateModeAllTime disables date filtering entirely.
	DateModeAllTime DateMode = "all_time"

	// DateModePreset derives the window from a named preset (e.g. "this_month").
	DateModePreset DateMode = "preset"

	// DateModeCustom uses the explicit StartDate/EndDate pair.
	DateModeCustom DateMode = "custom"
)

// Date preset names accepted when DateMode is DateModePreset.
const (
	PresetToday      = "today"
	PresetYesterday  = "yesterday"
	PresetThisWeek   = "this_week"
	PresetThisMonth  = "this_month"
	PresetLastMonth  = "last_month"
	PresetThisYear   = "this_year"
	PresetLast7Days  = "last_7_days"
	PresetLast30Days = "last_30_days"
)

// CrossFilter is an ad-hoc filter originating from a widget interaction,
// keyed by the widget that produced it. At most one cross-filter is active
// per originating widget.
type CrossFilter struct {
	WidgetID string `json:"widget_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

// FilterContext is an immutable snapshot of the globally shared filter state
// taken at a specific generation. Every query compilation receives one of
// these; the live, mutable state lives in the filterctx package.
//
// Selection semantics: an empty RegionCodes/GroupCodes set means "no
// restriction", not "select none". StoreIDs additionally collapses to "no
// restriction" when it covers the entire known store universe.
type FilterContext struct {
	// Generation identifies the filter-state version this snapshot was taken
	// at. Responses stamped with a superseded generation are discarded.
	Generation uint64 `json:"generation"`

	DateMode   DateMode   `json:"date_mode"`
	DatePreset string     `json:"date_preset,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`

	RegionCodes []string `json:"region_codes,omitempty"`
	GroupCodes  []string `json:"group_codes,omitempty"`
	StoreIDs    []string `json:"store_ids,omitempty"`

	// StoreUniverseSize is the total number of known stores, used to detect
	// a select-all store selection. Zero means unknown (no collapsing).
	StoreUniverseSize int `json:"store_universe_size,omitempty"`

	// CrossFilters carries the advisory cross-filter entries. The compiler
	// does not consume these yet; see filterctx.CrossFilterCoordinator.
	CrossFilters []CrossFilter `json:"cross_filters,omitempty"`
}

// StoresUnrestricted reports whether the store selection is semantically
// "all stores": either nothing selected, or every known store selected.
func (fc FilterContext) StoresUnrestricted() bool {
	if len(fc.StoreIDs) == 0 {
		return true
	}
	return fc.StoreUniverseSize > 0 && len(fc.StoreIDs) >= fc.StoreUniverseSize
}
