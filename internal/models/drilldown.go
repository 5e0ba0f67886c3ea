// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package models

// DrillDownRequest identifies a row-level detail request triggered by a
// click on an aggregated data point: the clicked dimension field and value,
// under the current filter context.
type DrillDownRequest struct {
	WidgetID string `json:"widget_id" validate:"required"`
	MetricID string `json:"metric_id" validate:"required"`
	Field    string `json:"field" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

// DrillDownResult carries up to the row cap of raw detail rows. Truncated is
// set when the underlying set exceeded the cap; the product surfaces a
// truncation indicator instead of paginating.
type DrillDownResult struct {
	Request DrillDownRequest `json:"request"`

	// Columns is the display column order, taken from the first row.
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	Truncated       bool  `json:"truncated"`
	ExecutionTimeMS int64 `json:"execution_time_ms"`
}
