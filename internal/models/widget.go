// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package models

// PayloadKind discriminates the WidgetData payload union. It is decided once
// at assembly time from the metric's visualization type.
type PayloadKind string

const (
	// PayloadScalar carries a single Value plus its Formatted rendering
	// (card/gauge visualizations).
	PayloadScalar PayloadKind = "scalar"

	// PayloadSeries carries grouped rows for chart visualizations
	// (line/bar/pie), one row per group label.
	PayloadSeries PayloadKind = "series"

	// PayloadTable carries raw tabular rows (list/grid visualizations).
	PayloadTable PayloadKind = "table"
)

// TargetProgress reports progress toward a metric's target.
// Progress is clamped to [0, 100].
type TargetProgress struct {
	Value    float64 `json:"value"`
	Progress float64 `json:"progress"`
}

// WidgetData is the stable output contract consumed by every visualization
// type, produced once per widget per refresh cycle.
//
// Trend is nil whenever comparison inputs are absent or the prior-period
// value is zero; a literal 0 is a real trend and is never used as a
// "no data" marker.
type WidgetData struct {
	MetricID string      `json:"metric_id"`
	Kind     PayloadKind `json:"kind"`

	// Scalar payload.
	Value     float64 `json:"value,omitempty"`
	Formatted string  `json:"formatted,omitempty"`

	// Series/table payload.
	Data []Row `json:"data,omitempty"`

	// Comparison fields, present only when comparison was requested and
	// both periods resolved.
	PreviousValue   *float64 `json:"previous_value,omitempty"`
	Trend           *float64 `json:"trend,omitempty"`
	ComparisonLabel string   `json:"comparison_label,omitempty"`

	// ComparisonDegraded is set when a comparison was requested but failed;
	// the widget then carries its plain value with a nil trend.
	ComparisonDegraded bool   `json:"comparison_degraded,omitempty"`
	ComparisonError    string `json:"comparison_error,omitempty"`

	Target *TargetProgress `json:"target,omitempty"`

	// Observability fields.
	Cached          bool  `json:"cached"`
	ExecutionTimeMS int64 `json:"execution_time_ms"`

	// Generation stamps which filter-context generation produced this data.
	Generation uint64 `json:"generation"`
}

// WidgetError is the per-widget error marker used in batch results. It never
// aborts sibling widgets.
type WidgetError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WidgetResult is one slot of a batch resolution: exactly one of Data or
// Err is populated.
type WidgetResult struct {
	MetricID string       `json:"metric_id"`
	Data     *WidgetData  `json:"data,omitempty"`
	Err      *WidgetError `json:"error,omitempty"`
}

// ClampProgress converts a value/target pair into a TargetProgress with
// progress clamped to [0, 100]. A non-positive target yields zero progress.
func ClampProgress(value, target float64) TargetProgress {
	tp := TargetProgress{Value: target}
	if target <= 0 {
		return tp
	}
	p := value / target * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	tp.Progress = p
	return tp
}
