// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package models

// Aggregation is the SQL aggregation applied to a metric's column.
type Aggregation string

const (
	AggregationSum      Aggregation = "sum"
	AggregationAvg      Aggregation = "avg"
	AggregationCount    Aggregation = "count"
	AggregationDistinct Aggregation = "distinct"
	AggregationMin      Aggregation = "min"
	AggregationMax      Aggregation = "max"

	// AggregationList bypasses aggregation entirely and selects the metric's
	// configured column set row by row (list/grid visualizations).
	AggregationList Aggregation = "list"
)

// ComparisonType selects how the prior-period window is derived.
type ComparisonType string

const (
	ComparisonYoY ComparisonType = "yoy"
	ComparisonMoM ComparisonType = "mom"
	ComparisonWoW ComparisonType = "wow"
	ComparisonYTD ComparisonType = "ytd"

	// ComparisonLFL restricts both periods to the dates enumerated by a side
	// calendar dataset, so only calendar-matched days are compared.
	ComparisonLFL ComparisonType = "lfl"
)

// OrderDirection is the sort direction for ordered metrics.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// VisualizationType tells renderers (and the assembler) which payload shape
// a widget carries. Renderers branch on this, never on payload sniffing.
type VisualizationType string

const (
	VisualizationCard  VisualizationType = "card"
	VisualizationGauge VisualizationType = "gauge"
	VisualizationLine  VisualizationType = "line"
	VisualizationBar   VisualizationType = "bar"
	VisualizationPie   VisualizationType = "pie"
	VisualizationList  VisualizationType = "list"
	VisualizationGrid  VisualizationType = "grid"
)

// FormatStyle selects the number rendering applied to scalar values.
type FormatStyle string

const (
	FormatNumber     FormatStyle = "number"
	FormatCurrency   FormatStyle = "currency"
	FormatPercentage FormatStyle = "percentage"
	FormatCompact    FormatStyle = "compact"
)

// FormatConfig controls how a scalar value is rendered into
// WidgetData.Formatted.
type FormatConfig struct {
	Style    FormatStyle `json:"style,omitempty"`
	Decimals int         `json:"decimals,omitempty"`
	Prefix   string      `json:"prefix,omitempty"`
	Suffix   string      `json:"suffix,omitempty"`
}

// ChartConfig is free-form presentation configuration passed through to
// renderers. GridColumns selects the column set for list/grid metrics.
type ChartConfig struct {
	GridColumns []string       `json:"grid_columns,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

// MetricDefinition is the declarative description of one computable value.
// Definitions are authored in the metric management UI (an external
// collaborator) and consumed immutably by the engine at query time.
type MetricDefinition struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Label string `json:"label"`

	// DatasetID resolves to a physical table through the dataset catalog.
	DatasetID   string      `json:"dataset_id" validate:"required"`
	Column      string      `json:"column,omitempty"`
	Aggregation Aggregation `json:"aggregation" validate:"required,oneof=sum avg count distinct min max list"`

	// FilterExpression is a raw WHERE fragment ANDed into builder-mode
	// queries after the compiled filter predicates.
	FilterExpression string         `json:"filter_expression,omitempty"`
	GroupByColumn    string         `json:"group_by_column,omitempty"`
	OrderByColumn    string         `json:"order_by_column,omitempty"`
	OrderDirection   OrderDirection `json:"order_direction,omitempty"`

	// Limit bounds the result rows; 0 means unlimited.
	Limit int `json:"limit,omitempty" validate:"gte=0"`

	// UseRawQuery switches the compiler to SQL-override mode: RawQuery is
	// executed with its table name substituted for the resolved dataset
	// table, and Aggregation/Column are ignored for value computation.
	UseRawQuery bool   `json:"use_raw_query,omitempty"`
	RawQuery    string `json:"raw_query,omitempty"`

	ComparisonEnabled bool           `json:"comparison_enabled,omitempty"`
	ComparisonType    ComparisonType `json:"comparison_type,omitempty" validate:"omitempty,oneof=yoy mom wow ytd lfl"`

	// ComparisonDateColumn replaces the dataset's date column for
	// comparison-window queries only; ordinary queries keep filtering on
	// the dataset's own date column.
	ComparisonDateColumn string `json:"comparison_date_column,omitempty"`
	ComparisonLabel      string `json:"comparison_label,omitempty"`

	// LFL calendar configuration. Both period columns reference the side
	// calendar dataset whose rows enumerate the comparable dates.
	LFLCalendarDatasetID   string `json:"lfl_calendar_dataset_id,omitempty"`
	LFLCurrentPeriodColumn string `json:"lfl_current_period_column,omitempty"`
	LFLPriorPeriodColumn   string `json:"lfl_prior_period_column,omitempty"`

	// TargetValue is a constant target; TargetColumn resolves the target
	// dynamically per refresh. When both are set, TargetColumn wins.
	TargetValue  *float64 `json:"target_value,omitempty"`
	TargetColumn string   `json:"target_column,omitempty"`

	// AutoCalculateTrend computes per-row trend for ranking/list metrics,
	// grouped by the list's label dimension.
	AutoCalculateTrend  bool           `json:"auto_calculate_trend,omitempty"`
	TrendComparisonType ComparisonType `json:"trend_comparison_type,omitempty" validate:"omitempty,oneof=yoy mom wow"`

	VisualizationType VisualizationType `json:"visualization_type" validate:"required"`
	Format            FormatConfig      `json:"format,omitempty"`
	Chart             ChartConfig       `json:"chart,omitempty"`

	// CacheTTLSeconds is the per-metric widget-data cache TTL. 0 uses the
	// configured default.
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty" validate:"gte=0"`
}

// IsListLike reports whether the metric bypasses aggregation and returns
// tabular rows (list/grid visualizations or the list pseudo-aggregation).
func (m *MetricDefinition) IsListLike() bool {
	return m.Aggregation == AggregationList ||
		m.VisualizationType == VisualizationList ||
		m.VisualizationType == VisualizationGrid
}

// HasTarget reports whether the metric carries target configuration.
func (m *MetricDefinition) HasTarget() bool {
	return m.TargetColumn != "" || m.TargetValue != nil
}
