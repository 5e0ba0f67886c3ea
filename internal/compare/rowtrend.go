// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package compare

import (
	"fmt"

	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
)

// RowTrendPlan holds the per-label aggregation specs used to compute
// per-row trends for ranking/list metrics.
type RowTrendPlan struct {
	Current models.QuerySpec
	Prior   models.QuerySpec

	// LabelColumn is the list's label dimension the trends are grouped by.
	LabelColumn string
}

// PlanRowTrends plans per-row trend computation for a metric with
// AutoCalculateTrend set: the same period-shift rules as a whole-widget
// comparison, but grouped by the list's label dimension so each row carries
// its own trend. Returns nil when auto-trend is not requested.
func (e *Engine) PlanRowTrends(metric *models.MetricDefinition, fc models.FilterContext) (*RowTrendPlan, error) {
	if !metric.AutoCalculateTrend {
		return nil, nil
	}
	if metric.UseRawQuery {
		return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, "raw-query metrics cannot be period-shifted")
	}

	labelColumn := metric.GroupByColumn
	if labelColumn == "" && len(metric.Chart.GridColumns) > 0 {
		labelColumn = metric.Chart.GridColumns[0]
	}
	if labelColumn == "" {
		return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, "auto trend requires a label dimension")
	}

	start, end := filterctx.Window(fc, e.now())
	if start == nil || end == nil {
		return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, "primary window is unbounded; select a date range")
	}
	primary := Period{Start: *start, End: *end}
	prior, ok := shiftPeriod(primary, metric.TrendComparisonType)
	if !ok {
		return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, fmt.Sprintf("unsupported trend comparison type %q", metric.TrendComparisonType))
	}

	// The trend aggregation reuses the metric's own aggregation where it is
	// a real one; list metrics fall back to summing their value column.
	grouped := *metric
	grouped.GroupByColumn = labelColumn
	grouped.OrderByColumn = ""
	grouped.Limit = 0
	grouped.VisualizationType = models.VisualizationBar
	if grouped.Aggregation == models.AggregationList {
		grouped.Aggregation = models.AggregationSum
	}

	currentSpec, err := e.compiler.Compile(&grouped, fc, query.WithWindow(&primary.Start, &primary.End))
	if err != nil {
		return nil, err
	}
	priorSpec, err := e.compiler.Compile(&grouped, fc, query.WithWindow(&prior.Start, &prior.End))
	if err != nil {
		return nil, err
	}

	return &RowTrendPlan{
		Current:     currentSpec,
		Prior:       priorSpec,
		LabelColumn: labelColumn,
	}, nil
}

// MergeRowTrends merges per-label trends into the widget's rows under a
// "trend" key. Rows whose label has no prior-period value keep a nil trend.
// currentRows and priorRows are the grouped aggregation results, keyed by
// the label alias.
func MergeRowTrends(rows []models.Row, currentRows, priorRows []models.Row, labelColumn string) {
	current := valueByLabel(currentRows)
	prior := valueByLabel(priorRows)

	for _, row := range rows {
		label := fmt.Sprintf("%v", row[labelColumn])
		cur, okCur := current[label]
		prev, okPrev := prior[label]
		if okCur && okPrev {
			row["trend"] = Trend(cur, prev)
		} else {
			row["trend"] = (*float64)(nil)
		}
	}
}

// valueByLabel indexes grouped aggregation rows by their label alias.
func valueByLabel(rows []models.Row) map[string]float64 {
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		label := fmt.Sprintf("%v", row[query.LabelAlias])
		out[label] = ToFloat(row[query.ValueAlias])
	}
	return out
}

// ToFloat coerces driver-returned numeric values into float64. Unknown
// types yield zero.
func ToFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case nil:
		return 0
	default:
		return 0
	}
}
