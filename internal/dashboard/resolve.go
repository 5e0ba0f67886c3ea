// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package dashboard

import (
	"context"
	"errors"

	"github.com/storelens/storelens/internal/compare"
	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
)

// payloadKind maps the visualization type onto the payload union, decided
// once here so renderers never sniff payload shapes.
func payloadKind(vt models.VisualizationType) models.PayloadKind {
	switch vt {
	case models.VisualizationLine, models.VisualizationBar, models.VisualizationPie:
		return models.PayloadSeries
	case models.VisualizationList, models.VisualizationGrid:
		return models.PayloadTable
	default:
		return models.PayloadScalar
	}
}

func (a *Assembler) resolveUncached(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext) (*models.WidgetData, error) {
	switch payloadKind(metric.VisualizationType) {
	case models.PayloadTable:
		return a.resolveTabular(ctx, metric, fc, models.PayloadTable)
	case models.PayloadSeries:
		return a.resolveTabular(ctx, metric, fc, models.PayloadSeries)
	default:
		return a.resolveScalar(ctx, metric, fc)
	}
}

// resolveTabular handles series and table payloads: a single row-returning
// query, with optional per-row trends merged in afterwards.
func (a *Assembler) resolveTabular(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext, kind models.PayloadKind) (*models.WidgetData, error) {
	spec, err := a.compiler.Compile(metric, fc)
	if err != nil {
		return nil, err
	}
	rows, err := a.executor.Execute(ctx, spec)
	if err != nil {
		return nil, err
	}

	data := &models.WidgetData{Kind: kind, Data: rows}

	if metric.AutoCalculateTrend {
		if err := a.mergeRowTrends(ctx, metric, fc, kind, rows); err != nil {
			// Per-row trends degrade like whole-widget comparisons: the rows
			// stand, the trend column is dropped.
			data.ComparisonDegraded = true
			data.ComparisonError = err.Error()
		}
	}

	return data, nil
}

// mergeRowTrends plans and executes the grouped prior-period aggregations
// and folds per-label trends into the already-fetched rows.
func (a *Assembler) mergeRowTrends(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext, kind models.PayloadKind, rows []models.Row) error {
	plan, err := a.engine.PlanRowTrends(metric, fc)
	if err != nil || plan == nil {
		return err
	}

	currentRows, err := a.executor.Execute(ctx, plan.Current)
	if err != nil {
		return err
	}
	priorRows, err := a.executor.Execute(ctx, plan.Prior)
	if err != nil {
		return err
	}

	// Series rows label under the grouped alias; table rows keep their raw
	// column names.
	labelKey := plan.LabelColumn
	if kind == models.PayloadSeries {
		labelKey = query.LabelAlias
	}
	compare.MergeRowTrends(rows, currentRows, priorRows, labelKey)
	return nil
}

// resolveScalar handles card/gauge payloads: value, comparison, target and
// formatted rendering.
func (a *Assembler) resolveScalar(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext) (*models.WidgetData, error) {
	data := &models.WidgetData{Kind: models.PayloadScalar}

	resolved, err := a.resolveComparison(ctx, metric, fc, data)
	if err != nil {
		return nil, err
	}
	if !resolved {
		spec, err := a.compiler.Compile(metric, fc)
		if err != nil {
			return nil, err
		}
		rows, err := a.executor.Execute(ctx, spec)
		if err != nil {
			return nil, err
		}
		data.Value = scalarValue(rows)
	}

	data.Formatted = FormatValue(data.Value, metric.Format)

	if metric.HasTarget() {
		a.applyTarget(ctx, metric, fc, data)
	}

	return data, nil
}

// resolveComparison attempts the paired-period resolution. It reports
// whether the primary value was already computed. Comparison-side failures
// degrade the widget to its plain value rather than erroring it out; only a
// failing primary query is fatal.
func (a *Assembler) resolveComparison(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext, data *models.WidgetData) (bool, error) {
	if !metric.ComparisonEnabled {
		return false, nil
	}

	plan, err := a.engine.PlanComparison(metric, fc)
	if err != nil {
		var comparisonErr *compare.ComparisonError
		if errors.As(err, &comparisonErr) {
			data.ComparisonDegraded = true
			data.ComparisonError = comparisonErr.Error()
			return false, nil
		}
		return false, err
	}
	if plan == nil {
		return false, nil
	}

	primaryRows, err := a.executor.Execute(ctx, plan.Primary)
	if err != nil {
		return false, err
	}
	data.Value = scalarValue(primaryRows)

	priorRows, err := a.executor.Execute(ctx, plan.Comparison)
	if err != nil {
		data.ComparisonDegraded = true
		data.ComparisonError = err.Error()
		return true, nil
	}

	previous := scalarValue(priorRows)
	data.PreviousValue = &previous
	data.Trend = compare.Trend(data.Value, previous)
	data.ComparisonLabel = plan.Label
	return true, nil
}

// applyTarget resolves the metric's target and attaches the clamped
// progress. Target failures never fail the widget; the gauge just renders
// without its target arc.
func (a *Assembler) applyTarget(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext, data *models.WidgetData) {
	var target float64
	switch {
	case metric.TargetColumn != "":
		targetMetric := *metric
		targetMetric.Column = metric.TargetColumn
		targetMetric.ComparisonEnabled = false
		targetMetric.UseRawQuery = false
		targetMetric.RawQuery = ""

		spec, err := a.compiler.Compile(&targetMetric, fc)
		if err == nil {
			var rows []models.Row
			rows, err = a.executor.Execute(ctx, spec)
			if err == nil {
				target = scalarValue(rows)
			}
		}
		if err != nil {
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("metric_id", metric.ID).
				Str("target_column", metric.TargetColumn).
				Msg("target resolution failed")
			return
		}
	case metric.TargetValue != nil:
		target = *metric.TargetValue
	}

	tp := models.ClampProgress(data.Value, target)
	data.Target = &tp
}

// scalarValue extracts the single aggregated value from a result set. The
// builder always aliases it; raw-query metrics that select exactly one
// column are accepted as-is.
func scalarValue(rows []models.Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	row := rows[0]
	if v, ok := row[query.ValueAlias]; ok {
		return compare.ToFloat(v)
	}
	if len(row) == 1 {
		for _, v := range row {
			return compare.ToFloat(v)
		}
	}
	return 0
}
