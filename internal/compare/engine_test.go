// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package compare

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
)

type staticResolver map[string]query.Dataset

func (r staticResolver) Dataset(id string) (query.Dataset, bool) {
	ds, ok := r[id]
	return ds, ok
}

func testEngine() *Engine {
	resolver := staticResolver{
		"sales":        {ID: "sales", Table: "sales", DateColumn: "sale_date"},
		"lfl_calendar": {ID: "lfl_calendar", Table: "lfl_calendar", DateColumn: "current_day"},
	}
	compiler := query.NewCompiler(resolver, 1000)
	return NewEngine(compiler, resolver)
}

func comparisonMetric(ct models.ComparisonType) *models.MetricDefinition {
	return &models.MetricDefinition{
		ID:                "total-revenue",
		Name:              "Total Revenue",
		DatasetID:         "sales",
		Column:            "net_amount",
		Aggregation:       models.AggregationSum,
		VisualizationType: models.VisualizationCard,
		ComparisonEnabled: true,
		ComparisonType:    ct,
	}
}

func boundedContext(start, end time.Time) models.FilterContext {
	return models.FilterContext{
		DateMode:  models.DateModeCustom,
		StartDate: &start,
		EndDate:   &end,
	}
}

func TestPlanComparisonDisabled(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric(models.ComparisonYoY)
	metric.ComparisonEnabled = false

	plan, err := e.PlanComparison(metric, models.FilterContext{})
	if err != nil {
		t.Fatalf("PlanComparison() error = %v", err)
	}
	if plan != nil {
		t.Errorf("plan = %+v, want nil for disabled comparison", plan)
	}
}

func TestPlanComparisonMoM(t *testing.T) {
	e := testEngine()

	fc := boundedContext(day(2026, 8, 1), day(2026, 8, 31))
	plan, err := e.PlanComparison(comparisonMetric(models.ComparisonMoM), fc)
	if err != nil {
		t.Fatalf("PlanComparison() error = %v", err)
	}

	if len(plan.Primary.Args) != 2 || len(plan.Comparison.Args) != 2 {
		t.Fatalf("args = %d/%d, want 2/2", len(plan.Primary.Args), len(plan.Comparison.Args))
	}

	priorStart := plan.Comparison.Args[0].(time.Time)
	priorEnd := plan.Comparison.Args[1].(time.Time)
	if !priorStart.Equal(day(2026, 7, 1)) || !priorEnd.Equal(day(2026, 7, 31)) {
		t.Errorf("prior window = [%v, %v], want [2026-07-01, 2026-07-31]", priorStart, priorEnd)
	}
	if plan.Label != "vs last month" {
		t.Errorf("Label = %q, want %q", plan.Label, "vs last month")
	}
}

func TestPlanComparisonRejectsRawQueryMetric(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric(models.ComparisonMoM)
	metric.UseRawQuery = true
	metric.RawQuery = "SELECT SUM(net_amount) AS value FROM t"

	// The prior window cannot be injected into an opaque query, so planning
	// must fail rather than hand back two identical statements.
	_, err := e.PlanComparison(metric, boundedContext(day(2026, 8, 1), day(2026, 8, 31)))
	var comparisonErr *ComparisonError
	if !errors.As(err, &comparisonErr) {
		t.Fatalf("PlanComparison() error = %v, want ComparisonError", err)
	}
	if comparisonErr.Kind != ErrInvalidPeriodShift {
		t.Errorf("Kind = %q, want %q", comparisonErr.Kind, ErrInvalidPeriodShift)
	}
}

func TestPlanComparisonRequiresBoundedWindow(t *testing.T) {
	e := testEngine()

	_, err := e.PlanComparison(comparisonMetric(models.ComparisonYoY), models.FilterContext{DateMode: models.DateModeAllTime})
	var comparisonErr *ComparisonError
	if !errors.As(err, &comparisonErr) {
		t.Fatalf("PlanComparison() error = %v, want ComparisonError", err)
	}
	if comparisonErr.Kind != ErrInvalidPeriodShift {
		t.Errorf("Kind = %q, want %q", comparisonErr.Kind, ErrInvalidPeriodShift)
	}
}

func TestPlanComparisonYTDIgnoresContextWindow(t *testing.T) {
	e := testEngine().WithClock(func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	})

	// YTD derives its own windows, so an all-time context is fine.
	plan, err := e.PlanComparison(comparisonMetric(models.ComparisonYTD), models.FilterContext{DateMode: models.DateModeAllTime})
	if err != nil {
		t.Fatalf("PlanComparison() error = %v", err)
	}

	primaryStart := plan.Primary.Args[0].(time.Time)
	priorStart := plan.Comparison.Args[0].(time.Time)
	if !primaryStart.Equal(day(2026, 1, 1)) {
		t.Errorf("primary start = %v, want 2026-01-01", primaryStart)
	}
	if !priorStart.Equal(day(2025, 1, 1)) {
		t.Errorf("prior start = %v, want 2025-01-01", priorStart)
	}
	if plan.Label != "vs prior YTD" {
		t.Errorf("Label = %q, want %q", plan.Label, "vs prior YTD")
	}
}

func TestPlanLFLFailsClosedWithoutCalendar(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric(models.ComparisonLFL)
	// No calendar configuration at all.
	_, err := e.PlanComparison(metric, boundedContext(day(2026, 8, 1), day(2026, 8, 31)))

	var comparisonErr *ComparisonError
	if !errors.As(err, &comparisonErr) {
		t.Fatalf("PlanComparison() error = %v, want ComparisonError", err)
	}
	if comparisonErr.Kind != ErrLFLConfigMissing {
		t.Errorf("Kind = %q, want %q", comparisonErr.Kind, ErrLFLConfigMissing)
	}
}

func TestPlanLFLUsesCalendarPredicates(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric(models.ComparisonLFL)
	metric.LFLCalendarDatasetID = "lfl_calendar"
	metric.LFLCurrentPeriodColumn = "current_day"
	metric.LFLPriorPeriodColumn = "prior_day"

	plan, err := e.PlanComparison(metric, boundedContext(day(2026, 8, 1), day(2026, 8, 31)))
	if err != nil {
		t.Fatalf("PlanComparison() error = %v", err)
	}

	if !strings.Contains(plan.Primary.SQL, "sale_date IN (SELECT current_day FROM lfl_calendar)") {
		t.Errorf("primary SQL = %q, want current-period calendar predicate", plan.Primary.SQL)
	}
	if !strings.Contains(plan.Comparison.SQL, "sale_date IN (SELECT prior_day FROM lfl_calendar)") {
		t.Errorf("comparison SQL = %q, want prior-period calendar predicate", plan.Comparison.SQL)
	}

	// The context's own window must not leak into either period.
	if strings.Contains(plan.Primary.SQL, ">= ?") || strings.Contains(plan.Comparison.SQL, ">= ?") {
		t.Error("LFL specs must not carry the context date window")
	}
	if plan.Label != "like-for-like" {
		t.Errorf("Label = %q, want %q", plan.Label, "like-for-like")
	}
}

func TestComparisonLabelOverride(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric(models.ComparisonYoY)
	metric.ComparisonLabel = "vs same period last year"

	plan, err := e.PlanComparison(metric, boundedContext(day(2026, 8, 1), day(2026, 8, 31)))
	if err != nil {
		t.Fatalf("PlanComparison() error = %v", err)
	}
	if plan.Label != "vs same period last year" {
		t.Errorf("Label = %q, want the metric's own label", plan.Label)
	}
}

func TestMergeRowTrends(t *testing.T) {
	rows := []models.Row{
		{"category": "beverages", "value": 120.0},
		{"category": "snacks", "value": 80.0},
		{"category": "dairy", "value": 50.0},
	}
	current := []models.Row{
		{"label": "beverages", "value": 120.0},
		{"label": "snacks", "value": 80.0},
		{"label": "dairy", "value": 50.0},
	}
	prior := []models.Row{
		{"label": "beverages", "value": 100.0},
		{"label": "snacks", "value": 0.0},
	}

	MergeRowTrends(rows, current, prior, "category")

	if trend := rows[0]["trend"].(*float64); trend == nil || *trend != 20 {
		t.Errorf("beverages trend = %v, want 20", trend)
	}
	// Zero prior value: nil trend, never infinity.
	if trend := rows[1]["trend"].(*float64); trend != nil {
		t.Errorf("snacks trend = %v, want nil for zero prior", *trend)
	}
	// Missing prior row: nil trend.
	if trend := rows[2]["trend"].(*float64); trend != nil {
		t.Errorf("dairy trend = %v, want nil for missing prior", *trend)
	}
}

func TestPlanRowTrendsRejectsRawQueryMetric(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric("")
	metric.ComparisonEnabled = false
	metric.AutoCalculateTrend = true
	metric.TrendComparisonType = models.ComparisonWoW
	metric.GroupByColumn = "category"
	metric.UseRawQuery = true
	metric.RawQuery = "SELECT category, SUM(net_amount) FROM t GROUP BY category"

	_, err := e.PlanRowTrends(metric, boundedContext(day(2026, 8, 1), day(2026, 8, 31)))
	var comparisonErr *ComparisonError
	if !errors.As(err, &comparisonErr) {
		t.Fatalf("PlanRowTrends() error = %v, want ComparisonError", err)
	}
	if comparisonErr.Kind != ErrInvalidPeriodShift {
		t.Errorf("Kind = %q, want %q", comparisonErr.Kind, ErrInvalidPeriodShift)
	}
}

func TestPlanRowTrendsRequiresLabelDimension(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric("")
	metric.ComparisonEnabled = false
	metric.AutoCalculateTrend = true
	metric.TrendComparisonType = models.ComparisonWoW

	_, err := e.PlanRowTrends(metric, boundedContext(day(2026, 8, 1), day(2026, 8, 31)))
	var comparisonErr *ComparisonError
	if !errors.As(err, &comparisonErr) {
		t.Fatalf("PlanRowTrends() error = %v, want ComparisonError", err)
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float64", 12.5, 12.5},
		{"float32", float32(2), 2},
		{"int", 7, 7},
		{"int64", int64(9), 9},
		{"nil", nil, 0},
		{"string", "n/a", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToFloat(tt.in); got != tt.want {
				t.Errorf("ToFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlanRowTrendsGroupsByLabel(t *testing.T) {
	e := testEngine()

	metric := comparisonMetric("")
	metric.ComparisonEnabled = false
	metric.AutoCalculateTrend = true
	metric.TrendComparisonType = models.ComparisonWoW
	metric.GroupByColumn = "category"
	metric.VisualizationType = models.VisualizationBar

	plan, err := e.PlanRowTrends(metric, boundedContext(day(2026, 8, 24), day(2026, 8, 30)))
	if err != nil {
		t.Fatalf("PlanRowTrends() error = %v", err)
	}

	if plan.LabelColumn != "category" {
		t.Errorf("LabelColumn = %q, want category", plan.LabelColumn)
	}
	if !strings.Contains(plan.Current.SQL, "category AS label") {
		t.Errorf("current SQL = %q, want grouped projection", plan.Current.SQL)
	}

	priorStart := plan.Prior.Args[0].(time.Time)
	if !priorStart.Equal(day(2026, 8, 17)) {
		t.Errorf("prior start = %v, want 2026-08-17", priorStart)
	}
}
