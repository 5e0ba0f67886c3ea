// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storelens/storelens/internal/cache"
	"github.com/storelens/storelens/internal/compare"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
	"github.com/storelens/storelens/internal/store"
)

type staticResolver map[string]query.Dataset

func (r staticResolver) Dataset(id string) (query.Dataset, bool) {
	ds, ok := r[id]
	return ds, ok
}

// fakeExecutor answers queries in call order.
type fakeExecutor struct {
	calls     int
	responses []func() ([]models.Row, error)
}

func (e *fakeExecutor) Execute(ctx context.Context, spec models.QuerySpec) ([]models.Row, error) {
	idx := e.calls
	e.calls++
	if idx >= len(e.responses) {
		return nil, errors.New("unexpected query")
	}
	return e.responses[idx]()
}

func rowsOf(value float64) func() ([]models.Row, error) {
	return func() ([]models.Row, error) {
		return []models.Row{{query.ValueAlias: value}}, nil
	}
}

func failWith(err error) func() ([]models.Row, error) {
	return func() ([]models.Row, error) { return nil, err }
}

func newTestAssembler(exec Executor, c *cache.Cache) *Assembler {
	resolver := staticResolver{
		"sales": {ID: "sales", Table: "sales", DateColumn: "sale_date"},
	}
	compiler := query.NewCompiler(resolver, 1000)
	engine := compare.NewEngine(compiler, resolver)
	return NewAssembler(exec, compiler, engine, c, time.Minute)
}

func cardMetric() *models.MetricDefinition {
	return &models.MetricDefinition{
		ID:                "total-revenue",
		Name:              "Total Revenue",
		DatasetID:         "sales",
		Column:            "net_amount",
		Aggregation:       models.AggregationSum,
		VisualizationType: models.VisualizationCard,
		Format:            models.FormatConfig{Style: models.FormatCurrency, Prefix: "£"},
	}
}

func monthContext() models.FilterContext {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	return models.FilterContext{
		Generation: 3,
		DateMode:   models.DateModeCustom,
		StartDate:  &start,
		EndDate:    &end,
	}
}

func TestResolveScalar(t *testing.T) {
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){rowsOf(1234.5)}}
	a := newTestAssembler(exec, nil)

	data, err := a.Resolve(context.Background(), cardMetric(), monthContext())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if data.Kind != models.PayloadScalar {
		t.Errorf("Kind = %q, want scalar", data.Kind)
	}
	if data.Value != 1234.5 {
		t.Errorf("Value = %v, want 1234.5", data.Value)
	}
	if data.Formatted != "£1,234.50" {
		t.Errorf("Formatted = %q, want £1,234.50", data.Formatted)
	}
	if data.MetricID != "total-revenue" || data.Generation != 3 {
		t.Errorf("stamps = (%q, %d), want (total-revenue, 3)", data.MetricID, data.Generation)
	}
	if data.Cached {
		t.Error("first resolution flagged as cached")
	}
}

func TestResolveComparisonTrend(t *testing.T) {
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){
		rowsOf(120), // primary period
		rowsOf(100), // prior period
	}}
	a := newTestAssembler(exec, nil)

	metric := cardMetric()
	metric.ComparisonEnabled = true
	metric.ComparisonType = models.ComparisonMoM

	data, err := a.Resolve(context.Background(), metric, monthContext())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if data.Value != 120 {
		t.Errorf("Value = %v, want 120", data.Value)
	}
	if data.PreviousValue == nil || *data.PreviousValue != 100 {
		t.Errorf("PreviousValue = %v, want 100", data.PreviousValue)
	}
	if data.Trend == nil || *data.Trend != 20 {
		t.Errorf("Trend = %v, want 20", data.Trend)
	}
	if data.ComparisonLabel != "vs last month" {
		t.Errorf("ComparisonLabel = %q, want %q", data.ComparisonLabel, "vs last month")
	}
	if data.ComparisonDegraded {
		t.Error("healthy comparison flagged as degraded")
	}
}

func TestResolveComparisonDegradesOnPriorFailure(t *testing.T) {
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){
		rowsOf(120),
		failWith(&store.ExecutionError{Kind: store.ErrTimeout, Err: errors.New("canceled")}),
	}}
	a := newTestAssembler(exec, nil)

	metric := cardMetric()
	metric.ComparisonEnabled = true
	metric.ComparisonType = models.ComparisonMoM

	data, err := a.Resolve(context.Background(), metric, monthContext())
	if err != nil {
		t.Fatalf("Resolve() error = %v, want degraded success", err)
	}

	if data.Value != 120 {
		t.Errorf("Value = %v, want the primary value to stand", data.Value)
	}
	if !data.ComparisonDegraded {
		t.Error("ComparisonDegraded = false, want true")
	}
	if data.Trend != nil || data.PreviousValue != nil {
		t.Error("degraded comparison must not carry trend fields")
	}
}

func TestResolveComparisonPlanFailureDegrades(t *testing.T) {
	// Unbounded window: the comparison cannot be planned, so the widget
	// falls back to its plain value.
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){rowsOf(500)}}
	a := newTestAssembler(exec, nil)

	metric := cardMetric()
	metric.ComparisonEnabled = true
	metric.ComparisonType = models.ComparisonYoY

	data, err := a.Resolve(context.Background(), metric, models.FilterContext{DateMode: models.DateModeAllTime})
	if err != nil {
		t.Fatalf("Resolve() error = %v, want degraded success", err)
	}
	if data.Value != 500 {
		t.Errorf("Value = %v, want 500", data.Value)
	}
	if !data.ComparisonDegraded || data.ComparisonError == "" {
		t.Errorf("degradation markers = (%v, %q), want set", data.ComparisonDegraded, data.ComparisonError)
	}
}

func TestResolveRawQueryComparisonDegrades(t *testing.T) {
	// A raw-query metric's window cannot be shifted, so enabling comparison
	// on it must not report a zero trend against its own value. The widget
	// degrades to the plain raw-query result.
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){rowsOf(750)}}
	a := newTestAssembler(exec, nil)

	metric := cardMetric()
	metric.UseRawQuery = true
	metric.RawQuery = "SELECT SUM(net_amount) AS value FROM t"
	metric.ComparisonEnabled = true
	metric.ComparisonType = models.ComparisonMoM

	data, err := a.Resolve(context.Background(), metric, monthContext())
	if err != nil {
		t.Fatalf("Resolve() error = %v, want degraded success", err)
	}

	if exec.calls != 1 {
		t.Errorf("executor calls = %d, want 1 plain query", exec.calls)
	}
	if data.Value != 750 {
		t.Errorf("Value = %v, want 750", data.Value)
	}
	if !data.ComparisonDegraded || data.ComparisonError == "" {
		t.Errorf("degradation markers = (%v, %q), want set", data.ComparisonDegraded, data.ComparisonError)
	}
	if data.Trend != nil || data.PreviousValue != nil {
		t.Error("degraded comparison must not carry trend fields")
	}
}

func TestResolvePrimaryFailureIsFatal(t *testing.T) {
	execErr := &store.ExecutionError{Kind: store.ErrQuerySyntax, Err: errors.New("bad column")}
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){failWith(execErr)}}
	a := newTestAssembler(exec, nil)

	metric := cardMetric()
	metric.ComparisonEnabled = true
	metric.ComparisonType = models.ComparisonMoM

	_, err := a.Resolve(context.Background(), metric, monthContext())
	var got *store.ExecutionError
	if !errors.As(err, &got) {
		t.Fatalf("Resolve() error = %v, want ExecutionError", err)
	}
}

func TestResolveTargetValue(t *testing.T) {
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){rowsOf(80)}}
	a := newTestAssembler(exec, nil)

	target := 100.0
	metric := cardMetric()
	metric.VisualizationType = models.VisualizationGauge
	metric.TargetValue = &target

	data, err := a.Resolve(context.Background(), metric, monthContext())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if data.Target == nil {
		t.Fatal("Target = nil, want progress")
	}
	if data.Target.Value != 100 || data.Target.Progress != 80 {
		t.Errorf("Target = %+v, want value 100 progress 80", data.Target)
	}
}

func TestResolveCaches(t *testing.T) {
	c := cache.New(time.Minute)
	defer c.Close()

	exec := &fakeExecutor{responses: []func() ([]models.Row, error){rowsOf(42)}}
	a := newTestAssembler(exec, c)

	fc := monthContext()
	if _, err := a.Resolve(context.Background(), cardMetric(), fc); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}

	// Same semantic state under a newer generation must hit the cache.
	fc.Generation = 9
	data, err := a.Resolve(context.Background(), cardMetric(), fc)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if exec.calls != 1 {
		t.Errorf("executor calls = %d, want 1", exec.calls)
	}
	if !data.Cached {
		t.Error("Cached = false on cache hit")
	}
	if data.ExecutionTimeMS != 0 {
		t.Errorf("ExecutionTimeMS = %d on cache hit, want 0", data.ExecutionTimeMS)
	}
	if data.Generation != 9 {
		t.Errorf("Generation = %d, want restamped 9", data.Generation)
	}
	if data.Value != 42 {
		t.Errorf("Value = %v, want 42", data.Value)
	}
}

func TestResolveAllIsolatesFailures(t *testing.T) {
	exec := &fakeExecutor{responses: []func() ([]models.Row, error){rowsOf(10)}}
	a := newTestAssembler(exec, nil)

	broken := cardMetric()
	broken.ID = "broken"
	broken.DatasetID = "nope"

	results := a.ResolveAll(context.Background(), []*models.MetricDefinition{broken, cardMetric()}, monthContext())
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	if results[0].Err == nil || results[0].Err.Code != "COMPILE_ERROR" {
		t.Errorf("broken slot = %+v, want COMPILE_ERROR", results[0].Err)
	}
	if results[0].Data != nil {
		t.Error("failed slot carries data")
	}
	if results[1].Err != nil || results[1].Data == nil {
		t.Errorf("healthy slot = %+v, want data", results[1])
	}
	if results[1].Data.Value != 10 {
		t.Errorf("healthy value = %v, want 10", results[1].Data.Value)
	}
}
