// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package compare plans period-over-period comparisons: it derives the
// prior-period query window from the comparison type and computes trend
// deltas once both periods' values return. Like the query compiler it is
// pure; execution belongs to the assembler.
package compare

import (
	"fmt"
	"time"

	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
)

// Plan holds the paired query specs for one comparison-enabled metric.
type Plan struct {
	Primary    models.QuerySpec
	Comparison models.QuerySpec

	// Label is the comparison label surfaced on the widget, either the
	// metric's own or a default derived from the comparison type.
	Label string
}

// Engine plans comparisons over a compiler and a dataset resolver.
type Engine struct {
	compiler *query.Compiler
	resolver query.Resolver
	now      func() time.Time
}

// NewEngine creates a comparison engine.
func NewEngine(compiler *query.Compiler, resolver query.Resolver) *Engine {
	return &Engine{
		compiler: compiler,
		resolver: resolver,
		now:      time.Now,
	}
}

// WithClock overrides the reference clock, for deterministic tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// PlanComparison returns the primary and comparison query specs for a
// comparison-enabled metric, or nil when the metric has comparison disabled.
func (e *Engine) PlanComparison(metric *models.MetricDefinition, fc models.FilterContext) (*Plan, error) {
	if !metric.ComparisonEnabled {
		return nil, nil
	}

	// A raw query's window lives inside its own SQL text, so the compiler
	// cannot shift it. Fail closed: a degraded widget is honest, paired
	// identical queries presented as a comparison are not.
	if metric.UseRawQuery {
		return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, "raw-query metrics cannot be period-shifted")
	}

	if metric.ComparisonType == models.ComparisonLFL {
		return e.planLFL(metric, fc)
	}
	return e.planShifted(metric, fc, metric.ComparisonType)
}

// planShifted handles YoY/MoM/WoW/YTD, deriving the comparison window by
// calendar-shifting the primary window.
func (e *Engine) planShifted(metric *models.MetricDefinition, fc models.FilterContext, ct models.ComparisonType) (*Plan, error) {
	now := e.now()

	var primary, prior Period
	if ct == models.ComparisonYTD {
		primary, prior = yearToDate(now)
	} else {
		start, end := filterctx.Window(fc, now)
		if start == nil || end == nil {
			return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, "primary window is unbounded; select a date range")
		}
		if end.Before(*start) {
			return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, "primary window is inverted")
		}
		primary = Period{Start: *start, End: *end}

		var ok bool
		prior, ok = shiftPeriod(primary, ct)
		if !ok {
			return nil, comparisonErr(ErrInvalidPeriodShift, metric.ID, fmt.Sprintf("unsupported comparison type %q", ct))
		}
	}

	primarySpec, err := e.compiler.Compile(metric, fc, query.WithWindow(&primary.Start, &primary.End))
	if err != nil {
		return nil, err
	}
	comparisonSpec, err := e.compiler.Compile(metric, fc, query.WithWindow(&prior.Start, &prior.End))
	if err != nil {
		return nil, err
	}

	return &Plan{
		Primary:    primarySpec,
		Comparison: comparisonSpec,
		Label:      e.label(metric),
	}, nil
}

// planLFL restricts both periods to the dates enumerated by the metric's
// LFL calendar dataset, so both sides compare an identical set of calendar-
// matched days. Missing calendar configuration fails closed rather than
// degrading to a naive date shift.
func (e *Engine) planLFL(metric *models.MetricDefinition, fc models.FilterContext) (*Plan, error) {
	if metric.LFLCalendarDatasetID == "" || metric.LFLCurrentPeriodColumn == "" || metric.LFLPriorPeriodColumn == "" {
		return nil, comparisonErr(ErrLFLConfigMissing, metric.ID, "calendar dataset and period columns are required")
	}

	calendar, ok := e.resolver.Dataset(metric.LFLCalendarDatasetID)
	if !ok {
		return nil, comparisonErr(ErrLFLConfigMissing, metric.ID, fmt.Sprintf("calendar dataset %q not found", metric.LFLCalendarDatasetID))
	}
	if !query.ValidIdentifier(metric.LFLCurrentPeriodColumn) || !query.ValidIdentifier(metric.LFLPriorPeriodColumn) {
		return nil, comparisonErr(ErrLFLConfigMissing, metric.ID, "invalid calendar period columns")
	}

	ds, ok := e.resolver.Dataset(metric.DatasetID)
	if !ok {
		return nil, &query.CompileError{Kind: query.ErrUnknownDataset, MetricID: metric.ID, Detail: fmt.Sprintf("dataset %q", metric.DatasetID)}
	}
	dateColumn := metric.ComparisonDateColumn
	if dateColumn == "" {
		dateColumn = ds.DateColumn
	}

	// The calendar table defines each period's eligible dates, so the
	// context's own date window is dropped: a date with sales in only one
	// period must not distort the ratio.
	currentPredicate := fmt.Sprintf("%s IN (SELECT %s FROM %s)", dateColumn, metric.LFLCurrentPeriodColumn, calendar.Table)
	priorPredicate := fmt.Sprintf("%s IN (SELECT %s FROM %s)", dateColumn, metric.LFLPriorPeriodColumn, calendar.Table)

	primarySpec, err := e.compiler.Compile(metric, fc,
		query.WithWindow(nil, nil),
		query.WithPredicate(currentPredicate))
	if err != nil {
		return nil, err
	}
	comparisonSpec, err := e.compiler.Compile(metric, fc,
		query.WithWindow(nil, nil),
		query.WithPredicate(priorPredicate))
	if err != nil {
		return nil, err
	}

	return &Plan{
		Primary:    primarySpec,
		Comparison: comparisonSpec,
		Label:      e.label(metric),
	}, nil
}

// label picks the widget's comparison label.
func (e *Engine) label(metric *models.MetricDefinition) string {
	if metric.ComparisonLabel != "" {
		return metric.ComparisonLabel
	}
	switch metric.ComparisonType {
	case models.ComparisonYoY:
		return "vs last year"
	case models.ComparisonMoM:
		return "vs last month"
	case models.ComparisonWoW:
		return "vs last week"
	case models.ComparisonYTD:
		return "vs prior YTD"
	case models.ComparisonLFL:
		return "like-for-like"
	default:
		return "vs prior period"
	}
}

// Trend computes the signed percentage delta between a current and a prior
// value. A prior value of zero yields nil, never infinity or zero: zero is a
// real trend value and must not double as "no data".
func Trend(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	t := (current - previous) / previous * 100
	return &t
}
