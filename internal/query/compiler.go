// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package query compiles declarative metric definitions plus a filter
// context snapshot into executable SQL query specs. Compilation is a pure
// function: it returns a spec or an error, never executes anything, and
// never emits partial SQL.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/models"
)

// Dimension columns of the retail star schema. Every fact dataset carries
// these alongside its date column.
const (
	RegionColumn = "region_code"
	GroupColumn  = "group_code"
	StoreColumn  = "store_id"
)

// Aliases used in compiled builder-mode SELECT lists. Renderers and the
// assembler rely on these instead of sniffing result shapes.
const (
	ValueAlias = "value"
	LabelAlias = "label"
)

// Dataset is a resolved physical table reference.
type Dataset struct {
	ID         string
	Table      string
	DateColumn string
}

// Resolver resolves dataset IDs to physical tables. The dataset catalog in
// the store package implements it.
type Resolver interface {
	Dataset(id string) (Dataset, bool)
}

// Compiler turns (metric, filter context) pairs into QuerySpecs.
type Compiler struct {
	resolver Resolver

	// rawDefaultLimit is appended to raw-override queries lacking their own
	// LIMIT, as a safety bound against runaway previews.
	rawDefaultLimit int

	// now is the reference clock for preset window resolution.
	now func() time.Time
}

// NewCompiler creates a compiler over the given dataset resolver.
func NewCompiler(resolver Resolver, rawDefaultLimit int) *Compiler {
	return &Compiler{
		resolver:        resolver,
		rawDefaultLimit: rawDefaultLimit,
		now:             time.Now,
	}
}

// WithClock overrides the reference clock, for deterministic tests.
func (c *Compiler) WithClock(now func() time.Time) *Compiler {
	c.now = now
	return c
}

// Option adjusts a single compilation.
type Option func(*compileOpts)

type compileOpts struct {
	windowOverride bool
	windowStart    *time.Time
	windowEnd      *time.Time

	extraClauses []clause

	refinement *Refinement
}

type clause struct {
	sql  string
	args []any
}

// Refinement narrows a compiled query for drill-down: an additional
// field = value predicate plus a forced row limit that overrides the
// metric's own.
type Refinement struct {
	Field string
	Value any
	Limit int
}

// WithWindow overrides the filter context's date window with an explicit
// range. Used by the comparison engine to compile prior-period queries.
// Nil bounds omit the corresponding predicate.
func WithWindow(start, end *time.Time) Option {
	return func(o *compileOpts) {
		o.windowOverride = true
		o.windowStart = start
		o.windowEnd = end
	}
}

// WithPredicate ANDs an extra predicate into the compiled WHERE clause.
// Used by the comparison engine to restrict periods to LFL calendar dates.
func WithPredicate(sql string, args ...any) Option {
	return func(o *compileOpts) {
		o.extraClauses = append(o.extraClauses, clause{sql: sql, args: args})
	}
}

// WithRefinement applies a drill-down refinement.
func WithRefinement(r Refinement) Option {
	return func(o *compileOpts) {
		o.refinement = &r
	}
}

// Compile translates a metric definition under the given filter context into
// an executable query spec. SQL-override metrics go through the override
// path; everything else is builder mode.
func (c *Compiler) Compile(metric *models.MetricDefinition, fc models.FilterContext, opts ...Option) (models.QuerySpec, error) {
	var o compileOpts
	for _, opt := range opts {
		opt(&o)
	}

	if metric.UseRawQuery {
		return c.compileOverride(metric, &o)
	}
	return c.compileBuilder(metric, fc, &o)
}

// compileBuilder synthesizes SQL from the metric's structured fields.
func (c *Compiler) compileBuilder(metric *models.MetricDefinition, fc models.FilterContext, o *compileOpts) (models.QuerySpec, error) {
	ds, ok := c.resolver.Dataset(metric.DatasetID)
	if !ok {
		return models.QuerySpec{}, compileErr(ErrUnknownDataset, metric.ID, fmt.Sprintf("dataset %q", metric.DatasetID))
	}

	selectList, err := c.selectList(metric)
	if err != nil {
		return models.QuerySpec{}, err
	}

	where, err := c.compileFilters(metric, fc, ds, o)
	if err != nil {
		return models.QuerySpec{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	sb.WriteString(" FROM ")
	sb.WriteString(ds.Table)

	whereSQL, args := where.Build()
	if whereSQL != "" {
		sb.WriteString(" ")
		sb.WriteString(whereSQL)
	}

	if metric.GroupByColumn != "" && !metric.IsListLike() {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(metric.GroupByColumn)
	}

	if metric.OrderByColumn != "" {
		if !ValidIdentifier(metric.OrderByColumn) {
			return models.QuerySpec{}, compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("invalid order column %q", metric.OrderByColumn))
		}
		dir := metric.OrderDirection
		if dir != models.OrderAsc && dir != models.OrderDesc {
			dir = models.OrderAsc
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(metric.OrderByColumn)
		sb.WriteString(" ")
		sb.WriteString(string(dir))
	}

	// A refinement's limit overrides the metric's own; limit 0 means no
	// LIMIT clause at all.
	limit := metric.Limit
	if o.refinement != nil && o.refinement.Limit > 0 {
		limit = o.refinement.Limit
	}
	if limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}

	return models.QuerySpec{SQL: sb.String(), Args: args}, nil
}

// selectList builds the projection for builder mode. List-like metrics
// select their configured column set verbatim; aggregations select the
// mapped aggregate (plus the group label when grouping).
func (c *Compiler) selectList(metric *models.MetricDefinition) (string, error) {
	if metric.IsListLike() {
		cols := metric.Chart.GridColumns
		if len(cols) == 0 && metric.Column != "" {
			cols = []string{metric.Column}
		}
		if len(cols) == 0 {
			return "*", nil
		}
		for _, col := range cols {
			if !ValidIdentifier(col) {
				return "", compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("invalid column %q", col))
			}
		}
		return strings.Join(cols, ", "), nil
	}

	agg, err := c.aggregate(metric)
	if err != nil {
		return "", err
	}

	if metric.GroupByColumn != "" {
		if !ValidIdentifier(metric.GroupByColumn) {
			return "", compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("invalid group column %q", metric.GroupByColumn))
		}
		return fmt.Sprintf("%s AS %s, %s AS %s", metric.GroupByColumn, LabelAlias, agg, ValueAlias), nil
	}
	return fmt.Sprintf("%s AS %s", agg, ValueAlias), nil
}

// aggregate maps the metric's aggregation onto its SQL form. The mapping is
// fixed: sum/avg/min/max take the column, count ignores it, distinct counts
// distinct column values.
func (c *Compiler) aggregate(metric *models.MetricDefinition) (string, error) {
	if metric.Aggregation != models.AggregationCount {
		if metric.Column == "" {
			return "", compileErr(ErrMissingColumn, metric.ID, string(metric.Aggregation)+" requires a column")
		}
		if !ValidIdentifier(metric.Column) {
			return "", compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("invalid column %q", metric.Column))
		}
	}

	switch metric.Aggregation {
	case models.AggregationSum:
		return fmt.Sprintf("SUM(%s)", metric.Column), nil
	case models.AggregationAvg:
		return fmt.Sprintf("AVG(%s)", metric.Column), nil
	case models.AggregationCount:
		return "COUNT(*)", nil
	case models.AggregationDistinct:
		return fmt.Sprintf("COUNT(DISTINCT %s)", metric.Column), nil
	case models.AggregationMin:
		return fmt.Sprintf("MIN(%s)", metric.Column), nil
	case models.AggregationMax:
		return fmt.Sprintf("MAX(%s)", metric.Column), nil
	default:
		return "", compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("unsupported aggregation %q", metric.Aggregation))
	}
}

// compileFilters builds the WHERE clause from the filter context, the
// metric's own filter expression, any comparison-engine predicates and the
// drill-down refinement.
func (c *Compiler) compileFilters(metric *models.MetricDefinition, fc models.FilterContext, ds Dataset, o *compileOpts) (*WhereBuilder, error) {
	wb := NewWhereBuilder()

	// ComparisonDateColumn only redirects the date predicate when the
	// comparison engine supplies the window. Ordinary dashboard queries
	// always filter on the dataset's own date column.
	dateColumn := ds.DateColumn
	if o.windowOverride && metric.ComparisonDateColumn != "" {
		dateColumn = metric.ComparisonDateColumn
	}
	if !ValidIdentifier(dateColumn) {
		return nil, compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("invalid date column %q", dateColumn))
	}

	if o.windowOverride {
		wb.AddDateRange(dateColumn, o.windowStart, o.windowEnd)
	} else {
		start, end := filterctx.Window(fc, c.now())
		wb.AddDateRange(dateColumn, start, end)
	}

	// Empty selections mean "no restriction" and contribute no predicate.
	wb.AddIn(RegionColumn, fc.RegionCodes)
	wb.AddIn(GroupColumn, fc.GroupCodes)

	// A store selection covering the whole universe is "all stores" too,
	// even though the set is non-empty.
	if !fc.StoresUnrestricted() {
		wb.AddIn(StoreColumn, fc.StoreIDs)
	}

	wb.AddExpression(metric.FilterExpression)

	for _, cl := range o.extraClauses {
		wb.AddClause(cl.sql, cl.args...)
	}

	if o.refinement != nil {
		if !ValidIdentifier(o.refinement.Field) {
			return nil, compileErr(ErrMissingColumn, metric.ID, fmt.Sprintf("invalid drill-down field %q", o.refinement.Field))
		}
		wb.AddClause(o.refinement.Field+" = ?", o.refinement.Value)
	}

	return wb, nil
}

// CompileDrillDown compiles the row-level detail query for a drill-down
// click: every column of the dataset, scoped by the same filter context plus
// the clicked dimension, capped at limit rows. The caller asks for one row
// beyond its cap to detect truncation.
func (c *Compiler) CompileDrillDown(metric *models.MetricDefinition, fc models.FilterContext, field string, value any, limit int) (models.QuerySpec, error) {
	ds, ok := c.resolver.Dataset(metric.DatasetID)
	if !ok {
		return models.QuerySpec{}, compileErr(ErrUnknownDataset, metric.ID, fmt.Sprintf("dataset %q", metric.DatasetID))
	}

	var o compileOpts
	o.refinement = &Refinement{Field: field, Value: value, Limit: limit}

	where, err := c.compileFilters(metric, fc, ds, &o)
	if err != nil {
		return models.QuerySpec{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(ds.Table)
	whereSQL, args := where.Build()
	if whereSQL != "" {
		sb.WriteString(" ")
		sb.WriteString(whereSQL)
	}
	if limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}

	return models.QuerySpec{SQL: sb.String(), Args: args}, nil
}
