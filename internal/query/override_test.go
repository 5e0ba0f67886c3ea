// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package query

import (
	"errors"
	"testing"

	"github.com/storelens/storelens/internal/models"
)

func rawMetric(sql string) *models.MetricDefinition {
	m := scalarMetric()
	m.UseRawQuery = true
	m.RawQuery = sql
	return m
}

func TestOverrideSubstitutesFromTable(t *testing.T) {
	c := testCompiler()

	spec, err := c.Compile(rawMetric("SELECT SUM(net_amount) AS value FROM source_table WHERE category = 'beverages'"), models.FilterContext{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	want := "SELECT SUM(net_amount) AS value FROM sales WHERE category = 'beverages' LIMIT 1000"
	if spec.SQL != want {
		t.Errorf("SQL = %q, want %q", spec.SQL, want)
	}
}

func TestOverrideKeepsExistingLimit(t *testing.T) {
	c := testCompiler()

	spec, err := c.Compile(rawMetric("SELECT city FROM t LIMIT 5"), models.FilterContext{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	want := "SELECT city FROM sales LIMIT 5"
	if spec.SQL != want {
		t.Errorf("SQL = %q, want %q", spec.SQL, want)
	}
}

func TestOverrideSubqueryLimitStillBounded(t *testing.T) {
	c := testCompiler()

	spec, err := c.Compile(rawMetric("SELECT a FROM t WHERE x IN (SELECT y FROM dim_lookup LIMIT 5)"), models.FilterContext{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	want := "SELECT a FROM sales WHERE x IN (SELECT y FROM dim_lookup LIMIT 5) LIMIT 1000"
	if spec.SQL != want {
		t.Errorf("SQL = %q, want %q", spec.SQL, want)
	}
}

func TestOverrideKeepsTrailingLimitOffset(t *testing.T) {
	c := testCompiler()

	spec, err := c.Compile(rawMetric("SELECT city FROM t LIMIT 20 OFFSET 40"), models.FilterContext{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	want := "SELECT city FROM sales LIMIT 20 OFFSET 40"
	if spec.SQL != want {
		t.Errorf("SQL = %q, want %q", spec.SQL, want)
	}
}

func TestOverrideSubstitutesOnlyFirstFrom(t *testing.T) {
	c := testCompiler()

	spec, err := c.Compile(rawMetric("SELECT a FROM t WHERE x IN (SELECT y FROM dim_lookup) LIMIT 1"), models.FilterContext{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	want := "SELECT a FROM sales WHERE x IN (SELECT y FROM dim_lookup) LIMIT 1"
	if spec.SQL != want {
		t.Errorf("SQL = %q, want %q", spec.SQL, want)
	}
}

func TestOverrideErrors(t *testing.T) {
	c := testCompiler()

	tests := []struct {
		name string
		raw  string
		opts []Option
	}{
		{name: "empty raw query", raw: "   "},
		{name: "no from clause", raw: "SELECT 1"},
		{
			name: "refinement unsupported",
			raw:  "SELECT city FROM t",
			opts: []Option{WithRefinement(Refinement{Field: "city", Value: "İzmir", Limit: 10})},
		},
		{
			name: "window override unsupported",
			raw:  "SELECT city FROM t",
			opts: []Option{WithWindow(nil, nil)},
		},
		{
			name: "predicate unsupported",
			raw:  "SELECT city FROM t",
			opts: []Option{WithPredicate("category = ?", "beverages")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(rawMetric(tt.raw), models.FilterContext{}, tt.opts...)
			var compileErr *CompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("Compile() error = %v, want CompileError", err)
			}
			if compileErr.Kind != ErrInvalidOverride {
				t.Errorf("Kind = %q, want %q", compileErr.Kind, ErrInvalidOverride)
			}
		})
	}
}

func TestWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()
	if !wb.Empty() {
		t.Error("new builder should be empty")
	}

	wb.AddIn("region_code", nil)
	if sql, _ := wb.Build(); sql != "" {
		t.Errorf("Build() = %q, want empty clause for empty IN set", sql)
	}

	wb.AddIn("region_code", []string{"EGE"})
	wb.AddExpression("  net_amount > 0  ")
	sql, args := wb.Build()

	want := "WHERE region_code IN (?) AND (net_amount > 0)"
	if sql != want {
		t.Errorf("Build() = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "EGE" {
		t.Errorf("args = %v, want [EGE]", args)
	}
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"net_amount", true},
		{"sales.net_amount", true},
		{"_private", true},
		{"", false},
		{"1col", false},
		{"a.b.c", false},
		{"col; DROP TABLE x", false},
		{"col name", false},
	}

	for _, tt := range tests {
		if got := ValidIdentifier(tt.in); got != tt.want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
