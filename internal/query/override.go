// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/storelens/storelens/internal/models"
)

var (
	// fromTablePattern matches the first "FROM <identifier>" occurrence,
	// capturing the identifier for substitution.
	fromTablePattern = regexp.MustCompile(`(?i)\bFROM\s+([A-Za-z_][A-Za-z0-9_.]*)`)

	// limitPattern detects a LIMIT clause on the outer statement, at the
	// end of the query text. A LIMIT inside a subquery does not bound the
	// outer result set and must not suppress the default.
	limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+(\s+OFFSET\s+\d+)?\s*;?\s*$`)
)

// compileOverride compiles a SQL-override metric: the user-supplied query is
// taken as-is, with the table name in its first FROM clause substituted for
// the resolved dataset table, and a default LIMIT appended only when the
// query carries none.
//
// The filter context is deliberately NOT injected: authors of raw queries
// must embed their own filter predicates. This is a documented limitation of
// override mode, not something the compiler silently corrects.
func (c *Compiler) compileOverride(metric *models.MetricDefinition, o *compileOpts) (models.QuerySpec, error) {
	raw := strings.TrimSpace(metric.RawQuery)
	if raw == "" {
		return models.QuerySpec{}, compileErr(ErrInvalidOverride, metric.ID, "empty raw query")
	}

	// Drill-down refinement, window shifts, and injected predicates all
	// require builder-mode WHERE compilation; an override query's structure
	// is opaque to the compiler. Rejecting them here keeps a caller from
	// compiling a query that silently drops its requested constraints.
	if o.refinement != nil {
		return models.QuerySpec{}, compileErr(ErrInvalidOverride, metric.ID, "drill-down refinement is not supported for raw queries")
	}
	if o.windowOverride || len(o.extraClauses) > 0 {
		return models.QuerySpec{}, compileErr(ErrInvalidOverride, metric.ID, "window and predicate overrides are not supported for raw queries")
	}

	ds, ok := c.resolver.Dataset(metric.DatasetID)
	if !ok {
		return models.QuerySpec{}, compileErr(ErrUnknownDataset, metric.ID, fmt.Sprintf("dataset %q", metric.DatasetID))
	}

	loc := fromTablePattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return models.QuerySpec{}, compileErr(ErrInvalidOverride, metric.ID, "no FROM clause found")
	}

	// Replace only the captured identifier of the first FROM occurrence.
	sql := raw[:loc[2]] + ds.Table + raw[loc[3]:]

	if !limitPattern.MatchString(sql) && c.rawDefaultLimit > 0 {
		sql = sql + fmt.Sprintf(" LIMIT %d", c.rawDefaultLimit)
	}

	return models.QuerySpec{SQL: sql}, nil
}
