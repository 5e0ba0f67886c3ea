// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// identifierPattern accepts plain and dotted SQL identifiers. Anything else
// is rejected before it can reach a compiled statement.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether s is a safe SQL identifier.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
// It guarantees that an empty selection produces no predicate at all; an
// "IN ()" clause would incorrectly match nothing.
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates an empty WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition with its bind arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddDateRange adds inclusive bounds on the given date column. Nil bounds
// are skipped, so an all-time window contributes nothing.
func (wb *WhereBuilder) AddDateRange(column string, start, end *time.Time) *WhereBuilder {
	if start != nil {
		wb.clauses = append(wb.clauses, column+" >= ?")
		wb.args = append(wb.args, *start)
	}
	if end != nil {
		wb.clauses = append(wb.clauses, column+" <= ?")
		wb.args = append(wb.args, *end)
	}
	return wb
}

// AddIn adds "column IN (?, ...)" for a non-empty value set. An empty set is
// skipped entirely: empty means "no restriction".
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddExpression appends a raw WHERE fragment wrapped in parentheses, for
// metric-level filter expressions.
func (wb *WhereBuilder) AddExpression(expr string) *WhereBuilder {
	expr = strings.TrimSpace(expr)
	if expr != "" {
		wb.clauses = append(wb.clauses, "("+expr+")")
	}
	return wb
}

// Empty reports whether no predicates were added.
func (wb *WhereBuilder) Empty() bool {
	return len(wb.clauses) == 0
}

// Build returns the WHERE clause (including the leading "WHERE", or empty
// string when no predicates exist) and the bind arguments.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(wb.clauses, " AND "), wb.args
}
