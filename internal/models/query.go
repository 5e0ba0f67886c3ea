// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package models

// QuerySpec is a compiled, executable aggregation query. Both builder mode
// and SQL-override mode produce the same shape, so execution and caching
// never branch on how the query was authored.
type QuerySpec struct {
	// SQL is the complete statement with ? placeholders.
	SQL string `json:"sql"`

	// Args are the placeholder bind values, in order.
	Args []any `json:"args,omitempty"`
}

// Row is one result row keyed by column name. Column order is preserved
// separately where it matters (drill-down results).
type Row map[string]any
