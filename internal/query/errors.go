// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package query

import "fmt"

// CompileErrorKind classifies compilation failures.
type CompileErrorKind string

const (
	// ErrUnknownDataset means the metric's dataset ID resolved to no table.
	ErrUnknownDataset CompileErrorKind = "UnknownDataset"

	// ErrMissingColumn means an aggregation other than COUNT was requested
	// without a column, or a configured identifier is not a valid column.
	ErrMissingColumn CompileErrorKind = "MissingColumn"

	// ErrInvalidOverride means a raw-query override could not be compiled
	// (no FROM clause found, or an unsupported refinement was requested).
	ErrInvalidOverride CompileErrorKind = "InvalidOverride"
)

// CompileError is fatal for the metric that produced it only; the batch
// assembler converts it into a per-widget error state. The compiler never
// returns a partially built spec alongside an error.
type CompileError struct {
	Kind     CompileErrorKind
	MetricID string
	Detail   string
}

func (e *CompileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("compile %s: %s", e.MetricID, e.Kind)
	}
	return fmt.Sprintf("compile %s: %s: %s", e.MetricID, e.Kind, e.Detail)
}

// compileErr builds a CompileError for the metric.
func compileErr(kind CompileErrorKind, metricID, detail string) *CompileError {
	return &CompileError{Kind: kind, MetricID: metricID, Detail: detail}
}
