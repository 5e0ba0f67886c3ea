// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package compare

import "fmt"

// ComparisonErrorKind classifies comparison planning failures.
type ComparisonErrorKind string

const (
	// ErrLFLConfigMissing means a like-for-like comparison was requested
	// without a configured calendar dataset or period columns. LFL fails
	// closed instead of falling back to a naive date shift.
	ErrLFLConfigMissing ComparisonErrorKind = "LFLConfigMissing"

	// ErrInvalidPeriodShift means the primary window cannot be shifted,
	// typically because it is unbounded (all-time) or inverted.
	ErrInvalidPeriodShift ComparisonErrorKind = "InvalidPeriodShift"
)

// ComparisonError degrades the widget to "value without comparison"; the
// assembler records it on the widget rather than failing the whole widget.
type ComparisonError struct {
	Kind     ComparisonErrorKind
	MetricID string
	Detail   string
}

func (e *ComparisonError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("comparison %s: %s", e.MetricID, e.Kind)
	}
	return fmt.Sprintf("comparison %s: %s: %s", e.MetricID, e.Kind, e.Detail)
}

func comparisonErr(kind ComparisonErrorKind, metricID, detail string) *ComparisonError {
	return &ComparisonError{Kind: kind, MetricID: metricID, Detail: detail}
}
