// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ExecutionErrorKind classifies query execution failures.
type ExecutionErrorKind string

const (
	// ErrTimeout means the query exceeded the configured execution timeout.
	// Never retried: the widget surfaces it instead of hanging.
	ErrTimeout ExecutionErrorKind = "Timeout"

	// ErrConnectionFailure means the analytical store connection was lost.
	// Retried transparently at most once.
	ErrConnectionFailure ExecutionErrorKind = "ConnectionFailure"

	// ErrQuerySyntax means the compiled (or raw-override) SQL was rejected.
	// Never retried: retrying a malformed query hides a configuration bug.
	ErrQuerySyntax ExecutionErrorKind = "QuerySyntax"
)

// ExecutionError wraps a query execution failure with its classification.
type ExecutionError struct {
	Kind ExecutionErrorKind
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %s: %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// classifyExecError maps a driver error onto the execution taxonomy.
func classifyExecError(err error) *ExecutionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ExecutionError{Kind: ErrTimeout, Err: err}
	case isConnectionError(err):
		return &ExecutionError{Kind: ErrConnectionFailure, Err: err}
	default:
		return &ExecutionError{Kind: ErrQuerySyntax, Err: err}
	}
}

// isConnectionError checks if an error indicates connection loss.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "database is closed")
}
