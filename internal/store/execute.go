// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package store

import (
	"context"
	"errors"
	"time"

	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/metrics"
	"github.com/storelens/storelens/internal/models"
)

// Execute runs a compiled query spec and returns its rows as column-keyed
// maps. Row order follows the statement's ORDER BY; column order is
// available through ExecuteOrdered for consumers that display raw tables.
//
// Transient connection failures are retried transparently at most
// cfg.MaxRetries times. Timeouts and syntax errors are surfaced immediately:
// retrying a malformed query only hides a configuration bug.
func (db *DB) Execute(ctx context.Context, spec models.QuerySpec) ([]models.Row, error) {
	rows, _, err := db.ExecuteOrdered(ctx, spec)
	return rows, err
}

// ExecuteOrdered is Execute plus the result's column order.
func (db *DB) ExecuteOrdered(ctx context.Context, spec models.QuerySpec) ([]models.Row, []string, error) {
	start := time.Now()

	var columns []string
	result, err := db.breaker.Execute(func() ([]models.Row, error) {
		var execErr error
		var rows []models.Row

		attempts := db.cfg.MaxRetries + 1
		for attempt := 0; attempt < attempts; attempt++ {
			rows, columns, execErr = db.queryRows(ctx, spec)
			if execErr == nil {
				return rows, nil
			}

			classified := classifyExecError(execErr)
			if classified.Kind != ErrConnectionFailure || attempt == attempts-1 {
				return nil, classified
			}

			logging.Ctx(ctx).Warn().
				Err(execErr).
				Int("attempt", attempt+1).
				Msg("transient connection failure, retrying query")
		}
		return nil, classifyExecError(execErr)
	})

	metrics.QueryDuration.WithLabelValues(statusLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryErrors.WithLabelValues(errorKindLabel(err)).Inc()
		return nil, nil, err
	}
	return result, columns, nil
}

// queryRows executes one attempt and scans all rows into maps.
func (db *DB) queryRows(ctx context.Context, spec models.QuerySpec) ([]models.Row, []string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, spec.SQL, spec.Args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []models.Row
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, err
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return out, columns, nil
}

// normalizeValue converts driver byte slices to strings so results are
// JSON-friendly without renderer-side sniffing.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// statusLabel maps an execution outcome to a metric label.
func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// errorKindLabel extracts the taxonomy kind for metrics.
func errorKindLabel(err error) string {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return string(execErr.Kind)
	}
	return "other"
}
