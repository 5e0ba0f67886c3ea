// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/storelens/storelens/internal/models"
)

// ErrMetricNotFound is returned when a metric ID resolves to no definition.
var ErrMetricNotFound = errors.New("metric definition not found")

// Registry persists metric definitions. Definitions are authored by the
// metric management UI and consumed immutably by the engine; the engine
// never mutates a definition during resolution.
type Registry struct {
	db *DB
}

// NewRegistry creates a metric registry over the store.
func NewRegistry(db *DB) *Registry {
	return &Registry{db: db}
}

// Get loads one definition by ID.
func (r *Registry) Get(ctx context.Context, id string) (*models.MetricDefinition, error) {
	ctx, cancel := r.db.ensureContext(ctx)
	defer cancel()

	var raw string
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT definition FROM metric_definitions WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMetricNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metric %s: %w", id, err)
	}

	var metric models.MetricDefinition
	if err := json.Unmarshal([]byte(raw), &metric); err != nil {
		return nil, fmt.Errorf("failed to decode metric %s: %w", id, err)
	}
	return &metric, nil
}

// List loads every definition ordered by name.
func (r *Registry) List(ctx context.Context) ([]*models.MetricDefinition, error) {
	ctx, cancel := r.db.ensureContext(ctx)
	defer cancel()

	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT definition FROM metric_definitions ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer rows.Close()

	var out []*models.MetricDefinition
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var metric models.MetricDefinition
		if err := json.Unmarshal([]byte(raw), &metric); err != nil {
			return nil, fmt.Errorf("failed to decode metric definition: %w", err)
		}
		out = append(out, &metric)
	}
	return out, rows.Err()
}

// Upsert stores a definition under its ID.
func (r *Registry) Upsert(ctx context.Context, metric *models.MetricDefinition) error {
	ctx, cancel := r.db.ensureContext(ctx)
	defer cancel()

	raw, err := json.Marshal(metric)
	if err != nil {
		return fmt.Errorf("failed to encode metric %s: %w", metric.ID, err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO metric_definitions (id, name, definition) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, definition = excluded.definition`,
		metric.ID, metric.Name, string(raw))
	if err != nil {
		return fmt.Errorf("failed to store metric %s: %w", metric.ID, err)
	}
	return nil
}

// Delete removes a definition. Widgets still referencing it degrade to an
// error state on their next refresh instead of crashing rendering.
func (r *Registry) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.ensureContext(ctx)
	defer cancel()

	if _, err := r.db.conn.ExecContext(ctx, "DELETE FROM metric_definitions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete metric %s: %w", id, err)
	}
	return nil
}
