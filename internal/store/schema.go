// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package store

import (
	"context"
	"fmt"

	"github.com/storelens/storelens/internal/logging"
)

// schemaStatements creates the engine's own tables plus the demo retail
// star schema: a sales fact table with the shared dimension columns every
// fact dataset carries, the store dimension and the LFL comparison calendar.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		id          VARCHAR PRIMARY KEY,
		table_name  VARCHAR NOT NULL,
		date_column VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS metric_definitions (
		id         VARCHAR PRIMARY KEY,
		name       VARCHAR NOT NULL,
		definition VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		store_id    VARCHAR PRIMARY KEY,
		name        VARCHAR NOT NULL,
		city        VARCHAR,
		region_code VARCHAR,
		group_code  VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		sale_date   TIMESTAMP NOT NULL,
		store_id    VARCHAR NOT NULL,
		region_code VARCHAR,
		group_code  VARCHAR,
		city        VARCHAR,
		category    VARCHAR,
		net_amount  DOUBLE NOT NULL,
		quantity    INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS lfl_calendar (
		current_day DATE NOT NULL,
		prior_day   DATE NOT NULL
	)`,
}

// initSchema creates all tables if missing.
func (db *DB) initSchema(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// seedDemoData registers the built-in datasets and a small store dimension
// when the catalog is empty. Sales fact rows are left to the provisioning
// tooling; the engine only guarantees the schema exists.
func (db *DB) seedDemoData(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM datasets").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		sql  string
		args []any
	}{
		{"INSERT INTO datasets VALUES (?, ?, ?)", []any{"sales", "sales", "sale_date"}},
		{"INSERT INTO datasets VALUES (?, ?, ?)", []any{"lfl_calendar", "lfl_calendar", "current_day"}},

		{"INSERT INTO stores VALUES (?, ?, ?, ?, ?)", []any{"S001", "Alsancak", "İzmir", "EGE", "G1"}},
		{"INSERT INTO stores VALUES (?, ?, ?, ?, ?)", []any{"S002", "Bornova", "İzmir", "EGE", "G1"}},
		{"INSERT INTO stores VALUES (?, ?, ?, ?, ?)", []any{"S003", "Kadıköy", "İstanbul", "MAR", "G2"}},
		{"INSERT INTO stores VALUES (?, ?, ?, ?, ?)", []any{"S004", "Beşiktaş", "İstanbul", "MAR", "G2"}},
		{"INSERT INTO stores VALUES (?, ?, ?, ?, ?)", []any{"S005", "Çankaya", "Ankara", "ANA", "G1"}},
	}
	for _, s := range seed {
		if _, err := db.conn.ExecContext(ctx, s.sql, s.args...); err != nil {
			return err
		}
	}

	logging.Info().Int("stores", 5).Msg("seeded dataset catalog and store dimension")
	return nil
}
