// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/storelens/storelens/internal/query"
)

// Catalog resolves dataset IDs to physical tables. It is loaded from the
// datasets table at startup and cached; Reload refreshes it after catalog
// changes.
type Catalog struct {
	db *DB

	mu       sync.RWMutex
	datasets map[string]query.Dataset
}

// NewCatalog loads the dataset catalog.
func NewCatalog(ctx context.Context, db *DB) (*Catalog, error) {
	c := &Catalog{db: db}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the datasets table.
func (c *Catalog) Reload(ctx context.Context) error {
	ctx, cancel := c.db.ensureContext(ctx)
	defer cancel()

	rows, err := c.db.conn.QueryContext(ctx, "SELECT id, table_name, date_column FROM datasets")
	if err != nil {
		return fmt.Errorf("failed to load dataset catalog: %w", err)
	}
	defer rows.Close()

	datasets := make(map[string]query.Dataset)
	for rows.Next() {
		var ds query.Dataset
		if err := rows.Scan(&ds.ID, &ds.Table, &ds.DateColumn); err != nil {
			return fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets[ds.ID] = ds
	}
	if err := rows.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.datasets = datasets
	c.mu.Unlock()
	return nil
}

// Dataset implements query.Resolver.
func (c *Catalog) Dataset(id string) (query.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[id]
	return ds, ok
}

// List returns every known dataset, for the datasets API.
func (c *Catalog) List() []query.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]query.Dataset, 0, len(c.datasets))
	for _, ds := range c.datasets {
		out = append(out, ds)
	}
	return out
}

// StoreUniverseSize returns the total number of known stores, used by the
// filter context to detect select-all store selections.
func (c *Catalog) StoreUniverseSize(ctx context.Context) (int, error) {
	ctx, cancel := c.db.ensureContext(ctx)
	defer cancel()

	var count int
	if err := c.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM stores").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stores: %w", err)
	}
	return count, nil
}
