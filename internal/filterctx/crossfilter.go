// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package filterctx

import (
	"sort"
	"sync"

	"github.com/storelens/storelens/internal/models"
)

// CrossFilterCoordinator records ad-hoc filters originating from widget
// interaction, keyed by the originating widget so each widget contributes at
// most one active cross-filter.
//
// The coordinator is fully modeled and tested but intentionally inert: the
// query compiler does not consume cross-filters yet. ApplyToContext is the
// documented extension point for wiring cross-filters into sibling widgets'
// query scope.
type CrossFilterCoordinator struct {
	mu      sync.RWMutex
	entries map[string]models.CrossFilter
}

// NewCrossFilterCoordinator creates an empty coordinator.
func NewCrossFilterCoordinator() *CrossFilterCoordinator {
	return &CrossFilterCoordinator{
		entries: make(map[string]models.CrossFilter),
	}
}

// Add records a cross-filter, replacing any previous entry from the same
// originating widget.
func (c *CrossFilterCoordinator) Add(cf models.CrossFilter) {
	c.mu.Lock()
	c.entries[cf.WidgetID] = cf
	c.mu.Unlock()
}

// Remove clears the cross-filter originating from the given widget.
// No-op when the widget has none.
func (c *CrossFilterCoordinator) Remove(widgetID string) {
	c.mu.Lock()
	delete(c.entries, widgetID)
	c.mu.Unlock()
}

// Clear removes every cross-filter.
func (c *CrossFilterCoordinator) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]models.CrossFilter)
	c.mu.Unlock()
}

// List returns the active cross-filters ordered by originating widget ID.
func (c *CrossFilterCoordinator) List() []models.CrossFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.CrossFilter, 0, len(c.entries))
	for _, cf := range c.entries {
		out = append(out, cf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WidgetID < out[j].WidgetID })
	return out
}

// Get returns the cross-filter from the given widget, if any.
func (c *CrossFilterCoordinator) Get(widgetID string) (models.CrossFilter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cf, ok := c.entries[widgetID]
	return cf, ok
}

// ApplyToContext is the extension point for the cross-filter feedback loop:
// it would narrow a sibling widget's filter snapshot with the active
// cross-filters (excluding the widget's own). The product ships with this
// loop disabled, so the assembler never calls it; it exists so the wiring is
// a one-line change rather than a redesign.
func (c *CrossFilterCoordinator) ApplyToContext(fc models.FilterContext, excludeWidgetID string) models.FilterContext {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cf := range c.entries {
		if cf.WidgetID == excludeWidgetID {
			continue
		}
		fc.CrossFilters = append(fc.CrossFilters, cf)
	}
	return fc
}
