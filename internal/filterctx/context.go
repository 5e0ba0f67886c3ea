// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package filterctx holds the globally shared filter state read by every
// widget: the active date window, the dimension selections and the advisory
// cross-filters. Mutation is synchronous and immediately observable; every
// mutation bumps a generation counter so late-arriving query responses from
// superseded generations can be discarded.
package filterctx

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/storelens/storelens/internal/models"
)

// ChangeFunc is invoked synchronously after every mutation with the new
// generation. Callbacks must be fast; slow work (debouncing, refresh
// dispatch) belongs to the subscriber.
type ChangeFunc func(generation uint64)

// Context is the single mutable shared state of the dashboard core. All
// other components operate on immutable Snapshots of it. Safe for concurrent
// use; writes are expected from a single UI-facing path.
type Context struct {
	mu sync.RWMutex

	generation uint64

	dateMode   models.DateMode
	datePreset string
	startDate  *time.Time
	endDate    *time.Time

	regionCodes []string
	groupCodes  []string
	storeIDs    []string

	storeUniverseSize int

	crossFilters *CrossFilterCoordinator

	onChange []ChangeFunc
}

// New creates a filter context with no restrictions and an all-time date
// window. storeUniverseSize is the total known store count used to detect
// select-all store selections; zero disables that collapsing.
func New(storeUniverseSize int) *Context {
	return &Context{
		dateMode:          models.DateModeAllTime,
		storeUniverseSize: storeUniverseSize,
		crossFilters:      NewCrossFilterCoordinator(),
	}
}

// OnChange registers a callback invoked after every mutation.
func (c *Context) OnChange(fn ChangeFunc) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Generation returns the current filter-state generation.
func (c *Context) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Snapshot returns an immutable copy of the current state, stamped with the
// current generation. Query compilation always consumes snapshots, never the
// live context.
func (c *Context) Snapshot() models.FilterContext {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fc := models.FilterContext{
		Generation:        c.generation,
		DateMode:          c.dateMode,
		DatePreset:        c.datePreset,
		RegionCodes:       append([]string(nil), c.regionCodes...),
		GroupCodes:        append([]string(nil), c.groupCodes...),
		StoreIDs:          append([]string(nil), c.storeIDs...),
		StoreUniverseSize: c.storeUniverseSize,
	}
	if c.startDate != nil {
		t := *c.startDate
		fc.StartDate = &t
	}
	if c.endDate != nil {
		t := *c.endDate
		fc.EndDate = &t
	}
	return fc
}

// SetAllTime disables date filtering.
func (c *Context) SetAllTime() {
	c.mutate(func() {
		c.dateMode = models.DateModeAllTime
		c.datePreset = ""
		c.startDate, c.endDate = nil, nil
	})
}

// SetDatePreset activates a named preset window. The preset name becomes
// authoritative; any explicit range is cleared.
func (c *Context) SetDatePreset(preset string) {
	c.mutate(func() {
		c.dateMode = models.DateModePreset
		c.datePreset = preset
		c.startDate, c.endDate = nil, nil
	})
}

// SetDateRange activates an explicit custom window. The range becomes
// authoritative; any preset is cleared.
func (c *Context) SetDateRange(start, end time.Time) {
	c.mutate(func() {
		c.dateMode = models.DateModeCustom
		c.datePreset = ""
		s, e := start, end
		c.startDate, c.endDate = &s, &e
	})
}

// SetRegions replaces the region selection. An empty selection means "no
// restriction".
func (c *Context) SetRegions(codes []string) {
	c.mutate(func() {
		c.regionCodes = lo.Uniq(codes)
	})
}

// SetGroups replaces the ownership-group selection. An empty selection means
// "no restriction".
func (c *Context) SetGroups(codes []string) {
	c.mutate(func() {
		c.groupCodes = lo.Uniq(codes)
	})
}

// SetStores replaces the store selection. Selecting every known store is
// semantically identical to selecting none.
func (c *Context) SetStores(ids []string) {
	c.mutate(func() {
		c.storeIDs = lo.Uniq(ids)
	})
}

// SetStoreUniverseSize updates the known store count, typically after the
// dimension catalog reloads.
func (c *Context) SetStoreUniverseSize(n int) {
	c.mutate(func() {
		c.storeUniverseSize = n
	})
}

// CrossFilters exposes the cross-filter coordinator. Adding or clearing
// cross-filters bumps the generation like any other mutation.
func (c *Context) CrossFilters() *CrossFilterCoordinator {
	return c.crossFilters
}

// AddCrossFilter records an ad-hoc filter from a widget interaction,
// replacing any previous entry from the same widget.
func (c *Context) AddCrossFilter(cf models.CrossFilter) {
	c.mutate(func() {
		c.crossFilters.Add(cf)
	})
}

// RemoveCrossFilter clears the cross-filter originating from the widget.
func (c *Context) RemoveCrossFilter(widgetID string) {
	c.mutate(func() {
		c.crossFilters.Remove(widgetID)
	})
}

// ClearCrossFilters removes every cross-filter.
func (c *Context) ClearCrossFilters() {
	c.mutate(func() {
		c.crossFilters.Clear()
	})
}

// mutate applies fn under the write lock, bumps the generation and notifies
// subscribers outside the lock.
func (c *Context) mutate(fn func()) {
	c.mu.Lock()
	fn()
	c.generation++
	gen := c.generation
	callbacks := append([]ChangeFunc(nil), c.onChange...)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(gen)
	}
}
