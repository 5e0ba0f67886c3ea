// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package dashboard assembles widget data: it orchestrates query
// compilation and comparison planning, executes against the analytical
// store, merges results into the WidgetData contract and applies the TTL
// cache. Batch resolution runs widgets concurrently and isolates failures
// per widget.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/storelens/storelens/internal/cache"
	"github.com/storelens/storelens/internal/compare"
	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/metrics"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
	"github.com/storelens/storelens/internal/store"
)

// Executor is the analytical-store execution boundary the assembler
// depends on.
type Executor interface {
	Execute(ctx context.Context, spec models.QuerySpec) ([]models.Row, error)
}

// Assembler resolves metric definitions into widget data.
type Assembler struct {
	executor Executor
	compiler *query.Compiler
	engine   *compare.Engine

	cache      *cache.Cache
	defaultTTL time.Duration
}

// NewAssembler creates an assembler. cache may be nil to disable caching.
func NewAssembler(executor Executor, compiler *query.Compiler, engine *compare.Engine, c *cache.Cache, defaultTTL time.Duration) *Assembler {
	return &Assembler{
		executor:   executor,
		compiler:   compiler,
		engine:     engine,
		cache:      c,
		defaultTTL: defaultTTL,
	}
}

// cacheKeyParams is everything that shapes a compiled query. Generation and
// cross-filters are deliberately excluded: two generations with identical
// semantic state share a cache entry, and cross-filters do not participate
// in compilation yet.
type cacheKeyParams struct {
	Metric  *models.MetricDefinition `json:"metric"`
	Context models.FilterContext     `json:"context"`
}

// Resolve computes one widget's data under the given filter context.
// Identical (metric, filter context) pairs within the metric's TTL window
// return the cached result with Cached set.
func (a *Assembler) Resolve(ctx context.Context, metric *models.MetricDefinition, fc models.FilterContext) (*models.WidgetData, error) {
	key := a.cacheKey(metric, fc)

	if a.cache != nil {
		if cached, found := a.cache.Get(key); found {
			if data, ok := cached.(*models.WidgetData); ok {
				metrics.CacheHits.Inc()
				metrics.WidgetResolutions.WithLabelValues("cached").Inc()
				out := *data
				out.Cached = true
				out.ExecutionTimeMS = 0
				out.Generation = fc.Generation
				return &out, nil
			}
		}
		metrics.CacheMisses.Inc()
	}

	start := time.Now()
	data, err := a.resolveUncached(ctx, metric, fc)
	if err != nil {
		metrics.WidgetResolutions.WithLabelValues("error").Inc()
		return nil, err
	}
	data.MetricID = metric.ID
	data.Generation = fc.Generation
	data.ExecutionTimeMS = time.Since(start).Milliseconds()
	metrics.WidgetResolutions.WithLabelValues("ok").Inc()

	if a.cache != nil {
		ttl := a.defaultTTL
		if metric.CacheTTLSeconds > 0 {
			ttl = time.Duration(metric.CacheTTLSeconds) * time.Second
		}
		a.cache.SetWithTTL(key, data, ttl)
	}

	return data, nil
}

// ResolveAll executes independent widget resolutions concurrently and joins
// them. One metric's failure never aborts the batch: its slot carries an
// error marker while the siblings return data.
func (a *Assembler) ResolveAll(ctx context.Context, defs []*models.MetricDefinition, fc models.FilterContext) []models.WidgetResult {
	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()

	results := make([]models.WidgetResult, len(defs))

	var wg sync.WaitGroup
	for i, metric := range defs {
		wg.Add(1)
		go func(i int, metric *models.MetricDefinition) {
			defer wg.Done()

			data, err := a.Resolve(ctx, metric, fc)
			if err != nil {
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("metric_id", metric.ID).
					Msg("widget resolution failed")
				results[i] = models.WidgetResult{
					MetricID: metric.ID,
					Err:      widgetError(err),
				}
				return
			}
			results[i] = models.WidgetResult{MetricID: metric.ID, Data: data}
		}(i, metric)
	}
	wg.Wait()

	return results
}

// cacheKey builds the cache key from every field that participates in
// query compilation.
func (a *Assembler) cacheKey(metric *models.MetricDefinition, fc models.FilterContext) string {
	fc.Generation = 0
	fc.CrossFilters = nil
	return cache.GenerateKey("widget", cacheKeyParams{Metric: metric, Context: fc})
}

// widgetError maps taxonomy errors onto the per-widget error marker.
func widgetError(err error) *models.WidgetError {
	var compileErr *query.CompileError
	if errors.As(err, &compileErr) {
		return &models.WidgetError{Code: "COMPILE_ERROR", Message: compileErr.Error()}
	}

	var comparisonErr *compare.ComparisonError
	if errors.As(err, &comparisonErr) {
		return &models.WidgetError{Code: "COMPARISON_ERROR", Message: comparisonErr.Error()}
	}

	var execErr *store.ExecutionError
	if errors.As(err, &execErr) {
		return &models.WidgetError{Code: "EXECUTION_ERROR", Message: execErr.Error()}
	}

	return &models.WidgetError{Code: "INTERNAL_ERROR", Message: err.Error()}
}
