// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package metrics defines the Prometheus collectors exposed at /metrics:
// query execution, widget resolution, cache efficiency and API latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryDuration observes analytical-store query latency.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storelens_query_duration_seconds",
			Help:    "Duration of analytical store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// QueryErrors counts execution failures by taxonomy kind.
	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_query_errors_total",
			Help: "Total number of query execution errors",
		},
		[]string{"kind"},
	)

	// WidgetResolutions counts widget data resolutions by outcome.
	WidgetResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_widget_resolutions_total",
			Help: "Total number of widget data resolutions",
		},
		[]string{"outcome"}, // "ok", "cached", "error"
	)

	// BatchesInFlight gauges currently running batch resolutions.
	BatchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storelens_batches_in_flight",
			Help: "Number of widget batch resolutions currently running",
		},
	)

	// StaleGenerations counts batches discarded because the filter context
	// moved on before they returned.
	StaleGenerations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storelens_stale_generations_total",
			Help: "Total number of batch results discarded as superseded",
		},
	)

	// CacheHits and CacheMisses track the widget data cache.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storelens_cache_hits_total",
			Help: "Total widget data cache hits",
		},
	)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storelens_cache_misses_total",
			Help: "Total widget data cache misses",
		},
	)

	// DrillDowns counts drill-down detail queries by outcome.
	DrillDowns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_drilldowns_total",
			Help: "Total drill-down detail queries",
		},
		[]string{"outcome"}, // "ok", "truncated", "error"
	)

	// APIRequestDuration observes HTTP handler latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storelens_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
