// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storelens/storelens/internal/cache"
	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/internal/dashboard"
	"github.com/storelens/storelens/internal/drilldown"
	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/internal/websocket"
)

// Handler holds every dependency the HTTP surface needs.
type Handler struct {
	cfg       *config.Config
	filters   *filterctx.Context
	assembler *dashboard.Assembler
	registry  *store.Registry
	catalog   *store.Catalog
	panel     *drilldown.Panel
	hub       *websocket.Hub
	db        *store.DB
	cache     *cache.Cache
	validate  *validator.Validate
}

// NewHandler creates the API handler. cache may be nil when caching is
// disabled.
func NewHandler(cfg *config.Config, filters *filterctx.Context, assembler *dashboard.Assembler, registry *store.Registry, catalog *store.Catalog, panel *drilldown.Panel, hub *websocket.Hub, db *store.DB, c *cache.Cache) *Handler {
	return &Handler{
		cfg:       cfg,
		filters:   filters,
		assembler: assembler,
		registry:  registry,
		catalog:   catalog,
		panel:     panel,
		hub:       hub,
		db:        db,
		cache:     c,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes builds the chi router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogging())
	r.Use(CORS(h.cfg.Server.CORSOrigins))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(h.cfg.Server.RateLimit, time.Minute))
		r.Use(PrometheusMetrics())

		r.Get("/health", h.Health)

		r.Get("/dashboard", h.Dashboard)
		r.Get("/widgets/{metricID}", h.Widget)

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", h.FilterState)
			r.Put("/date", h.SetDateFilter)
			r.Put("/regions", h.SetRegionFilter)
			r.Put("/groups", h.SetGroupFilter)
			r.Put("/stores", h.SetStoreFilter)
			r.Post("/cross", h.AddCrossFilter)
			r.Delete("/cross", h.ClearCrossFilters)
			r.Delete("/cross/{widgetID}", h.RemoveCrossFilter)
		})

		r.Route("/drilldown", func(r chi.Router) {
			r.Get("/", h.DrillDownState)
			r.Post("/", h.OpenDrillDown)
			r.Delete("/", h.CloseDrillDown)
		})

		r.Route("/metric-definitions", func(r chi.Router) {
			r.Get("/", h.ListMetrics)
			r.Get("/{id}", h.GetMetric)
			r.Put("/{id}", h.UpsertMetric)
			r.Delete("/{id}", h.DeleteMetric)
		})

		r.Get("/datasets", h.ListDatasets)
		r.Get("/ws", h.WebSocket)
	})

	return r
}
