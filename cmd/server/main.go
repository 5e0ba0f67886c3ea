// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package main is the entry point for the Storelens server.
//
// Storelens is a retail analytics dashboard engine. It compiles declarative
// metric definitions into DuckDB queries under a globally shared filter
// context (date window, region, ownership group, store selections), computes
// period-over-period comparisons (YoY, MoM, WoW, YTD, like-for-like) and
// pushes refreshed widget batches to connected dashboards over websocket.
//
// The server initializes in this order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env vars)
//  2. Store: DuckDB with the retail schema, optionally seeded with demo data
//  3. Dataset catalog and metric registry
//  4. Filter context, widget cache and query/comparison engines
//  5. WebSocket hub and debounced refresh scheduler
//  6. HTTP server (chi) under a suture supervision tree
//
// Graceful shutdown on SIGINT/SIGTERM drains in-flight requests, stops the
// scheduler and hub, and closes the store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/storelens/storelens/internal/api"
	"github.com/storelens/storelens/internal/cache"
	"github.com/storelens/storelens/internal/compare"
	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/internal/dashboard"
	"github.com/storelens/storelens/internal/drilldown"
	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/query"
	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/internal/supervisor"
	ws "github.com/storelens/storelens/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("starting storelens")

	db, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open analytical store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog, err := store.NewCatalog(ctx, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load dataset catalog")
	}
	registry := store.NewRegistry(db)

	universe, err := catalog.StoreUniverseSize(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to count store universe, select-all collapsing disabled")
	}
	filters := filterctx.New(universe)

	var widgetCache *cache.Cache
	if cfg.Cache.Enabled {
		widgetCache = cache.New(cfg.Cache.DefaultTTL)
		defer widgetCache.Close()
	}

	compiler := query.NewCompiler(catalog, cfg.Dashboard.RawQueryDefaultLimit)
	engine := compare.NewEngine(compiler, catalog)
	assembler := dashboard.NewAssembler(db, compiler, engine, widgetCache, cfg.Cache.DefaultTTL)
	panel := drilldown.NewPanel(compiler, registry, db, cfg.Dashboard.DrillDownRowCap)

	hub := ws.NewHub()
	filters.OnChange(hub.BroadcastFilterChange)

	scheduler := dashboard.NewScheduler(
		filters, registry, assembler, hub,
		cfg.Dashboard.DebounceQuiet,
		cfg.Dashboard.RefreshPerSecond,
		cfg.Dashboard.RefreshBurst,
	)

	handler := api.NewHandler(cfg, filters, assembler, registry, catalog, panel, hub, db, widgetCache)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(hub)
	tree.AddMessagingService(scheduler)
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("supervisor tree failed")
	}
	logging.Info().Msg("storelens stopped")
}
