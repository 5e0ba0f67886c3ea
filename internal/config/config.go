// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package config loads and validates Storelens configuration via Koanf v2
// with layered sources: built-in defaults, an optional YAML config file, and
// environment variables (highest priority).
package config

import (
	"time"
)

// Config is the root configuration for the Storelens server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins for the dashboard frontend.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the per-client request limit per minute. 0 disables
	// rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// DatabaseConfig holds DuckDB analytical store settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" runs fully in memory.
	Path string `koanf:"path"`

	// Threads controls DuckDB parallelism. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	MaxMemory string `koanf:"max_memory"`

	// QueryTimeout bounds every query execution; a timeout surfaces as a
	// distinct execution error rather than hanging the widget.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// MaxRetries is the number of transparent retries for transient
	// connection failures. Syntax errors and timeouts are never retried.
	MaxRetries int `koanf:"max_retries"`

	// Breaker settings for the execution circuit breaker.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`

	// Seed creates the demo retail schema and sample dimension data on
	// startup when the tables are missing.
	Seed bool `koanf:"seed"`
}

// CacheConfig holds widget-data cache settings.
type CacheConfig struct {
	Enabled bool `koanf:"enabled"`

	// DefaultTTL applies to metrics without an explicit cache TTL.
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// DashboardConfig holds the refresh and drill-down behavior knobs.
type DashboardConfig struct {
	// DebounceQuiet is how long filter mutations must settle before a
	// refresh generation fires.
	DebounceQuiet time.Duration `koanf:"debounce_quiet"`

	// RefreshPerSecond and RefreshBurst bound refresh-generation dispatch
	// on top of debouncing.
	RefreshPerSecond float64 `koanf:"refresh_per_second"`
	RefreshBurst     int     `koanf:"refresh_burst"`

	// DrillDownRowCap is the fixed row cap for drill-down detail queries.
	DrillDownRowCap int `koanf:"drilldown_row_cap"`

	// RawQueryDefaultLimit is appended to SQL-override queries that carry
	// no LIMIT of their own, as a safety bound against runaway previews.
	RawQueryDefaultLimit int `koanf:"raw_query_default_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all sensible default values. Defaults
// are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
		},
		Database: DatabaseConfig{
			Path:               "storelens.db",
			Threads:            0,
			MaxMemory:          "2GB",
			QueryTimeout:       30 * time.Second,
			MaxRetries:         1,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
			Seed:               true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 5 * time.Minute,
		},
		Dashboard: DashboardConfig{
			DebounceQuiet:        300 * time.Millisecond,
			RefreshPerSecond:     4,
			RefreshBurst:         2,
			DrillDownRowCap:      100,
			RawQueryDefaultLimit: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
