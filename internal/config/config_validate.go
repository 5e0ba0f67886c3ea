// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid or inconsistent values.
// It is called automatically by Load but exported so hand-built configs in
// tests can be validated the same way.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path must not be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, "database.query_timeout must be positive")
	}
	if c.Database.MaxRetries < 0 {
		errs = append(errs, "database.max_retries must not be negative")
	}
	if c.Database.Threads < 0 {
		errs = append(errs, "database.threads must not be negative")
	}

	if c.Cache.Enabled && c.Cache.DefaultTTL <= 0 {
		errs = append(errs, "cache.default_ttl must be positive when cache is enabled")
	}

	if c.Dashboard.DebounceQuiet < 0 {
		errs = append(errs, "dashboard.debounce_quiet must not be negative")
	}
	if c.Dashboard.DrillDownRowCap <= 0 {
		errs = append(errs, "dashboard.drilldown_row_cap must be positive")
	}
	if c.Dashboard.RawQueryDefaultLimit <= 0 {
		errs = append(errs, "dashboard.raw_query_default_limit must be positive")
	}
	if c.Dashboard.RefreshPerSecond <= 0 {
		errs = append(errs, "dashboard.refresh_per_second must be positive")
	}
	if c.Dashboard.RefreshBurst < 1 {
		errs = append(errs, "dashboard.refresh_burst must be at least 1")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
