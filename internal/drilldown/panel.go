// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package drilldown owns the single detail panel a dashboard exposes. The
// panel is a small state machine (closed, opening, loaded, failed); opening
// it for one widget atomically replaces whatever another widget had loaded,
// and a fetch that loses that race is discarded rather than applied.
package drilldown

import (
	"context"
	"sync"
	"time"

	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/metrics"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
)

// State is the panel's lifecycle state.
type State string

const (
	StateClosed  State = "closed"
	StateOpening State = "opening"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// OrderedExecutor executes a query preserving column order, which tabular
// drill-down rendering needs.
type OrderedExecutor interface {
	ExecuteOrdered(ctx context.Context, spec models.QuerySpec) ([]models.Row, []string, error)
}

// MetricSource resolves metric definitions by ID.
type MetricSource interface {
	Get(ctx context.Context, id string) (*models.MetricDefinition, error)
}

// Snapshot is the panel's externally visible state.
type Snapshot struct {
	State   State                    `json:"state"`
	Request *models.DrillDownRequest `json:"request,omitempty"`
	Result  *models.DrillDownResult  `json:"result,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// Panel is the singleton drill-down panel. Safe for concurrent use.
type Panel struct {
	compiler *query.Compiler
	source   MetricSource
	executor OrderedExecutor
	rowCap   int

	mu      sync.Mutex
	seq     uint64
	state   State
	request *models.DrillDownRequest
	result  *models.DrillDownResult
	err     error
}

// NewPanel creates a closed panel. rowCap bounds returned rows; the fetch
// requests one extra row to detect truncation.
func NewPanel(compiler *query.Compiler, source MetricSource, executor OrderedExecutor, rowCap int) *Panel {
	return &Panel{
		compiler: compiler,
		source:   source,
		executor: executor,
		rowCap:   rowCap,
		state:    StateClosed,
	}
}

// Open drills into one row of a widget. The panel flips to opening
// immediately and the fetch runs on the caller's goroutine; the returned
// result is also applied to the panel unless a later Open superseded this
// one while the fetch ran. Drill-down failures stay inside the panel and
// never disturb widget refreshes.
func (p *Panel) Open(ctx context.Context, req models.DrillDownRequest, fc models.FilterContext) (*models.DrillDownResult, error) {
	seq := p.begin(req)

	result, err := p.fetch(ctx, req, fc)
	if err != nil {
		metrics.DrillDowns.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("metric_id", req.MetricID).
			Str("field", req.Field).
			Msg("drill-down fetch failed")
		p.complete(seq, nil, err)
		return nil, err
	}

	if result.Truncated {
		metrics.DrillDowns.WithLabelValues("truncated").Inc()
	} else {
		metrics.DrillDowns.WithLabelValues("ok").Inc()
	}
	p.complete(seq, result, nil)
	return result, nil
}

// Close resets the panel to closed, invalidating any in-flight fetch.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.state = StateClosed
	p.request = nil
	p.result = nil
	p.err = nil
}

// Snapshot returns the panel's current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{State: p.state, Request: p.request, Result: p.result}
	if p.err != nil {
		snap.Error = p.err.Error()
	}
	return snap
}

// begin flips the panel to opening for req and returns the fetch sequence.
// Any prior content is replaced immediately so the user never sees stale
// detail rows under a new header.
func (p *Panel) begin(req models.DrillDownRequest) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.state = StateOpening
	p.request = &req
	p.result = nil
	p.err = nil
	return p.seq
}

// complete applies a fetch outcome if seq is still the current open.
func (p *Panel) complete(seq uint64, result *models.DrillDownResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return
	}
	if err != nil {
		p.state = StateFailed
		p.err = err
		return
	}
	p.state = StateLoaded
	p.result = result
}

// fetch compiles and runs the detail query under the widget's own filter
// context, restricted to the clicked row.
func (p *Panel) fetch(ctx context.Context, req models.DrillDownRequest, fc models.FilterContext) (*models.DrillDownResult, error) {
	metric, err := p.source.Get(ctx, req.MetricID)
	if err != nil {
		return nil, err
	}

	// One row past the cap distinguishes "exactly cap rows" from "more
	// available".
	spec, err := p.compiler.CompileDrillDown(metric, fc, req.Field, req.Value, p.rowCap+1)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, columns, err := p.executor.ExecuteOrdered(ctx, spec)
	if err != nil {
		return nil, err
	}

	result := &models.DrillDownResult{
		Request:         req,
		Columns:         columns,
		Rows:            rows,
		ExecutionTimeMS: time.Since(start).Milliseconds(),
	}
	if len(rows) > p.rowCap {
		result.Rows = rows[:p.rowCap]
		result.Truncated = true
	}
	return result, nil
}
