// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package dashboard

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/metrics"
	"github.com/storelens/storelens/internal/models"
)

// MetricSource lists the metric definitions a refresh cycle resolves.
type MetricSource interface {
	List(ctx context.Context) ([]*models.MetricDefinition, error)
}

// Publisher receives completed refresh batches, typically the websocket hub.
type Publisher interface {
	Broadcast(generation uint64, results []models.WidgetResult)
}

// Scheduler turns filter mutations into debounced, rate-bounded dashboard
// refreshes. Rapid mutation bursts (a user toggling several stores) collapse
// into a single refresh once the context goes quiet; an outer rate limiter
// bounds refresh frequency even under a steady mutation stream.
//
// Completed batches are stamped with the generation they were resolved
// under; if the context moved on while queries ran, the batch is discarded
// rather than published stale.
type Scheduler struct {
	filters   *filterctx.Context
	source    MetricSource
	assembler *Assembler
	publisher Publisher

	quiet   time.Duration
	limiter *rate.Limiter
	trigger chan struct{}
}

// NewScheduler wires a scheduler to the shared filter context. quiet is the
// debounce window; refreshPerSecond/burst bound the refresh rate.
func NewScheduler(filters *filterctx.Context, source MetricSource, assembler *Assembler, publisher Publisher, quiet time.Duration, refreshPerSecond float64, burst int) *Scheduler {
	s := &Scheduler{
		filters:   filters,
		source:    source,
		assembler: assembler,
		publisher: publisher,
		quiet:     quiet,
		limiter:   rate.NewLimiter(rate.Limit(refreshPerSecond), burst),
		trigger:   make(chan struct{}, 1),
	}
	filters.OnChange(func(uint64) { s.Trigger() })
	return s
}

// Trigger requests a refresh. Safe from any goroutine; coalesces with any
// pending request.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Serve runs the refresh loop until ctx is cancelled. It satisfies the
// supervisor service contract.
func (s *Scheduler) Serve(ctx context.Context) error {
	logging.Info().Dur("quiet", s.quiet).Msg("refresh scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.trigger:
		}

		if err := s.debounce(ctx); err != nil {
			return err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		s.refresh(ctx)
	}
}

func (s *Scheduler) String() string { return "dashboard-scheduler" }

// debounce waits until no further trigger arrives within the quiet window.
func (s *Scheduler) debounce(ctx context.Context) error {
	timer := time.NewTimer(s.quiet)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.trigger:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(s.quiet)
		case <-timer.C:
			return nil
		}
	}
}

// refresh resolves every registered metric under the current snapshot and
// publishes the batch, unless the context moved on while queries ran.
func (s *Scheduler) refresh(ctx context.Context) {
	snapshot := s.filters.Snapshot()

	defs, err := s.source.List(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("refresh aborted: failed to list metric definitions")
		return
	}
	if len(defs) == 0 {
		return
	}

	start := time.Now()
	results := s.assembler.ResolveAll(ctx, defs, snapshot)

	if current := s.filters.Generation(); current != snapshot.Generation {
		metrics.StaleGenerations.Inc()
		logging.Debug().
			Uint64("generation", snapshot.Generation).
			Uint64("current", current).
			Msg("discarding stale refresh batch")
		return
	}

	logging.Debug().
		Uint64("generation", snapshot.Generation).
		Int("widgets", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("refresh batch published")

	if s.publisher != nil {
		s.publisher.Broadcast(snapshot.Generation, results)
	}
}
