// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storelens/storelens/internal/filterctx"
	"github.com/storelens/storelens/internal/models"
)

type listSource struct {
	defs []*models.MetricDefinition

	// onList, when set, runs on every List call.
	onList func()
	calls  atomic.Int64
}

func (s *listSource) List(ctx context.Context) ([]*models.MetricDefinition, error) {
	s.calls.Add(1)
	if s.onList != nil {
		s.onList()
	}
	return s.defs, nil
}

type broadcast struct {
	generation uint64
	results    []models.WidgetResult
}

type recordingPublisher struct {
	ch chan broadcast
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{ch: make(chan broadcast, 16)}
}

func (p *recordingPublisher) Broadcast(generation uint64, results []models.WidgetResult) {
	p.ch <- broadcast{generation: generation, results: results}
}

// unlimitedExecutor answers every query with the same scalar row.
type unlimitedExecutor struct{}

func (unlimitedExecutor) Execute(ctx context.Context, spec models.QuerySpec) ([]models.Row, error) {
	return []models.Row{{"value": 1.0}}, nil
}

func TestSchedulerCoalescesMutationBursts(t *testing.T) {
	filters := filterctx.New(0)
	source := &listSource{defs: []*models.MetricDefinition{cardMetric()}}
	publisher := newRecordingPublisher()

	a := newTestAssembler(unlimitedExecutor{}, nil)
	s := NewScheduler(filters, source, a, publisher, 20*time.Millisecond, 1000, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	// A burst of mutations well inside the quiet window.
	filters.SetRegions([]string{"NORTH"})
	filters.SetGroups([]string{"FRANCHISE"})
	filters.SetStores([]string{"S1", "S2"})

	var got broadcast
	select {
	case got = <-publisher.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh published")
	}

	if got.generation != 3 {
		t.Errorf("broadcast generation = %d, want 3", got.generation)
	}
	if len(got.results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(got.results))
	}

	// The burst must have collapsed into one refresh.
	select {
	case extra := <-publisher.ch:
		t.Errorf("unexpected second broadcast at generation %d", extra.generation)
	case <-time.After(150 * time.Millisecond):
	}
	if calls := source.calls.Load(); calls != 1 {
		t.Errorf("List calls = %d, want 1", calls)
	}
}

func TestSchedulerDiscardsStaleBatch(t *testing.T) {
	filters := filterctx.New(0)
	publisher := newRecordingPublisher()

	// The first cycle invalidates itself by mutating the filters mid-refresh;
	// the follow-up cycle resolves cleanly.
	source := &listSource{defs: []*models.MetricDefinition{cardMetric()}}
	var bumped atomic.Bool
	source.onList = func() {
		if bumped.CompareAndSwap(false, true) {
			filters.SetRegions([]string{"SOUTH"})
		}
	}

	a := newTestAssembler(unlimitedExecutor{}, nil)
	s := NewScheduler(filters, source, a, publisher, 10*time.Millisecond, 1000, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	filters.SetRegions([]string{"NORTH"})

	var got broadcast
	select {
	case got = <-publisher.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh published")
	}

	// Only the post-mutation generation may ever be published.
	if got.generation != 2 {
		t.Errorf("broadcast generation = %d, want 2", got.generation)
	}
	select {
	case extra := <-publisher.ch:
		t.Errorf("stale batch published at generation %d", extra.generation)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestTriggerCoalesces(t *testing.T) {
	filters := filterctx.New(0)
	s := NewScheduler(filters, &listSource{}, nil, nil, time.Millisecond, 1, 1)

	// A full trigger channel must never block the caller.
	for i := 0; i < 100; i++ {
		s.Trigger()
	}
	if len(s.trigger) != 1 {
		t.Errorf("pending triggers = %d, want 1", len(s.trigger))
	}
}
