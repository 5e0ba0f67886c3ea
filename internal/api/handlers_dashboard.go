// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storelens/storelens/internal/compare"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
	"github.com/storelens/storelens/internal/store"
)

// Dashboard resolves every registered metric under the current filter
// snapshot. Individual widget failures surface inside their result slot;
// the batch itself always succeeds.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snapshot := h.filters.Snapshot()

	defs, err := h.registry.List(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to list metric definitions")
		return
	}

	start := time.Now()
	results := h.assembler.ResolveAll(r.Context(), defs, snapshot)

	respondSuccess(w, r, http.StatusOK, results, models.Metadata{
		Generation:  snapshot.Generation,
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// Widget resolves a single metric by ID.
func (h *Handler) Widget(w http.ResponseWriter, r *http.Request) {
	metricID := chi.URLParam(r, "metricID")

	metric, err := h.registry.Get(r.Context(), metricID)
	if err != nil {
		if errors.Is(err, store.ErrMetricNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	snapshot := h.filters.Snapshot()
	start := time.Now()

	data, err := h.assembler.Resolve(r.Context(), metric, snapshot)
	if err != nil {
		status, code := resolveErrorStatus(err)
		respondError(w, r, status, code, err.Error())
		return
	}

	respondSuccess(w, r, http.StatusOK, data, models.Metadata{
		Generation:  snapshot.Generation,
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      data.Cached,
	})
}

// resolveErrorStatus maps resolution errors onto HTTP status and error code.
// Definition problems are the client's to fix (422); store problems are ours
// (502 when the store is unhealthy, 500 otherwise).
func resolveErrorStatus(err error) (int, string) {
	var compileErr *query.CompileError
	if errors.As(err, &compileErr) {
		return http.StatusUnprocessableEntity, ErrCodeCompile
	}

	var comparisonErr *compare.ComparisonError
	if errors.As(err, &comparisonErr) {
		return http.StatusUnprocessableEntity, ErrCodeCompile
	}

	var execErr *store.ExecutionError
	if errors.As(err, &execErr) {
		if execErr.Kind == store.ErrConnectionFailure {
			return http.StatusBadGateway, ErrCodeUnavailable
		}
		return http.StatusInternalServerError, ErrCodeExecution
	}

	return http.StatusInternalServerError, ErrCodeInternal
}
