// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/store"
)

// ListMetrics returns every metric definition.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	defs, err := h.registry.List(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	respondSuccess(w, r, http.StatusOK, defs, models.Metadata{})
}

// GetMetric returns one metric definition by ID.
func (h *Handler) GetMetric(w http.ResponseWriter, r *http.Request) {
	metric, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrMetricNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	respondSuccess(w, r, http.StatusOK, metric, models.Metadata{})
}

// UpsertMetric creates or replaces a metric definition. The definition is
// validated structurally here; semantic problems (unknown dataset, missing
// column) surface as compile errors at resolution time.
func (h *Handler) UpsertMetric(w http.ResponseWriter, r *http.Request) {
	var metric models.MetricDefinition
	if err := decodeJSON(r, &metric); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	metric.ID = chi.URLParam(r, "id")
	if err := h.validate.Struct(&metric); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	if metric.UseRawQuery && metric.RawQuery == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "use_raw_query requires raw_query")
		return
	}

	if err := h.registry.Upsert(r.Context(), &metric); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	// Cached widget data for the old definition no longer matches; drop the
	// whole cache rather than track per-metric key sets.
	if h.cache != nil {
		h.cache.Clear()
	}

	respondSuccess(w, r, http.StatusOK, &metric, models.Metadata{})
}

// DeleteMetric removes a metric definition. Dashboards still referencing it
// degrade to a per-widget error on their next refresh.
func (h *Handler) DeleteMetric(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if h.cache != nil {
		h.cache.Clear()
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")}, models.Metadata{})
}
