// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"errors"
	"net/http"

	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/query"
	"github.com/storelens/storelens/internal/store"
)

type drillDownRequest struct {
	WidgetID string `json:"widget_id" validate:"required"`
	MetricID string `json:"metric_id" validate:"required"`
	Field    string `json:"field" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

// OpenDrillDown opens the detail panel for one widget row. A second open
// while a fetch is in flight atomically replaces the first.
func (h *Handler) OpenDrillDown(w http.ResponseWriter, r *http.Request) {
	var req drillDownRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	result, err := h.panel.Open(r.Context(), models.DrillDownRequest{
		WidgetID: req.WidgetID,
		MetricID: req.MetricID,
		Field:    req.Field,
		Value:    req.Value,
	}, h.filters.Snapshot())
	if err != nil {
		respondError(w, r, drillDownStatus(err), ErrCodeDrillDown, err.Error())
		return
	}

	respondSuccess(w, r, http.StatusOK, result, models.Metadata{
		Generation:  h.filters.Generation(),
		QueryTimeMS: result.ExecutionTimeMS,
	})
}

// DrillDownState returns the panel's current state.
func (h *Handler) DrillDownState(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.panel.Snapshot(), models.Metadata{})
}

// CloseDrillDown closes the panel.
func (h *Handler) CloseDrillDown(w http.ResponseWriter, r *http.Request) {
	h.panel.Close()
	respondSuccess(w, r, http.StatusOK, h.panel.Snapshot(), models.Metadata{})
}

func drillDownStatus(err error) int {
	if errors.Is(err, store.ErrMetricNotFound) {
		return http.StatusNotFound
	}
	var compileErr *query.CompileError
	if errors.As(err, &compileErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
