// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storelens/storelens/internal/models"
)

// filterStateResponse is the live filter state plus the active
// cross-filters, which snapshots deliberately omit.
type filterStateResponse struct {
	models.FilterContext
	CrossFilters []models.CrossFilter `json:"cross_filters"`
}

// FilterState returns the current filter state.
func (h *Handler) FilterState(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, filterStateResponse{
		FilterContext: h.filters.Snapshot(),
		CrossFilters:  h.filters.CrossFilters().List(),
	}, models.Metadata{Generation: h.filters.Generation()})
}

type dateFilterRequest struct {
	Mode      models.DateMode `json:"mode" validate:"required,oneof=all_time preset custom"`
	Preset    string          `json:"preset,omitempty" validate:"required_if=Mode preset,omitempty,oneof=today yesterday this_week this_month last_month this_year last_7_days last_30_days"`
	StartDate string          `json:"start_date,omitempty" validate:"required_if=Mode custom,omitempty,datetime=2006-01-02"`
	EndDate   string          `json:"end_date,omitempty" validate:"required_if=Mode custom,omitempty,datetime=2006-01-02"`
}

// SetDateFilter switches the active date window.
func (h *Handler) SetDateFilter(w http.ResponseWriter, r *http.Request) {
	var req dateFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	switch req.Mode {
	case models.DateModeAllTime:
		h.filters.SetAllTime()
	case models.DateModePreset:
		h.filters.SetDatePreset(req.Preset)
	case models.DateModeCustom:
		start, _ := time.Parse("2006-01-02", req.StartDate)
		end, _ := time.Parse("2006-01-02", req.EndDate)
		if end.Before(start) {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "end_date precedes start_date")
			return
		}
		// The custom window is inclusive of the end day.
		h.filters.SetDateRange(start, end.Add(24*time.Hour-time.Nanosecond))
	}

	h.respondGeneration(w, r)
}

type selectionRequest struct {
	Codes []string `json:"codes"`
}

// SetRegionFilter replaces the region selection. An empty list clears it.
func (h *Handler) SetRegionFilter(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	h.filters.SetRegions(req.Codes)
	h.respondGeneration(w, r)
}

// SetGroupFilter replaces the ownership-group selection.
func (h *Handler) SetGroupFilter(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	h.filters.SetGroups(req.Codes)
	h.respondGeneration(w, r)
}

// SetStoreFilter replaces the store selection.
func (h *Handler) SetStoreFilter(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	h.filters.SetStores(req.Codes)
	h.respondGeneration(w, r)
}

type crossFilterRequest struct {
	WidgetID string `json:"widget_id" validate:"required"`
	Field    string `json:"field" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

// AddCrossFilter records a widget-originated cross-filter, replacing any
// previous one from the same widget.
func (h *Handler) AddCrossFilter(w http.ResponseWriter, r *http.Request) {
	var req crossFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	h.filters.AddCrossFilter(models.CrossFilter{
		WidgetID: req.WidgetID,
		Field:    req.Field,
		Value:    req.Value,
	})
	h.respondGeneration(w, r)
}

// RemoveCrossFilter clears the cross-filter originating from one widget.
func (h *Handler) RemoveCrossFilter(w http.ResponseWriter, r *http.Request) {
	h.filters.RemoveCrossFilter(chi.URLParam(r, "widgetID"))
	h.respondGeneration(w, r)
}

// ClearCrossFilters removes every active cross-filter.
func (h *Handler) ClearCrossFilters(w http.ResponseWriter, r *http.Request) {
	h.filters.ClearCrossFilters()
	h.respondGeneration(w, r)
}

// respondGeneration acknowledges a mutation with the new generation. The
// refreshed widget data arrives over the websocket once the debounce window
// settles.
func (h *Handler) respondGeneration(w http.ResponseWriter, r *http.Request) {
	gen := h.filters.Generation()
	respondSuccess(w, r, http.StatusOK, map[string]uint64{"generation": gen}, models.Metadata{Generation: gen})
}
