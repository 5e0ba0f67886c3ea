// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package api is the HTTP surface of the dashboard engine: filter
// mutations, widget resolution, drill-down, metric definition management
// and the websocket upgrade, routed with chi.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/models"
)

// Error codes returned by the API.
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeCompile     = "COMPILE_ERROR"
	ErrCodeExecution   = "EXECUTION_ERROR"
	ErrCodeDrillDown   = "DRILLDOWN_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
)

// respondSuccess writes a success envelope with metadata.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data any, meta models.Metadata) {
	meta.Timestamp = time.Now().UTC()
	meta.RequestID = logging.RequestIDFromContext(r.Context())

	writeJSON(w, r, status, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields so
// typos surface as 400s instead of silently ignored settings.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
