// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package api

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"

	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/models"
	"github.com/storelens/storelens/internal/websocket"
)

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status           string  `json:"status"`
	Database         string  `json:"database"`
	Generation       uint64  `json:"generation"`
	WebsocketClients int     `json:"websocket_clients"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}

// Health reports liveness of the store and the push hub.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:           "ok",
		Database:         "ok",
		Generation:       h.filters.Generation(),
		WebsocketClients: h.hub.ClientCount(),
	}
	if h.cache != nil {
		resp.CacheHitRate = h.cache.HitRate()
	}

	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	respondSuccess(w, r, status, resp, models.Metadata{})
}

// ListDatasets returns the dataset catalog.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.catalog.List(), models.Metadata{})
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens in the CORS layer; the upgrade itself
	// accepts any origin the router let through.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocket upgrades the connection and registers the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
