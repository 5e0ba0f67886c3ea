// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

// Package websocket pushes dashboard state to connected browsers: refresh
// batches as they complete and generation bumps as filters mutate. Clients
// that cannot keep up are dropped rather than allowed to stall the hub.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/storelens/storelens/internal/logging"
	"github.com/storelens/storelens/internal/models"
)

// Message types pushed to clients.
const (
	MessageTypeWidgetBatch  = "widget_batch"
	MessageTypeFilterChange = "filter_change"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is the envelope for every websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WidgetBatchData carries one completed refresh batch.
type WidgetBatchData struct {
	Generation uint64                `json:"generation"`
	Widgets    []models.WidgetResult `json:"widgets"`
}

// FilterChangeData announces a filter mutation before its refresh lands, so
// the UI can mark widgets as pending.
type FilterChangeData struct {
	Generation uint64 `json:"generation"`
}

// Hub maintains the set of active clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Serve runs the hub until ctx is cancelled, then closes every client. It
// satisfies the supervisor service contract.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Lifecycle events take priority over broadcasts so client state is
		// settled before messages fan out.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

// Broadcast pushes a completed refresh batch to every client. It implements
// the scheduler's publisher contract and never blocks: a full broadcast
// queue drops the batch, the next refresh supersedes it anyway.
func (h *Hub) Broadcast(generation uint64, results []models.WidgetResult) {
	message := Message{
		Type: MessageTypeWidgetBatch,
		Data: WidgetBatchData{Generation: generation, Widgets: results},
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Uint64("generation", generation).Msg("broadcast channel full, dropping widget batch")
	}
}

// BroadcastFilterChange announces a generation bump.
func (h *Hub) BroadcastFilterChange(generation uint64) {
	message := Message{
		Type: MessageTypeFilterChange,
		Data: FilterChangeData{Generation: generation},
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping filter change")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out in client-ID order. Clients whose
// send queue is full are dropped; a browser that stopped reading must not
// hold refresh delivery for everyone else.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

// shutdown closes every client and logs the close count.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	// Context cancellation is the expected shutdown path, not an error.
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", ctx.Err().Error()).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
