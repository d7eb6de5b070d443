package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/casa/internal/events"
)

// Message is the change notification sent to clients.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

// NewMessage builds the client message for a change.
func NewMessage(c events.Change) Message {
	return Message{
		Type:   c.Type(),
		Entity: c.Entity,
		Action: string(c.Action),
		ID:     c.ID,
	}
}

// Hub maintains the set of active WebSocket clients. Changes are delivered
// to the owner's clients, or to everyone for shared documents.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Notify implements events.Notifier.
func (h *Hub) Notify(_ context.Context, c events.Change) {
	h.Send(c.Owner, NewMessage(c))
}

// Send delivers msg to the clients of userID, or to all clients when userID
// is empty.
func (h *Hub) Send(userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if userID != "" && c.userID != userID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("client buffer full, dropping message", "user", c.userID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
