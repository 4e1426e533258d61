// Package presence tracks which users are currently online and pushes the
// member list to subscribed browsers over Server-Sent Events. Redis holds
// the authoritative state so every API instance sees the same list.
package presence

import (
	"sync"

	"go.uber.org/zap"
)

// Client represents one connected SSE subscriber.
type Client struct {
	ID     string
	Events chan []byte
}

// Hub manages SSE subscriber connections and broadcasts. Each broadcast
// carries the full member list; subscribers replace their view wholesale
// instead of patching it, so a dropped message cannot leave them stale
// forever.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new subscriber and returns it for streaming.
func (h *Hub) Register(clientID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		Events: make(chan []byte, 64),
	}
	h.clients[clientID] = c
	h.logger.Debug("presence subscriber connected",
		zap.String("client_id", clientID),
		zap.Int("total_clients", len(h.clients)),
	)
	return c
}

// Unregister removes a subscriber and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		h.logger.Debug("presence subscriber disconnected",
			zap.String("client_id", clientID),
			zap.Int("total_clients", len(h.clients)),
		)
	}
}

// Broadcast sends a payload to all subscribers. Non-blocking: a subscriber
// with a full buffer misses this snapshot and catches the next one.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Events <- data:
		default:
			h.logger.Warn("presence subscriber buffer full, dropping snapshot",
				zap.String("client_id", c.ID),
			)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
