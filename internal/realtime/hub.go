// Package realtime fans out display frames to live preview clients.
package realtime

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Client is one connected preview. The network connection is owned by the
// websocket handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub keeps the connected clients and broadcasts messages to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Client]struct{})}
}

func (h *Hub) Register(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends message to every client and returns how many accepted it.
// A failed client stays registered until its handler unregisters it.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.clients {
		if c.Send(message) {
			sent++
		} else {
			log.Debug().Msg("Preview client rejected frame")
		}
	}
	return sent
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}
