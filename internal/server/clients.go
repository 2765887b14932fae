package server

import (
	"sync"

	"github.com/coder/websocket"
)

// ClientRegistry tracks connected WebSocket clients
type ClientRegistry struct {
	clients map[*websocket.Conn]struct{}
	mu      sync.RWMutex
}

// NewClientRegistry creates an empty registry
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (r *ClientRegistry) Add(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[conn] = struct{}{}
}

func (r *ClientRegistry) Remove(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, conn)
}

func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Snapshot returns the current clients so callers can write without holding
// the lock
func (r *ClientRegistry) Snapshot() []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*websocket.Conn, 0, len(r.clients))
	for conn := range r.clients {
		out = append(out, conn)
	}
	return out
}
