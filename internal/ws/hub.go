package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/mkroghdk/letzchat/internal/chat"
	"github.com/mkroghdk/letzchat/internal/presence"
)

// Hub addresses envelopes to connections by room. It resolves the room's
// audience through the presence registry at send time, so membership has
// a single source of truth and a removed presence stops receiving
// immediately. Hub implements chat.Broadcaster.
type Hub struct {
	mu       sync.RWMutex
	byID     map[presence.ConnID]*Client
	registry *presence.Registry
	conns    *ConnManager
}

// NewHub creates a Hub that reads room membership from registry.
func NewHub(registry *presence.Registry) *Hub {
	return &Hub{
		byID:     make(map[presence.ConnID]*Client),
		registry: registry,
		conns:    NewConnManager(),
	}
}

// Register adds the client to the hub and starts its write pump. The
// returned context ends when the client is unregistered or the hub
// shuts down.
func (h *Hub) Register(c *Client) context.Context {
	ctx := h.conns.Add(c)

	h.mu.Lock()
	h.byID[c.id] = c
	h.mu.Unlock()

	return ctx
}

// Unregister removes the client from the hub and stops its write pump.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.byID, c.id)
	h.mu.Unlock()

	h.conns.Remove(c)
}

// Send delivers an envelope to a single connection. Unknown connections
// are ignored.
func (h *Hub) Send(id presence.ConnID, env chat.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("ws: failed to marshal envelope: %v", err)
		return
	}

	h.mu.RLock()
	c := h.byID[id]
	h.mu.RUnlock()

	if c != nil {
		h.conns.Send(c, data)
	}
}

// Broadcast delivers an envelope to every current member of the room,
// except the connection named by except. Delivery is fire-and-forget:
// members whose connection vanished between the membership snapshot and
// the send are skipped.
func (h *Hub) Broadcast(room string, env chat.Envelope, except presence.ConnID) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("ws: failed to marshal envelope: %v", err)
		return
	}

	members := h.registry.MembersOf(room)

	h.mu.RLock()
	targets := make([]*Client, 0, len(members))
	for _, m := range members {
		if m.ConnID == except {
			continue
		}
		if c := h.byID[m.ConnID]; c != nil {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.conns.Send(c, data)
	}
}

// ConnMgr returns the hub's connection manager.
func (h *Hub) ConnMgr() *ConnManager {
	return h.conns
}

// Shutdown closes all connections and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.byID = make(map[presence.ConnID]*Client)
	h.mu.Unlock()

	h.conns.Shutdown()
}
