// Package presence tracks which connection is in which room.
//
// The registry is the single source of truth for room membership: a room
// "exists" exactly while at least one presence record points at it, and
// membership is derived by filtering records rather than stored per room.
package presence

import "sync"

// ConnID identifies a live connection. It is assigned by the transport
// and must not be reused while a record for it is still registered.
type ConnID string

// Presence binds a connection to a username and room for the lifetime
// of the connection's membership.
type Presence struct {
	ConnID   ConnID `json:"-"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

// Registry maps live connections to their presence records. All methods
// are safe for concurrent use; each operation takes effect atomically.
type Registry struct {
	mu     sync.Mutex
	byConn map[ConnID]Presence
	order  []ConnID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[ConnID]Presence),
	}
}

// Join records that the connection entered the given room and returns the
// new record. Callers must ensure a connection joins at most once; a second
// Join for the same ID replaces the record without duplicating its slot in
// the membership order.
func (r *Registry) Join(id ConnID, username, room string) Presence {
	p := Presence{ConnID: id, Username: username, Room: room}

	r.mu.Lock()
	if _, ok := r.byConn[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byConn[id] = p
	r.mu.Unlock()

	return p
}

// Leave removes and returns the record for the connection. The second
// return value is false if the connection never joined, which callers
// must treat as a no-op.
func (r *Registry) Leave(id ConnID) (Presence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[id]
	if !ok {
		return Presence{}, false
	}
	delete(r.byConn, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Get returns the record for the connection, if any.
func (r *Registry) Get(id ConnID) (Presence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byConn[id]
	return p, ok
}

// MembersOf returns the current members of a room, oldest joiner first.
// The result is a snapshot; later registry changes do not affect it.
func (r *Registry) MembersOf(room string) []Presence {
	r.mu.Lock()
	defer r.mu.Unlock()

	var members []Presence
	for _, id := range r.order {
		if p := r.byConn[id]; p.Room == room {
			members = append(members, p)
		}
	}
	return members
}

// Count returns the number of registered connections across all rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byConn)
}
