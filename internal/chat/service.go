// Package chat implements the per-connection event state machine: a
// connection is Unjoined until its join event, Joined while it has a
// presence record, and Disconnected once its disconnect event ran. The
// package owns all registry mutation; transports deliver events and
// carry the resulting broadcasts.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mkroghdk/letzchat/internal/message"
	"github.com/mkroghdk/letzchat/internal/presence"
)

const (
	// SystemSender is the sender name on welcome, join and leave notices.
	SystemSender = "Admin"

	welcomeText = "Welcome to LetzChat!"
)

var (
	// ErrProtocolViolation marks an event a well-behaved client never
	// sends: a chat message before joining, or a second join. The event
	// is dropped; the connection and the registry are unaffected.
	ErrProtocolViolation = errors.New("chat: protocol violation")

	// ErrMalformedInput marks a join with a missing username or room.
	ErrMalformedInput = errors.New("chat: malformed input")
)

// Envelope is the unit of delivery to clients: a type tag and a
// JSON-encoded payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Envelope types produced by the Service.
const (
	EnvelopeChat   = string(message.TypeChat)
	EnvelopeSystem = string(message.TypeSystem)
	EnvelopeUsers  = "users"
	EnvelopeError  = "error"
)

// UsersPayload lists the current members of a room.
type UsersPayload struct {
	Users []presence.Presence `json:"users"`
}

// Broadcaster delivers envelopes to connections. Delivery is
// fire-and-forget: per-connection failures are the transport's concern
// and are never reported back here.
type Broadcaster interface {
	// Send delivers an envelope to a single connection.
	Send(id presence.ConnID, env Envelope)

	// Broadcast delivers an envelope to every current member of the room,
	// except the connection named by except (none if except is empty).
	Broadcast(room string, env Envelope, except presence.ConnID)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service handles join, message and disconnect events for all
// connections, mutating the shared registry and fanning results out
// through the broadcaster. Events for one connection must be delivered
// in order; events for different connections may arrive concurrently.
type Service struct {
	registry *presence.Registry
	b        Broadcaster
	now      func() time.Time
}

// NewService creates a Service around the given registry and broadcaster.
func NewService(registry *presence.Registry, b Broadcaster, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		b:        b,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join handles a join event. On success the joiner alone receives a
// welcome message, the rest of the room is notified, and the whole room
// (joiner included) receives the updated member list.
//
// An empty username or room is rejected with ErrMalformedInput and no
// registry entry is created. A join on an already-joined connection is
// ignored with ErrProtocolViolation; the existing membership stands.
func (s *Service) Join(id presence.ConnID, username, room string) error {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)
	if username == "" || room == "" {
		return fmt.Errorf("%w: username and room are required", ErrMalformedInput)
	}

	if p, ok := s.registry.Get(id); ok {
		return fmt.Errorf("%w: connection already joined room %q", ErrProtocolViolation, p.Room)
	}

	p := s.registry.Join(id, username, room)

	s.b.Send(id, s.systemEnvelope(welcomeText))
	s.b.Broadcast(p.Room, s.systemEnvelope(p.Username+" has joined the chat"), id)
	s.broadcastMembers(p.Room)
	return nil
}

// Message handles a chat message from a connection. The formatted
// message is broadcast to the sender's room, sender included. A message
// from a connection that never joined is dropped with
// ErrProtocolViolation; an empty message is dropped with
// ErrMalformedInput.
func (s *Service) Message(id presence.ConnID, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message text is required", ErrMalformedInput)
	}

	p, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: message from a connection that never joined", ErrProtocolViolation)
	}

	env, err := marshalEnvelope(EnvelopeChat, message.Format(p.Username, text, s.now))
	if err != nil {
		return err
	}
	s.b.Broadcast(p.Room, env, "")
	return nil
}

// Disconnect handles the end of a connection. If the connection had
// joined a room, the remaining members are told it left and receive the
// updated member list. A never-joined connection disconnects silently.
// Safe to call exactly once per connection, at any point in its life.
func (s *Service) Disconnect(id presence.ConnID) {
	p, ok := s.registry.Leave(id)
	if !ok {
		return
	}

	s.b.Broadcast(p.Room, s.systemEnvelope(p.Username+" left the chat"), "")
	s.broadcastMembers(p.Room)
}

// broadcastMembers sends the room's current member list to the room.
func (s *Service) broadcastMembers(room string) {
	members := s.registry.MembersOf(room)
	if members == nil {
		members = []presence.Presence{}
	}
	env, err := marshalEnvelope(EnvelopeUsers, UsersPayload{Users: members})
	if err != nil {
		log.Printf("chat: failed to marshal member list: %v", err)
		return
	}
	s.b.Broadcast(room, env, "")
}

// systemEnvelope wraps text in a system message from the system sender.
func (s *Service) systemEnvelope(text string) Envelope {
	env, err := marshalEnvelope(EnvelopeSystem, message.Format(SystemSender, text, s.now))
	if err != nil {
		log.Printf("chat: failed to marshal system message: %v", err)
		return Envelope{Type: EnvelopeSystem}
	}
	return env
}

// ErrorEnvelope builds an error envelope for delivery to a single
// connection, typically after a rejected event.
func ErrorEnvelope(reason string) Envelope {
	payload, err := json.Marshal(map[string]string{"message": reason})
	if err != nil {
		return Envelope{Type: EnvelopeError}
	}
	return Envelope{Type: EnvelopeError, Payload: payload}
}

func marshalEnvelope(typ string, v any) (Envelope, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("chat: marshal %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: payload}, nil
}
