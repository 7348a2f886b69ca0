package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mkroghdk/letzchat/internal/chat"
	"nhooyr.io/websocket"
)

// Credentials resolves the verified username for an upgrade request,
// typically from a session cookie. A nil Credentials trusts the username
// the client supplies in its join payload.
type Credentials func(r *http.Request) (username string, ok bool)

// JoinPayload is sent by the client to join a room. Username is ignored
// when the handler has a Credentials resolver; the verified identity wins.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ChatPayload is sent by the client to post a message.
type ChatPayload struct {
	Text string `json:"text"`
}

// Handler upgrades HTTP requests to WebSockets and feeds each decoded
// event into the chat service. Events from one connection are handled in
// arrival order by its single read loop, and the disconnect event runs
// exactly once, after the read loop ends.
type Handler struct {
	hub         *Hub
	chat        *chat.Service
	credentials Credentials
}

// NewHandler creates a WebSocket Handler.
func NewHandler(hub *Hub, svc *chat.Service, credentials Credentials) *Handler {
	return &Handler{
		hub:         hub,
		chat:        svc,
		credentials: credentials,
	}
}

// ServeHTTP upgrades the connection and runs its event loop until the
// client goes away or the hub shuts down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var username string
	if h.credentials != nil {
		var ok bool
		username, ok = h.credentials(r)
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow all origins in dev; tighten in production.
	})
	if err != nil {
		log.Printf("ws: accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	client := &Client{
		conn: conn,
		id:   newConnID(),
	}

	connCtx := h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		h.chat.Disconnect(client.id)
	}()

	h.readLoop(r.Context(), connCtx, client, username)
}

// readLoop decodes envelopes from the client and dispatches them until
// the connection closes or connCtx is cancelled.
func (h *Handler) readLoop(ctx context.Context, connCtx context.Context, client *Client, username string) {
	for {
		select {
		case <-connCtx.Done():
			return
		default:
		}

		_, data, err := client.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancelled.
			return
		}

		var env chat.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.hub.Send(client.id, chat.ErrorEnvelope("invalid JSON"))
			continue
		}

		switch env.Type {
		case "join":
			var payload JoinPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				h.hub.Send(client.id, chat.ErrorEnvelope("invalid join payload"))
				continue
			}
			if username != "" {
				payload.Username = username
			}
			h.report(client, h.chat.Join(client.id, payload.Username, payload.Room))
		case "chat":
			var payload ChatPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				h.hub.Send(client.id, chat.ErrorEnvelope("invalid chat payload"))
				continue
			}
			h.report(client, h.chat.Message(client.id, payload.Text))
		default:
			h.hub.Send(client.id, chat.ErrorEnvelope("unknown event type"))
		}
	}
}

// report sends rejected-event errors back to the offending client. The
// connection stays open: protocol violations and malformed input drop
// the event, nothing more.
func (h *Handler) report(client *Client, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, chat.ErrProtocolViolation) || errors.Is(err, chat.ErrMalformedInput) {
		h.hub.Send(client.id, chat.ErrorEnvelope(err.Error()))
		return
	}
	log.Printf("ws: event from connection %s failed: %v", client.id, err)
}
