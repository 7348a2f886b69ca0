package ws

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/mkroghdk/letzchat/internal/presence"
	"nhooyr.io/websocket"
)

// Client represents one connected WebSocket user.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	id   presence.ConnID
}

// ID returns the connection identifier assigned at accept time.
func (c *Client) ID() presence.ConnID {
	return c.id
}

// newConnID returns a random hex connection identifier. IDs are never
// reused while a client holding one is registered.
func newConnID() presence.ConnID {
	b := make([]byte, 16)
	rand.Read(b)
	return presence.ConnID(hex.EncodeToString(b))
}
