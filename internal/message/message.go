// Package message defines the chat message record and its formatting.
package message

import "time"

// Type represents the kind of message.
type Type string

const (
	TypeChat   Type = "chat"
	TypeSystem Type = "system"
)

// timeLayout renders a 12-hour clock time like "3:04 pm".
const timeLayout = "3:04 pm"

// Message is a displayable chat message. Messages are ephemeral: they are
// built per send, broadcast, and discarded.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

// Format builds a Message from the sender and text, stamping it with the
// current time from now. It never mutates its inputs and never fails.
func Format(sender, text string, now func() time.Time) Message {
	return Message{
		Sender: sender,
		Text:   text,
		Time:   now().Format(timeLayout),
	}
}
