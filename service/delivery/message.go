package delivery

import "time"

// State is the delivery position of a direct message. States only move
// forward: sent, then delivered, then read.
type State int

const (
	StateSent State = iota + 1
	StateDelivered
	StateRead
)

func (s State) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateDelivered:
		return "delivered"
	case StateRead:
		return "read"
	default:
		return "unknown"
	}
}

// Kind tags the message body so clients can render it.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Message is one direct message in flight between two users.
type Message struct {
	ID         string    `json:"messageId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Kind       Kind      `json:"type"`
	State      State     `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
