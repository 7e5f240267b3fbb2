package domain

import "time"

// MessageKind distinguishes the message variants on the wire.
type MessageKind string

const (
	KindText    MessageKind = "text"
	KindSystem  MessageKind = "system"
	KindPrivate MessageKind = "private"
)

// Message is a room message. Immutable once created; appended to its room's
// history in server receipt order.
type Message struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Avatar    string      `json:"avatar"`
	Content   string      `json:"content"`
	Room      string      `json:"room"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"type"`
}

// PrivateMessage is delivered only to its sender and recipient and is never
// stored in any room history.
type PrivateMessage struct {
	ID        string      `json:"id"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"type"`
}
