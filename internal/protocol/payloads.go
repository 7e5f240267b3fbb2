package protocol

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for inbound payloads.
var validate = validator.New()

// Validate checks an inbound payload against its struct tags.
func Validate(i any) error {
	return validate.Struct(i)
}

// Inbound payloads. Required fields are checked before dispatch; the router
// additionally trims and re-checks text fields, since a whitespace-only
// username or message body is as invalid as a missing one.

// UserJoinRequest is the payload of the user_join event. The avatar is an
// opaque client-chosen string; when absent the server fills in a
// deterministic placeholder.
type UserJoinRequest struct {
	Username string `json:"username" validate:"required"`
	Avatar   string `json:"avatar"`
}

// SendMessageRequest is the payload of the send_message event. Room is
// optional and defaults to the sender's current room.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Room    string `json:"room"`
}

// TypingRequest is the payload of typing_start and typing_stop.
type TypingRequest struct {
	Room string `json:"room" validate:"required"`
}

// PrivateMessageRequest is the payload of send_private_message.
type PrivateMessageRequest struct {
	ToUsername string `json:"toUsername" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// ReactionRequest is the payload of message_reaction. The message id is not
// checked against stored history; any token is rebroadcast as-is.
type ReactionRequest struct {
	MessageID string `json:"messageId" validate:"required"`
	Reaction  string `json:"reaction" validate:"required"`
}

// Outbound payloads.

// ConnectedPayload acknowledges a new connection and lists available rooms.
type ConnectedPayload struct {
	Message string   `json:"message"`
	Rooms   []string `json:"rooms"`
}

// PresencePayload announces a user joining or going offline.
type PresencePayload struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingPayload announces a user typing (or stopping) in a room.
type TypingPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ReactionAddedPayload announces a reaction on a message.
type ReactionAddedPayload struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	Username  string `json:"username"`
}

// ErrorPayload tells the originating connection why an operation was dropped.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
