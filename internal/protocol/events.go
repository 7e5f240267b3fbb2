package protocol

// Client-to-server event names.
const (
	EventUserJoin           = "user_join"
	EventSendMessage        = "send_message"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
	EventJoinRoom           = "join_room"
	EventSendPrivateMessage = "send_private_message"
	EventMessageReaction    = "message_reaction"
)

// Server-to-client event names.
const (
	EventConnected            = "connected"
	EventUserJoined           = "user_joined"
	EventOnlineUsers          = "online_users"
	EventMessageHistory       = "message_history"
	EventNewMessage           = "new_message"
	EventUserTyping           = "user_typing"
	EventUserStopTyping       = "user_stop_typing"
	EventRoomJoined           = "room_joined"
	EventPrivateMessage       = "private_message"
	EventPrivateMessageSent   = "private_message_sent"
	EventMessageReactionAdded = "message_reaction_added"
	EventUserOffline          = "user_offline"
	EventError                = "error"
)

// Error codes carried by the error event.
const (
	CodeBadPayload            = "bad_payload"
	CodeValidation            = "validation_error"
	CodeUnauthenticated       = "unauthenticated"
	CodeUnknownRecipient      = "unknown_recipient"
	CodeDuplicateRegistration = "duplicate_registration"
	CodeUnknownEvent          = "unknown_event"
)
