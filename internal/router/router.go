// Package router validates and dispatches inbound client events to the
// session registry, the room directory and the fanout engine. It also owns
// the connection lifecycle: connect acknowledgments and disconnect cleanup.
//
// Every handler follows the same discipline: validate and mutate shared
// state while holding the router lock, then deliver outside the lock.
// Holding the lock over the validate+mutate portion means a disconnect can
// never remove a user while another handler that already validated that
// user is still mutating on its behalf. Delivery is fire-and-forget and
// order-insensitive across recipients, so it needs no lock.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/protocol"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/room"
	"github.com/nfrund/parley/internal/session"
)

// Fanout is the delivery contract the router needs. Satisfied by
// *fanout.Engine.
type Fanout interface {
	SendTo(ctx context.Context, connID string, payload []byte)
	BroadcastRoom(ctx context.Context, roomName string, payload []byte, exclude ...string)
	BroadcastAll(ctx context.Context, payload []byte, exclude ...string)
}

// Router is the message router and connection lifecycle manager.
type Router struct {
	sessions     *session.Registry
	rooms        *room.Directory
	fan          Fanout
	historyLimit int
	logger       *slog.Logger

	// mu serializes the validate+mutate portion of every handler so that
	// compound operations are atomic with respect to concurrent disconnects.
	mu sync.Mutex
}

// Option configures a Router.
type Option func(*Router)

// WithHistoryLimit sets how many messages of history are sent to clients.
func WithHistoryLimit(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.historyLimit = n
		}
	}
}

// New creates a router over the given state components and fanout engine.
func New(sessions *session.Registry, rooms *room.Directory, fan Fanout, opts ...Option) *Router {
	r := &Router{
		sessions:     sessions,
		rooms:        rooms,
		fan:          fan,
		historyLimit: room.DefaultHistoryLimit,
		logger:       slog.Default().With("service", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start subscribes the router to the ingress and lifecycle topics. It
// returns once the subscriptions are active.
func (r *Router) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, pubsub.TopicIngress, r.handleIngress); err != nil {
		return err
	}
	if err := sub.Subscribe(ctx, pubsub.TopicClientConnected, r.handleConnected); err != nil {
		return err
	}
	return sub.Subscribe(ctx, pubsub.TopicClientDisconnected, r.handleDisconnected)
}

// handleIngress decodes a raw client frame and dispatches it to the matching
// operation. A malformed frame from one connection only ever produces an
// error event back to that connection.
func (r *Router) handleIngress(ctx context.Context, msg pubsub.Message) error {
	env, err := protocol.Decode(msg.Payload)
	if err != nil {
		r.logger.Debug("Dropping malformed frame", "connectionID", msg.ConnectionID, "error", err)
		r.sendError(ctx, msg.ConnectionID, protocol.CodeBadPayload, "malformed frame")
		return nil
	}

	switch env.Event {
	case protocol.EventUserJoin:
		var req protocol.UserJoinRequest
		if !r.bind(ctx, msg.ConnectionID, env, &req) {
			return nil
		}
		r.Join(ctx, msg.ConnectionID, req)

	case protocol.EventSendMessage:
		var req protocol.SendMessageRequest
		if !r.bind(ctx, msg.ConnectionID, env, &req) {
			return nil
		}
		r.SendMessage(ctx, msg.ConnectionID, req)

	case protocol.EventTypingStart:
		var req protocol.TypingRequest
		if !r.bind(ctx, msg.ConnectionID, env, &req) {
			return nil
		}
		r.Typing(ctx, msg.ConnectionID, req, true)

	case protocol.EventTypingStop:
		var req protocol.TypingRequest
		if !r.bind(ctx, msg.ConnectionID, env, &req) {
			return nil
		}
		r.Typing(ctx, msg.ConnectionID, req, false)

	case protocol.EventJoinRoom:
		// join_room carries a bare room name, not an object.
		var roomName string
		if err := json.Unmarshal(env.Data, &roomName); err != nil {
			r.sendError(ctx, msg.ConnectionID, protocol.CodeBadPayload, "invalid join_room payload")
			return nil
		}
		r.JoinRoom(ctx, msg.ConnectionID, roomName)

	case protocol.EventSendPrivateMessage:
		var req protocol.PrivateMessageRequest
		if !r.bind(ctx, msg.ConnectionID, env, &req) {
			return nil
		}
		r.SendPrivateMessage(ctx, msg.ConnectionID, req)

	case protocol.EventMessageReaction:
		var req protocol.ReactionRequest
		if !r.bind(ctx, msg.ConnectionID, env, &req) {
			return nil
		}
		r.React(ctx, msg.ConnectionID, req)

	default:
		r.sendError(ctx, msg.ConnectionID, protocol.CodeUnknownEvent, "unknown event: "+env.Event)
	}
	return nil
}

// bind unmarshals and validates an inbound payload, reporting failures to
// the originating connection. It returns false when dispatch should stop.
func (r *Router) bind(ctx context.Context, connID string, env protocol.Envelope, req any) bool {
	if err := json.Unmarshal(env.Data, req); err != nil {
		r.sendError(ctx, connID, protocol.CodeBadPayload, "invalid "+env.Event+" payload")
		return false
	}
	if err := protocol.Validate(req); err != nil {
		r.sendError(ctx, connID, protocol.CodeValidation, "invalid "+env.Event+" payload")
		return false
	}
	return true
}

// Join handles the user_join event: it registers the claimed identity,
// places the connection in the default room, and announces the new user.
func (r *Router) Join(ctx context.Context, connID string, req protocol.UserJoinRequest) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		r.sendError(ctx, connID, protocol.CodeValidation, "username must not be empty")
		return
	}

	r.mu.Lock()
	user, err := r.sessions.Register(connID, username, req.Avatar)
	if err != nil {
		r.mu.Unlock()
		r.logger.Debug("Rejected duplicate join", "connectionID", connID, "username", username)
		r.sendError(ctx, connID, protocol.CodeDuplicateRegistration, "connection already joined")
		return
	}

	defaultRoom := r.rooms.Default()
	r.rooms.AddMember(defaultRoom, connID)
	if err := r.sessions.SetCurrentRoom(connID, defaultRoom); err != nil {
		// Only possible if a disconnect raced the registration, which the
		// lock prevents.
		r.logger.Error("Failed to set current room", "connectionID", connID, "error", err)
	}

	online := r.sessions.ListOnline()
	history := r.rooms.Recent(defaultRoom, r.historyLimit)
	r.mu.Unlock()

	r.logger.Info("User joined", "connectionID", connID, "username", user.Username)

	r.broadcastAll(ctx, protocol.EventUserJoined, protocol.PresencePayload{
		Username:  user.Username,
		Timestamp: user.JoinedAt,
	}, connID)
	r.broadcastAll(ctx, protocol.EventOnlineUsers, online)
	r.send(ctx, connID, protocol.EventMessageHistory, history)
}

// SendMessage handles the send_message event: it stores the message in the
// target room's history and broadcasts it to the room, sender included.
func (r *Router) SendMessage(ctx context.Context, connID string, req protocol.SendMessageRequest) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		r.sendError(ctx, connID, protocol.CodeValidation, "message content must not be empty")
		return
	}

	r.mu.Lock()
	user, ok := r.sessions.Lookup(connID)
	if !ok {
		r.mu.Unlock()
		r.sendError(ctx, connID, protocol.CodeUnauthenticated, "join before sending messages")
		return
	}

	roomName := req.Room
	if roomName == "" {
		roomName, _ = r.sessions.CurrentRoom(connID)
		if roomName == "" {
			roomName = r.rooms.Default()
		}
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Username:  user.Username,
		Avatar:    user.Avatar,
		Content:   content,
		Room:      roomName,
		Timestamp: session.Now(),
		Kind:      domain.KindText,
	}
	r.rooms.Append(roomName, msg)
	r.mu.Unlock()

	r.broadcastRoom(ctx, roomName, protocol.EventNewMessage, msg)
}

// Typing handles typing_start and typing_stop: an ephemeral notification to
// the other members of the named room. Nothing is stored; any debounce is
// the client's concern.
func (r *Router) Typing(ctx context.Context, connID string, req protocol.TypingRequest, start bool) {
	r.mu.Lock()
	user, ok := r.sessions.Lookup(connID)
	r.mu.Unlock()
	if !ok {
		r.sendError(ctx, connID, protocol.CodeUnauthenticated, "join before typing notifications")
		return
	}

	event := protocol.EventUserTyping
	if !start {
		event = protocol.EventUserStopTyping
	}
	r.broadcastRoom(ctx, req.Room, event, protocol.TypingPayload{
		Username: user.Username,
		Room:     req.Room,
	}, connID)
}

// JoinRoom handles the join_room event: the connection leaves its current
// room and enters the named one, which is created on demand. Confirmation
// and the new room's recent history go to the requester only.
func (r *Router) JoinRoom(ctx context.Context, connID string, roomName string) {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		r.sendError(ctx, connID, protocol.CodeValidation, "room name must not be empty")
		return
	}

	r.mu.Lock()
	if _, ok := r.sessions.Lookup(connID); !ok {
		r.mu.Unlock()
		r.sendError(ctx, connID, protocol.CodeUnauthenticated, "join before switching rooms")
		return
	}

	if current, ok := r.sessions.CurrentRoom(connID); ok && current != roomName {
		r.rooms.RemoveMember(current, connID)
	}
	r.rooms.AddMember(roomName, connID)
	if err := r.sessions.SetCurrentRoom(connID, roomName); err != nil {
		r.logger.Error("Failed to set current room", "connectionID", connID, "error", err)
	}
	history := r.rooms.Recent(roomName, r.historyLimit)
	r.mu.Unlock()

	r.logger.Info("Connection switched room", "connectionID", connID, "room", roomName)

	r.send(ctx, connID, protocol.EventRoomJoined, roomName)
	r.send(ctx, connID, protocol.EventMessageHistory, history)
}

// SendPrivateMessage handles send_private_message: ephemeral delivery to the
// named user and a sent-confirmation back to the sender. Private messages
// never touch room history.
func (r *Router) SendPrivateMessage(ctx context.Context, connID string, req protocol.PrivateMessageRequest) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		r.sendError(ctx, connID, protocol.CodeValidation, "message content must not be empty")
		return
	}

	r.mu.Lock()
	from, ok := r.sessions.Lookup(connID)
	if !ok {
		r.mu.Unlock()
		r.sendError(ctx, connID, protocol.CodeUnauthenticated, "join before sending private messages")
		return
	}
	to, ok := r.sessions.FindByUsername(req.ToUsername)
	if !ok {
		r.mu.Unlock()
		r.sendError(ctx, connID, protocol.CodeUnknownRecipient, "user not online: "+req.ToUsername)
		return
	}
	r.mu.Unlock()

	pm := domain.PrivateMessage{
		ID:        uuid.NewString(),
		From:      from.Username,
		To:        to.Username,
		Content:   content,
		Timestamp: session.Now(),
		Kind:      domain.KindPrivate,
	}

	r.send(ctx, to.ID, protocol.EventPrivateMessage, pm)
	r.send(ctx, connID, protocol.EventPrivateMessageSent, pm)
}

// React handles message_reaction: the reaction is rebroadcast to every
// connected client, regardless of room. The message id is not checked
// against stored history.
func (r *Router) React(ctx context.Context, connID string, req protocol.ReactionRequest) {
	r.mu.Lock()
	user, ok := r.sessions.Lookup(connID)
	r.mu.Unlock()
	if !ok {
		r.sendError(ctx, connID, protocol.CodeUnauthenticated, "join before reacting")
		return
	}

	r.broadcastAll(ctx, protocol.EventMessageReactionAdded, protocol.ReactionAddedPayload{
		MessageID: req.MessageID,
		Reaction:  req.Reaction,
		Username:  user.Username,
	})
}

// Delivery helpers. Encoding failures are programming errors on our own
// payload types; they are logged and the event dropped.

func (r *Router) send(ctx context.Context, connID, event string, data any) {
	payload, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	r.fan.SendTo(ctx, connID, payload)
}

func (r *Router) broadcastRoom(ctx context.Context, roomName, event string, data any, exclude ...string) {
	payload, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	r.fan.BroadcastRoom(ctx, roomName, payload, exclude...)
}

func (r *Router) broadcastAll(ctx context.Context, event string, data any, exclude ...string) {
	payload, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	r.fan.BroadcastAll(ctx, payload, exclude...)
}

func (r *Router) sendError(ctx context.Context, connID, code, message string) {
	r.send(ctx, connID, protocol.EventError, protocol.ErrorPayload{
		Code:    code,
		Message: message,
	})
}
