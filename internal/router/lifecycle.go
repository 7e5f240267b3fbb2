package router

import (
	"context"
	"encoding/json"

	"github.com/nfrund/parley/internal/protocol"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/session"
)

// ConnectedMessage is the greeting sent in the connected acknowledgment.
const ConnectedMessage = "Connected to chat server"

// handleConnected processes the bridge's client connected lifecycle event.
func (r *Router) handleConnected(ctx context.Context, msg pubsub.Message) error {
	var event struct {
		ConnectionID string `json:"connectionID"`
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.Error("Failed to unmarshal client connected event", "error", err)
		return err
	}

	r.HandleConnect(ctx, event.ConnectionID)
	return nil
}

// handleDisconnected processes the bridge's client disconnected lifecycle
// event.
func (r *Router) handleDisconnected(ctx context.Context, msg pubsub.Message) error {
	var event struct {
		ConnectionID string `json:"connectionID"`
		Reason       string `json:"reason"`
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.Error("Failed to unmarshal client disconnected event", "error", err)
		return err
	}

	r.logger.Debug("Client disconnected", "connectionID", event.ConnectionID, "reason", event.Reason)
	r.HandleDisconnect(ctx, event.ConnectionID)
	return nil
}

// HandleConnect runs the connect flow for a new connection: it is placed in
// the default room at the transport level and acknowledged with the room
// list. No User exists yet; that waits for the join handshake.
func (r *Router) HandleConnect(ctx context.Context, connID string) {
	r.mu.Lock()
	r.rooms.AddMember(r.rooms.Default(), connID)
	roomNames := r.rooms.Rooms()
	r.mu.Unlock()

	r.logger.Info("Connection established", "connectionID", connID)

	r.send(ctx, connID, protocol.EventConnected, protocol.ConnectedPayload{
		Message: ConnectedMessage,
		Rooms:   roomNames,
	})
}

// HandleDisconnect runs the disconnect flow: room memberships and the
// session entry are cleared, and if the connection had completed the join
// handshake the remaining clients are told the user went offline. A
// connection that never joined cleans up silently.
func (r *Router) HandleDisconnect(ctx context.Context, connID string) {
	r.mu.Lock()
	user, hadUser := r.sessions.Unregister(connID)
	r.rooms.RemoveFromAll(connID)
	if !hadUser {
		r.mu.Unlock()
		return
	}
	online := r.sessions.ListOnline()
	r.mu.Unlock()

	r.logger.Info("User disconnected", "connectionID", connID, "username", user.Username)

	r.broadcastAll(ctx, protocol.EventUserOffline, protocol.PresencePayload{
		Username:  user.Username,
		Timestamp: session.Now(),
	}, connID)
	r.broadcastAll(ctx, protocol.EventOnlineUsers, online)
}
