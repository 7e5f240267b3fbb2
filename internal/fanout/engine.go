// Package fanout delivers encoded events to one connection, a room, or
// every connection, by publishing them on the egress topic the WebSocket
// bridge subscribes to. All egress rides a single topic, so each recipient
// receives the events produced by one handler call in generation order.
// Delivery is best-effort and fire-and-forget: a recipient that has
// disconnected mid-broadcast is simply skipped by the bridge, and no error
// reaches the broadcaster.
package fanout

import (
	"context"
	"log/slog"

	"github.com/nfrund/parley/internal/pubsub"
)

// MemberSource resolves a room name to its current member connection ids.
// It is satisfied by *room.Directory.
type MemberSource interface {
	Members(room string) []string
}

// Engine is the broadcast/fanout engine.
type Engine struct {
	publisher pubsub.Publisher
	members   MemberSource
	logger    *slog.Logger
}

// NewEngine creates a fanout engine publishing on the given bus and
// resolving room membership through members.
func NewEngine(publisher pubsub.Publisher, members MemberSource) *Engine {
	return &Engine{
		publisher: publisher,
		members:   members,
		logger:    slog.Default().With("service", "fanout"),
	}
}

// SendTo delivers an encoded event to a single connection.
func (e *Engine) SendTo(ctx context.Context, connID string, payload []byte) {
	e.publish(ctx, pubsub.Message{
		Topic:   pubsub.TopicEgress,
		Payload: payload,
		Metadata: map[string]string{
			pubsub.MetaScope:        pubsub.ScopeDirect,
			pubsub.MetaConnectionID: connID,
		},
	})
}

// BroadcastRoom delivers an encoded event to every current member of a room,
// minus any excluded connections. Membership is resolved once, at call time;
// the fan-out is one direct publish per member.
func (e *Engine) BroadcastRoom(ctx context.Context, room string, payload []byte, exclude ...string) {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	for _, connID := range e.members.Members(room) {
		if _, ok := skip[connID]; ok {
			continue
		}
		e.SendTo(ctx, connID, payload)
	}
}

// BroadcastAll delivers an encoded event to every connected client, minus an
// optional single excluded connection.
func (e *Engine) BroadcastAll(ctx context.Context, payload []byte, exclude ...string) {
	msg := pubsub.Message{
		Topic:   pubsub.TopicEgress,
		Payload: payload,
		Metadata: map[string]string{
			pubsub.MetaScope: pubsub.ScopeBroadcast,
		},
	}
	if len(exclude) > 0 && exclude[0] != "" {
		msg.Metadata[pubsub.MetaExcludeID] = exclude[0]
	}
	e.publish(ctx, msg)
}

func (e *Engine) publish(ctx context.Context, msg pubsub.Message) {
	if err := e.publisher.Publish(ctx, msg); err != nil {
		e.logger.Error("Failed to publish egress event", "topic", msg.Topic, "error", err)
	}
}
