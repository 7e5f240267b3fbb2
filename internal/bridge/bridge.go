// Package bridge owns the WebSocket transport. It accepts connections,
// pumps frames in both directions, and routes traffic between connected
// clients and the Pub/Sub bus: inbound frames are published on the ingress
// topic, and the egress topic is subscribed and delivered to client send
// channels. The bridge knows nothing about rooms or users; it addresses
// clients purely by connection id.
package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/pubsub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Default per-connection outbound buffer.
	defaultSendBuffer = 256
)

// lifecycleEvent is the payload published on the client connected and
// disconnected topics.
type lifecycleEvent struct {
	ConnectionID string `json:"connectionID"`
	Reason       string `json:"reason,omitempty"`
}

// Bridge manages all WebSocket connections.
type Bridge struct {
	publisher  pubsub.Publisher
	sendBuffer int
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithSendBuffer sets the per-connection outbound channel capacity.
func WithSendBuffer(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.sendBuffer = n
		}
	}
}

// New creates a Bridge and subscribes it to the egress topic. The returned
// bridge is ready to accept connections; there is no separate run loop.
func New(ctx context.Context, pub pubsub.Publisher, sub pubsub.Subscriber, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		publisher:  pub,
		sendBuffer: defaultSendBuffer,
		logger:     slog.Default().With("service", "bridge"),
		clients:    make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := sub.Subscribe(ctx, pubsub.TopicEgress, b.handleEgress); err != nil {
		return nil, err
	}
	return b, nil
}

// Handler returns an echo.HandlerFunc that upgrades requests to WebSocket
// connections and starts the client pumps.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			// The chat protocol carries no credentials, so cross-origin
			// connections are acceptable here.
			InsecureSkipVerify: true,
		})
		if err != nil {
			b.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		client := &Client{
			ID:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, b.sendBuffer),
		}
		b.add(client)

		go b.writePump(client)
		go b.readPump(client)

		b.publishLifecycle(pubsub.TopicClientConnected, client.ID, "")
		return nil
	}
}

// ClientCount returns the number of currently connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Bridge) add(client *Client) {
	b.mu.Lock()
	b.clients[client.ID] = client
	total := len(b.clients)
	b.mu.Unlock()
	b.logger.Info("Client registered", "connectionID", client.ID, "total_clients", total)
}

func (b *Bridge) remove(client *Client) {
	b.mu.Lock()
	_, ok := b.clients[client.ID]
	if ok {
		delete(b.clients, client.ID)
	}
	total := len(b.clients)
	b.mu.Unlock()

	if ok {
		client.Close()
		b.logger.Info("Client unregistered", "connectionID", client.ID, "total_clients", total)
	}
}

// handleEgress delivers an egress event according to its scope metadata.
// All egress arrives on one subscription, handled sequentially, so each
// recipient sees events in the order they were published.
func (b *Bridge) handleEgress(ctx context.Context, msg pubsub.Message) error {
	switch msg.Metadata[pubsub.MetaScope] {
	case pubsub.ScopeDirect:
		b.deliverDirect(msg)
	case pubsub.ScopeBroadcast:
		b.deliverBroadcast(msg)
	default:
		b.logger.Error("Dropping egress event with unknown scope", "scope", msg.Metadata[pubsub.MetaScope])
	}
	return nil
}

// deliverDirect sends an event to the single connection named in the message
// metadata. An unknown connection id means the client went away after the
// event was published; the event is dropped silently.
func (b *Bridge) deliverDirect(msg pubsub.Message) {
	connID := msg.Metadata[pubsub.MetaConnectionID]

	b.mu.RLock()
	client, ok := b.clients[connID]
	b.mu.RUnlock()

	if !ok {
		b.logger.Debug("Dropping direct event for disconnected client", "connectionID", connID)
		return
	}
	client.SendMessage(msg.Payload)
}

// deliverBroadcast sends an event to every connected client, skipping the
// excluded connection when one is named.
func (b *Bridge) deliverBroadcast(msg pubsub.Message) {
	exclude := msg.Metadata[pubsub.MetaExcludeID]

	b.mu.RLock()
	targets := make([]*Client, 0, len(b.clients))
	for id, client := range b.clients {
		if id == exclude {
			continue
		}
		targets = append(targets, client)
	}
	b.mu.RUnlock()

	for _, client := range targets {
		client.SendMessage(msg.Payload)
	}
}

// readPump pumps frames from the WebSocket connection onto the ingress
// topic. It owns connection teardown: when the read loop ends, for whatever
// reason, the client is removed and the disconnect lifecycle event published.
func (b *Bridge) readPump(client *Client) {
	reason := "client_closed"
	defer func() {
		b.remove(client)
		client.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
		b.publishLifecycle(pubsub.TopicClientDisconnected, client.ID, reason)
	}()

	for {
		// A background context here: read deadlines are managed by the
		// library's keep-alive mechanism, and the request context ends when
		// the upgrade handler returns.
		_, frame, err := client.conn.Read(context.Background())
		if err != nil {
			switch {
			case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
				websocket.CloseStatus(err) == websocket.StatusGoingAway:
				b.logger.Info("WebSocket closed normally by client", "connectionID", client.ID)
			case err == io.EOF:
			default:
				b.logger.Error("WebSocket read error", "connectionID", client.ID, "error", err)
				reason = "read_error"
			}
			return
		}

		if err := b.publisher.Publish(context.Background(), pubsub.Message{
			Topic:        pubsub.TopicIngress,
			ConnectionID: client.ID,
			Payload:      frame,
			Metadata: map[string]string{
				"received_at": time.Now().UTC().Format(time.RFC3339),
			},
		}); err != nil {
			b.logger.Error("Failed to publish inbound frame", "connectionID", client.ID, "error", err)
		}
	}
}

// writePump pumps messages from the client's send channel to the WebSocket
// connection. One writer per connection keeps writes serialized.
func (b *Bridge) writePump(client *Client) {
	defer client.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	for msg := range client.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := client.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			b.logger.Error("WebSocket write error", "connectionID", client.ID, "error", err)
			return
		}
	}
}

func (b *Bridge) publishLifecycle(topic, connID, reason string) {
	payload, err := json.Marshal(lifecycleEvent{ConnectionID: connID, Reason: reason})
	if err != nil {
		b.logger.Error("Failed to marshal lifecycle event", "error", err)
		return
	}
	if err := b.publisher.Publish(context.Background(), pubsub.Message{
		Topic:        topic,
		ConnectionID: connID,
		Payload:      payload,
	}); err != nil {
		b.logger.Error("Failed to publish lifecycle event", "topic", topic, "connectionID", connID, "error", err)
	}
}
