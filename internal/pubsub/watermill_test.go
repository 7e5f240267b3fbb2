package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	wb := NewWatermillBridge()
	defer wb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	require.NoError(t, wb.Subscribe(ctx, TopicIngress, func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, wb.Publish(ctx, Message{
		Topic:        TopicIngress,
		ConnectionID: "conn1",
		Payload:      []byte(`{"event":"user_join"}`),
		Metadata:     map[string]string{"received_at": "2024-01-01T00:00:00Z"},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, TopicIngress, msg.Topic)
		assert.Equal(t, "conn1", msg.ConnectionID)
		assert.JSONEq(t, `{"event":"user_join"}`, string(msg.Payload))
		assert.Equal(t, "2024-01-01T00:00:00Z", msg.Metadata["received_at"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillBridge_OrderedDelivery(t *testing.T) {
	wb := NewWatermillBridge()
	defer wb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{})
	require.NoError(t, wb.Subscribe(ctx, TopicEgress, func(ctx context.Context, msg Message) error {
		mu.Lock()
		got = append(got, string(msg.Payload))
		if len(got) == 3 {
			close(done)
		}
		mu.Unlock()
		return nil
	}))

	for _, payload := range []string{"one", "two", "three"} {
		require.NoError(t, wb.Publish(ctx, Message{
			Topic:   TopicEgress,
			Payload: []byte(payload),
		}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for messages")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two", "three"}, got)
}
