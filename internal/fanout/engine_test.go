package fanout

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/pubsub"
)

// mockPublisher implements pubsub.Publisher for testing.
type mockPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) getMessages() []pubsub.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]pubsub.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

// staticMembers implements MemberSource with a fixed membership map.
type staticMembers map[string][]string

func (s staticMembers) Members(room string) []string { return s[room] }

func TestEngine_SendTo(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEngine(pub, staticMembers{})

	e.SendTo(context.Background(), "conn1", []byte(`{"event":"connected"}`))

	messages := pub.getMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, pubsub.TopicEgress, messages[0].Topic)
	assert.Equal(t, pubsub.ScopeDirect, messages[0].Metadata[pubsub.MetaScope])
	assert.Equal(t, "conn1", messages[0].Metadata[pubsub.MetaConnectionID])
	assert.JSONEq(t, `{"event":"connected"}`, string(messages[0].Payload))
}

func TestEngine_BroadcastRoom(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEngine(pub, staticMembers{
		"general": {"conn1", "conn2", "conn3"},
	})

	e.BroadcastRoom(context.Background(), "general", []byte(`{}`), "conn2")

	messages := pub.getMessages()
	require.Len(t, messages, 2)

	var recipients []string
	for _, msg := range messages {
		assert.Equal(t, pubsub.TopicEgress, msg.Topic)
		assert.Equal(t, pubsub.ScopeDirect, msg.Metadata[pubsub.MetaScope])
		recipients = append(recipients, msg.Metadata[pubsub.MetaConnectionID])
	}
	assert.ElementsMatch(t, []string{"conn1", "conn3"}, recipients)
}

func TestEngine_BroadcastRoomEmpty(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEngine(pub, staticMembers{})

	e.BroadcastRoom(context.Background(), "empty", []byte(`{}`))
	assert.Empty(t, pub.getMessages())
}

func TestEngine_BroadcastAll(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEngine(pub, staticMembers{})

	e.BroadcastAll(context.Background(), []byte(`{}`))

	messages := pub.getMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, pubsub.TopicEgress, messages[0].Topic)
	assert.Equal(t, pubsub.ScopeBroadcast, messages[0].Metadata[pubsub.MetaScope])
	assert.Empty(t, messages[0].Metadata[pubsub.MetaExcludeID])
}

func TestEngine_BroadcastAllExcluding(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEngine(pub, staticMembers{})

	e.BroadcastAll(context.Background(), []byte(`{}`), "conn1")

	messages := pub.getMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, pubsub.ScopeBroadcast, messages[0].Metadata[pubsub.MetaScope])
	assert.Equal(t, "conn1", messages[0].Metadata[pubsub.MetaExcludeID])
}
