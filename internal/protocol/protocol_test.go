package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	frame, err := Encode(EventSendMessage, SendMessageRequest{Content: "hi", Room: "general"})
	require.NoError(t, err)

	env, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, EventSendMessage, env.Event)

	var req SendMessageRequest
	require.NoError(t, json.Unmarshal(env.Data, &req))
	assert.Equal(t, "hi", req.Content)
	assert.Equal(t, "general", req.Room)
}

func TestEncodeNilData(t *testing.T) {
	frame, err := Encode(EventConnected, nil)
	require.NoError(t, err)

	env, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, EventConnected, env.Event)
	assert.Empty(t, env.Data)
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{"content":"hi"}}`))
	assert.ErrorIs(t, err, ErrEmptyEvent)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(UserJoinRequest{Username: "alice"}))
	assert.Error(t, Validate(UserJoinRequest{}))
	// Avatars are opaque strings; any value is acceptable.
	assert.NoError(t, Validate(UserJoinRequest{Username: "alice", Avatar: "not-a-url"}))
	assert.NoError(t, Validate(UserJoinRequest{Username: "alice", Avatar: "🦜"}))

	assert.NoError(t, Validate(SendMessageRequest{Content: "hi"}))
	assert.Error(t, Validate(SendMessageRequest{Room: "general"}))

	assert.NoError(t, Validate(PrivateMessageRequest{ToUsername: "bob", Content: "psst"}))
	assert.Error(t, Validate(PrivateMessageRequest{ToUsername: "bob"}))

	assert.NoError(t, Validate(ReactionRequest{MessageID: "m1", Reaction: "👍"}))
	assert.Error(t, Validate(ReactionRequest{Reaction: "👍"}))
}
