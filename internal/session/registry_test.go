package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/domain"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	user, err := r.Register("conn1", "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "conn1", user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.JoinedAt.IsZero())

	got, ok := r.Lookup("conn1")
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("conn1", "alice", "")
	require.NoError(t, err)

	// A second join on the same connection must be rejected, not silently
	// overwrite the identity.
	_, err = r.Register("conn1", "mallory", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateRegistration)

	got, ok := r.Lookup("conn1")
	assert.True(t, ok)
	assert.Equal(t, "alice", got.Username)
}

func TestRegistry_AvatarDefault(t *testing.T) {
	r := NewRegistry()

	user, err := r.Register("conn1", "alice smith", "")
	require.NoError(t, err)
	assert.Equal(t, "https://ui-avatars.com/api/?name=alice+smith", user.Avatar)

	custom, err := r.Register("conn2", "bob", "https://example.com/bob.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/bob.png", custom.Avatar)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("conn1", "alice", "")
	require.NoError(t, err)

	user, ok := r.Unregister("conn1")
	assert.True(t, ok)
	assert.Equal(t, "alice", user.Username)

	_, ok = r.Lookup("conn1")
	assert.False(t, ok)

	// Unregister is irreversible and idempotent.
	_, ok = r.Unregister("conn1")
	assert.False(t, ok)
}

func TestRegistry_ListOnline(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.ListOnline())

	_, err := r.Register("conn1", "alice", "")
	require.NoError(t, err)
	_, err = r.Register("conn2", "bob", "")
	require.NoError(t, err)

	online := r.ListOnline()
	require.Len(t, online, 2)

	usernames := []string{online[0].Username, online[1].Username}
	assert.Contains(t, usernames, "alice")
	assert.Contains(t, usernames, "bob")
}

func TestRegistry_FindByUsername(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("conn1", "alice", "")
	require.NoError(t, err)

	user, ok := r.FindByUsername("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn1", user.ID)

	_, ok = r.FindByUsername("nobody")
	assert.False(t, ok)
}

func TestRegistry_CurrentRoom(t *testing.T) {
	r := NewRegistry()

	// Unregistered connections have no room and cannot be placed in one.
	_, ok := r.CurrentRoom("conn1")
	assert.False(t, ok)
	assert.ErrorIs(t, r.SetCurrentRoom("conn1", "general"), domain.ErrUnauthenticated)

	_, err := r.Register("conn1", "alice", "")
	require.NoError(t, err)

	require.NoError(t, r.SetCurrentRoom("conn1", "general"))
	current, ok := r.CurrentRoom("conn1")
	assert.True(t, ok)
	assert.Equal(t, "general", current)

	require.NoError(t, r.SetCurrentRoom("conn1", "tech"))
	current, _ = r.CurrentRoom("conn1")
	assert.Equal(t, "tech", current)
}
