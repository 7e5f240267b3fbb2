// Package session tracks the identity and current room of each live
// connection. The registry is pure state: presence broadcasts and room
// mutations are the caller's responsibility.
package session

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/parley/internal/domain"
)

type entry struct {
	user domain.User
	room string
}

// Registry maps connection ids to registered users and their current room.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
	}
}

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Register associates a user with a connection. It fails with
// ErrDuplicateRegistration if the connection already has a user; re-joining
// never silently overwrites an identity. An empty avatar is replaced with the
// deterministic placeholder for the username.
func (r *Registry) Register(connID, username, avatar string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connID]; ok {
		return domain.User{}, domain.ErrDuplicateRegistration
	}

	if avatar == "" {
		avatar = domain.DefaultAvatar(username)
	}

	user := domain.User{
		ID:       connID,
		Username: username,
		Avatar:   avatar,
		JoinedAt: Now(),
	}
	r.sessions[connID] = &entry{user: user}
	return user, nil
}

// Lookup returns the user registered for a connection, if any.
func (r *Registry) Lookup(connID string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[connID]
	if !ok {
		return domain.User{}, false
	}
	return e.user, true
}

// Unregister removes a connection's session. It is irreversible; a
// subsequent Lookup returns absent. The removed user is returned when one
// was registered.
func (r *Registry) Unregister(connID string) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[connID]
	if !ok {
		return domain.User{}, false
	}
	delete(r.sessions, connID)
	return e.user, true
}

// CurrentRoom returns the room the connection currently belongs to. The
// second return is false if the connection is not registered or has not
// been placed in a room yet.
func (r *Registry) CurrentRoom(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[connID]
	if !ok || e.room == "" {
		return "", false
	}
	return e.room, true
}

// SetCurrentRoom records the room a registered connection belongs to.
func (r *Registry) SetCurrentRoom(connID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[connID]
	if !ok {
		return domain.ErrUnauthenticated
	}
	e.room = room
	return nil
}

// ListOnline returns all registered users ordered by join time, then
// username, so presence snapshots are stable across calls.
func (r *Registry) ListOnline() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.sessions))
	for _, e := range r.sessions {
		users = append(users, e.user)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	return users
}

// FindByUsername resolves a username to an online user with a linear scan.
// Usernames are not unique; the earliest-joined match wins.
func (r *Registry) FindByUsername(username string) (domain.User, bool) {
	users := r.ListOnline()
	for _, u := range users {
		if u.Username == username {
			return u, true
		}
	}
	return domain.User{}, false
}
