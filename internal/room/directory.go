// Package room holds the room directory: named broadcast groups with a
// membership set and an ordered message history each.
package room

import (
	"sync"

	"github.com/nfrund/parley/internal/domain"
)

// DefaultHistoryLimit is the read-time cap applied by Recent when callers
// pass a non-positive limit.
const DefaultHistoryLimit = 50

type state struct {
	members map[string]struct{}
	history []domain.Message
}

// Directory maps room names to membership sets and message history buffers.
// Rooms are created on demand and never deleted. All methods are safe for
// concurrent use.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*state
	names []string // room names in creation order
}

// NewDirectory creates a directory pre-seeded with the given rooms. The
// first seeded room is the default room for new connections.
func NewDirectory(seed ...string) *Directory {
	d := &Directory{
		rooms: make(map[string]*state),
	}
	for _, name := range seed {
		d.ensure(name)
	}
	return d
}

// Default returns the room new connections are placed in.
func (d *Directory) Default() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.names) == 0 {
		return ""
	}
	return d.names[0]
}

// Rooms returns all room names in creation order.
func (d *Directory) Rooms() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.names))
	copy(names, d.names)
	return names
}

// Ensure creates the named room if it does not already exist.
func (d *Directory) Ensure(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensure(name)
}

func (d *Directory) ensure(name string) *state {
	s, ok := d.rooms[name]
	if !ok {
		s = &state{members: make(map[string]struct{})}
		d.rooms[name] = s
		d.names = append(d.names, name)
	}
	return s
}

// AddMember adds a connection to a room, creating the room if needed.
// Adding an already-present member is a no-op.
func (d *Directory) AddMember(room, connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensure(room).members[connID] = struct{}{}
}

// RemoveMember removes a connection from a room. Removing a non-member, or
// naming an unknown room, is a no-op.
func (d *Directory) RemoveMember(room, connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.rooms[room]; ok {
		delete(s.members, connID)
	}
}

// RemoveFromAll removes a connection from every room it belongs to and
// returns the names of the rooms it was a member of.
func (d *Directory) RemoveFromAll(connID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var removed []string
	for _, name := range d.names {
		s := d.rooms[name]
		if _, ok := s.members[connID]; ok {
			delete(s.members, connID)
			removed = append(removed, name)
		}
	}
	return removed
}

// Members returns the connection ids currently in a room.
func (d *Directory) Members(room string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.rooms[room]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(s.members))
	for id := range s.members {
		members = append(members, id)
	}
	return members
}

// MemberCount returns the number of connections in a room.
func (d *Directory) MemberCount(room string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.rooms[room]
	if !ok {
		return 0
	}
	return len(s.members)
}

// Append adds a message to a room's history, creating the room if needed.
// Storage is unbounded; truncation happens at read time in Recent.
func (d *Directory) Append(room string, msg domain.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.ensure(room)
	s.history = append(s.history, msg)
}

// Recent returns the last limit messages of a room in append order, or fewer
// if the history is shorter. A non-positive limit falls back to
// DefaultHistoryLimit.
func (d *Directory) Recent(room string, limit int) []domain.Message {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s, ok := d.rooms[room]
	if !ok {
		return nil
	}

	start := len(s.history) - limit
	if start < 0 {
		start = 0
	}
	out := make([]domain.Message, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// HistoryLen returns the current history length of a room.
func (d *Directory) HistoryLen(room string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.rooms[room]
	if !ok {
		return 0
	}
	return len(s.history)
}
