package domain

import (
	"net/url"
	"time"
)

// User is the identity a connection claims on join. One User per connection;
// the ID is the connection id. Usernames are unauthenticated claims and are
// not guaranteed unique across connections.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	JoinedAt time.Time `json:"joinedAt"`
}

// DefaultAvatar returns the deterministic placeholder avatar URL used when
// the client did not supply one on join.
func DefaultAvatar(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(username)
}
