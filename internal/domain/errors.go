package domain

import "errors"

// Core error taxonomy. All of these are handled locally by the router: the
// offending operation is dropped and the originating connection is told via
// an error event. None of them are fatal to the process.
var (
	// ErrDuplicateRegistration is returned when a connection that already has
	// a user attempts to join again.
	ErrDuplicateRegistration = errors.New("connection is already registered")

	// ErrUnauthenticated is returned when a connection attempts an operation
	// before completing the join handshake.
	ErrUnauthenticated = errors.New("connection is not authenticated")

	// ErrUnknownRecipient is returned when a private message names a
	// username with no online session.
	ErrUnknownRecipient = errors.New("recipient is not online")

	// ErrValidation is returned for empty or whitespace-only required fields.
	ErrValidation = errors.New("invalid payload")
)
