package domain

import "errors"

var (
	// ErrStaleTransition marks a delayed transition that fired after the
	// session already left the state it was scheduled for.
	ErrStaleTransition = errors.New("stale transition")
	ErrInvalidEvent    = errors.New("invalid event")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrAddressNotFound = errors.New("address not found")
	ErrStateNotFound   = errors.New("state not found")
)
