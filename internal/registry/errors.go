package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	// ErrNotFound reports an unknown session id on query or end.
	ErrNotFound = errors.New("session not found")

	// ErrUnauthorized is deliberately generic: callers cannot tell an
	// unknown id from a wrong token.
	ErrUnauthorized = errors.New("invalid session or token")

	// ErrSessionEnded rejects reports against an explicitly ended session.
	ErrSessionEnded = errors.New("session already ended")
)
