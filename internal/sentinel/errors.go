package sentinel

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnauthorized = errors.New("server rejected credentials")
	ErrSessionEnded = errors.New("session already ended")
	ErrServer       = errors.New("unexpected server response")
)
