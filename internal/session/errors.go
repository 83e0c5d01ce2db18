package session

import "errors"

// Sentinel errors the service returns; the REST transport maps each to a
// status code without leaking store internals.
var (
	ErrNotFound          = errors.New("session not found")
	ErrAlreadyExists     = errors.New("session already exists and is live")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status value")
	ErrConflict          = errors.New("conflicting concurrent update")
)
