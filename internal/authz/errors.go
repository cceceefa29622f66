package authz

import "errors"

var (
	// ErrNotFound indicates the user has no authorization snapshot (unknown
	// or deactivated account).
	ErrNotFound = errors.New("authz: not found")
	// ErrUnknownMode indicates a programming error in the caller; decisions
	// never deny for it silently.
	ErrUnknownMode = errors.New("authz: unknown mode")
)
