package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrActorRequired indicates a write without caller identity.
	ErrActorRequired = errors.New("actor identity required")
)
