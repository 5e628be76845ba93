package core

import "errors"

// Common errors.
var (
	// ErrNotFound signals that the sidecar document does not exist yet.
	// Callers treat it as "start empty", not as a failure.
	ErrNotFound = errors.New("sidecar file not found")

	// ErrNotBound signals that an operation requiring a workspace folder was
	// invoked with none bound. Mutations swallow it into a silent no-op.
	ErrNotBound = errors.New("no workspace folder bound")

	// ErrClosed signals that the store has been disposed.
	ErrClosed = errors.New("store is closed")
)
