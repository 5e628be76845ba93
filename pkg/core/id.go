package core

import "github.com/google/uuid"

// NewID returns a collision-resistant identifier safe to persist as a JSON
// string. Random UUIDs are used instead of a counter because a counter would
// need a trusted last-value source, which external edits to the sidecar file
// can silently invalidate.
func NewID() string {
	return uuid.NewString()
}
