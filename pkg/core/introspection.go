package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Status      Status `json:"status"`
	Folder      string `json:"folder,omitempty"`
	Stacks      int    `json:"stacks"`
	Markers     int    `json:"markers"`
	Subscribers int    `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	markers := 0
	for _, st := range s.stacks {
		markers += len(st.Markers)
	}
	state := StoreState{
		Status:  s.status,
		Folder:  s.folder,
		Stacks:  len(s.stacks),
		Markers: markers,
	}
	s.mu.Unlock()

	s.subMu.Lock()
	state.Subscribers = len(s.subs)
	s.subMu.Unlock()

	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "marker-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
