package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string        `json:"path"`
	Debounce      time.Duration `json:"debounce_ns"`
	WatcherActive bool          `json:"watcher_active"`
	Muted         bool          `json:"muted"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.path,
		Debounce:      s.debounce,
		WatcherActive: s.watcherActive,
		Muted:         time.Now().Before(s.muteUntil),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sidecar-file"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
