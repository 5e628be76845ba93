// Package fs implements the durable sidecar file store: atomic reads and
// writes at a deterministic path, plus a debounced filesystem watch that
// distinguishes self-writes from external changes.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

const (
	// DefaultDebounce is the watch event collapse window.
	DefaultDebounce = 300 * time.Millisecond

	// suppressMargin extends self-write suppression past the debounce
	// window, so the store's own save can never be misread as an external
	// change even when the watcher delivers it late.
	suppressMargin = 500 * time.Millisecond

	eventBuffer = 8
)

// Config holds the configuration for a sidecar file store.
type Config struct {
	Path     string // sidecar file path
	Debounce time.Duration
	Logger   *slog.Logger
}

// Store implements core.FileStore for one sidecar file.
type Store struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu            sync.RWMutex
	muteUntil     time.Time
	watcherActive bool
	worker        *watchWorker
}

// NewStore creates a file store for the given sidecar path. It performs no
// I/O until Read, Write or Watch is called.
func NewStore(config Config) *Store {
	debounce := config.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{
		path:     config.Path,
		debounce: debounce,
		logger:   config.Logger,
	}
}

// Path returns the sidecar file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the sidecar file contents. A missing file maps to
// core.ErrNotFound so callers can treat it as an empty document.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return data, nil
}

// Write replaces the sidecar file via an atomic rename, creating parent
// directories as needed. Self-write suppression is armed synchronously
// before the I/O begins and held for the debounce window plus a margin.
func (s *Store) Write(ctx context.Context, data []byte) error {
	s.muteWatch()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create sidecar directory: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Debug("saved sidecar file", "path", s.path, "bytes", len(data))
	}
	return nil
}

// Remove deletes the sidecar file. A file that is already gone is not an
// error.
func (s *Store) Remove(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", s.path, err)
	}
	return nil
}

// Watch starts the debounced filesystem watch and returns its event
// channel. The channel is closed when ctx is done or the store is closed.
func (s *Store) Watch(ctx context.Context) (<-chan core.FileEvent, error) {
	s.mu.Lock()
	if s.worker != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("sidecar file already watched: %s", s.path)
	}
	events := make(chan core.FileEvent, eventBuffer)
	w := newWatchWorker(s, events)
	s.worker = w
	s.mu.Unlock()

	if err := w.Start(ctx); err != nil {
		s.mu.Lock()
		s.worker = nil
		s.mu.Unlock()
		return nil, err
	}
	return events, nil
}

// Close stops the watcher, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.worker
	s.worker = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop(context.Background())
}

// Muted reports whether the self-write suppression window is open.
func (s *Store) Muted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Now().Before(s.muteUntil)
}

func (s *Store) muteWatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muteUntil = time.Now().Add(s.debounce + suppressMargin)
}

var _ core.FileStore = (*Store)(nil)
