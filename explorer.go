package codeexplorer

import (
	"log/slog"
	"time"

	"github.com/tianjianchn/code-explorer/internal/platform"
	"github.com/tianjianchn/code-explorer/pkg/core"
)

// --- Types ---

// Store is a public alias for the marker store.
type Store = core.Store

// Marker is a public alias for a code bookmark.
type Marker = core.Marker

// Stack is a public alias for an ordered group of markers.
type Stack = core.Stack

// MarkerInput is a public alias for the marker creation payload.
type MarkerInput = core.MarkerInput

// Update is a public alias for a store change notification.
type Update = core.Update

// --- Configuration ---

// Option defines a functional option for configuring the store.
type Option = platform.Option

// WithLogger sets the logger for the store and its file adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithDebounce overrides the watch debounce window.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithSidecarDir overrides the workspace subdirectory holding the sidecar
// document (default ".vscode").
func WithSidecarDir(dir string) Option {
	return platform.WithSidecarDir(dir)
}

// WithEventBuffer sets the per-subscriber update channel capacity.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithOpener injects a custom file store constructor.
func WithOpener(open func(path string) (core.FileStore, error)) Option {
	return platform.WithOpener(open)
}

// --- Factory ---

// Open creates a marker store bound to a workspace folder and starts its
// initial load.
func Open(folder string, opts ...Option) (*core.Store, error) {
	return platform.New(folder, opts...)
}
