// Package platform wires the marker store to its filesystem adapter and
// codec, and applies user-level configuration.
package platform

import (
	"log/slog"
	"time"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

// options holds the internal configuration for a marker store.
type options struct {
	logger      *slog.Logger
	debounce    time.Duration
	sidecarDir  string
	eventBuffer int
	open        func(path string) (core.FileStore, error)
}

// Option defines a functional option for configuring the store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger for the store and its file adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebounce overrides the watch debounce window. Zero keeps the default.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithSidecarDir overrides the workspace subdirectory the sidecar document
// lives in. Defaults to ".vscode".
func WithSidecarDir(dir string) Option {
	return func(o *options) {
		o.sidecarDir = dir
	}
}

// WithEventBuffer sets the per-subscriber update channel capacity. Zero
// keeps the default.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithOpener injects a custom file store constructor. If provided, the
// default filesystem adapter is skipped. Intended for tests and alternative
// storage backends.
func WithOpener(open func(path string) (core.FileStore, error)) Option {
	return func(o *options) {
		o.open = open
	}
}
