package core

import "context"

// FileStore is the durable storage a model store persists through. Adhering
// to this interface keeps the core independent of the underlying filesystem
// (and lets tests substitute an in-memory fake).
type FileStore interface {
	// Path returns the absolute path of the backing file.
	Path() string

	// Read returns the current file contents. A missing file is reported as
	// ErrNotFound; callers treat that as an empty document.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the file contents, creating parent directories as
	// needed. Implementations must arm self-write suppression before the
	// write I/O begins so the watcher does not reload the store's own save.
	Write(ctx context.Context, data []byte) error

	// Remove deletes the backing file. Used for best-effort cleanup of
	// legacy sidecar locations after migration.
	Remove(ctx context.Context) error

	// Watch delivers debounced external change events until ctx is done.
	Watch(ctx context.Context) (<-chan FileEvent, error)

	// Close releases the watcher and any other resources.
	Close() error
}

// Codec converts between the in-memory model and the versioned sidecar
// document, absorbing legacy document shapes on decode.
type Codec interface {
	Encode(stacks []*Stack, folder string) ([]byte, error)

	// Decode reports upgraded=true when the input used a legacy shape and
	// should be re-saved in the current one.
	Decode(data []byte, folder string) (stacks []*Stack, upgraded bool, err error)
}

// Location describes where a workspace folder's sidecar document lives.
// Legacy paths are probed, oldest last, when the primary file is absent.
type Location struct {
	Primary string
	Legacy  []string
}
