package core

// FileEventType represents the kind of change observed on the sidecar file.
type FileEventType string

const (
	FileCreated  FileEventType = "CREATE"
	FileModified FileEventType = "MODIFY"
	FileDeleted  FileEventType = "DELETE"
)

// FileEvent is emitted by a file store watcher after debouncing. When several
// raw events collapse into one, Type carries the most recent kind.
type FileEvent struct {
	Type      FileEventType
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and the lifecycle event contract).
func (e FileEvent) String() string {
	return string(e.Type)
}

// UpdateKind says why the model changed. The contract for consumers is the
// same either way: something changed, re-query.
type UpdateKind string

const (
	UpdateMutation UpdateKind = "MUTATION"
	UpdateReload   UpdateKind = "RELOAD"
)

// Update is the change notification fired after every successful mutating
// operation and every completed (re)load. It intentionally carries no model
// data.
type Update struct {
	Kind      UpdateKind
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (u Update) String() string {
	return string(u.Kind)
}
