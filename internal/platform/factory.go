package platform

import (
	"context"

	"github.com/tianjianchn/code-explorer/pkg/adapters/fs"
	"github.com/tianjianchn/code-explorer/pkg/codec"
	"github.com/tianjianchn/code-explorer/pkg/core"
)

// New creates a marker store bound to a workspace folder. The initial load
// starts immediately; operations block until it completes.
func New(folder string, opts ...Option) (*core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	open := o.open
	if open == nil {
		open = func(path string) (core.FileStore, error) {
			return fs.NewStore(fs.Config{
				Path:     path,
				Debounce: o.debounce,
				Logger:   o.logger,
			}), nil
		}
	}

	store, err := core.NewStore(core.Config{
		Resolve: func(folder string) core.Location {
			return fs.Resolve(folder, o.sidecarDir)
		},
		Open:        open,
		Codec:       codec.New(),
		Logger:      o.logger,
		EventBuffer: o.eventBuffer,
	})
	if err != nil {
		return nil, err
	}

	if err := store.BindFolder(context.Background(), folder); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
