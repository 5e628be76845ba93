package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	events    chan core.FileEvent
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(store *Store, events chan core.FileEvent) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("sidecar-watcher"),
		store:      store,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	// The sidecar file may not exist yet when the watch is armed, so the
	// watch targets the parent directory and events are filtered by
	// basename.
	dir := filepath.Dir(w.store.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create sidecar directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.store.debounce)
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)

			// Conditional stack trace: only capture it when debug logging is
			// enabled, so production logs stay quiet.
			var stack string
			if w.store.logger != nil && w.store.logger.Enabled(ctx, slog.LevelDebug) {
				stack = string(debug.Stack())
			}
			if w.store.logger != nil {
				if stack != "" {
					w.store.logger.Error("watcher panic", "error", panicErr, "stack", stack)
				} else {
					w.store.logger.Error("watcher panic", "error", panicErr)
				}
			}
		}
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	// Stop accepting new events and wait for in-flight timers before
	// closing the channel downstream consumers range over.
	w.debouncer.stopAndWait(5 * time.Second)
	close(w.events)

	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			if w.store.logger != nil {
				w.store.logger.Error("fsnotify error", "error", wErr)
			}
		}
	}
}

// handleEvent filters, maps and debounces one raw filesystem event. The
// self-write check runs when the debounce window fires, not at arrival, so
// a save that is still in flight when its events land stays suppressed.
func (w *watchWorker) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.store.path) {
		return
	}
	eType := mapEventType(event)
	if eType == "" {
		return
	}

	w.debouncer.add(core.FileEvent{Type: eType, Timestamp: time.Now().Unix()}, func(e core.FileEvent) {
		if w.store.Muted() {
			if w.store.logger != nil {
				w.store.logger.Debug("ignoring self-write event", "type", e.Type)
			}
			return
		}
		defer func() {
			// Recover from panic if channel was closed (worker stopping).
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func mapEventType(event fsnotify.Event) core.FileEventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.FileCreated
	case event.Has(fsnotify.Write):
		return core.FileModified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.FileDeleted
	default:
		return ""
	}
}
