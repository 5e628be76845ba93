package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
)

// Status describes where the store is in its load lifecycle.
type Status string

const (
	StatusUnloaded  Status = "unloaded"
	StatusLoading   Status = "loading"
	StatusReady     Status = "ready"
	StatusReloading Status = "reloading"
)

// DefaultEventBuffer is the per-subscriber update channel capacity.
const DefaultEventBuffer = 16

// Config wires a Store to its collaborators. Resolve, Open and Codec are
// required.
type Config struct {
	// Resolve maps a workspace folder to its sidecar document location.
	Resolve func(folder string) Location

	// Open creates a file store for one sidecar path.
	Open func(path string) (FileStore, error)

	Codec       Codec
	Logger      *slog.Logger
	EventBuffer int
}

// Store owns the canonical in-memory collection of stacks and markers for
// one workspace folder. All operations serialize on an internal mutex;
// queries and mutations additionally wait on a ready barrier until the first
// load (or the load following a folder rebind) completes.
//
// Stacks and markers returned by queries are live references into the model.
// Consumers must treat them as read-only and go through Store operations for
// every change.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	status  Status
	folder  string
	stacks  []*Stack
	files   FileStore
	ready   chan struct{}
	gen     uint64
	cancelW context.CancelFunc
	closed  bool

	subMu   sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// NewStore creates an unbound Store. Call BindFolder to attach it to a
// workspace folder and trigger the initial load.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Resolve == nil || cfg.Open == nil || cfg.Codec == nil {
		return nil, errors.New("store config requires Resolve, Open and Codec")
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	return &Store{
		cfg:    cfg,
		logger: cfg.Logger,
		status: StatusUnloaded,
		subs:   make(map[int]chan Update),
	}, nil
}

// BindFolder attaches the store to a workspace folder, re-arms the file
// watch for that folder's sidecar path and starts a load. Binding the folder
// that is already bound is a no-op. Binding a new folder discards the
// current model and abandons any in-flight load: the load generation is
// bumped so a late-arriving result can never clobber the new folder's state.
func (s *Store) BindFolder(ctx context.Context, folder string) error {
	if folder == "" {
		return ErrNotBound
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.folder == folder {
		s.mu.Unlock()
		return nil
	}

	if s.cancelW != nil {
		s.cancelW()
		s.cancelW = nil
	}
	if s.files != nil {
		_ = s.files.Close()
		s.files = nil
	}

	loc := s.cfg.Resolve(folder)
	files, err := s.cfg.Open(loc.Primary)
	if err != nil {
		s.folder = ""
		s.status = StatusUnloaded
		s.mu.Unlock()
		return fmt.Errorf("failed to open sidecar store: %w", err)
	}

	s.folder = folder
	s.files = files
	s.stacks = nil
	s.status = StatusLoading
	s.gen++
	gen := s.gen
	ready := make(chan struct{})
	s.ready = ready

	wctx, cancel := context.WithCancel(context.Background())
	s.cancelW = cancel
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("loading markers", "folder", folder, "path", loc.Primary)
	}

	s.startWatch(wctx, files)

	// Loads run to completion regardless of the caller's context; there is
	// no mid-operation cancellation.
	lifecycle.Go(context.Background(), func(ctx context.Context) error {
		s.runLoad(ctx, gen, ready, files, loc, folder)
		return nil
	}, lifecycle.WithErrorHandler(s.panicHandler("load")))

	return nil
}

// startWatch consumes debounced external change events and reloads. The
// file store already filtered out self-writes via its suppression window.
func (s *Store) startWatch(ctx context.Context, files FileStore) {
	events, err := files.Watch(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("sidecar watch unavailable", "path", files.Path(), "error", err)
		}
		return
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if s.logger != nil {
					s.logger.Info("detected external sidecar change, reloading", "type", ev.Type)
				}
				s.reload(ctx, files)
			}
		}
	}, lifecycle.WithErrorHandler(s.panicHandler("watch")))
}

// reload replaces the model wholesale after an external file change. The
// identity check against the current file store discards events from a
// watcher that belongs to a previous folder binding.
func (s *Store) reload(ctx context.Context, files FileStore) {
	s.mu.Lock()
	if s.closed || s.files != files {
		s.mu.Unlock()
		return
	}
	loc := s.cfg.Resolve(s.folder)
	folder := s.folder
	s.status = StatusReloading
	s.gen++
	gen := s.gen
	ready := make(chan struct{})
	s.ready = ready
	s.mu.Unlock()

	s.runLoad(ctx, gen, ready, files, loc, folder)
}

// runLoad reads and decodes the sidecar document, then installs the result
// if this load is still the newest one. A stale load still closes its own
// (abandoned) barrier so no waiter parks forever.
func (s *Store) runLoad(ctx context.Context, gen uint64, ready chan struct{}, files FileStore, loc Location, folder string) {
	stacks, upgraded, migratedFrom := s.readModel(ctx, files, loc, folder)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		close(ready)
		return
	}
	s.stacks = stacks
	s.status = StatusReady
	s.mu.Unlock()
	close(ready)

	if upgraded || migratedFrom != "" {
		// Re-save immediately so the file catches up to the current schema
		// generation and location.
		s.persist(ctx)
	}
	if migratedFrom != "" && len(stacks) > 0 {
		s.removeLegacy(ctx, migratedFrom)
	}

	s.publish(UpdateReload)
}

// readModel resolves the document bytes for a folder: the primary sidecar
// file first, then legacy locations. Parse failures and I/O failures both
// degrade to an empty model; a corrupt file must never block the user.
func (s *Store) readModel(ctx context.Context, files FileStore, loc Location, folder string) (stacks []*Stack, upgraded bool, migratedFrom string) {
	data, err := files.Read(ctx)
	if err == nil {
		stacks, upgraded = s.decode(data, folder, files.Path())
		return stacks, upgraded, ""
	}
	if !errors.Is(err, ErrNotFound) {
		if s.logger != nil {
			s.logger.Error("failed to read sidecar file", "path", files.Path(), "error", err)
		}
		return nil, false, ""
	}

	for _, p := range loc.Legacy {
		old, err := s.cfg.Open(p)
		if err != nil {
			continue
		}
		data, err := old.Read(ctx)
		_ = old.Close()
		if err != nil {
			continue
		}
		if s.logger != nil {
			s.logger.Info("found legacy sidecar file", "path", p)
		}
		stacks, _ = s.decode(data, folder, p)
		return stacks, true, p
	}

	return nil, false, ""
}

func (s *Store) decode(data []byte, folder, path string) ([]*Stack, bool) {
	stacks, upgraded, err := s.cfg.Codec.Decode(data, folder)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to parse sidecar document, starting empty", "path", path, "error", err)
		}
		return nil, false
	}
	return stacks, upgraded
}

// removeLegacy deletes a migrated legacy file. Failure is swallowed: the new
// file is already durably written.
func (s *Store) removeLegacy(ctx context.Context, path string) {
	old, err := s.cfg.Open(path)
	if err != nil {
		return
	}
	defer old.Close()
	if err := old.Remove(ctx); err != nil {
		if s.logger != nil {
			s.logger.Debug("failed to remove legacy sidecar file", "path", path, "error", err)
		}
		return
	}
	if s.logger != nil {
		s.logger.Info("migrated legacy sidecar file", "from", path)
	}
}

// acquire blocks until the store is Ready and returns with the model mutex
// HELD. On error the mutex is not held. This is the internal barrier every
// public operation goes through before touching state.
func (s *Store) acquire(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.folder == "" {
			s.mu.Unlock()
			return ErrNotBound
		}
		if s.status == StatusReady {
			return nil
		}
		ready := s.ready
		s.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// mutate runs fn with exclusive ownership of the model, then persists the
// whole document and fires exactly one change notification when fn reports
// a change. An unbound folder degrades to a silent no-op by design: the
// surrounding UI layer is expected to gate on folder availability.
func (s *Store) mutate(ctx context.Context, fn func() bool) error {
	if err := s.acquire(ctx); err != nil {
		if errors.Is(err, ErrNotBound) {
			return nil
		}
		return err
	}
	if !fn() {
		s.mu.Unlock()
		return nil
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.publish(UpdateMutation)
	return nil
}

func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// persistLocked encodes and writes the full document. Encode and write
// failures are logged, never surfaced: a failed write leaves the in-memory
// model ahead of the file, which self-heals on the next successful save.
func (s *Store) persistLocked(ctx context.Context) {
	if s.files == nil {
		return
	}
	data, err := s.cfg.Codec.Encode(s.stacks, s.folder)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode sidecar document", "error", err)
		}
		return
	}
	if err := s.files.Write(ctx, data); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to write sidecar file", "path", s.files.Path(), "error", err)
		}
	}
}

// Subscribe registers for change notifications. The returned function
// unsubscribes and closes the channel. Updates are dropped (with a warning)
// for subscribers that stop draining their channel.
func (s *Store) Subscribe() (<-chan Update, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, s.cfg.EventBuffer)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Store) publish(kind UpdateKind) {
	u := Update{Kind: kind, Timestamp: time.Now().Unix()}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			if s.logger != nil {
				s.logger.Warn("dropping update for slow subscriber", "kind", kind)
			}
		}
	}
}

// Close stops the watcher, releases the file store and closes all
// subscriber channels. The store cannot be reused afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancelW != nil {
		s.cancelW()
		s.cancelW = nil
	}
	files := s.files
	s.files = nil
	s.folder = ""
	s.status = StatusUnloaded
	s.mu.Unlock()

	var err error
	if files != nil {
		err = files.Close()
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()

	return err
}

func (s *Store) panicHandler(op string) func(error) {
	return func(err error) {
		if s.logger != nil {
			s.logger.Error("store goroutine failed", "op", op, "error", err)
		}
	}
}
