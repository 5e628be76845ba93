package fs

import (
	"sync"
	"time"

	"github.com/tianjianchn/code-explorer/pkg/core"
)

// debouncer collapses rapid-fire filesystem events into one callback
// invocation carrying the most recent event. Each new event restarts the
// window, so editors that write via delete+recreate or multiple flushes
// produce a single reload.
type debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // bumped on every (re)arm; stale flushes check it
	pending core.FileEvent
	fire    func(core.FileEvent)
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// add schedules (or reschedules) the callback. The last event within the
// window wins; no callback fires until the window elapses with no new
// events.
func (d *debouncer) add(e core.FileEvent, fire func(core.FileEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = e
	d.fire = fire

	// Never Reset a timer that may already have fired: its flush could be
	// parked on the mutex, and rescheduling it would make one wg.Add pay
	// for two flushes. Stop the old timer (settling its wg slot only when
	// it had not fired) and arm a fresh one under a new generation.
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.gen++
	gen := d.gen
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.window, func() { d.flush(gen) })
}

func (d *debouncer) flush(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// Superseded between firing and locking; a newer timer owns the
		// pending event now.
		d.mu.Unlock()
		d.wg.Done()
		return
	}
	e, fire := d.pending, d.fire
	d.timer = nil
	stopped := d.stopped
	d.mu.Unlock()

	defer d.wg.Done()
	if !stopped && fire != nil {
		fire(e)
	}
}

// stopAndWait prevents further callbacks and waits (bounded) for an
// in-flight timer to drain, so callers can safely close downstream channels.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.wg.Done()
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
