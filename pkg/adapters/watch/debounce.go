package watch

import (
	"sync"
	"time"
)

// debouncer collapses bursts of events on the same path into one emission
// after a quiet window. It is safe for concurrent use.
type debouncer struct {
	window time.Duration
	emit   func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(window time.Duration, emit func(path string)) *debouncer {
	return &debouncer{
		window: window,
		emit:   emit,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules path, restarting its window if it is already pending.
func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.timers[path]; ok {
		t.Reset(d.window)
		return
	}

	d.timers[path] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		_, ok := d.timers[path]
		delete(d.timers, path)
		d.mu.Unlock()
		if ok {
			d.emit(path)
		}
	})
}

// stop cancels every timer and returns the paths that were still pending.
// After stop, add is a no-op.
func (d *debouncer) stop() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	pending := make([]string, 0, len(d.timers))
	for path, t := range d.timers {
		t.Stop()
		pending = append(pending, path)
	}
	d.timers = nil
	return pending
}
