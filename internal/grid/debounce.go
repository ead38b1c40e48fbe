package grid

// debounce.go implements the debounce gateway for free-text inputs.
//
// A Debouncer holds at most one pending function. Every Call replaces it and
// restarts the quiet period; the function runs once the period elapses with
// no further calls. Cancel and Flush give the owner an explicit handle so a
// pending commit can be dropped (unmount, "clear filters") or forced early.

import (
	"sync"
	"time"
)

// DefaultDebounceWait is the quiet period used for free-text inputs.
const DefaultDebounceWait = 300 * time.Millisecond

// Debouncer coalesces rapid calls into a single delayed invocation.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounceWait
	}
	return &Debouncer{wait: wait}
}

// Call schedules fn to run after the quiet period, replacing any pending fn.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.wait, func() {
		d.fire(gen)
	})
}

// fire runs the pending function if gen is still current.
// A timer that was stopped too late to prevent its callback is a no-op here.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Cancel drops the pending function. Returns true if one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	had := d.pending != nil
	d.pending = nil
	return had
}

// Flush runs the pending function immediately on the calling goroutine.
// Returns false if nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()

	fn()
	return true
}

// Pending reports whether a call is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
