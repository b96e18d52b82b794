// Package debounce provides trailing-edge event coalescing with an awaitable
// completion signal.
package debounce

import (
	"context"
	"sync"
	"time"
)

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Debouncer groups rapid successive calls into a single callback invocation
// after a quiet period. Unlike a plain rate limiter it exposes a settled
// signal: consumers can wait until the coalesced callback has finished, which
// establishes a happens-before edge between the debounced work and anything
// gated on it.
//
// Thread-safety: all methods are safe for concurrent use. The callback is
// never invoked concurrently with itself from the debouncer.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  bool
	running  bool
	seq      uint64 // sequence number to detect stale timer callbacks
	callback func()
	settled  chan struct{} // non-nil while pending or running
}

// New creates a debouncer that invokes callback after no new calls have been
// made for at least delay.
func New(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
	}
}

// SetDelay changes the debounce window for subsequent calls. An already
// scheduled call keeps its original deadline.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()
}

// Call schedules the callback to run after the debounce delay.
//
// If called multiple times within the delay period, only the last call's
// timing is used; the callback fires once after the final quiet period
// (trailing edge only, no leading-edge execution).
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	if d.settled == nil {
		d.settled = make(chan struct{})
	}
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(currentSeq)
	})
}

// CallImmediate runs the callback right away if a call is pending, canceling
// any scheduled debounced call. If the callback is already running, the
// pending flag is left set and the running invocation's successor handles it.
func (d *Debouncer) CallImmediate() {
	d.mu.Lock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	currentSeq := d.seq

	if !d.pending {
		d.pending = true
		if d.settled == nil {
			d.settled = make(chan struct{})
		}
	}
	d.mu.Unlock()

	d.fire(currentSeq)
}

// fire runs the callback if seq is still current and a call is pending.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if !d.pending || d.seq != seq || d.callback == nil {
		d.mu.Unlock()
		return
	}
	if d.running {
		// This timer is spent but the previous invocation has not
		// finished. Clearing it lets the finisher reschedule the call.
		d.timer = nil
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.running = true
	d.mu.Unlock()

	d.callback()

	d.mu.Lock()
	d.running = false
	switch {
	case d.pending && d.timer == nil:
		// A call arrived while running and its timer was consumed
		// (CallImmediate path). Reschedule so it is not lost.
		d.seq++
		next := d.seq
		d.timer = time.AfterFunc(0, func() { d.fire(next) })
	case !d.pending && d.settled != nil:
		close(d.settled)
		d.settled = nil
	}
	d.mu.Unlock()
}

// Settled returns a channel that is closed once no debounced call is pending
// or running. If the debouncer is already idle the returned channel is
// closed immediately.
func (d *Debouncer) Settled() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.settled == nil {
		return closedChan
	}
	return d.settled
}

// Wait blocks until the debouncer settles or ctx is done.
func (d *Debouncer) Wait(ctx context.Context) error {
	select {
	case <-d.Settled():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel cancels any pending debounced call. A running callback is not
// interrupted; the settled signal still fires when it returns.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
	if !d.running && d.settled != nil {
		close(d.settled)
		d.settled = nil
	}
}

// IsPending returns true if there is a pending debounced call.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
