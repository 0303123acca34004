// Package sockmux implements the single kernel event primitive and the
// select-style multiplexor built on top of it (spec §4.7, §5).
//
// Modeled on how github.com/dantte-lp/gobfd's internal/netio.Receiver
// fans a context-cancellable wait out across several sources and
// collects completions through a shared channel, but generalized from
// "one receiver goroutine per listener" to "one wait primitive per
// socket slot, reusable across that slot's entire process lifetime"
// (spec invariant 3).
package sockmux

import (
	"context"
	"errors"
	"time"
)

// Mask is a bitset of the three conditions spec §4.7 multiplexes on.
type Mask uint32

const (
	MaskRead Mask = 1 << iota
	MaskWrite
	MaskClosed
)

// Has reports whether every bit in want is set in m.
func (m Mask) Has(want Mask) bool { return m&want == want }

// ErrTimeout is returned by Event.Wait when no signal arrived within
// the requested window, including the zero-timeout "poll once" case.
var ErrTimeout = errors.New("sockmux: wait timed out")

// Event is the wait-event primitive of spec §3/§5: created once per
// socket slot at table init, signaled by the transport engine (or by
// Table.Close) to wake a suspended caller, and never destroyed across
// open/close cycles on that slot.
type Event struct {
	ch chan struct{}
}

// NewEvent allocates an Event. Capacity 1 on the channel gives Signal
// its usual "at least one pending wakeup, coalesced" semantics: a
// waiter that hasn't looked yet still sees the most recent signal.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{}, 1)}
}

// Signal wakes any current or future Wait call. It never blocks: a
// signal that arrives with no one waiting is coalesced into the next
// Wait's immediate return, matching the suspension protocol's
// "re-check condition" step (spec §5) rather than requiring the
// signaler to know whether anyone is listening.
func (e *Event) Signal() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Signal is called, ctx is done, or timeout elapses.
// timeout < 0 means block forever (spec's INFINITE); timeout == 0
// means poll once without blocking (spec's non-blocking timeout=0).
func (e *Event) Wait(ctx context.Context, timeout time.Duration) error {
	switch {
	case timeout < 0:
		select {
		case <-e.ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case timeout == 0:
		select {
		case <-e.ch:
			return nil
		default:
			return ErrTimeout
		}
	default:
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-e.ch:
			return nil
		case <-t.C:
			return ErrTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
