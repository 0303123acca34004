package sockmux

import (
	"context"
	"time"
)

// Waiter is implemented by anything select(3) can block on -- in this
// module, *socktab.Socket. It is defined here rather than in socktab so
// that this package stays a dependency-free leaf (socktab imports
// sockmux, never the reverse).
type Waiter interface {
	// Subscribe registers interest in mask, composing with any prior
	// subscription: the waiter signals event whenever any bit in the
	// union of all subscribed masks becomes true (spec §4.7: "a socket
	// appearing in more than one set is subscribed to the union").
	Subscribe(event *Event, mask Mask)
	// Unsubscribe cancels interest previously registered with Subscribe.
	Unsubscribe(event *Event)
	// Signaled returns the waiter's current readiness bits.
	Signaled() Mask
}

// Entry is one member of a Select call: a waiter and the condition bits
// the caller wants to know about.
type Entry struct {
	Waiter Waiter
	Want   Mask
}

// Select implements the select-style multiplexor of spec §4.7: it
// creates a fresh local event, subscribes every entry to it, waits for
// at least one entry to become ready (or the timeout/ctx to expire),
// then unsubscribes everyone and reports which entries are ready.
//
// timeout < 0 blocks forever (spec's NULL timeout); timeout == 0 polls
// once without blocking. The returned ready slice is parallel to
// entries; n is the number of true entries, matching how select(3)'s
// return value counts ready descriptors across all three sets.
func Select(ctx context.Context, entries []Entry, timeout time.Duration) (ready []bool, n int, err error) {
	local := NewEvent()
	for _, e := range entries {
		e.Waiter.Subscribe(local, e.Want)
	}
	defer func() {
		for _, e := range entries {
			e.Waiter.Unsubscribe(local)
		}
	}()

	ready = make([]bool, len(entries))

	// A waiter may already be ready before Subscribe ever signals
	// local (e.g. data queued before the call), so check current state
	// first and only wait if nothing is ready yet.
	if resolve(entries, ready) > 0 {
		return ready, resolve(entries, ready), nil
	}

	waitErr := local.Wait(ctx, timeout)
	n = resolve(entries, ready)
	if n > 0 {
		return ready, n, nil
	}
	if waitErr != nil {
		return ready, 0, waitErr
	}
	return ready, 0, nil
}

func resolve(entries []Entry, ready []bool) int {
	n := 0
	for i, e := range entries {
		if e.Waiter.Signaled()&e.Want != 0 {
			ready[i] = true
			n++
		} else {
			ready[i] = false
		}
	}
	return n
}
