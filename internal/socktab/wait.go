package socktab

import "github.com/embedstack/socketcore/internal/sockmux"

// Subscribe implements sockmux.Waiter: it records that event should be
// woken whenever any bit in mask becomes true on this socket, composing
// with whatever mask a prior Subscribe on the same event registered
// (spec §4.7: subscription is a union, not a replace).
func (s *Socket) Subscribe(event *sockmux.Event, mask sockmux.Mask) {
	s.UserEvent = event
	s.SubMask |= mask
}

// Unsubscribe implements sockmux.Waiter. A select call only ever
// installs one local event per socket at a time, so this simply clears
// the subscription if it still belongs to event.
func (s *Socket) Unsubscribe(event *sockmux.Event) {
	if s.UserEvent == event {
		s.UserEvent = nil
		s.SubMask = 0
	}
}

// Signaled implements sockmux.Waiter, returning the socket's current
// readiness bits.
func (s *Socket) Signaled() sockmux.Mask { return s.ReadyMask }

// MarkReady ORs mask into the socket's readiness bits, wakes its
// persistent Event unconditionally (blocking send/recv/connect wait on
// it regardless of any select subscription), and additionally wakes
// any subscribed select-local event whose wanted mask intersects mask
// (spec §4.7, §5).
func (s *Socket) MarkReady(mask sockmux.Mask) {
	s.ReadyMask |= mask
	s.Event.Signal()
	if s.UserEvent != nil && s.SubMask&mask != 0 {
		s.UserEvent.Signal()
	}
}

// ClearReady clears mask from the socket's readiness bits, used once a
// caller has consumed the condition it was signaled for (e.g. after
// draining the receive queue, RX_READY is cleared until more data
// arrives).
func (s *Socket) ClearReady(mask sockmux.Mask) {
	s.ReadyMask &^= mask
}
