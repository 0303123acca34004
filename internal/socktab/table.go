package socktab

import (
	"sync"
	"time"

	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/sockmux"
)

// PortAllocator is the transport engine's ephemeral-port hook (spec
// §4.2, §9: "ephemeral port selection is the transport engine's
// concern"). The table requires only that it be collision-free across
// concurrently bound sockets of the same protocol.
type PortAllocator interface {
	AllocateEphemeralPort(protocol int) (uint16, error)
}

// TimeWaitReclaimer is the "kill oldest TIME-WAIT" hook the transport
// engine exposes so Open can recycle a slot when the table is full
// (spec §3 Lifecycle, §4.2).
type TimeWaitReclaimer interface {
	// KillOldestTimeWait aborts the oldest stream socket sitting in
	// TIME-WAIT and reports its descriptor, or ok=false if none exists.
	KillOldestTimeWait() (descriptor int, ok bool)
}

// BufferLimits bounds the send/receive buffer sizes a socket may be
// given, both as Open defaults and as SO_SNDBUF/SO_RCVBUF ceilings
// (spec §3, §4.2: "bounded by compile-time maxima").
type BufferLimits struct {
	DefaultSndBuf int
	DefaultRcvBuf int
	MaxSndBuf     int
	MaxRcvBuf     int
	DefaultMSS    uint16
}

// DefaultBufferLimits matches typical embedded-stack sizing.
var DefaultBufferLimits = BufferLimits{
	DefaultSndBuf: 4096,
	DefaultRcvBuf: 4096,
	MaxSndBuf:     65536,
	MaxRcvBuf:     65536,
	DefaultMSS:    1460,
}

// Table is the fixed-capacity socket table of spec §4.2: N slots,
// allocated once at construction and never resized (capacity is
// static -- dynamic allocation of sockets is a non-goal, spec §1).
//
// A single mutex serializes every mutation (spec §5's netMutex); the
// table is this module's instance of that process-wide lock.
type Table struct {
	mu     sync.Mutex
	slots  []Socket
	limits BufferLimits

	ports    PortAllocator
	reclaim  TimeWaitReclaimer
}

// New builds a Table with the given fixed capacity. reclaim may be
// nil; Open then fails with ENOBUFS once the table is full instead of
// attempting TIME-WAIT reclamation. ports may be nil too, but then
// every Stream or Dgram Open fails with EADDRNOTAVAIL; only raw
// sockets open without a port allocator.
func New(capacity int, limits BufferLimits, ports PortAllocator, reclaim TimeWaitReclaimer) *Table {
	t := &Table{
		slots:   make([]Socket, capacity),
		limits:  limits,
		ports:   ports,
		reclaim: reclaim,
	}
	for i := range t.slots {
		t.slots[i].Descriptor = i
		t.slots[i].Event = sockmux.NewEvent()
	}
	return t
}

// Capacity returns the fixed number of slots N.
func (t *Table) Capacity() int { return len(t.slots) }

// Lock/Unlock expose the table's single mutex to callers that need to
// hold it across several field reads/writes plus a transport-engine
// call (spec §5: "the mutex is acquired on entry to any operation that
// ... invokes transport primitives, and released before ... suspending").
func (t *Table) Lock()   { t.mu.Lock() }
func (t *Table) Unlock() { t.mu.Unlock() }

// errTableFull is returned when no slot is free and no TIME-WAIT
// socket could be reclaimed.
var errTableFull = errno.New("socket", errno.ENOBUFS, nil)

// Open allocates a slot for a new socket of the given kind/protocol
// (spec §4.2). Stream sockets force protocol=TCP and request an
// ephemeral TCP port; Dgram forces UDP; Raw kinds get port 0. Callers
// must hold no other lock; Open takes/releases the table mutex itself.
func (t *Table) Open(kind Kind, protocol int) (*Socket, error) {
	if kind == Unused {
		return nil, errno.New("socket", errno.EINVAL, nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.findUnusedLocked()
	if idx < 0 && t.reclaim != nil {
		if victim, ok := t.reclaim.KillOldestTimeWait(); ok {
			t.resetLocked(victim)
			idx = victim
		}
	}
	if idx < 0 {
		return nil, errTableFull
	}

	switch kind {
	case Stream:
		protocol = ProtoTCP
	case Dgram:
		protocol = ProtoUDP
	}

	sock := &t.slots[idx]
	sock.Kind = kind
	sock.Protocol = protocol
	sock.Timeout = Infinite
	sock.SndBuf = t.limits.DefaultSndBuf
	sock.RcvBuf = t.limits.DefaultRcvBuf
	sock.MSS = t.limits.DefaultMSS
	sock.TCP.WindowScale = windowScaleFor(sock.RcvBuf)
	sock.openedAt = time.Now()

	if kind == Stream || kind == Dgram {
		if t.ports == nil {
			t.resetLocked(idx)
			return nil, errno.New("socket", errno.EADDRNOTAVAIL, nil)
		}
		port, err := t.ports.AllocateEphemeralPort(protocol)
		if err != nil {
			t.resetLocked(idx)
			return nil, err
		}
		sock.Local.Port = port
	}

	return sock, nil
}

func (t *Table) findUnusedLocked() int {
	for i := range t.slots {
		if t.slots[i].Kind == Unused {
			return i
		}
	}
	return -1
}

// resetLocked resets slot i to its just-allocated zero state while
// preserving the descriptor and wait event (invariants 2 and 3).
func (t *Table) resetLocked(i int) {
	ev := t.slots[i].Event
	t.slots[i] = Socket{Descriptor: i, Event: ev}
}

// Close marks descriptor's slot Unused again. The wait event and
// descriptor persist for the slot's entire process lifetime
// (invariants 2, 3). Callers are expected to have already asked the
// transport engine to abort/drain via their own Shutdown/Close logic;
// Close only resets table bookkeeping.
func (t *Table) Close(descriptor int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	sock, err := t.getLocked(descriptor)
	if err != nil {
		return err
	}
	sock.MarkReady(sockmux.MaskClosed)
	t.resetLocked(descriptor)
	return nil
}

func (t *Table) getLocked(descriptor int) (*Socket, error) {
	if descriptor < 0 || descriptor >= len(t.slots) {
		return nil, errno.New("socket", errno.EINVAL, nil)
	}
	sock := &t.slots[descriptor]
	if sock.Kind == Unused {
		return nil, errno.New("socket", errno.EINVAL, nil)
	}
	return sock, nil
}

// Get returns the live socket for descriptor under the table lock,
// invoking fn with it held. This is the standard access pattern for
// every other package in this module: fn runs with netMutex held, and
// must not itself call back into the table.
func (t *Table) Get(descriptor int, fn func(*Socket) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	sock, err := t.getLocked(descriptor)
	if err != nil {
		return err
	}
	return fn(sock)
}

// ForEach invokes fn for every live socket, holding the table lock for
// the duration (used by select/diagnostics; spec §4.7, ambient metrics).
func (t *Table) ForEach(fn func(*Socket)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.slots[i].Kind != Unused {
			fn(&t.slots[i])
		}
	}
}

// windowScaleFor computes the TCP window scale option from the
// receive buffer size (spec §4.2: "window scale computed from RX
// buffer size"), the classic rfc1323 derivation: the smallest shift
// such that 65535<<shift >= rcvBuf, capped at 14.
func windowScaleFor(rcvBuf int) uint8 {
	var scale uint8
	for scale < 14 && (65535<<scale) < rcvBuf {
		scale++
	}
	return scale
}
