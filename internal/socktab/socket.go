// Package socktab implements the socket core's fixed-capacity socket
// table and descriptor allocator (spec §3, §4.2): a compile-time-sized
// array of Socket slots, linear-scan allocation, and the per-slot wait
// event that outlives every open/close cycle on that slot.
//
// Modeled on github.com/dantte-lp/gobfd's internal/bfd.Manager, which
// owns a bounded registry of sessions under a single mutex and hands
// back a stable identifier for the registry entry's lifetime; unlike
// Manager's maps, this table is a genuine fixed array (spec: "capacity
// is static"; dynamic allocation of sockets is an explicit non-goal).
package socktab

import (
	"net/netip"
	"time"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/mcast"
	"github.com/embedstack/socketcore/internal/sockmux"
)

// Kind is the socket type (spec §3).
type Kind uint8

const (
	Unused Kind = iota
	Stream
	Dgram
	RawIP
	RawEth
)

func (k Kind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Dgram:
		return "dgram"
	case RawIP:
		return "raw-ip"
	case RawEth:
		return "raw-eth"
	default:
		return "unused"
	}
}

// Protocol numbers (spec §6).
const (
	ProtoIP     = 0
	ProtoICMP   = 1
	ProtoIGMP   = 2
	ProtoTCP    = 6
	ProtoUDP    = 17
	ProtoIPv6   = 41
	ProtoICMPv6 = 58
)

// Timeout is a socket timeout in milliseconds. Zero means non-blocking
// (spec §3); Infinite means block forever.
type Timeout int64

// Infinite is the sentinel "block forever" timeout value.
const Infinite Timeout = -1

// Duration converts t to a time.Duration for use with the mux/event
// layer. Callers must special-case Infinite themselves (there is no
// finite Duration for "forever").
func (t Timeout) Duration() time.Duration { return time.Duration(t) * time.Millisecond }

// KeepAlive holds the TCP keepalive knobs (spec §3), stored in
// canonical milliseconds per invariant 9.
type KeepAlive struct {
	Enabled    bool
	IdleMS     int64
	IntervalMS int64
	MaxProbes  int
}

// TCPShadow is the TCP-only shadow state (spec §3): maintained by this
// layer for option read/write purposes, but the actual state-machine
// transitions belong to the out-of-scope TCP engine.
type TCPShadow struct {
	State       uint8
	SndUna      uint32
	SndNxt      uint32
	SndUser     uint32
	RcvUser     uint32
	SMSS        uint16
	WindowScale uint8
}

// PacketRecord is one buffered datagram/raw packet on a socket's
// receive queue (spec §3: "singly-linked list of buffered packets").
type PacketRecord struct {
	Data []byte
	Src  addr.Endpoint
	Dst  addr.Endpoint
	TTL  uint8
	Next *PacketRecord
}

// RecvQueue is the datagram/raw receive queue head plus a count so
// FIONREAD-style ioctls don't need to walk the list.
type RecvQueue struct {
	Head  *PacketRecord
	tail  *PacketRecord
	Count int
}

// Push appends rec to the tail of the queue (FIFO, spec §5: "within
// one socket it is FIFO").
func (q *RecvQueue) Push(rec *PacketRecord) {
	rec.Next = nil
	if q.tail == nil {
		q.Head = rec
	} else {
		q.tail.Next = rec
	}
	q.tail = rec
	q.Count++
}

// Pop removes and returns the head record, or nil if the queue is empty.
func (q *RecvQueue) Pop() *PacketRecord {
	rec := q.Head
	if rec == nil {
		return nil
	}
	q.Head = rec.Next
	if q.Head == nil {
		q.tail = nil
	}
	q.Count--
	rec.Next = nil
	return rec
}

// Drain empties the queue, returning every record it held (spec §4.2:
// close "for datagram/raw, drain the receive queue returning each
// buffer to its pool" -- the pool return is the caller's job, this
// just yields the records).
func (q *RecvQueue) Drain() []*PacketRecord {
	var out []*PacketRecord
	for rec := q.Pop(); rec != nil; rec = q.Pop() {
		out = append(out, rec)
	}
	return out
}

// Socket is the central entity of spec §3. It is held by value inside
// the table's backing array; Event is the one field that must survive
// across open/close cycles (invariant 3).
type Socket struct {
	Descriptor int
	Kind       Kind
	Protocol   int

	Local  addr.Endpoint
	Remote addr.Endpoint
	Iface  *Interface

	Options Bits

	ToS              uint8
	UnicastTTL       uint8
	MulticastTTL     uint8
	SndBuf           int
	RcvBuf           int
	MSS              uint16
	KeepAlive        KeepAlive
	LingerEnabled    bool
	LingerSeconds    int
	Timeout          Timeout

	TCP TCPShadow

	ErrnoCode  int
	Event      *sockmux.Event
	UserEvent  *sockmux.Event
	SubMask    sockmux.Mask
	ReadyMask  sockmux.Mask

	Mcast mcast.Set

	RxQueue RecvQueue

	openedAt time.Time
}

// Bits is the socket option bitset (spec §3).
type Bits uint32

const (
	BitReuseAddr Bits = 1 << iota
	BitBroadcast
	BitUDPNoChecksum
	BitIPv4DontFrag
	BitIPv4PktInfo
	BitIPv4RecvToS
	BitIPv4RecvTTL
	BitIPv4MulticastLoop
	BitIPv6Only
	BitIPv6DontFrag
	BitIPv6PktInfo
	BitIPv6RecvTrafficClass
	BitIPv6RecvHopLimit
	BitIPv6MulticastLoop
	BitTCPNoDelay
)

// Has reports whether every bit in mask is set.
func (b Bits) Has(mask Bits) bool { return b&mask == mask }

// Set returns b with mask set or cleared according to on.
func (b Bits) Set(mask Bits, on bool) Bits {
	if on {
		return b | mask
	}
	return b &^ mask
}

// Interface is the minimal network-interface reference a Socket binds
// to (spec §3: "optional network-interface pointer"). Interface
// enumeration/initialization is an out-of-scope external collaborator
// (spec §1); this module only stores and compares the reference.
type Interface struct {
	Index int
	Name  string
	Addr4 netip.Addr
	Addr6 netip.Addr
}
