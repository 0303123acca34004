// Package sockopt implements the option engine (spec §4.3, "C3"):
// setOption/getOption dispatch by (level, name), the length/feature-gate/
// typed-apply/acknowledged-length contract, and the full enumerated
// option table.
//
// Grounded on how github.com/dantte-lp/gobfd's internal/bfd session
// handlers validate a request, mutate state under the manager's mutex,
// and return a sentinel error on anything out of range -- generalized
// here from "one FSM transition" to "one option handler per (level,
// name) pair".
package sockopt

import (
	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/mcast"
	"github.com/embedstack/socketcore/internal/socktab"
)

// Level mirrors SOL_SOCKET/IPPROTO_* -- kept as this package's own
// small enum (rather than golang.org/x/sys/unix's, which vary the
// numeric value by GOOS) since nothing here round-trips a real wire
// value; internal/transport is where unix.SetsockoptInt with the real
// platform constants is used against a live descriptor.
type Level int

const (
	SOL_SOCKET Level = iota
	IPPROTO_IP
	IPPROTO_IPV6
	IPPROTO_TCP
)

// Name enumerates every option spec §4.3 names, namespaced by the Level
// it is dispatched under.
type Name int

const (
	SO_REUSEADDR Name = iota
	SO_BROADCAST
	SO_SNDTIMEO
	SO_RCVTIMEO
	SO_SNDBUF
	SO_RCVBUF
	SO_KEEPALIVE
	SO_NO_CHECK
	SO_TYPE
	SO_ERROR

	IP_TOS
	IP_TTL
	IP_MULTICAST_TTL
	IP_MULTICAST_LOOP
	IP_ADD_MEMBERSHIP
	IP_DROP_MEMBERSHIP
	IP_BLOCK_SOURCE
	IP_UNBLOCK_SOURCE
	IP_ADD_SOURCE_MEMBERSHIP
	IP_DROP_SOURCE_MEMBERSHIP
	IP_DONTFRAG
	IP_PKTINFO
	IP_RECVTOS
	IP_RECVTTL

	IPV6_TCLASS
	IPV6_UNICAST_HOPS
	IPV6_MULTICAST_HOPS
	IPV6_MULTICAST_LOOP
	IPV6_ADD_MEMBERSHIP
	IPV6_DROP_MEMBERSHIP
	IPV6_V6ONLY
	IPV6_DONTFRAG
	IPV6_PKTINFO
	IPV6_RECVTCLASS
	IPV6_RECVHOPLIMIT

	MCAST_JOIN_GROUP
	MCAST_LEAVE_GROUP
	MCAST_BLOCK_SOURCE
	MCAST_UNBLOCK_SOURCE
	MCAST_JOIN_SOURCE_GROUP
	MCAST_LEAVE_SOURCE_GROUP

	TCP_NODELAY
	TCP_MAXSEG
	TCP_KEEPIDLE
	TCP_KEEPINTVL
	TCP_KEEPCNT
)

// Features gates the options whose handlers are compiled out when the
// corresponding protocol support is disabled (spec §4.3 step 2), the
// same way gobfd's config layer gates optional session parameters.
type Features struct {
	TCP       bool
	UDP       bool
	IPv4      bool
	IPv6      bool
	KeepAlive bool
}

// DefaultFeatures enables every family; a constrained build can narrow
// this to match the target's actual protocol support.
var DefaultFeatures = Features{TCP: true, UDP: true, IPv4: true, IPv6: true, KeepAlive: true}

// BroadcastSetter is the transport hook SO_BROADCAST drives (spec
// §4.3: "via transport hook"). Real transports enforce it with
// unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, ...); this
// repository's tests use a no-op.
type BroadcastSetter interface {
	SetBroadcast(descriptor int, enabled bool) error
}

type noopBroadcast struct{}

func (noopBroadcast) SetBroadcast(int, bool) error { return nil }

// Engine dispatches setOption/getOption against a socket table (spec
// §4.3). One Engine serves every socket, mirroring mcast.Engine.
type Engine struct {
	Table      *socktab.Table
	Mcast      *mcast.Filter
	Broadcast  BroadcastSetter
	Features   Features
}

// NewEngine builds an Engine. mcastFilter and broadcast may be nil;
// broadcast then defaults to a no-op.
func NewEngine(table *socktab.Table, mcastFilter *mcast.Filter, broadcast BroadcastSetter, features Features) *Engine {
	if broadcast == nil {
		broadcast = noopBroadcast{}
	}
	return &Engine{Table: table, Mcast: mcastFilter, Broadcast: broadcast, Features: features}
}

func lenErr(op string) error { return errno.New(op, errno.EFAULT, nil) }
func gateErr(op string) error { return errno.New(op, errno.ENOPROTOOPT, nil) }

// requireLen implements step 1 of spec §4.3's handler contract.
func requireLen(op string, got, want int) error {
	if got < want {
		return lenErr(op)
	}
	return nil
}

// membershipInput is the v4/v6-typed join/leave/source payload of spec
// §4.3 (IP_ADD_MEMBERSHIP et al. and the family-agnostic MCAST_* verbs).
type membershipInput struct {
	Iface int
	Group addr.Addr
	Src   addr.Addr
}

// TimevalMS is the {seconds, microseconds} encoding SO_SNDTIMEO/
// SO_RCVTIMEO use on the wire; spec §4.3 converts it to milliseconds
// with {0,0} meaning INFINITE.
type TimevalMS struct {
	Sec  int64
	USec int64
}

func (tv TimevalMS) toMillis() socktab.Timeout {
	if tv.Sec == 0 && tv.USec == 0 {
		return socktab.Infinite
	}
	return socktab.Timeout(tv.Sec*1000 + tv.USec/1000)
}

func millisToTimeval(t socktab.Timeout) TimevalMS {
	if t == socktab.Infinite {
		return TimevalMS{}
	}
	ms := int64(t)
	return TimevalMS{Sec: ms / 1000, USec: (ms % 1000) * 1000}
}
