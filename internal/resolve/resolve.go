// Package resolve implements name resolution and interface-name
// formatters (spec §4.8, "C8"): getaddrinfo/freeaddrinfo/getnameinfo/
// gethostbyname_r/if_nametoindex/if_indextoname.
//
// The actual DNS/mDNS/hosts-file lookup is an out-of-scope external
// collaborator, reached through a small Resolver interface -- the same
// shape github.com/dantte-lp/gobfd/internal/netio.PacketConn uses to
// keep protocol logic independent of the real I/O underneath it.
package resolve

import (
	"strconv"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
)

// Flags mirrors the AI_* hints bits spec §4.8 names.
type Flags uint32

const (
	AI_PASSIVE Flags = 1 << iota
	AI_NUMERICHOST
)

// Hints is getaddrinfo's hints argument.
type Hints struct {
	Family addr.Family
	Flags  Flags
}

// AddrInfo is the single-element result record of spec §4.8
// ("allocate address structure contiguously with the result record so
// a single free suffices" -- modeled here as one flat struct rather
// than a pointer chain, since Go's GC makes the pool/free-list half of
// that contract moot).
type AddrInfo struct {
	Family   addr.Family
	Endpoint addr.Endpoint

	// Next exists for API shape parity with BSD's addrinfo linked
	// list; this resolver only ever returns a single result, so Next
	// is always nil. Documented limitation, not a silent gap.
	Next *AddrInfo
}

// Resolver is the out-of-scope external name resolver (spec §1: "name
// resolution" lookup itself is external; this package only owns the
// getaddrinfo/getnameinfo contract around it).
type Resolver interface {
	// Lookup resolves node for the given family hint. status follows
	// errno.Status: StatusOK with a populated addr, StatusInProgress,
	// or any other status for a definite failure.
	Lookup(node string, family addr.Family) (addr.Addr, errno.Status)
	// Reverse resolves addr back to a hostname, status as above.
	Reverse(a addr.Addr) (hostname string, status errno.Status)
}

// Resolve owns the Resolver and implements spec §4.8's entry points.
type Resolve struct {
	Resolver   Resolver
	Interfaces []Interface
}

// Interface is one configured network interface, as exposed to
// if_nametoindex/if_indextoname (spec §4.8). Interface enumeration
// itself is an out-of-scope external collaborator (spec §1); this
// package only stores and scans the resulting list.
type Interface struct {
	Name string
}

// NewResolve builds a Resolve over the given resolver (may be nil --
// then only AI_NUMERICHOST/literal lookups succeed) and interface list.
func NewResolve(resolver Resolver, interfaces []Interface) *Resolve {
	return &Resolve{Resolver: resolver, Interfaces: interfaces}
}

// GetAddrInfo implements getaddrinfo (spec §4.8).
func (r *Resolve) GetAddrInfo(node, service string, hints Hints) ([]AddrInfo, errno.Code) {
	if node == "" && service == "" {
		return nil, errno.EAINoName
	}
	if hints.Family != addr.Unspec && hints.Family != addr.V4 && hints.Family != addr.V6 {
		return nil, errno.EAIFamily
	}

	var port uint16
	if service != "" {
		n, err := strconv.Atoi(service)
		if err != nil || n < 0 || n > 65535 {
			return nil, errno.EAIService
		}
		port = uint16(n)
	}

	family := hints.Family
	if family == addr.Unspec {
		family = addr.V4
	}

	if node == "" {
		if hints.Flags&AI_PASSIVE == 0 {
			return nil, errno.EAIBadFlags
		}
		a := addr.UnspecifiedV4()
		if family == addr.V6 {
			a = addr.UnspecifiedV6()
		}
		return []AddrInfo{{Family: family, Endpoint: addr.Endpoint{Addr: a, Port: port}}}, errno.Code{}
	}

	if hints.Flags&AI_NUMERICHOST != 0 {
		a, ok := addr.Pton(family, node)
		if ok != 1 {
			return nil, errno.EAINoName
		}
		return []AddrInfo{{Family: family, Endpoint: addr.Endpoint{Addr: a, Port: port}}}, errno.Code{}
	}

	if r.Resolver == nil {
		return nil, errno.EAIFail
	}
	a, status := r.Resolver.Lookup(node, family)
	switch status {
	case errno.StatusOK:
		return []AddrInfo{{Family: a.Family(), Endpoint: addr.Endpoint{Addr: a, Port: port}}}, errno.Code{}
	case errno.StatusInProgress:
		return nil, errno.EAIAgain
	default:
		return nil, errno.EAIFail
	}
}

// FreeAddrInfo is a no-op under Go's GC (spec §4.8: "walks the chain
// and frees each node" -- there is no chain here, and nothing to free
// by hand), kept as an explicit call so callers mirror the C lifecycle
// spec §5 describes ("callers own the lifetime ... until freeaddrinfo").
func FreeAddrInfo([]AddrInfo) {}

// minServiceBuf is spec §4.8's getnameinfo service-buffer floor; the
// host-buffer floors reuse addr.NtopBufferV4/V6 -- the same "longest
// text form plus NUL" sizing inet_ntop already enforces.
const minServiceBuf = 6

// GetNameInfo implements getnameinfo (spec §4.8).
func (r *Resolve) GetNameInfo(ep addr.Endpoint, hostBufLen, serviceBufLen int) (host, service string, code errno.Code) {
	var minHost int
	switch ep.Addr.Family() {
	case addr.V4:
		minHost = addr.NtopBufferV4
	case addr.V6:
		minHost = addr.NtopBufferV6
	default:
		return "", "", errno.EAIFamily
	}
	if hostBufLen < minHost || serviceBufLen < minServiceBuf {
		return "", "", errno.EAIOverflow
	}
	service = strconv.Itoa(int(ep.Port))
	if r.Resolver != nil {
		if name, status := r.Resolver.Reverse(ep.Addr); status == errno.StatusOK {
			return name, service, errno.Code{}
		}
	}
	numeric, _ := addr.Ntop(ep.Addr, 0)
	return numeric, service, errno.Code{}
}

// HostEnt is the gethostbyname_r result record (spec §4.8).
type HostEnt struct {
	Name string
	Addr addr.Addr
}

// GetHostByNameR implements gethostbyname_r: single-answer result,
// resolver failures map onto HOST_NOT_FOUND/NO_RECOVERY/NO_ADDRESS
// (spec §4.8).
func (r *Resolve) GetHostByNameR(name string, family addr.Family) (HostEnt, errno.Code) {
	if r.Resolver == nil {
		return HostEnt{}, errno.NoRecovery
	}
	a, status := r.Resolver.Lookup(name, family)
	switch status {
	case errno.StatusOK:
		return HostEnt{Name: name, Addr: a}, errno.Code{}
	case errno.StatusInProgress:
		return HostEnt{}, errno.NoRecovery
	case errno.StatusUnreachable:
		return HostEnt{}, errno.NoAddress
	default:
		return HostEnt{}, errno.HostNotFound
	}
}

// IfNameToIndex implements if_nametoindex: linear scan, returning
// internal_index+1 (0 means "no interface"), per spec §4.8.
func (r *Resolve) IfNameToIndex(name string) int {
	for i, iface := range r.Interfaces {
		if iface.Name == name {
			return i + 1
		}
	}
	return 0
}

// IfIndexToName implements if_indextoname, the inverse of IfNameToIndex.
func (r *Resolve) IfIndexToName(index int) (string, bool) {
	if index <= 0 || index > len(r.Interfaces) {
		return "", false
	}
	return r.Interfaces[index-1].Name, true
}
