// Package addr implements the socket core's address model (spec §3, §4.1):
// a tagged union over {Unspec, V4, V6}, equality/copy/emptiness as closed
// operations, and the wire-facing SocketAddress projections used at every
// API boundary crossing.
//
// Modeled on how github.com/dantte-lp/gobfd threads net/netip.Addr through
// its configuration and packet-metadata layers, but widened with an
// explicit Family tag: netip.Addr's zero value is indistinguishable from
// "the IPv4 zero address" in some contexts, and spec invariant 6 requires
// a true, representable "unspecified" distinct from either family's zero
// address.
package addr

import "net/netip"

// Family identifies which member of the address union is populated.
type Family uint8

const (
	// Unspec is the zero value: no address, matching spec invariant 6
	// ("localIpAddr.length == 0 iff the socket is unbound").
	Unspec Family = iota
	V4
	V6
)

// String returns a short, log-friendly family name.
func (f Family) String() string {
	switch f {
	case V4:
		return "v4"
	case V6:
		return "v6"
	default:
		return "unspec"
	}
}

// Addr is the IpAddr of spec §3: a closed tagged union carrying its own
// length. The zero Addr{} is the distinguished unspecified value.
type Addr struct {
	family Family
	bytes  [16]byte // v4 uses bytes[:4]; v6 uses bytes[:16]
}

// Family reports which union member is populated.
func (a Addr) Family() Family { return a.family }

// Len returns the address length in bytes: 0 for Unspec, 4 for V4, 16 for V6
// -- spec invariant 6/7 rely on this to detect "unbound"/"unoccupied".
func (a Addr) Len() int {
	switch a.family {
	case V4:
		return 4
	case V6:
		return 16
	default:
		return 0
	}
}

// IsUnspecified reports whether a carries no address at all (the Unspec
// member), as opposed to a family-specific zero address such as 0.0.0.0.
func (a Addr) IsUnspecified() bool { return a.family == Unspec }

// V4FromBytes builds a V4 Addr from a 4-byte slice.
func V4FromBytes(b [4]byte) Addr {
	var a Addr
	a.family = V4
	copy(a.bytes[:4], b[:])
	return a
}

// V6FromBytes builds a V6 Addr from a 16-byte slice.
func V6FromBytes(b [16]byte) Addr {
	var a Addr
	a.family = V6
	copy(a.bytes[:16], b[:])
	return a
}

// AsV4 returns the 4-byte representation and true iff a is a V4 address.
func (a Addr) AsV4() ([4]byte, bool) {
	var out [4]byte
	if a.family != V4 {
		return out, false
	}
	copy(out[:], a.bytes[:4])
	return out, true
}

// AsV6 returns the 16-byte representation and true iff a is a V6 address.
func (a Addr) AsV6() ([16]byte, bool) {
	var out [16]byte
	if a.family != V6 {
		return out, false
	}
	copy(out[:], a.bytes[:16])
	return out, true
}

// Equal is a closed operation (spec §3): Unspec only equals Unspec, and
// cross-family comparisons are always unequal regardless of byte content.
func (a Addr) Equal(b Addr) bool {
	if a.family != b.family {
		return false
	}
	switch a.family {
	case V4:
		return [4]byte(a.bytes[:4]) == [4]byte(b.bytes[:4])
	case V6:
		return a.bytes == b.bytes
	default:
		return true
	}
}

// String renders the canonical text form, or "unspec" for the zero value.
func (a Addr) String() string {
	na, ok := a.Netip()
	if !ok {
		return "unspec"
	}
	return na.String()
}

// Netip projects a into a net/netip.Addr for interop with the standard
// library and golang.org/x/net/ipv4|ipv6, which this module's msgio and
// mcast packages build on. ok is false for Unspec.
func (a Addr) Netip() (netip.Addr, bool) {
	switch a.family {
	case V4:
		b, _ := a.AsV4()
		return netip.AddrFrom4(b), true
	case V6:
		b, _ := a.AsV6()
		return netip.AddrFrom16(b), true
	default:
		return netip.Addr{}, false
	}
}

// FromNetip converts a netip.Addr into the union, mapping 4-in-6 addresses
// down to plain V4 so Equal and the wire projections stay family-exact.
func FromNetip(na netip.Addr) Addr {
	if !na.IsValid() {
		return Addr{}
	}
	na = na.Unmap()
	if na.Is4() {
		return V4FromBytes(na.As4())
	}
	return V6FromBytes(na.As16())
}

// UnspecifiedV4 is the IPv4 zero address 0.0.0.0, distinct from the
// Unspec family member (spec §4.1: "a distinguished unspecified value is
// the zero address for each family").
func UnspecifiedV4() Addr { return V4FromBytes([4]byte{}) }

// UnspecifiedV6 is the IPv6 zero address ::.
func UnspecifiedV6() Addr { return V6FromBytes([16]byte{}) }
