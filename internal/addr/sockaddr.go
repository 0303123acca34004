package addr

import (
	"encoding/binary"

	"github.com/embedstack/socketcore/internal/errno"
)

// Family codes and wire sizes from spec §6 ("Wire-adjacent layouts").
const (
	AFUnspec = 0
	AFInet   = 2
	AFInet6  = 10
	AFPacket = 17

	SockAddr4Len = 16 // {u16 family, u16 port, u32 addr, u64 zero_pad}
	SockAddr6Len = 28 // {u16 family, u16 port, u32 flowinfo, u8[16] addr, u32 scope_id}
)

// SockAddr4 is the bit-exact wire layout of a v4 socket endpoint.
type SockAddr4 struct {
	Port uint16
	IP   [4]byte
}

// Marshal encodes s into the 16-byte wire form, network byte order,
// with the trailing 8 bytes of padding zeroed per spec §6.
func (s SockAddr4) Marshal() [SockAddr4Len]byte {
	var out [SockAddr4Len]byte
	binary.BigEndian.PutUint16(out[0:2], AFInet)
	binary.BigEndian.PutUint16(out[2:4], s.Port)
	copy(out[4:8], s.IP[:])
	return out
}

// UnmarshalSockAddr4 decodes a SockAddr4 from its wire form, validating
// the family tag and rejecting anything shorter than SockAddr4Len
// (spec §3: "Invalid length or unknown family ⇒ EINVAL").
func UnmarshalSockAddr4(b []byte) (SockAddr4, error) {
	if len(b) < SockAddr4Len {
		return SockAddr4{}, errno.New("sockaddr4", errno.EINVAL, nil)
	}
	fam := binary.BigEndian.Uint16(b[0:2])
	if fam != AFInet {
		return SockAddr4{}, errno.New("sockaddr4", errno.EINVAL, nil)
	}
	var s SockAddr4
	s.Port = binary.BigEndian.Uint16(b[2:4])
	copy(s.IP[:], b[4:8])
	return s, nil
}

// SockAddr6 is the bit-exact wire layout of a v6 socket endpoint.
type SockAddr6 struct {
	Port     uint16
	FlowInfo uint32
	IP       [16]byte
	ScopeID  uint32
}

// Marshal encodes s into the 28-byte wire form, network byte order.
func (s SockAddr6) Marshal() [SockAddr6Len]byte {
	var out [SockAddr6Len]byte
	binary.BigEndian.PutUint16(out[0:2], AFInet6)
	binary.BigEndian.PutUint16(out[2:4], s.Port)
	binary.BigEndian.PutUint32(out[4:8], s.FlowInfo)
	copy(out[8:24], s.IP[:])
	binary.BigEndian.PutUint32(out[24:28], s.ScopeID)
	return out
}

// UnmarshalSockAddr6 decodes a SockAddr6 from its wire form.
func UnmarshalSockAddr6(b []byte) (SockAddr6, error) {
	if len(b) < SockAddr6Len {
		return SockAddr6{}, errno.New("sockaddr6", errno.EINVAL, nil)
	}
	fam := binary.BigEndian.Uint16(b[0:2])
	if fam != AFInet6 {
		return SockAddr6{}, errno.New("sockaddr6", errno.EINVAL, nil)
	}
	var s SockAddr6
	s.Port = binary.BigEndian.Uint16(b[2:4])
	s.FlowInfo = binary.BigEndian.Uint32(b[4:8])
	copy(s.IP[:], b[8:24])
	s.ScopeID = binary.BigEndian.Uint32(b[24:28])
	return s, nil
}

// Endpoint is the (address, port) pair socket operations pass around
// internally, before it is projected onto the wire SockAddr4/6 form.
type Endpoint struct {
	Addr Addr
	Port uint16
}

// ToSockAddr4 projects an Endpoint onto its wire-facing SockAddr4. It
// fails with EINVAL unless the endpoint holds a V4 address; ToSockAddr6
// is the v6 counterpart.
func (e Endpoint) ToSockAddr4() (SockAddr4, error) {
	b, ok := e.Addr.AsV4()
	if !ok {
		return SockAddr4{}, errno.New("sockaddr", errno.EINVAL, nil)
	}
	return SockAddr4{Port: e.Port, IP: b}, nil
}

// ToSockAddr6 projects e onto a SockAddr6, zeroing FlowInfo/ScopeID.
func (e Endpoint) ToSockAddr6() (SockAddr6, error) {
	b, ok := e.Addr.AsV6()
	if !ok {
		return SockAddr6{}, errno.New("sockaddr", errno.EINVAL, nil)
	}
	return SockAddr6{Port: e.Port, IP: b}, nil
}

// EndpointFromSockAddr4 is the inverse projection, total for any
// well-formed SockAddr4.
func EndpointFromSockAddr4(s SockAddr4) Endpoint {
	return Endpoint{Addr: V4FromBytes(s.IP), Port: s.Port}
}

// EndpointFromSockAddr6 is the inverse projection, total for any
// well-formed SockAddr6. FlowInfo/ScopeID are intentionally dropped:
// the socket core's Endpoint only models address+port (spec §3).
func EndpointFromSockAddr6(s SockAddr6) Endpoint {
	return Endpoint{Addr: V6FromBytes(s.IP), Port: s.Port}
}

// DecodeGeneric reads the family tag out of a generic sockaddr_storage
// buffer (spec §6: "family in first u16") and dispatches to the
// matching decoder, failing with EINVAL on an unrecognized family or a
// buffer too short to hold it.
func DecodeGeneric(b []byte) (Endpoint, error) {
	if len(b) < 2 {
		return Endpoint{}, errno.New("sockaddr", errno.EINVAL, nil)
	}
	switch binary.BigEndian.Uint16(b[0:2]) {
	case AFInet:
		s, err := UnmarshalSockAddr4(b)
		if err != nil {
			return Endpoint{}, err
		}
		return EndpointFromSockAddr4(s), nil
	case AFInet6:
		s, err := UnmarshalSockAddr6(b)
		if err != nil {
			return Endpoint{}, err
		}
		return EndpointFromSockAddr6(s), nil
	default:
		return Endpoint{}, errno.New("sockaddr", errno.EINVAL, nil)
	}
}
