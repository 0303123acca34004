package addr_test

import (
	"testing"

	"github.com/embedstack/socketcore/internal/addr"
)

func TestSockAddr4RoundTrip(t *testing.T) {
	ep := addr.Endpoint{Addr: addr.V4FromBytes([4]byte{10, 0, 0, 1}), Port: 8080}
	s4, err := ep.ToSockAddr4()
	if err != nil {
		t.Fatalf("ToSockAddr4: %v", err)
	}
	wire := s4.Marshal()
	if len(wire) != addr.SockAddr4Len {
		t.Fatalf("wire length = %d, want %d", len(wire), addr.SockAddr4Len)
	}
	decoded, err := addr.UnmarshalSockAddr4(wire[:])
	if err != nil {
		t.Fatalf("UnmarshalSockAddr4: %v", err)
	}
	back := addr.EndpointFromSockAddr4(decoded)
	if !back.Addr.Equal(ep.Addr) || back.Port != ep.Port {
		t.Fatalf("round trip mismatch: got %+v, want %+v", back, ep)
	}
}

func TestSockAddr6RoundTripZeroesFlowAndScope(t *testing.T) {
	raw, _ := addr.Pton(addr.V6, "2001:db8::1")
	ep := addr.Endpoint{Addr: raw, Port: 443}
	s6, err := ep.ToSockAddr6()
	if err != nil {
		t.Fatalf("ToSockAddr6: %v", err)
	}
	if s6.FlowInfo != 0 || s6.ScopeID != 0 {
		t.Fatalf("projection must zero flowinfo/scope_id, got %+v", s6)
	}
	wire := s6.Marshal()
	if len(wire) != addr.SockAddr6Len {
		t.Fatalf("wire length = %d, want %d", len(wire), addr.SockAddr6Len)
	}
	decoded, err := addr.UnmarshalSockAddr6(wire[:])
	if err != nil {
		t.Fatalf("UnmarshalSockAddr6: %v", err)
	}
	back := addr.EndpointFromSockAddr6(decoded)
	if !back.Addr.Equal(ep.Addr) || back.Port != ep.Port {
		t.Fatalf("round trip mismatch: got %+v, want %+v", back, ep)
	}
}

func TestUnmarshalRejectsShortOrWrongFamily(t *testing.T) {
	if _, err := addr.UnmarshalSockAddr4(make([]byte, 4)); err == nil {
		t.Fatal("expected EINVAL for short buffer")
	}
	var wrongFamily [addr.SockAddr4Len]byte
	wrongFamily[1] = addr.AFInet6 // family field holds AF_INET6, not AF_INET
	if _, err := addr.UnmarshalSockAddr4(wrongFamily[:]); err == nil {
		t.Fatal("expected EINVAL for mismatched family")
	}
}

func TestDecodeGenericDispatchesOnFamily(t *testing.T) {
	ep4 := addr.Endpoint{Addr: addr.V4FromBytes([4]byte{192, 168, 1, 1}), Port: 22}
	s4, _ := ep4.ToSockAddr4()
	wire4 := s4.Marshal()
	got4, err := addr.DecodeGeneric(wire4[:])
	if err != nil || !got4.Addr.Equal(ep4.Addr) || got4.Port != ep4.Port {
		t.Fatalf("DecodeGeneric(v4) = %+v, %v", got4, err)
	}

	raw6, _ := addr.Pton(addr.V6, "fe80::1")
	ep6 := addr.Endpoint{Addr: raw6, Port: 53}
	s6, _ := ep6.ToSockAddr6()
	wire6 := s6.Marshal()
	got6, err := addr.DecodeGeneric(wire6[:])
	if err != nil || !got6.Addr.Equal(ep6.Addr) || got6.Port != ep6.Port {
		t.Fatalf("DecodeGeneric(v6) = %+v, %v", got6, err)
	}

	if _, err := addr.DecodeGeneric([]byte{0, 0}); err == nil {
		t.Fatal("expected EINVAL for unknown family")
	}
}
