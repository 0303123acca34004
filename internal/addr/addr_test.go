package addr_test

import (
	"testing"

	"github.com/embedstack/socketcore/internal/addr"
)

func TestEqualityIsClosed(t *testing.T) {
	v4 := addr.UnspecifiedV4()
	v6 := addr.UnspecifiedV6()
	var unspec addr.Addr

	if v4.Equal(v6) {
		t.Fatal("v4 zero address must not equal v6 zero address")
	}
	if v4.Equal(unspec) {
		t.Fatal("v4 zero address must not equal the Unspec member")
	}
	if !unspec.Equal(addr.Addr{}) {
		t.Fatal("Unspec must equal Unspec")
	}
}

func TestPtonNtopRoundTrip(t *testing.T) {
	cases := []struct {
		family addr.Family
		text   string
	}{
		{addr.V4, "127.0.0.1"},
		{addr.V4, "255.255.255.255"},
		{addr.V4, "0.0.0.0"},
		{addr.V6, "::1"},
		{addr.V6, "2001:db8::1"},
		{addr.V6, "::"},
	}
	for _, c := range cases {
		a, code := addr.Pton(c.family, c.text)
		if code != 1 {
			t.Fatalf("Pton(%s) = code %d, want 1", c.text, code)
		}
		s, err := addr.Ntop(a, 0)
		if err != nil {
			t.Fatalf("Ntop(%s): %v", c.text, err)
		}
		back, code := addr.Pton(c.family, s)
		if code != 1 || !back.Equal(a) {
			t.Fatalf("round trip mismatch for %s: got %s", c.text, s)
		}
	}
}

func TestPtonUnknownFamily(t *testing.T) {
	if _, code := addr.Pton(addr.Unspec, "127.0.0.1"); code != -1 {
		t.Fatalf("Pton(Unspec) = %d, want -1", code)
	}
}

func TestPtonInvalidLiteral(t *testing.T) {
	if _, code := addr.Pton(addr.V4, "not-an-address"); code != 0 {
		t.Fatalf("Pton(invalid) = %d, want 0", code)
	}
	if _, code := addr.Pton(addr.V4, "::1"); code != 0 {
		t.Fatalf("Pton(v6-literal, family=V4) = %d, want 0", code)
	}
}

func TestNtopBufferTooSmall(t *testing.T) {
	a, _ := addr.Pton(addr.V4, "127.0.0.1")
	if _, err := addr.Ntop(a, 4); err == nil {
		t.Fatal("expected buffer-too-small error for undersized v4 buffer")
	}
	a6, _ := addr.Pton(addr.V6, "::1")
	if _, err := addr.Ntop(a6, 20); err == nil {
		t.Fatal("expected buffer-too-small error for undersized v6 buffer")
	}
}

func TestInetNtoaInvariant(t *testing.T) {
	if got := addr.InetNtoa(addr.INADDRLoopback); got != "127.0.0.1" {
		t.Fatalf("InetNtoa(loopback) = %q, want 127.0.0.1", got)
	}
	if got := addr.InetNtoa(addr.INADDRBroadcast); got != "255.255.255.255" {
		t.Fatalf("InetNtoa(broadcast) = %q, want 255.255.255.255", got)
	}
	if got := addr.InetNtoaStatic(addr.INADDRLoopback); got != "127.0.0.1" {
		t.Fatalf("InetNtoaStatic(loopback) = %q, want 127.0.0.1", got)
	}
}
