package addr

import (
	"encoding/binary"
)

// INADDRLoopback and INADDRBroadcast are the classic IPv4 host-order
// constants (spec Testable Property 10).
const (
	INADDRLoopback  uint32 = 0x7f000001 // 127.0.0.1
	INADDRBroadcast uint32 = 0xffffffff // 255.255.255.255
)

// V4FromUint32 builds a V4 Addr from a host-order 32-bit value, the
// representation inet_addr/INADDR_* constants use.
func V4FromUint32(v uint32) Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return V4FromBytes(b)
}

// Uint32 returns a's host-order 32-bit value; ok is false unless a is V4.
func (a Addr) Uint32() (uint32, bool) {
	b, ok := a.AsV4()
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b[:]), true
}

// InetAddr implements inet_addr: parse a dotted-quad string into a
// host-order uint32, returning ok=false on failure (INADDR_NONE).
func InetAddr(s string) (uint32, bool) {
	a, code := Pton(V4, s)
	if code != 1 {
		return 0, false
	}
	v, _ := a.Uint32()
	return v, true
}

// InetAton is the boolean-success sibling of InetAddr.
func InetAton(s string) (Addr, bool) {
	a, code := Pton(V4, s)
	return a, code == 1
}

// InetNtoa is the reentrant form: it formats v into a freshly allocated
// string and never touches shared state. Spec §9 Open Question
// ("inet_ntoa reentrancy") resolves to preferring this form; every
// internal caller in this module uses it.
func InetNtoa(v uint32) string {
	s, _ := Ntop(V4FromUint32(v), 0)
	return s
}

// inetNtoaBuf is the single process-wide buffer behind InetNtoaStatic.
// It is deliberately not synchronized: the classic inet_ntoa contract
// is single-task/non-reentrant, and this implementation keeps that
// contract explicit rather than papering over it with a mutex that
// would only hide concurrent-caller bugs.
var inetNtoaBuf [NtopBufferV4]byte

// InetNtoaStatic is the non-reentrant, BSD-compatible form: it returns
// a string backed by a single process-wide buffer that the next call
// overwrites. Safe only when called from a single task/goroutine at a
// time -- use InetNtoa in any concurrent context.
func InetNtoaStatic(v uint32) string {
	s := InetNtoa(v)
	n := copy(inetNtoaBuf[:], s)
	return string(inetNtoaBuf[:n])
}
