package addr

import "net/netip"

// Buffer sizes required by the ntop-family formatters (spec §4.1):
// 16 bytes covers the longest IPv4 dotted-quad plus NUL; 40 covers the
// longest IPv6 text form Ntop produces (39 characters, no zone id) plus
// NUL.
const (
	NtopBufferV4 = 16
	NtopBufferV6 = 40
)

// Pton parses a text address for the given family, mirroring inet_pton's
// three-way return: 1 on success, 0 on an invalid literal, -1 for an
// unknown family. The family must be V4 or V6; Unspec is always -1.
func Pton(family Family, s string) (Addr, int) {
	switch family {
	case V4:
		na, err := netip.ParseAddr(s)
		if err != nil || !na.Is4() {
			return Addr{}, 0
		}
		return V4FromBytes(na.As4()), 1
	case V6:
		na, err := netip.ParseAddr(s)
		if err != nil {
			return Addr{}, 0
		}
		na = na.Unmap()
		if !na.Is6() {
			return Addr{}, 0
		}
		return V6FromBytes(na.As16()), 1
	default:
		return Addr{}, -1
	}
}

// Ntop formats a into its canonical shortest-form text representation,
// failing if bufLen is smaller than the family's required buffer size
// (spec §4.1). A zero or negative bufLen means "no caller-supplied bound",
// used by callers (e.g. inet_ntoa) that already know their buffer is
// large enough.
func Ntop(a Addr, bufLen int) (string, error) {
	switch a.family {
	case V4:
		if bufLen > 0 && bufLen < NtopBufferV4 {
			return "", errBufferTooSmall
		}
	case V6:
		if bufLen > 0 && bufLen < NtopBufferV6 {
			return "", errBufferTooSmall
		}
	default:
		return "", errUnknownFamily
	}
	na, _ := a.Netip()
	return na.String(), nil
}
