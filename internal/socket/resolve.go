package socket

import (
	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/resolve"
)

// Hostname backs gethostname() (spec §6): a fixed string configured at
// startup, since this stack has no notion of a live hostname service.
type Hostname string

func (s *Stack) requireResolve(op string) error {
	if s.Resolve == nil {
		return errno.New(op, errno.EOPNOTSUPP, nil)
	}
	return nil
}

// GetAddrInfo implements getaddrinfo (spec §4.8, §6).
func (s *Stack) GetAddrInfo(node, service string, hints resolve.Hints) ([]resolve.AddrInfo, errno.Code) {
	if err := s.requireResolve("getaddrinfo"); err != nil {
		return nil, errno.EAIFail
	}
	return s.Resolve.GetAddrInfo(node, service, hints)
}

// FreeAddrInfo implements freeaddrinfo (spec §4.8, §6); a no-op under
// Go's GC, kept so callers mirror the C lifecycle contract.
func (s *Stack) FreeAddrInfo(results []resolve.AddrInfo) { resolve.FreeAddrInfo(results) }

// GetNameInfo implements getnameinfo (spec §4.8, §6).
func (s *Stack) GetNameInfo(ep addr.Endpoint, hostBufLen, serviceBufLen int) (host, service string, code errno.Code) {
	if err := s.requireResolve("getnameinfo"); err != nil {
		return "", "", errno.EAIFail
	}
	return s.Resolve.GetNameInfo(ep, hostBufLen, serviceBufLen)
}

// GetHostByNameR implements gethostbyname_r (spec §4.8, §6).
func (s *Stack) GetHostByNameR(name string, family addr.Family) (resolve.HostEnt, errno.Code) {
	if err := s.requireResolve("gethostbyname_r"); err != nil {
		return resolve.HostEnt{}, errno.NoRecovery
	}
	return s.Resolve.GetHostByNameR(name, family)
}

// IfNameToIndex implements if_nametoindex (spec §4.8, §6). Returns 0
// (no such interface) when no resolver is configured.
func (s *Stack) IfNameToIndex(name string) int {
	if s.Resolve == nil {
		return 0
	}
	return s.Resolve.IfNameToIndex(name)
}

// IfIndexToName implements if_indextoname (spec §4.8, §6).
func (s *Stack) IfIndexToName(index int) (string, bool) {
	if s.Resolve == nil {
		return "", false
	}
	return s.Resolve.IfIndexToName(index)
}

// GetHostname implements gethostname() (spec §6).
func (s *Stack) GetHostname(h Hostname) string { return string(h) }

// InetPton implements inet_pton (spec §4.1, §6): thin passthrough to
// internal/addr, kept on Stack for API-surface completeness.
func (s *Stack) InetPton(family addr.Family, text string) (addr.Addr, int) {
	return addr.Pton(family, text)
}

// InetNtop implements inet_ntop.
func (s *Stack) InetNtop(a addr.Addr, bufLen int) (string, error) { return addr.Ntop(a, bufLen) }

// InetAddr implements inet_addr.
func (s *Stack) InetAddr(text string) (uint32, bool) { return addr.InetAddr(text) }

// InetAton implements inet_aton.
func (s *Stack) InetAton(text string) (addr.Addr, bool) { return addr.InetAton(text) }

// InetNtoa implements the reentrant inet_ntoa form (spec §9: preferred
// over the static buffer form in every internal/concurrent caller).
func (s *Stack) InetNtoa(v uint32) string { return addr.InetNtoa(v) }
