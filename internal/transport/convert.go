// Package transport is a concrete reference implementation of every
// out-of-scope transport hook this module defines interfaces for:
// msgio.StreamTransport/DatagramTransport, sockconn.Transport,
// sockopt.BroadcastSetter, and mcast.GroupController. It exists so the
// demo daemon in cmd/ has something real to drive; none of the other
// packages import it.
//
// Grounded on github.com/dantte-lp/gobfd's internal/netio.LinuxPacketConn:
// a net.UDPConn wrapped with unix.SetsockoptInt calls for TTL/PKTINFO
// and ancillary-data parsing on receive. This package generalizes that
// one TTL=255/BFD-only socket into the full stream+datagram contract
// spec §6 names, adding a real net.TCPConn/TCPListener half for
// connection-oriented sockets (gobfd has none, since BFD is UDP-only).
package transport

import (
	"net"
	"net/netip"

	"github.com/embedstack/socketcore/internal/addr"
)

func endpointToUDPAddr(ep addr.Endpoint) *net.UDPAddr {
	na, ok := ep.Addr.Netip()
	if !ok {
		na = netip.IPv4Unspecified()
	}
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(na, ep.Port))
}

func endpointToTCPAddr(ep addr.Endpoint) *net.TCPAddr {
	na, ok := ep.Addr.Netip()
	if !ok {
		na = netip.IPv4Unspecified()
	}
	return net.TCPAddrFromAddrPort(netip.AddrPortFrom(na, ep.Port))
}

func netAddrToEndpoint(a net.Addr) addr.Endpoint {
	ap, err := netip.ParseAddrPort(a.String())
	if err != nil {
		return addr.Endpoint{}
	}
	return addr.Endpoint{Addr: addr.FromNetip(ap.Addr()), Port: ap.Port()}
}

func groupToIP(group addr.Addr) net.IP {
	if b, ok := group.AsV4(); ok {
		return net.IP(b[:])
	}
	if b, ok := group.AsV6(); ok {
		return net.IP(b[:])
	}
	return nil
}
