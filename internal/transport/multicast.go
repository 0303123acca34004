package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/embedstack/socketcore/internal/addr"
)

// SetMulticastConn4/6 install the live, already-bound UDP sockets this
// Transport issues kernel multicast join/leave calls against. Group
// membership is an interface-wide kernel resource, not a per-socket
// one (the kernel itself reference-counts joins at that level), so one
// shared PacketConn per family is enough to back every socket's
// mcast.Filter bookkeeping above it.
func (t *Transport) SetMulticastConn4(conn *net.UDPConn) { t.mcast4 = ipv4.NewPacketConn(conn) }
func (t *Transport) SetMulticastConn6(conn *net.UDPConn) { t.mcast6 = ipv6.NewPacketConn(conn) }

func (t *Transport) resolveIface(ifaceIndex int) (*net.Interface, error) {
	if ifaceIndex == 0 {
		return nil, nil
	}
	return net.InterfaceByIndex(ifaceIndex)
}

// JoinGroup implements mcast.GroupController.JoinGroup (spec §4.7).
func (t *Transport) JoinGroup(ifaceIndex int, group addr.Addr) error {
	iface, err := t.resolveIface(ifaceIndex)
	if err != nil {
		return err
	}
	grpAddr := &net.UDPAddr{IP: groupToIP(group)}
	if group.Family() == addr.V4 {
		if t.mcast4 == nil {
			return fmt.Errorf("transport: no IPv4 multicast socket configured")
		}
		return t.mcast4.JoinGroup(iface, grpAddr)
	}
	if t.mcast6 == nil {
		return fmt.Errorf("transport: no IPv6 multicast socket configured")
	}
	return t.mcast6.JoinGroup(iface, grpAddr)
}

// LeaveGroup implements mcast.GroupController.LeaveGroup.
func (t *Transport) LeaveGroup(ifaceIndex int, group addr.Addr) error {
	iface, err := t.resolveIface(ifaceIndex)
	if err != nil {
		return err
	}
	grpAddr := &net.UDPAddr{IP: groupToIP(group)}
	if group.Family() == addr.V4 {
		if t.mcast4 == nil {
			return nil
		}
		return t.mcast4.LeaveGroup(iface, grpAddr)
	}
	if t.mcast6 == nil {
		return nil
	}
	return t.mcast6.LeaveGroup(iface, grpAddr)
}

// JoinSourceSpecificGroup implements source-filtered RFC 3376/3678
// join (spec §4.7, INCLUDE-mode membership).
func (t *Transport) JoinSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error {
	iface, err := t.resolveIface(ifaceIndex)
	if err != nil {
		return err
	}
	grpAddr := &net.UDPAddr{IP: groupToIP(group)}
	srcAddr := &net.UDPAddr{IP: groupToIP(src)}
	if group.Family() == addr.V4 {
		if t.mcast4 == nil {
			return fmt.Errorf("transport: no IPv4 multicast socket configured")
		}
		return t.mcast4.JoinSourceSpecificGroup(iface, grpAddr, srcAddr)
	}
	if t.mcast6 == nil {
		return fmt.Errorf("transport: no IPv6 multicast socket configured")
	}
	return t.mcast6.JoinSourceSpecificGroup(iface, grpAddr, srcAddr)
}

// LeaveSourceSpecificGroup implements source-filtered leave.
func (t *Transport) LeaveSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error {
	iface, err := t.resolveIface(ifaceIndex)
	if err != nil {
		return err
	}
	grpAddr := &net.UDPAddr{IP: groupToIP(group)}
	srcAddr := &net.UDPAddr{IP: groupToIP(src)}
	if group.Family() == addr.V4 {
		if t.mcast4 == nil {
			return nil
		}
		return t.mcast4.LeaveSourceSpecificGroup(iface, grpAddr, srcAddr)
	}
	if t.mcast6 == nil {
		return nil
	}
	return t.mcast6.LeaveSourceSpecificGroup(iface, grpAddr, srcAddr)
}

// ExcludeSourceSpecificGroup implements switching an EXCLUDE-mode
// membership to block one source (spec §4.7, RFC 3678 §5.2).
func (t *Transport) ExcludeSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error {
	iface, err := t.resolveIface(ifaceIndex)
	if err != nil {
		return err
	}
	grpAddr := &net.UDPAddr{IP: groupToIP(group)}
	srcAddr := &net.UDPAddr{IP: groupToIP(src)}
	if group.Family() == addr.V4 {
		if t.mcast4 == nil {
			return fmt.Errorf("transport: no IPv4 multicast socket configured")
		}
		return t.mcast4.ExcludeSourceSpecificGroup(iface, grpAddr, srcAddr)
	}
	if t.mcast6 == nil {
		return fmt.Errorf("transport: no IPv6 multicast socket configured")
	}
	return t.mcast6.ExcludeSourceSpecificGroup(iface, grpAddr, srcAddr)
}

// IncludeSourceSpecificGroup implements unblocking a previously
// excluded source.
func (t *Transport) IncludeSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error {
	iface, err := t.resolveIface(ifaceIndex)
	if err != nil {
		return err
	}
	grpAddr := &net.UDPAddr{IP: groupToIP(group)}
	srcAddr := &net.UDPAddr{IP: groupToIP(src)}
	if group.Family() == addr.V4 {
		if t.mcast4 == nil {
			return nil
		}
		return t.mcast4.IncludeSourceSpecificGroup(iface, grpAddr, srcAddr)
	}
	if t.mcast6 == nil {
		return nil
	}
	return t.mcast6.IncludeSourceSpecificGroup(iface, grpAddr, srcAddr)
}
