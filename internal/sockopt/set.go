package sockopt

import (
	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/socktab"
)

// SetInt applies an integer/boolean-valued option (spec §4.3 steps
// 1–3 for every scalar option in the enumerated table). length is the
// caller-declared payload size in bytes, checked against the option's
// required 4-byte integer encoding.
func (e *Engine) SetInt(descriptor int, level Level, name Name, value, length int) error {
	if err := requireLen("setsockopt", length, 4); err != nil {
		return err
	}
	return e.Table.Get(descriptor, func(s *socktab.Socket) error {
		return e.applyInt(s, level, name, value)
	})
}

func (e *Engine) applyInt(s *socktab.Socket, level Level, name Name, value int) error {
	on := value != 0
	switch {
	case level == SOL_SOCKET && name == SO_REUSEADDR:
		s.Options = s.Options.Set(socktab.BitReuseAddr, on)
	case level == SOL_SOCKET && name == SO_BROADCAST:
		s.Options = s.Options.Set(socktab.BitBroadcast, on)
		return e.Broadcast.SetBroadcast(s.Descriptor, on)
	case level == SOL_SOCKET && name == SO_SNDBUF:
		s.SndBuf = clampBuf(value, socktab.DefaultBufferLimits.MaxSndBuf)
	case level == SOL_SOCKET && name == SO_RCVBUF:
		s.RcvBuf = clampBuf(value, socktab.DefaultBufferLimits.MaxRcvBuf)
	case level == SOL_SOCKET && name == SO_KEEPALIVE:
		if !e.Features.KeepAlive {
			return gateErr("setsockopt(SO_KEEPALIVE)")
		}
		s.KeepAlive.Enabled = on
	case level == SOL_SOCKET && name == SO_NO_CHECK:
		if !e.Features.UDP {
			return gateErr("setsockopt(SO_NO_CHECK)")
		}
		s.Options = s.Options.Set(socktab.BitUDPNoChecksum, on)
	case level == IPPROTO_IP && name == IP_TOS:
		if !e.Features.IPv4 {
			return gateErr("setsockopt(IP_TOS)")
		}
		s.ToS = uint8(value)
	case level == IPPROTO_IPV6 && name == IPV6_TCLASS:
		if !e.Features.IPv6 {
			return gateErr("setsockopt(IPV6_TCLASS)")
		}
		s.ToS = uint8(value)
	case level == IPPROTO_IP && name == IP_TTL:
		s.UnicastTTL = uint8(value)
	case level == IPPROTO_IPV6 && name == IPV6_UNICAST_HOPS:
		s.UnicastTTL = uint8(value)
	case level == IPPROTO_IP && name == IP_MULTICAST_TTL:
		s.MulticastTTL = uint8(value)
	case level == IPPROTO_IPV6 && name == IPV6_MULTICAST_HOPS:
		s.MulticastTTL = uint8(value)
	case level == IPPROTO_IP && name == IP_MULTICAST_LOOP:
		s.Options = s.Options.Set(socktab.BitIPv4MulticastLoop, on)
	case level == IPPROTO_IPV6 && name == IPV6_MULTICAST_LOOP:
		s.Options = s.Options.Set(socktab.BitIPv6MulticastLoop, on)
	case level == IPPROTO_IP && name == IP_DONTFRAG:
		s.Options = s.Options.Set(socktab.BitIPv4DontFrag, on)
	case level == IPPROTO_IPV6 && name == IPV6_DONTFRAG:
		s.Options = s.Options.Set(socktab.BitIPv6DontFrag, on)
	case level == IPPROTO_IP && name == IP_PKTINFO:
		s.Options = s.Options.Set(socktab.BitIPv4PktInfo, on)
	case level == IPPROTO_IPV6 && name == IPV6_PKTINFO:
		s.Options = s.Options.Set(socktab.BitIPv6PktInfo, on)
	case level == IPPROTO_IP && name == IP_RECVTOS:
		s.Options = s.Options.Set(socktab.BitIPv4RecvToS, on)
	case level == IPPROTO_IPV6 && name == IPV6_RECVTCLASS:
		s.Options = s.Options.Set(socktab.BitIPv6RecvTrafficClass, on)
	case level == IPPROTO_IP && name == IP_RECVTTL:
		s.Options = s.Options.Set(socktab.BitIPv4RecvTTL, on)
	case level == IPPROTO_IPV6 && name == IPV6_RECVHOPLIMIT:
		s.Options = s.Options.Set(socktab.BitIPv6RecvHopLimit, on)
	case level == IPPROTO_IPV6 && name == IPV6_V6ONLY:
		if !e.Features.IPv6 {
			return gateErr("setsockopt(IPV6_V6ONLY)")
		}
		s.Options = s.Options.Set(socktab.BitIPv6Only, on)
	case level == IPPROTO_TCP && name == TCP_NODELAY:
		if !e.Features.TCP {
			return gateErr("setsockopt(TCP_NODELAY)")
		}
		s.Options = s.Options.Set(socktab.BitTCPNoDelay, on)
	case level == IPPROTO_TCP && name == TCP_MAXSEG:
		if !e.Features.TCP {
			return gateErr("setsockopt(TCP_MAXSEG)")
		}
		s.MSS = uint16(value)
	case level == IPPROTO_TCP && name == TCP_KEEPIDLE:
		if !e.Features.KeepAlive {
			return gateErr("setsockopt(TCP_KEEPIDLE)")
		}
		s.KeepAlive.IdleMS = int64(value) * 1000
	case level == IPPROTO_TCP && name == TCP_KEEPINTVL:
		if !e.Features.KeepAlive {
			return gateErr("setsockopt(TCP_KEEPINTVL)")
		}
		s.KeepAlive.IntervalMS = int64(value) * 1000
	case level == IPPROTO_TCP && name == TCP_KEEPCNT:
		if !e.Features.KeepAlive {
			return gateErr("setsockopt(TCP_KEEPCNT)")
		}
		s.KeepAlive.MaxProbes = value
	default:
		return gateErr("setsockopt")
	}
	return nil
}

// SetTimeval applies SO_SNDTIMEO/SO_RCVTIMEO, converting the wire
// {seconds, microseconds} pair to the socket's unified millisecond
// timeout field with {0,0} => INFINITE (spec §4.3).
func (e *Engine) SetTimeval(descriptor int, name Name, tv TimevalMS, length int) error {
	if err := requireLen("setsockopt(timeval)", length, 8); err != nil {
		return err
	}
	if name != SO_SNDTIMEO && name != SO_RCVTIMEO {
		return gateErr("setsockopt(timeval)")
	}
	return e.Table.Get(descriptor, func(s *socktab.Socket) error {
		s.Timeout = tv.toMillis()
		return nil
	})
}

// SetMembership applies IP_ADD/DROP_MEMBERSHIP and their v6 analogues:
// plain any-source group join/leave (spec §4.3, §4.4).
func (e *Engine) SetMembership(descriptor, ifaceIndex int, name Name, group addr.Addr) error {
	if e.Mcast == nil {
		return gateErr("setsockopt(membership)")
	}
	return e.Table.Get(descriptor, func(s *socktab.Socket) error {
		switch name {
		case IP_ADD_MEMBERSHIP, IPV6_ADD_MEMBERSHIP:
			return e.Mcast.JoinGroup(&s.Mcast, ifaceIndex, group)
		case IP_DROP_MEMBERSHIP, IPV6_DROP_MEMBERSHIP:
			return e.Mcast.LeaveGroup(&s.Mcast, ifaceIndex, group)
		default:
			return gateErr("setsockopt(membership)")
		}
	})
}

// SetSourceMembership applies the RFC 3678 source-specific family:
// IP_{BLOCK,UNBLOCK,ADD_SOURCE,DROP_SOURCE}_MEMBERSHIP and the
// family-agnostic MCAST_* verbs (spec §4.3, §4.4).
func (e *Engine) SetSourceMembership(descriptor, ifaceIndex int, name Name, group, src addr.Addr) error {
	if e.Mcast == nil {
		return gateErr("setsockopt(source-membership)")
	}
	return e.Table.Get(descriptor, func(s *socktab.Socket) error {
		switch name {
		case IP_ADD_SOURCE_MEMBERSHIP, MCAST_JOIN_SOURCE_GROUP:
			return e.Mcast.JoinSourceSpecificGroup(&s.Mcast, ifaceIndex, group, src)
		case IP_DROP_SOURCE_MEMBERSHIP, MCAST_LEAVE_SOURCE_GROUP:
			return e.Mcast.LeaveSourceSpecificGroup(&s.Mcast, ifaceIndex, group, src)
		case IP_BLOCK_SOURCE, MCAST_BLOCK_SOURCE:
			return e.Mcast.BlockSource(&s.Mcast, ifaceIndex, group, src)
		case IP_UNBLOCK_SOURCE, MCAST_UNBLOCK_SOURCE:
			return e.Mcast.UnblockSource(&s.Mcast, ifaceIndex, group, src)
		default:
			return gateErr("setsockopt(source-membership)")
		}
	})
}

// SetGroup applies MCAST_JOIN_GROUP/MCAST_LEAVE_GROUP, the
// family-agnostic plain-join verbs (input holds a sockaddr_storage
// per spec §4.3; by the time it reaches here it has already been
// decoded to an addr.Addr).
func (e *Engine) SetGroup(descriptor, ifaceIndex int, name Name, group addr.Addr) error {
	if e.Mcast == nil {
		return gateErr("setsockopt(group)")
	}
	return e.Table.Get(descriptor, func(s *socktab.Socket) error {
		switch name {
		case MCAST_JOIN_GROUP:
			return e.Mcast.JoinGroup(&s.Mcast, ifaceIndex, group)
		case MCAST_LEAVE_GROUP:
			return e.Mcast.LeaveGroup(&s.Mcast, ifaceIndex, group)
		default:
			return gateErr("setsockopt(group)")
		}
	})
}

func clampBuf(value, max int) int {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}
