package sockopt

import (
	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/mcast"
	"github.com/embedstack/socketcore/internal/socktab"
)

// GetInt reads an integer/boolean-valued option. It returns the value
// and the actual encoded length (spec §4.3 step 4: "on get, *len is
// written to the actual size of the returned option").
func (e *Engine) GetInt(descriptor int, level Level, name Name) (value, length int, err error) {
	err = e.Table.Get(descriptor, func(s *socktab.Socket) error {
		v, getErr := e.readInt(s, level, name)
		value = v
		return getErr
	})
	return value, 4, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (e *Engine) readInt(s *socktab.Socket, level Level, name Name) (int, error) {
	switch {
	case level == SOL_SOCKET && name == SO_REUSEADDR:
		return boolInt(s.Options.Has(socktab.BitReuseAddr)), nil
	case level == SOL_SOCKET && name == SO_BROADCAST:
		return boolInt(s.Options.Has(socktab.BitBroadcast)), nil
	case level == SOL_SOCKET && name == SO_SNDBUF:
		return s.SndBuf, nil
	case level == SOL_SOCKET && name == SO_RCVBUF:
		return s.RcvBuf, nil
	case level == SOL_SOCKET && name == SO_KEEPALIVE:
		return boolInt(s.KeepAlive.Enabled), nil
	case level == SOL_SOCKET && name == SO_NO_CHECK:
		return boolInt(s.Options.Has(socktab.BitUDPNoChecksum)), nil
	case level == SOL_SOCKET && name == SO_TYPE:
		return int(s.Kind), nil
	case level == SOL_SOCKET && name == SO_ERROR:
		code := s.ErrnoCode
		s.ErrnoCode = 0 // SO_ERROR is read-and-clear (spec §4.3, §7)
		return code, nil
	case level == IPPROTO_IP && name == IP_TOS:
		return int(s.ToS), nil
	case level == IPPROTO_IPV6 && name == IPV6_TCLASS:
		return int(s.ToS), nil
	case level == IPPROTO_IP && name == IP_TTL:
		return int(s.UnicastTTL), nil
	case level == IPPROTO_IPV6 && name == IPV6_UNICAST_HOPS:
		return int(s.UnicastTTL), nil
	case level == IPPROTO_IP && name == IP_MULTICAST_TTL:
		return int(s.MulticastTTL), nil
	case level == IPPROTO_IPV6 && name == IPV6_MULTICAST_HOPS:
		return int(s.MulticastTTL), nil
	case level == IPPROTO_IP && name == IP_MULTICAST_LOOP:
		return boolInt(s.Options.Has(socktab.BitIPv4MulticastLoop)), nil
	case level == IPPROTO_IPV6 && name == IPV6_MULTICAST_LOOP:
		return boolInt(s.Options.Has(socktab.BitIPv6MulticastLoop)), nil
	case level == IPPROTO_IP && name == IP_DONTFRAG:
		return boolInt(s.Options.Has(socktab.BitIPv4DontFrag)), nil
	case level == IPPROTO_IPV6 && name == IPV6_DONTFRAG:
		return boolInt(s.Options.Has(socktab.BitIPv6DontFrag)), nil
	case level == IPPROTO_IP && name == IP_PKTINFO:
		return boolInt(s.Options.Has(socktab.BitIPv4PktInfo)), nil
	case level == IPPROTO_IPV6 && name == IPV6_PKTINFO:
		return boolInt(s.Options.Has(socktab.BitIPv6PktInfo)), nil
	case level == IPPROTO_IP && name == IP_RECVTOS:
		return boolInt(s.Options.Has(socktab.BitIPv4RecvToS)), nil
	case level == IPPROTO_IPV6 && name == IPV6_RECVTCLASS:
		return boolInt(s.Options.Has(socktab.BitIPv6RecvTrafficClass)), nil
	case level == IPPROTO_IP && name == IP_RECVTTL:
		return boolInt(s.Options.Has(socktab.BitIPv4RecvTTL)), nil
	case level == IPPROTO_IPV6 && name == IPV6_RECVHOPLIMIT:
		return boolInt(s.Options.Has(socktab.BitIPv6RecvHopLimit)), nil
	case level == IPPROTO_IPV6 && name == IPV6_V6ONLY:
		return boolInt(s.Options.Has(socktab.BitIPv6Only)), nil
	case level == IPPROTO_TCP && name == TCP_NODELAY:
		return boolInt(s.Options.Has(socktab.BitTCPNoDelay)), nil
	case level == IPPROTO_TCP && name == TCP_MAXSEG:
		return int(s.MSS), nil
	case level == IPPROTO_TCP && name == TCP_KEEPIDLE:
		return int(s.KeepAlive.IdleMS / 1000), nil
	case level == IPPROTO_TCP && name == TCP_KEEPINTVL:
		return int(s.KeepAlive.IntervalMS / 1000), nil
	case level == IPPROTO_TCP && name == TCP_KEEPCNT:
		return s.KeepAlive.MaxProbes, nil
	case isMembershipName(name):
		// RFC 3678 §4.1.3/§5.2.2: the membership family is set-only.
		return 0, errno.New("getsockopt(membership)", errno.EOPNOTSUPP, nil)
	default:
		return 0, gateErr("getsockopt")
	}
}

func isMembershipName(name Name) bool {
	switch name {
	case IP_ADD_MEMBERSHIP, IP_DROP_MEMBERSHIP, IPV6_ADD_MEMBERSHIP, IPV6_DROP_MEMBERSHIP,
		IP_BLOCK_SOURCE, IP_UNBLOCK_SOURCE, IP_ADD_SOURCE_MEMBERSHIP, IP_DROP_SOURCE_MEMBERSHIP,
		MCAST_JOIN_GROUP, MCAST_LEAVE_GROUP, MCAST_BLOCK_SOURCE, MCAST_UNBLOCK_SOURCE,
		MCAST_JOIN_SOURCE_GROUP, MCAST_LEAVE_SOURCE_GROUP:
		return true
	default:
		return false
	}
}

// GetTimeval reads SO_SNDTIMEO/SO_RCVTIMEO back as a {seconds,
// microseconds} pair, with INFINITE encoded as {0,0} (spec §4.3).
func (e *Engine) GetTimeval(descriptor int, name Name) (tv TimevalMS, length int, err error) {
	if name != SO_SNDTIMEO && name != SO_RCVTIMEO {
		return TimevalMS{}, 0, gateErr("getsockopt(timeval)")
	}
	err = e.Table.Get(descriptor, func(s *socktab.Socket) error {
		tv = millisToTimeval(s.Timeout)
		return nil
	})
	return tv, 8, err
}

// GetFilter reads back the current source filter for group -- the one
// membership-family getter RFC 3678 does support (the bulk get source
// filter), dispatched through the same Engine used for Set.
func (e *Engine) GetFilter(descriptor int, group addr.Addr) (mode mcast.Mode, srcs []addr.Addr, err error) {
	if e.Mcast == nil {
		return mcast.Include, nil, gateErr("getsockopt(filter)")
	}
	err = e.Table.Get(descriptor, func(s *socktab.Socket) error {
		var getErr error
		mode, srcs, getErr = e.Mcast.Engine.GetFilter(&s.Mcast, group)
		return getErr
	})
	return mode, srcs, err
}
