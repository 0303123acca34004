package mcast

import "github.com/embedstack/socketcore/internal/addr"

// GroupController is the kernel-facing half of multicast membership:
// the actual IP_ADD_MEMBERSHIP/IPV6_ADD_MEMBERSHIP (and RFC 3678
// source-specific) syscalls, performed against a real interface. It is
// an interface for the same reason github.com/dantte-lp/gobfd's
// internal/netio.PacketConn is one: so Engine's pure bookkeeping stays
// testable without a NIC, while a real implementation (see
// internal/transport) can satisfy it using golang.org/x/net/ipv4 and
// golang.org/x/net/ipv6, whose PacketConn.JoinGroup/JoinSourceSpecificGroup
// map almost one-to-one onto these verbs.
type GroupController interface {
	JoinGroup(ifaceIndex int, group addr.Addr) error
	LeaveGroup(ifaceIndex int, group addr.Addr) error
	JoinSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error
	LeaveSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error
	ExcludeSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error
	IncludeSourceSpecificGroup(ifaceIndex int, group, src addr.Addr) error
}

// NoopController discards every kernel-facing call. It is the default
// GroupController for sockets that are not bound to a live interface
// (e.g. every socket in this repository's own unit tests), matching
// how netio's MockPacketConn lets tests exercise protocol logic
// without CAP_NET_RAW.
type NoopController struct{}

func (NoopController) JoinGroup(int, addr.Addr) error                             { return nil }
func (NoopController) LeaveGroup(int, addr.Addr) error                            { return nil }
func (NoopController) JoinSourceSpecificGroup(int, addr.Addr, addr.Addr) error    { return nil }
func (NoopController) LeaveSourceSpecificGroup(int, addr.Addr, addr.Addr) error   { return nil }
func (NoopController) ExcludeSourceSpecificGroup(int, addr.Addr, addr.Addr) error { return nil }
func (NoopController) IncludeSourceSpecificGroup(int, addr.Addr, addr.Addr) error { return nil }

// Filter is the C10 facade: spec §4.3's MCAST_JOIN/LEAVE_GROUP,
// MCAST_{BLOCK,UNBLOCK}_SOURCE, MCAST_{JOIN,LEAVE}_SOURCE_GROUP,
// dispatched family-agnostically (the input holds a sockaddr_storage,
// spec §6), driving both the pure Engine bookkeeping and, when
// ifaceIndex is nonzero, the real kernel join via GroupController.
type Filter struct {
	Engine     *Engine
	Controller GroupController
}

// NewFilter builds a Filter over engine, defaulting Controller to
// NoopController when ctrl is nil.
func NewFilter(engine *Engine, ctrl GroupController) *Filter {
	if ctrl == nil {
		ctrl = NoopController{}
	}
	return &Filter{Engine: engine, Controller: ctrl}
}

// JoinGroup performs MCAST_JOIN_GROUP: engine bookkeeping plus the
// real kernel join.
func (f *Filter) JoinGroup(s *Set, ifaceIndex int, group addr.Addr) error {
	if err := f.Engine.Join(s, group); err != nil {
		return err
	}
	return f.Controller.JoinGroup(ifaceIndex, group)
}

// LeaveGroup performs MCAST_LEAVE_GROUP.
func (f *Filter) LeaveGroup(s *Set, ifaceIndex int, group addr.Addr) error {
	if err := f.Engine.Leave(s, group); err != nil {
		return err
	}
	return f.Controller.LeaveGroup(ifaceIndex, group)
}

// JoinSourceSpecificGroup performs MCAST_JOIN_SOURCE_GROUP.
func (f *Filter) JoinSourceSpecificGroup(s *Set, ifaceIndex int, group, src addr.Addr) error {
	if err := f.Engine.AddSource(s, group, src); err != nil {
		return err
	}
	return f.Controller.JoinSourceSpecificGroup(ifaceIndex, group, src)
}

// LeaveSourceSpecificGroup performs MCAST_LEAVE_SOURCE_GROUP.
func (f *Filter) LeaveSourceSpecificGroup(s *Set, ifaceIndex int, group, src addr.Addr) error {
	if err := f.Engine.DropSource(s, group, src); err != nil {
		return err
	}
	return f.Controller.LeaveSourceSpecificGroup(ifaceIndex, group, src)
}

// BlockSource performs MCAST_BLOCK_SOURCE (and IP_BLOCK_MEMBERSHIP).
func (f *Filter) BlockSource(s *Set, ifaceIndex int, group, src addr.Addr) error {
	if err := f.Engine.BlockSource(s, group, src); err != nil {
		return err
	}
	return f.Controller.ExcludeSourceSpecificGroup(ifaceIndex, group, src)
}

// UnblockSource performs MCAST_UNBLOCK_SOURCE.
func (f *Filter) UnblockSource(s *Set, ifaceIndex int, group, src addr.Addr) error {
	if err := f.Engine.UnblockSource(s, group, src); err != nil {
		return err
	}
	return f.Controller.IncludeSourceSpecificGroup(ifaceIndex, group, src)
}
