// Package socket is the public facade of spec §6: a thin adapter that
// composes the socket table, option engine, send/recv pipeline,
// connection layer, multiplexor and resolver into the POSIX-like API
// surface a caller actually drives.
//
// Grounded on github.com/dantte-lp/gobfd's internal/server.BFDServer,
// which is exactly this shape: a struct holding references to the
// real domain managers (session manager, discriminator table) and
// exposing a small set of request-handling methods that validate,
// delegate, and translate errors -- no business logic of its own.
package socket

import (
	"context"
	"time"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/mcast"
	"github.com/embedstack/socketcore/internal/msgio"
	"github.com/embedstack/socketcore/internal/resolve"
	"github.com/embedstack/socketcore/internal/sockconn"
	"github.com/embedstack/socketcore/internal/sockmux"
	"github.com/embedstack/socketcore/internal/sockopt"
	"github.com/embedstack/socketcore/internal/socktab"
)

// Stack is the facade: one instance per process, holding the single
// socket table and every component built over it (spec §5: "a single
// process-wide netMutex" -- Table owns it, everything here shares it).
type Stack struct {
	Table   *socktab.Table
	Opt     *sockopt.Engine
	Pipe    *msgio.Pipeline
	Conn    *sockconn.Conn
	Resolve *resolve.Resolve
}

// NewStack composes a Stack from its already-built components. Any of
// Opt/Pipe/Conn/Resolve may be nil; the corresponding methods then
// fail with EOPNOTSUPP instead of panicking.
func NewStack(table *socktab.Table, opt *sockopt.Engine, pipe *msgio.Pipeline, conn *sockconn.Conn, res *resolve.Resolve) *Stack {
	return &Stack{Table: table, Opt: opt, Pipe: pipe, Conn: conn, Resolve: res}
}

// Socket implements socket(type, protocol) (spec §6). It takes no
// address family: the table has no family field until a local address
// is assigned, and Bind then rejects a later address of another family
// (spec §4.6).
func (s *Stack) Socket(kind socktab.Kind, protocol int) (int, error) {
	sock, err := s.Table.Open(kind, protocol)
	if err != nil {
		return -1, err
	}
	return sock.Descriptor, nil
}

// Close implements closesocket(fd) (spec §6): shuts down whatever the
// transport side still holds open, then releases the table slot.
// Shutdown errors are ignored -- a half-dead transport must never
// block reclaiming the slot (spec §4.2: "close ... must not fail").
func (s *Stack) Close(descriptor int) error {
	if s.Conn != nil {
		_ = s.Conn.Shutdown(descriptor, sockconn.ShutdownBoth)
	}
	return s.Table.Close(descriptor)
}

func (s *Stack) requireConn(op string) error {
	if s.Conn == nil {
		return errno.New(op, errno.EOPNOTSUPP, nil)
	}
	return nil
}

// Bind implements bind() (spec §4.6, §6).
func (s *Stack) Bind(descriptor int, local addr.Endpoint) error {
	if err := s.requireConn("bind"); err != nil {
		return err
	}
	return s.Conn.Bind(descriptor, local)
}

// Connect implements connect() (spec §4.6, §6).
func (s *Stack) Connect(ctx context.Context, descriptor int, remote addr.Endpoint) error {
	if err := s.requireConn("connect"); err != nil {
		return err
	}
	return s.Conn.Connect(ctx, descriptor, remote)
}

// Listen implements listen() (spec §4.6, §6).
func (s *Stack) Listen(descriptor, backlog int) error {
	if err := s.requireConn("listen"); err != nil {
		return err
	}
	return s.Conn.Listen(descriptor, backlog)
}

// Accept implements accept() (spec §4.6, §6).
func (s *Stack) Accept(descriptor int) (newDescriptor int, peer addr.Endpoint, err error) {
	if err := s.requireConn("accept"); err != nil {
		return -1, addr.Endpoint{}, err
	}
	return s.Conn.Accept(descriptor)
}

// Shutdown implements shutdown(fd, how) (spec §4.6, §6).
func (s *Stack) Shutdown(descriptor int, how sockconn.How) error {
	if err := s.requireConn("shutdown"); err != nil {
		return err
	}
	return s.Conn.Shutdown(descriptor, how)
}

// GetSockName implements getsockname() (spec §6).
func (s *Stack) GetSockName(descriptor int) (addr.Endpoint, error) {
	var ep addr.Endpoint
	err := s.Table.Get(descriptor, func(sock *socktab.Socket) error { ep = sock.Local; return nil })
	return ep, err
}

// GetPeerName implements getpeername() (spec §6): ENOTCONN when the
// socket has no remote endpoint recorded.
func (s *Stack) GetPeerName(descriptor int) (addr.Endpoint, error) {
	var ep addr.Endpoint
	err := s.Table.Get(descriptor, func(sock *socktab.Socket) error {
		if sock.Remote.Addr.IsUnspecified() {
			return errno.New("getpeername", errno.ENOTCONN, nil)
		}
		ep = sock.Remote
		return nil
	})
	return ep, err
}

func (s *Stack) requirePipe(op string) error {
	if s.Pipe == nil {
		return errno.New(op, errno.EOPNOTSUPP, nil)
	}
	return nil
}

// Send implements send() (spec §4.5, §6).
func (s *Stack) Send(descriptor int, buf []byte, flags msgio.Flags) (int, error) {
	if err := s.requirePipe("send"); err != nil {
		return 0, err
	}
	return s.Pipe.Send(descriptor, buf, flags)
}

// Recv implements recv() (spec §4.5, §6).
func (s *Stack) Recv(descriptor int, buf []byte, flags msgio.Flags) (int, error) {
	if err := s.requirePipe("recv"); err != nil {
		return 0, err
	}
	return s.Pipe.Recv(descriptor, buf, flags)
}

// SendTo implements sendto() (spec §4.5, §6).
func (s *Stack) SendTo(descriptor int, buf []byte, dst addr.Endpoint, flags msgio.Flags) (int, error) {
	if err := s.requirePipe("sendto"); err != nil {
		return 0, err
	}
	return s.Pipe.SendTo(descriptor, buf, dst, flags)
}

// RecvFrom implements recvfrom() (spec §4.5, §6).
func (s *Stack) RecvFrom(descriptor int, buf []byte, flags msgio.Flags) (int, addr.Endpoint, error) {
	if err := s.requirePipe("recvfrom"); err != nil {
		return 0, addr.Endpoint{}, err
	}
	return s.Pipe.RecvFrom(descriptor, buf, flags)
}

// SendMsg implements sendmsg() (spec §4.5, §6).
func (s *Stack) SendMsg(descriptor int, msg msgio.Msghdr, flags msgio.Flags) (int, error) {
	if err := s.requirePipe("sendmsg"); err != nil {
		return 0, err
	}
	return s.Pipe.SendMsg(descriptor, msg, flags)
}

// RecvMsg implements recvmsg() (spec §4.5, §6).
func (s *Stack) RecvMsg(descriptor int, msg *msgio.Msghdr, flags msgio.Flags) (int, error) {
	if err := s.requirePipe("recvmsg"); err != nil {
		return 0, err
	}
	return s.Pipe.RecvMsg(descriptor, msg, flags)
}

func (s *Stack) requireOpt(op string) error {
	if s.Opt == nil {
		return errno.New(op, errno.EOPNOTSUPP, nil)
	}
	return nil
}

// SetSockOptInt implements setsockopt() for every scalar option (spec
// §4.3, §6).
func (s *Stack) SetSockOptInt(descriptor int, level sockopt.Level, name sockopt.Name, value, length int) error {
	if err := s.requireOpt("setsockopt"); err != nil {
		return err
	}
	return s.Opt.SetInt(descriptor, level, name, value, length)
}

// GetSockOptInt implements getsockopt() for every scalar option.
func (s *Stack) GetSockOptInt(descriptor int, level sockopt.Level, name sockopt.Name) (value, length int, err error) {
	if err := s.requireOpt("getsockopt"); err != nil {
		return 0, 0, err
	}
	return s.Opt.GetInt(descriptor, level, name)
}

// SetSockOptTimeval implements setsockopt(SO_SNDTIMEO|SO_RCVTIMEO).
func (s *Stack) SetSockOptTimeval(descriptor int, name sockopt.Name, tv sockopt.TimevalMS, length int) error {
	if err := s.requireOpt("setsockopt"); err != nil {
		return err
	}
	return s.Opt.SetTimeval(descriptor, name, tv, length)
}

// GetSockOptTimeval implements getsockopt(SO_SNDTIMEO|SO_RCVTIMEO).
func (s *Stack) GetSockOptTimeval(descriptor int, name sockopt.Name) (sockopt.TimevalMS, int, error) {
	if err := s.requireOpt("getsockopt"); err != nil {
		return sockopt.TimevalMS{}, 0, err
	}
	return s.Opt.GetTimeval(descriptor, name)
}

// JoinGroup/LeaveGroup/JoinSourceGroup/LeaveSourceGroup/BlockSource/
// UnblockSource/GetFilter expose the RFC 3376/3678 membership family
// as typed methods rather than raw setsockopt() byte buffers: this is
// an in-process Go facade, not a C ABI, so ip_mreq/group_req payloads
// never need to exist as bytes -- only socktab.Socket.Mcast's own
// representation does (spec §4.3, §4.4).

// JoinGroup implements IP_ADD_MEMBERSHIP/IPV6_ADD_MEMBERSHIP/MCAST_JOIN_GROUP.
func (s *Stack) JoinGroup(descriptor, ifaceIndex int, group addr.Addr) error {
	if err := s.requireOpt("setsockopt(join)"); err != nil {
		return err
	}
	return s.Opt.SetGroup(descriptor, ifaceIndex, sockopt.MCAST_JOIN_GROUP, group)
}

// LeaveGroup implements IP_DROP_MEMBERSHIP/IPV6_DROP_MEMBERSHIP/MCAST_LEAVE_GROUP.
func (s *Stack) LeaveGroup(descriptor, ifaceIndex int, group addr.Addr) error {
	if err := s.requireOpt("setsockopt(leave)"); err != nil {
		return err
	}
	return s.Opt.SetGroup(descriptor, ifaceIndex, sockopt.MCAST_LEAVE_GROUP, group)
}

// JoinSourceGroup implements IP_ADD_SOURCE_MEMBERSHIP/MCAST_JOIN_SOURCE_GROUP.
func (s *Stack) JoinSourceGroup(descriptor, ifaceIndex int, group, src addr.Addr) error {
	if err := s.requireOpt("setsockopt(join-source)"); err != nil {
		return err
	}
	return s.Opt.SetSourceMembership(descriptor, ifaceIndex, sockopt.MCAST_JOIN_SOURCE_GROUP, group, src)
}

// LeaveSourceGroup implements IP_DROP_SOURCE_MEMBERSHIP/MCAST_LEAVE_SOURCE_GROUP.
func (s *Stack) LeaveSourceGroup(descriptor, ifaceIndex int, group, src addr.Addr) error {
	if err := s.requireOpt("setsockopt(leave-source)"); err != nil {
		return err
	}
	return s.Opt.SetSourceMembership(descriptor, ifaceIndex, sockopt.MCAST_LEAVE_SOURCE_GROUP, group, src)
}

// BlockSource implements IP_BLOCK_SOURCE/MCAST_BLOCK_SOURCE.
func (s *Stack) BlockSource(descriptor, ifaceIndex int, group, src addr.Addr) error {
	if err := s.requireOpt("setsockopt(block)"); err != nil {
		return err
	}
	return s.Opt.SetSourceMembership(descriptor, ifaceIndex, sockopt.MCAST_BLOCK_SOURCE, group, src)
}

// UnblockSource implements IP_UNBLOCK_SOURCE/MCAST_UNBLOCK_SOURCE.
func (s *Stack) UnblockSource(descriptor, ifaceIndex int, group, src addr.Addr) error {
	if err := s.requireOpt("setsockopt(unblock)"); err != nil {
		return err
	}
	return s.Opt.SetSourceMembership(descriptor, ifaceIndex, sockopt.MCAST_UNBLOCK_SOURCE, group, src)
}

// GetFilter implements the RFC 3678 bulk source-filter getter.
func (s *Stack) GetFilter(descriptor int, group addr.Addr) (mcast.Mode, []addr.Addr, error) {
	if err := s.requireOpt("getsockopt(filter)"); err != nil {
		return mcast.Include, nil, err
	}
	return s.Opt.GetFilter(descriptor, group)
}

// Select implements select(..., timeout) (spec §4.7, §6): descriptors
// and want are parallel slices naming which readiness bits each
// descriptor is polled for (the union of read/write/exceptional
// sets, spec §4.7's "a socket appearing in more than one set"). A
// timeout with nothing ready returns n == 0 and a nil error.
func (s *Stack) Select(ctx context.Context, descriptors []int, want []sockmux.Mask, timeout time.Duration) (ready []bool, n int, err error) {
	entries := make([]sockmux.Entry, len(descriptors))
	for i, fd := range descriptors {
		var sock *socktab.Socket
		if getErr := s.Table.Get(fd, func(sk *socktab.Socket) error { sock = sk; return nil }); getErr != nil {
			return nil, 0, getErr
		}
		entries[i] = sockmux.Entry{Waiter: sock, Want: want[i]}
	}
	ready, n, err = sockmux.Select(ctx, entries, timeout)
	if err == sockmux.ErrTimeout {
		err = nil
	}
	return ready, n, err
}
