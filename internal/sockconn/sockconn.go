// Package sockconn implements connect/bind/listen/accept/shutdown
// (spec §4.6, "C6"): the user-visible errno contract layered over an
// out-of-scope transport engine.
//
// Grounded on github.com/dantte-lp/gobfd's internal/netio.PacketConn
// interface boundary -- the real socket work happens on the other
// side of an interface so this package's own logic (and its tests)
// never need a live NIC.
package sockconn

import (
	"context"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/socktab"
)

// Transport is the out-of-scope TCP/UDP/raw engine's contract: the
// actual wire operations behind connect/bind/listen/accept/shutdown.
// Implemented by internal/transport (the engine cmd/socketcored runs)
// and by sockconntest.Loopback, an in-memory fake for this
// repository's tests.
type Transport interface {
	Bind(descriptor int, local addr.Endpoint) error
	Connect(ctx context.Context, descriptor int, remote addr.Endpoint) errno.Status
	Listen(descriptor int, backlog int) error
	Accept(descriptor int) (newDescriptor int, peer addr.Endpoint, status errno.Status)
	Shutdown(descriptor int, how How) error
}

// How is the shutdown() direction (spec §6).
type How int

const (
	ShutdownReceive How = iota
	ShutdownSend
	ShutdownBoth
)

// Conn dispatches connect/bind/listen/accept/shutdown against a socket
// table and a Transport (spec §4.6).
type Conn struct {
	Table     *socktab.Table
	Transport Transport
}

// NewConn builds a Conn.
func NewConn(table *socktab.Table, transport Transport) *Conn {
	return &Conn{Table: table, Transport: transport}
}

// familyOf reports the address family a bound/connected socket is
// pinned to, derived from its local endpoint once one is set.
func familyOf(sock *socktab.Socket) addr.Family { return sock.Local.Addr.Family() }

// Bind implements bind() (spec §4.6): an address family mismatch with
// the socket's own family is EINVAL.
func (c *Conn) Bind(descriptor int, local addr.Endpoint) error {
	if c.Transport == nil {
		return errno.New("bind", errno.EOPNOTSUPP, nil)
	}
	return c.Table.Get(descriptor, func(s *socktab.Socket) error {
		existing := familyOf(s)
		if existing != addr.Unspec && !local.Addr.IsUnspecified() && existing != local.Addr.Family() {
			return errno.New("bind", errno.EINVAL, nil)
		}
		if err := c.Transport.Bind(descriptor, local); err != nil {
			return err
		}
		s.Local = local
		return nil
	})
}

// Connect implements connect() (spec §4.6): TIMEOUT on a non-blocking
// socket (Timeout == 0) surfaces as EINPROGRESS; on a blocking socket
// it surfaces as ETIMEDOUT.
func (c *Conn) Connect(ctx context.Context, descriptor int, remote addr.Endpoint) error {
	if c.Transport == nil {
		return errno.New("connect", errno.EOPNOTSUPP, nil)
	}
	var timeout socktab.Timeout
	if err := c.Table.Get(descriptor, func(s *socktab.Socket) error { timeout = s.Timeout; return nil }); err != nil {
		return err
	}
	status := c.Transport.Connect(ctx, descriptor, remote)
	if status == errno.StatusOK {
		return c.Table.Get(descriptor, func(s *socktab.Socket) error { s.Remote = remote; return nil })
	}
	blocking := timeout != 0
	if status == errno.StatusTimeout && !blocking {
		return errno.New("connect", errno.EINPROGRESS, nil)
	}
	return errno.FromStatus("connect", status, blocking, nil)
}

// Listen implements listen().
func (c *Conn) Listen(descriptor, backlog int) error {
	if c.Transport == nil {
		return errno.New("listen", errno.EOPNOTSUPP, nil)
	}
	var kind socktab.Kind
	if err := c.Table.Get(descriptor, func(s *socktab.Socket) error { kind = s.Kind; return nil }); err != nil {
		return err
	}
	if kind != socktab.Stream {
		return errno.New("listen", errno.EINVAL, nil)
	}
	return c.Transport.Listen(descriptor, backlog)
}

// Accept implements accept(): an empty backlog queue is EWOULDBLOCK,
// not a plain timeout (spec §4.6 calls this out explicitly, unlike
// the TIMEOUT->EAGAIN/ETIMEDOUT mapping every other blocking op uses).
func (c *Conn) Accept(descriptor int) (newDescriptor int, peer addr.Endpoint, err error) {
	if c.Transport == nil {
		return 0, addr.Endpoint{}, errno.New("accept", errno.EOPNOTSUPP, nil)
	}
	nd, p, status := c.Transport.Accept(descriptor)
	if status == errno.StatusOK {
		return nd, p, nil
	}
	if status == errno.StatusTimeout || status == errno.StatusWouldBlock {
		return 0, addr.Endpoint{}, errno.New("accept", errno.EWOULDBLOCK, nil)
	}
	return 0, addr.Endpoint{}, errno.FromStatus("accept", status, true, nil)
}

// Shutdown implements shutdown(how): how outside {RECEIVE, SEND, BOTH}
// is EINVAL (spec §4.6).
func (c *Conn) Shutdown(descriptor int, how How) error {
	if how != ShutdownReceive && how != ShutdownSend && how != ShutdownBoth {
		return errno.New("shutdown", errno.EINVAL, nil)
	}
	if c.Transport == nil {
		return errno.New("shutdown", errno.EOPNOTSUPP, nil)
	}
	return c.Transport.Shutdown(descriptor, how)
}
