package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/sockconn"
	"github.com/embedstack/socketcore/internal/socktab"
)

// Transport is the single concrete implementation backing every
// out-of-scope transport hook this module defines: sockconn.Transport,
// msgio.StreamTransport/DatagramTransport, sockopt.BroadcastSetter and
// mcast.GroupController. One instance serves the whole process; the
// descriptor keys it tracks are handed out by socktab.Table, so the
// two stay in lock-step without Transport needing its own numbering.
//
// Grounded on gobfd's internal/netio.LinuxPacketConn, which wraps one
// net.UDPConn with unix.SetsockoptInt calls for TTL/PKTINFO and
// ancillary-data parsing. This type generalizes that single BFD
// listener into the full stream-and-datagram contract spec §6 names.
type Transport struct {
	mu sync.Mutex

	boundLocal map[int]addr.Endpoint
	streams    map[int]*net.TCPConn
	listeners  map[int]*net.TCPListener
	backlog    map[int]chan acceptedConn
	datagrams  map[int]*net.UDPConn
	table      *socktab.Table

	mcast4 *ipv4.PacketConn
	mcast6 *ipv6.PacketConn

	ports *PortAllocator

	nextFake atomic.Int64
}

type acceptedConn struct {
	conn *net.TCPConn
	peer addr.Endpoint
}

// NewTransport returns a Transport with its own ephemeral port pool.
func NewTransport() *Transport {
	return &Transport{
		boundLocal: make(map[int]addr.Endpoint),
		streams:    make(map[int]*net.TCPConn),
		listeners:  make(map[int]*net.TCPListener),
		backlog:    make(map[int]chan acceptedConn),
		datagrams:  make(map[int]*net.UDPConn),
		ports:      NewPortAllocator(),
	}
}

// Bind implements sockconn.Transport.Bind (spec §4.4). Real socket
// creation is deferred to Listen/Connect/first datagram send: bind()
// only reserves the address the way the kernel's bind() does before a
// stream socket has decided whether it will listen() or connect().
func (t *Transport) Bind(descriptor int, local addr.Endpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.boundLocal[descriptor] = local
	return nil
}

// Connect implements sockconn.Transport.Connect (spec §4.4): dials a
// real TCP connection, honoring ctx cancellation/deadline the way
// non-blocking connect()'s EINPROGRESS-then-poll contract expects.
func (t *Transport) Connect(ctx context.Context, descriptor int, remote addr.Endpoint) errno.Status {
	t.mu.Lock()
	local, hasLocal := t.boundLocal[descriptor]
	t.mu.Unlock()

	dialer := net.Dialer{}
	if hasLocal {
		dialer.LocalAddr = endpointToTCPAddr(local)
	}
	conn, err := dialer.DialContext(ctx, "tcp", endpointToTCPAddr(remote).String())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errno.StatusTimeout
		}
		if errors.Is(err, context.Canceled) {
			return errno.StatusTimeout
		}
		return errno.StatusConnectionRefused
	}

	t.mu.Lock()
	t.streams[descriptor] = conn.(*net.TCPConn)
	t.mu.Unlock()
	return errno.StatusOK
}

// Listen implements sockconn.Transport.Listen (spec §4.4): opens a
// real TCP listener on the address bind() reserved and starts an
// accept loop feeding a channel sized by backlog, mirroring the
// kernel's bounded SYN-accept-queue semantics.
func (t *Transport) Listen(descriptor int, backlog int) error {
	t.mu.Lock()
	local := t.boundLocal[descriptor]
	t.mu.Unlock()

	ln, err := net.ListenTCP("tcp", endpointToTCPAddr(local))
	if err != nil {
		return err
	}
	if backlog <= 0 {
		backlog = 1
	}
	queue := make(chan acceptedConn, backlog)

	t.mu.Lock()
	t.listeners[descriptor] = ln
	t.backlog[descriptor] = queue
	t.mu.Unlock()

	go func() {
		for {
			conn, err := ln.AcceptTCP()
			if err != nil {
				return
			}
			select {
			case queue <- acceptedConn{conn: conn, peer: netAddrToEndpoint(conn.RemoteAddr())}:
			default:
				conn.Close()
			}
		}
	}()
	return nil
}

// Accept implements sockconn.Transport.Accept (spec §4.4):
// non-blocking drain of whatever the Listen goroutine has queued.
func (t *Transport) Accept(descriptor int) (newDescriptor int, peer addr.Endpoint, status errno.Status) {
	t.mu.Lock()
	queue := t.backlog[descriptor]
	t.mu.Unlock()
	if queue == nil {
		return 0, addr.Endpoint{}, errno.StatusNotSupported
	}

	select {
	case accepted := <-queue:
		fd := int(t.nextFake.Add(1)) | (1 << 24)
		t.mu.Lock()
		t.streams[fd] = accepted.conn
		t.mu.Unlock()
		return fd, accepted.peer, errno.StatusOK
	default:
		return 0, addr.Endpoint{}, errno.StatusWouldBlock
	}
}

// Shutdown implements sockconn.Transport.Shutdown (spec §4.4):
// half-close or full teardown of whichever real conn this descriptor
// holds, releasing its ephemeral port back to the pool.
func (t *Transport) Shutdown(descriptor int, how sockconn.How) error {
	t.mu.Lock()
	stream, hasStream := t.streams[descriptor]
	dgram, hasDgram := t.datagrams[descriptor]
	ln, hasListener := t.listeners[descriptor]
	local, hasLocal := t.boundLocal[descriptor]
	t.mu.Unlock()

	var err error
	switch {
	case hasStream:
		switch how {
		case sockconn.ShutdownReceive:
			err = stream.CloseRead()
		case sockconn.ShutdownSend:
			err = stream.CloseWrite()
		default:
			err = stream.Close()
			t.mu.Lock()
			delete(t.streams, descriptor)
			t.mu.Unlock()
		}
	case hasDgram:
		err = dgram.Close()
		t.mu.Lock()
		delete(t.datagrams, descriptor)
		t.mu.Unlock()
	case hasListener:
		err = ln.Close()
		t.mu.Lock()
		delete(t.listeners, descriptor)
		delete(t.backlog, descriptor)
		t.mu.Unlock()
	}

	if hasLocal {
		t.ports.Release(local.Port)
	}
	return err
}
