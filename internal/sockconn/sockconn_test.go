package sockconn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/sockconn"
	"github.com/embedstack/socketcore/internal/sockconn/sockconntest"
	"github.com/embedstack/socketcore/internal/socktab"
)

type fixedPorts struct{ next uint16 }

func (p *fixedPorts) AllocateEphemeralPort(int) (uint16, error) {
	p.next++
	return p.next, nil
}

func newConn(t *testing.T, kind socktab.Kind) (*sockconn.Conn, *sockconntest.Loopback, int) {
	t.Helper()
	tbl := socktab.New(2, socktab.DefaultBufferLimits, &fixedPorts{next: 5000}, nil)
	sock, err := tbl.Open(kind, 0)
	if err != nil {
		t.Fatal(err)
	}
	lb := sockconntest.NewLoopback()
	return sockconn.NewConn(tbl, lb), lb, sock.Descriptor
}

func TestBindRejectsMismatchedFamily(t *testing.T) {
	conn, _, fd := newConn(t, socktab.Dgram)
	v4 := addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 1}
	v6 := addr.Endpoint{Addr: addr.UnspecifiedV6(), Port: 1}
	if err := conn.Bind(fd, v4); err != nil {
		t.Fatal(err)
	}
	err := conn.Bind(fd, v6)
	if !errors.Is(err, errno.Sentinel(errno.EINVAL)) {
		t.Fatalf("err = %v, want EINVAL", err)
	}
}

func TestConnectInProgressOnNonBlockingSocket(t *testing.T) {
	conn, lb, fd := newConn(t, socktab.Stream)
	lb.ConnectFunc(func(context.Context, int, addr.Endpoint) errno.Status { return errno.StatusTimeout })
	err := connectWithTimeout(t, conn, fd, 0)
	if !errors.Is(err, errno.Sentinel(errno.EINPROGRESS)) {
		t.Fatalf("err = %v, want EINPROGRESS", err)
	}
}

func TestConnectTimedOutOnBlockingSocket(t *testing.T) {
	conn, lb, fd := newConn(t, socktab.Stream)
	lb.ConnectFunc(func(context.Context, int, addr.Endpoint) errno.Status { return errno.StatusTimeout })
	err := connectWithTimeout(t, conn, fd, 5000)
	if !errors.Is(err, errno.Sentinel(errno.ETIMEDOUT)) {
		t.Fatalf("err = %v, want ETIMEDOUT", err)
	}
}

func connectWithTimeout(t *testing.T, conn *sockconn.Conn, fd int, timeoutMS int64) error {
	t.Helper()
	_ = conn.Table.Get(fd, func(s *socktab.Socket) error {
		s.Timeout = socktab.Timeout(timeoutMS)
		return nil
	})
	return conn.Connect(context.Background(), fd, addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 7})
}

func TestAcceptOnEmptyBacklogIsEWouldBlock(t *testing.T) {
	conn, _, fd := newConn(t, socktab.Stream)
	if err := conn.Listen(fd, 4); err != nil {
		t.Fatal(err)
	}
	_, _, err := conn.Accept(fd)
	if !errors.Is(err, errno.Sentinel(errno.EWOULDBLOCK)) {
		t.Fatalf("err = %v, want EWOULDBLOCK", err)
	}
}

func TestAcceptReturnsOfferedConnection(t *testing.T) {
	conn, lb, fd := newConn(t, socktab.Stream)
	if err := conn.Listen(fd, 4); err != nil {
		t.Fatal(err)
	}
	peer := addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 42}
	lb.Offer(fd, peer)
	nd, got, err := conn.Accept(fd)
	if err != nil || nd == 0 || got.Port != 42 {
		t.Fatalf("nd=%d got=%+v err=%v", nd, got, err)
	}
}

func TestListenRejectsNonStreamSocket(t *testing.T) {
	conn, _, fd := newConn(t, socktab.Dgram)
	err := conn.Listen(fd, 4)
	if !errors.Is(err, errno.Sentinel(errno.EINVAL)) {
		t.Fatalf("err = %v, want EINVAL", err)
	}
}

func TestShutdownRejectsInvalidHow(t *testing.T) {
	conn, _, fd := newConn(t, socktab.Stream)
	err := conn.Shutdown(fd, sockconn.How(99))
	if !errors.Is(err, errno.Sentinel(errno.EINVAL)) {
		t.Fatalf("err = %v, want EINVAL", err)
	}
}
