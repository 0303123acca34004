//go:build integration

package integration_test

import (
	"testing"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/mcast"
	"github.com/embedstack/socketcore/internal/sockconn"
	"github.com/embedstack/socketcore/internal/sockconn/sockconntest"
	"github.com/embedstack/socketcore/internal/socket"
	"github.com/embedstack/socketcore/internal/socktab"
)

type fixedPorts struct{ next uint16 }

func (p *fixedPorts) AllocateEphemeralPort(int) (uint16, error) {
	p.next++
	return p.next, nil
}

func newTestStack(t *testing.T) (*socket.Stack, *sockconntest.Loopback) {
	t.Helper()
	loop := sockconntest.NewLoopback()
	table := socktab.New(8, socktab.DefaultBufferLimits, &fixedPorts{next: 1024}, nil)
	conn := sockconn.NewConn(table, loop)
	return socket.NewStack(table, nil, nil, conn, nil), loop
}

// TestSocketLifecycle drives open/bind/connect/accept/close across the
// facade the way bfd's server used to drive AddSession/GetSession/
// DeleteSession over ConnectRPC: no RPC layer here since socketcore
// has no sessions to serialize, just the POSIX-like API surface itself.
func TestSocketLifecycle(t *testing.T) {
	stack, loop := newTestStack(t)

	listenerFD, err := stack.Socket(socktab.Stream, 0)
	if err != nil {
		t.Fatalf("socket: %v", err)
	}

	local := addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 9000}
	if err := stack.Bind(listenerFD, local); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := stack.Listen(listenerFD, 4); err != nil {
		t.Fatalf("listen: %v", err)
	}

	peer := addr.Endpoint{Addr: addr.V4FromBytes([4]byte{10, 0, 0, 5}), Port: 4242}
	fakeFD := loop.Offer(listenerFD, peer)

	newFD, got, err := stack.Accept(listenerFD)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if newFD != fakeFD {
		t.Errorf("accept descriptor = %d, want %d", newFD, fakeFD)
	}
	if got.Addr != peer.Addr || got.Port != peer.Port {
		t.Errorf("accept peer = %+v, want %+v", got, peer)
	}

	if err := stack.Close(newFD); err != nil {
		t.Errorf("close accepted: %v", err)
	}
	if err := stack.Close(listenerFD); err != nil {
		t.Errorf("close listener: %v", err)
	}

	open := 0
	stack.Table.ForEach(func(*socktab.Socket) { open++ })
	if open != 0 {
		t.Errorf("open sockets after close = %d, want 0", open)
	}
}

// TestMulticastEngineIncludeExclude exercises RFC 3376/3678 semantics
// through mcast.Engine, the component the old BFD datapath test's
// bridgeSender equivalent doesn't apply to -- socketcore has no
// sessions, so membership state is the thing worth driving end-to-end.
func TestMulticastEngineIncludeExclude(t *testing.T) {
	engine := mcast.NewEngine(mcast.Bounds{MaxGroups: 4, MaxSources: 4})
	set := &mcast.Set{}

	group := addr.V4FromBytes([4]byte{224, 0, 0, 5})
	src := addr.V4FromBytes([4]byte{192, 0, 2, 1})
	other := addr.V4FromBytes([4]byte{192, 0, 2, 2})

	if err := engine.AddSource(set, group, src); err != nil {
		t.Fatalf("add source: %v", err)
	}

	if !engine.Accept(set, group, src) {
		t.Error("expected source to be accepted after include add")
	}
	if engine.Accept(set, group, other) {
		t.Error("expected non-member source to be rejected under include mode")
	}

	if err := engine.DropSource(set, group, src); err != nil {
		t.Fatalf("drop source: %v", err)
	}
	if engine.Accept(set, group, src) {
		t.Error("expected source to be rejected after include set emptied")
	}
}
