package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/msgio"
	"github.com/embedstack/socketcore/internal/sockconn"
	"github.com/embedstack/socketcore/internal/transport"
)

func loopback(port uint16) addr.Endpoint {
	return addr.Endpoint{Addr: addr.V4FromBytes([4]byte{127, 0, 0, 1}), Port: port}
}

func TestTransportStreamRoundTrip(t *testing.T) {
	tr := transport.NewTransport()

	const testPort = 58311
	listenerFD := 1
	if err := tr.Bind(listenerFD, loopback(testPort)); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := tr.Listen(listenerFD, 4); err != nil {
		t.Fatalf("listen: %v", err)
	}

	clientFD := 2
	remote := loopback(testPort)

	status := tr.Connect(context.Background(), clientFD, remote)
	if status != errno.StatusOK {
		t.Fatalf("connect status = %v", status)
	}

	deadline := time.Now().Add(2 * time.Second)
	var serverFD int
	var peer addr.Endpoint
	var acceptStatus errno.Status
	for time.Now().Before(deadline) {
		serverFD, peer, acceptStatus = tr.Accept(listenerFD)
		if acceptStatus == errno.StatusOK {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if acceptStatus != errno.StatusOK {
		t.Fatalf("accept status = %v", acceptStatus)
	}
	if peer.Port == 0 {
		t.Fatal("accepted peer has no port")
	}

	n, sendStatus := tr.StreamSend(clientFD, []byte("ping"), false)
	if sendStatus != errno.StatusOK || n != 4 {
		t.Fatalf("send n=%d status=%v", n, sendStatus)
	}

	buf := make([]byte, 16)
	var got int
	var recvStatus errno.Status
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, recvStatus = tr.StreamRecv(serverFD, buf, false)
		if got > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if recvStatus != errno.StatusOK || string(buf[:got]) != "ping" {
		t.Fatalf("recv got=%q status=%v", buf[:got], recvStatus)
	}

	if err := tr.Shutdown(clientFD, sockconn.ShutdownBoth); err != nil {
		t.Fatalf("shutdown client: %v", err)
	}
	if err := tr.Shutdown(serverFD, sockconn.ShutdownBoth); err != nil {
		t.Fatalf("shutdown server: %v", err)
	}
}

func TestPortAllocatorAllocatesDistinctPorts(t *testing.T) {
	pa := transport.NewPortAllocator()
	seen := map[uint16]bool{}
	for i := 0; i < 50; i++ {
		port, err := pa.AllocateEphemeralPort(0)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if port < transport.EphemeralLow || port > transport.EphemeralHigh {
			t.Fatalf("port %d out of range", port)
		}
		if seen[port] {
			t.Fatalf("port %d allocated twice", port)
		}
		seen[port] = true
	}
}

func TestPortAllocatorReleaseAllowsReuse(t *testing.T) {
	pa := transport.NewPortAllocator()
	port, err := pa.AllocateEphemeralPort(0)
	if err != nil {
		t.Fatal(err)
	}
	pa.Release(port)
	for i := 0; i < transport.EphemeralHigh-transport.EphemeralLow+1; i++ {
		if p, _ := pa.AllocateEphemeralPort(0); p == port {
			return
		}
	}
	t.Fatalf("released port %d never reallocated", port)
}

func TestDatagramSendToSelf(t *testing.T) {
	tr := transport.NewTransport()
	fd := 10
	n, status := tr.SendDatagram(fd, []byte("hi"), loopback(1), msgio.Control{}, false)
	if status != errno.StatusOK || n != 2 {
		t.Fatalf("n=%d status=%v", n, status)
	}
}

func TestStreamSendOnUnknownDescriptorIsNotConnected(t *testing.T) {
	tr := transport.NewTransport()
	_, status := tr.StreamSend(999, []byte("x"), false)
	if status != errno.StatusNotConnected {
		t.Fatalf("status = %v, want StatusNotConnected", status)
	}
}

func TestSetBroadcastOnFreshDescriptor(t *testing.T) {
	tr := transport.NewTransport()
	if err := tr.SetBroadcast(20, true); err != nil {
		t.Fatalf("set broadcast: %v", err)
	}
}
