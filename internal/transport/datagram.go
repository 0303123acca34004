package transport

import (
	"net"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/msgio"
	"github.com/embedstack/socketcore/internal/sockmux"
	"github.com/embedstack/socketcore/internal/socktab"
)

// AttachTable wires the socket table this Transport delivers inbound
// datagrams into. Set once at daemon startup; nil until then, in which
// case datagram sockets can still send but never receive (spec §9:
// acceptable for the send-only demo path, documented rather than
// silently degraded).
func (t *Transport) AttachTable(tbl *socktab.Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table = tbl
}

// SendDatagram implements msgio.DatagramTransport.SendDatagram (spec
// §4.5). The underlying net.UDPConn is opened lazily on first send (or
// first AttachTable-backed receive), mirroring the kernel's deferred
// "implicit bind" for an unbound UDP socket's first send.
func (t *Transport) SendDatagram(descriptor int, buf []byte, dst addr.Endpoint, ctrl msgio.Control, dontRoute bool) (n int, status errno.Status) {
	conn, err := t.datagramConn(descriptor)
	if err != nil {
		return 0, errno.StatusNotConnected
	}
	n, werr := conn.WriteToUDP(buf, endpointToUDPAddr(dst))
	return n, classifyNetError(werr)
}

func (t *Transport) datagramConn(descriptor int) (*net.UDPConn, error) {
	t.mu.Lock()
	if conn, ok := t.datagrams[descriptor]; ok {
		t.mu.Unlock()
		return conn, nil
	}
	local := t.boundLocal[descriptor]
	t.mu.Unlock()

	if local.Port == 0 {
		port, err := t.ports.AllocateEphemeralPort(0)
		if err != nil {
			return nil, err
		}
		local = addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: port}
	}

	conn, err := net.ListenUDP("udp", endpointToUDPAddr(local))
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.datagrams[descriptor] = conn
	t.boundLocal[descriptor] = local
	table := t.table
	t.mu.Unlock()

	if table != nil {
		go t.recvLoop(descriptor, conn, table)
	}
	return conn, nil
}

// recvLoop feeds a live net.UDPConn's datagrams into the socket
// table's own receive queue, the way gobfd's rawsock_linux.go reads
// ancillary data off the wire and hands it to the session layer above
// it. MarkReady wakes anything blocked in select() on this descriptor.
func (t *Transport) recvLoop(descriptor int, conn *net.UDPConn, table *socktab.Table) {
	buf := make([]byte, 65535)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		rec := &socktab.PacketRecord{Data: data, Src: netAddrToEndpoint(raddr)}
		_ = table.Get(descriptor, func(s *socktab.Socket) error {
			s.RxQueue.Push(rec)
			s.MarkReady(sockmux.MaskRead)
			return nil
		})
	}
}
