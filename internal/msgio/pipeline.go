package msgio

import (
	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/socktab"
)

// StreamTransport is the byte-stream half of the out-of-scope
// transport engine (spec §4.5: "delegate to transport send"). Defined
// here, not in internal/sockconn, so this package stays a one-way
// dependent of socktab only (sockconn will depend on msgio, not the
// reverse).
type StreamTransport interface {
	StreamSend(descriptor int, buf []byte, dontRoute bool) (n int, status errno.Status)
	StreamRecv(descriptor int, buf []byte, peek bool) (n int, status errno.Status)
}

// DatagramTransport is the packet half: one send/recv per call, with
// the destination/source endpoint and ancillary overrides the
// sendmsg/recvmsg contract needs (spec §4.5).
type DatagramTransport interface {
	SendDatagram(descriptor int, buf []byte, dst addr.Endpoint, ctrl Control, dontRoute bool) (n int, status errno.Status)
}

// Pipeline implements spec §4.5's send/recv/sendto/recvfrom and
// sendmsg/recvmsg over a socket table, dispatching byte delivery to
// whichever transport half applies to the socket's Kind.
type Pipeline struct {
	Table  *socktab.Table
	Stream StreamTransport
	Dgram  DatagramTransport
}

// NewPipeline builds a Pipeline. Either transport may be nil; calls
// that would need it then fail with EOPNOTSUPP instead of panicking.
func NewPipeline(table *socktab.Table, stream StreamTransport, dgram DatagramTransport) *Pipeline {
	return &Pipeline{Table: table, Stream: stream, Dgram: dgram}
}

// Send implements stream send (spec §4.5): delegates to the transport,
// returning bytes actually written. A partial write on timeout is
// reported as a short count, not an error; zero written on timeout is
// reported as the timeout error itself.
func (p *Pipeline) Send(descriptor int, buf []byte, flags Flags) (n int, err error) {
	if p.Stream == nil {
		return 0, errno.New("send", errno.EOPNOTSUPP, nil)
	}
	var sock *socktab.Socket
	getErr := p.Table.Get(descriptor, func(s *socktab.Socket) error { sock = s; return nil })
	if getErr != nil {
		return 0, getErr
	}
	if sock.Kind != socktab.Stream {
		return 0, errno.New("send", errno.EINVAL, nil)
	}
	blocking := sock.Timeout != 0 && !flags.Has(MSG_DONTWAIT)
	written, status := p.Stream.StreamSend(descriptor, buf, flags.Has(MSG_DONTROUTE))
	if status == errno.StatusOK || (status == errno.StatusTimeout && written > 0) {
		return written, nil
	}
	return written, errno.FromStatus("send", status, blocking, nil)
}

// Recv implements stream recv. End-of-stream and peer reset both
// surface as zero bytes with no error, matching "for receive" in spec
// §4.5's send/recv asymmetry note.
func (p *Pipeline) Recv(descriptor int, buf []byte, flags Flags) (n int, err error) {
	if p.Stream == nil {
		return 0, errno.New("recv", errno.EOPNOTSUPP, nil)
	}
	var sock *socktab.Socket
	if getErr := p.Table.Get(descriptor, func(s *socktab.Socket) error { sock = s; return nil }); getErr != nil {
		return 0, getErr
	}
	if sock.Kind != socktab.Stream {
		return 0, errno.New("recv", errno.EINVAL, nil)
	}
	blocking := sock.Timeout != 0 && !flags.Has(MSG_DONTWAIT)
	got, status := p.Stream.StreamRecv(descriptor, buf, flags.Has(MSG_PEEK))
	switch status {
	case errno.StatusOK, errno.StatusEndOfStream, errno.StatusConnectionReset:
		return got, nil
	default:
		return got, errno.FromStatus("recv", status, blocking, nil)
	}
}

// SendTo implements datagram/raw send with an explicit destination
// (spec §4.5: "for stream, the destination is ignored").
func (p *Pipeline) SendTo(descriptor int, buf []byte, dst addr.Endpoint, flags Flags) (n int, err error) {
	var sock *socktab.Socket
	if getErr := p.Table.Get(descriptor, func(s *socktab.Socket) error { sock = s; return nil }); getErr != nil {
		return 0, getErr
	}
	if sock.Kind == socktab.Stream {
		return p.Send(descriptor, buf, flags)
	}
	if p.Dgram == nil {
		return 0, errno.New("sendto", errno.EOPNOTSUPP, nil)
	}
	blocking := sock.Timeout != 0 && !flags.Has(MSG_DONTWAIT)
	ctrl := defaultControl(sock)
	written, status := p.Dgram.SendDatagram(descriptor, buf, dst, ctrl, flags.Has(MSG_DONTROUTE))
	if status == errno.StatusOK {
		return written, nil
	}
	return written, errno.FromStatus("sendto", status, blocking, nil)
}

// RecvFrom implements datagram/raw recv, popping (or, under MSG_PEEK,
// only inspecting) the socket's own receive queue -- spec §3's
// singly-linked buffered-packet list, owned by socktab.
func (p *Pipeline) RecvFrom(descriptor int, buf []byte, flags Flags) (n int, src addr.Endpoint, err error) {
	var (
		rec  *socktab.PacketRecord
		sock *socktab.Socket
	)
	getErr := p.Table.Get(descriptor, func(s *socktab.Socket) error {
		sock = s
		if flags.Has(MSG_PEEK) {
			rec = s.RxQueue.Head
		} else {
			rec = s.RxQueue.Pop()
		}
		return nil
	})
	if getErr != nil {
		return 0, addr.Endpoint{}, getErr
	}
	if rec == nil {
		blocking := sock.Timeout != 0 && !flags.Has(MSG_DONTWAIT)
		return 0, addr.Endpoint{}, errno.FromStatus("recvfrom", errno.StatusTimeout, blocking, nil)
	}
	n = copy(buf, rec.Data)
	return n, rec.Src, nil
}

// SendMsg implements sendmsg (spec §4.5): exactly one iovec segment,
// destination decoded from msg.name, control records walked and
// applied to an outgoing Control overlay.
func (p *Pipeline) SendMsg(descriptor int, msg Msghdr, flags Flags) (n int, err error) {
	if len(msg.Iov) != 1 {
		return 0, errno.New("sendmsg", errno.EINVAL, nil)
	}
	records, parseErr := parseRecords(msg.Control)
	if parseErr != nil {
		return 0, errno.New("sendmsg", errno.EFAULT, parseErr)
	}
	ctrl := decodeControl(records)

	var sock *socktab.Socket
	if getErr := p.Table.Get(descriptor, func(s *socktab.Socket) error { sock = s; return nil }); getErr != nil {
		return 0, getErr
	}
	if sock.Kind == socktab.Stream {
		return p.Send(descriptor, msg.Iov[0], flags)
	}
	if p.Dgram == nil {
		return 0, errno.New("sendmsg", errno.EOPNOTSUPP, nil)
	}
	blocking := sock.Timeout != 0 && !flags.Has(MSG_DONTWAIT)
	written, status := p.Dgram.SendDatagram(descriptor, msg.Iov[0], msg.Name, ctrl, flags.Has(MSG_DONTROUTE))
	if status == errno.StatusOK {
		return written, nil
	}
	return written, errno.FromStatus("sendmsg", status, blocking, nil)
}

// RecvMsg implements recvmsg (spec §4.5): symmetric to SendMsg, popping
// the receive queue and building ancillary records for whichever
// options are enabled on the socket, truncating the control buffer
// rather than failing when it is too small.
func (p *Pipeline) RecvMsg(descriptor int, msg *Msghdr, flags Flags) (n int, err error) {
	if len(msg.Iov) != 1 {
		return 0, errno.New("recvmsg", errno.EINVAL, nil)
	}
	n, src, recvErr := p.RecvFrom(descriptor, msg.Iov[0], flags)
	if recvErr != nil {
		return 0, recvErr
	}
	msg.Name = src

	var sock *socktab.Socket
	_ = p.Table.Get(descriptor, func(s *socktab.Socket) error { sock = s; return nil })

	ob := outboundFor(sock, src)
	ctrlBuf, truncated := encodeReply(len(msg.Control), src.Addr.Family() == addr.V4, ob)
	msg.Control = ctrlBuf
	if truncated {
		msg.Flags |= MSG_CTRUNC
	}
	return n, nil
}

func defaultControl(sock *socktab.Socket) Control { return Control{} }

// outboundFor derives which ancillary records recvmsg must produce
// from the socket's enabled option bits (spec §4.5 recvmsg: "PKTINFO
// if set, RECVTOS/RECVTCLASS if set, RECVTTL/RECVHOPLIMIT if set").
func outboundFor(sock *socktab.Socket, src addr.Endpoint) outbound {
	v4 := src.Addr.Family() == addr.V4
	var ob outbound
	if v4 {
		ob.wantTTL = sock.Options.Has(socktab.BitIPv4RecvTTL)
		ob.wantToS = sock.Options.Has(socktab.BitIPv4RecvToS)
		ob.wantPktInfo = sock.Options.Has(socktab.BitIPv4PktInfo)
	} else {
		ob.wantTTL = sock.Options.Has(socktab.BitIPv6RecvHopLimit)
		ob.wantToS = sock.Options.Has(socktab.BitIPv6RecvTrafficClass)
		ob.wantPktInfo = sock.Options.Has(socktab.BitIPv6PktInfo)
	}
	ob.ttl = sock.UnicastTTL
	ob.tos = sock.ToS
	if sock.Iface != nil {
		ob.ifIndex = sock.Iface.Index
	}
	return ob
}

// Msghdr is this pipeline's in-memory projection of struct msghdr
// (spec §4.5, §6): exactly one iovec segment (this core does not
// scatter-gather multi-segment, per spec), a destination/source
// endpoint, a raw control buffer, and output flags.
type Msghdr struct {
	Iov     [][]byte
	Name    addr.Endpoint
	Control []byte
	Flags   Flags
}
