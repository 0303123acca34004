package msgio_test

import (
	"testing"

	"github.com/embedstack/socketcore/internal/addr"
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/msgio"
	"github.com/embedstack/socketcore/internal/socktab"
)

type fixedPorts struct{ next uint16 }

func (p *fixedPorts) AllocateEphemeralPort(int) (uint16, error) {
	p.next++
	return p.next, nil
}

type fakeStream struct {
	sendN      int
	sendStatus errno.Status
	recvN      int
	recvStatus errno.Status
}

func (f *fakeStream) StreamSend(int, []byte, bool) (int, errno.Status) {
	return f.sendN, f.sendStatus
}
func (f *fakeStream) StreamRecv(int, []byte, bool) (int, errno.Status) {
	return f.recvN, f.recvStatus
}

type fakeDgram struct {
	n      int
	status errno.Status
}

func (f *fakeDgram) SendDatagram(int, []byte, addr.Endpoint, msgio.Control, bool) (int, errno.Status) {
	return f.n, f.status
}

func newTable(t *testing.T, kind socktab.Kind) (*socktab.Table, int) {
	t.Helper()
	tbl := socktab.New(2, socktab.DefaultBufferLimits, &fixedPorts{next: 4000}, nil)
	sock, err := tbl.Open(kind, 0)
	if err != nil {
		t.Fatal(err)
	}
	return tbl, sock.Descriptor
}

func TestSendReturnsPartialWriteOnTimeout(t *testing.T) {
	tbl, fd := newTable(t, socktab.Stream)
	p := msgio.NewPipeline(tbl, &fakeStream{sendN: 5, sendStatus: errno.StatusTimeout}, nil)
	n, err := p.Send(fd, make([]byte, 10), 0)
	if err != nil || n != 5 {
		t.Fatalf("n=%d err=%v, want 5/nil", n, err)
	}
}

func TestSendReportsTimeoutErrorWhenNothingWritten(t *testing.T) {
	tbl, fd := newTable(t, socktab.Stream)
	p := msgio.NewPipeline(tbl, &fakeStream{sendN: 0, sendStatus: errno.StatusTimeout}, nil)
	_, err := p.Send(fd, make([]byte, 10), 0)
	if err == nil {
		t.Fatal("want a timeout error when zero bytes were written")
	}
}

func TestRecvReturnsZeroWithNoErrorOnEndOfStream(t *testing.T) {
	tbl, fd := newTable(t, socktab.Stream)
	p := msgio.NewPipeline(tbl, &fakeStream{recvN: 0, recvStatus: errno.StatusEndOfStream}, nil)
	n, err := p.Recv(fd, make([]byte, 10), 0)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v, want 0/nil", n, err)
	}
}

func TestRecvFromPopsQueueInFIFOOrder(t *testing.T) {
	tbl, fd := newTable(t, socktab.Dgram)
	src1 := addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 1}
	src2 := addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 2}
	_ = tbl.Get(fd, func(s *socktab.Socket) error {
		s.RxQueue.Push(&socktab.PacketRecord{Data: []byte("first"), Src: src1})
		s.RxQueue.Push(&socktab.PacketRecord{Data: []byte("second"), Src: src2})
		return nil
	})
	p := msgio.NewPipeline(tbl, nil, nil)
	buf := make([]byte, 16)
	n, got, err := p.RecvFrom(fd, buf, 0)
	if err != nil || string(buf[:n]) != "first" || got.Port != 1 {
		t.Fatalf("n=%d got=%+v err=%v, want first/port1", n, got, err)
	}
	n, got, err = p.RecvFrom(fd, buf, 0)
	if err != nil || string(buf[:n]) != "second" || got.Port != 2 {
		t.Fatalf("n=%d got=%+v err=%v, want second/port2", n, got, err)
	}
}

func TestRecvFromPeekDoesNotConsume(t *testing.T) {
	tbl, fd := newTable(t, socktab.Dgram)
	_ = tbl.Get(fd, func(s *socktab.Socket) error {
		s.RxQueue.Push(&socktab.PacketRecord{Data: []byte("x")})
		return nil
	})
	p := msgio.NewPipeline(tbl, nil, nil)
	buf := make([]byte, 4)
	if _, _, err := p.RecvFrom(fd, buf, msgio.MSG_PEEK); err != nil {
		t.Fatal(err)
	}
	_ = tbl.Get(fd, func(s *socktab.Socket) error {
		if s.RxQueue.Count != 1 {
			t.Fatalf("MSG_PEEK must not remove the record, count=%d", s.RxQueue.Count)
		}
		return nil
	})
}

func TestRecvFromOnEmptyQueueIsTimeout(t *testing.T) {
	tbl, fd := newTable(t, socktab.Dgram)
	p := msgio.NewPipeline(tbl, nil, nil)
	_, _, err := p.RecvFrom(fd, make([]byte, 4), msgio.MSG_DONTWAIT)
	if err == nil {
		t.Fatal("want an error when the receive queue is empty")
	}
}

func TestSendMsgRejectsMultiSegmentIovec(t *testing.T) {
	tbl, fd := newTable(t, socktab.Dgram)
	p := msgio.NewPipeline(tbl, nil, &fakeDgram{})
	_, err := p.SendMsg(fd, msgio.Msghdr{Iov: [][]byte{[]byte("a"), []byte("b")}}, 0)
	if err == nil {
		t.Fatal("want EINVAL for a multi-segment iovec")
	}
}

func TestSendMsgDispatchesSingleSegmentDatagram(t *testing.T) {
	tbl, fd := newTable(t, socktab.Dgram)
	p := msgio.NewPipeline(tbl, nil, &fakeDgram{n: 3, status: errno.StatusOK})
	n, err := p.SendMsg(fd, msgio.Msghdr{Iov: [][]byte{[]byte("abc")}}, 0)
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v, want 3/nil", n, err)
	}
}

func TestRecvMsgSetsCtruncWhenControlBufferTooSmall(t *testing.T) {
	tbl, fd := newTable(t, socktab.Dgram)
	_ = tbl.Get(fd, func(s *socktab.Socket) error {
		s.Options = s.Options.Set(socktab.BitIPv4RecvTTL, true)
		s.Options = s.Options.Set(socktab.BitIPv4RecvToS, true)
		s.RxQueue.Push(&socktab.PacketRecord{
			Data: []byte("payload"),
			Src:  addr.Endpoint{Addr: addr.UnspecifiedV4(), Port: 9},
		})
		return nil
	})
	p := msgio.NewPipeline(tbl, nil, nil)
	msg := msgio.Msghdr{Iov: [][]byte{make([]byte, 16)}, Control: make([]byte, 1)}
	if _, err := p.RecvMsg(fd, &msg, 0); err != nil {
		t.Fatal(err)
	}
	if msg.Flags&msgio.MSG_CTRUNC == 0 {
		t.Fatal("want MSG_CTRUNC when the control buffer cannot hold every enabled record")
	}
}
