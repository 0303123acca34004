package transport

import (
	"errors"
	"io"
	"net"
	"os"

	"github.com/embedstack/socketcore/internal/errno"
)

// StreamSend implements msgio.StreamTransport.StreamSend (spec §4.5).
func (t *Transport) StreamSend(descriptor int, buf []byte, dontRoute bool) (n int, status errno.Status) {
	t.mu.Lock()
	conn, ok := t.streams[descriptor]
	t.mu.Unlock()
	if !ok {
		return 0, errno.StatusNotConnected
	}
	n, err := conn.Write(buf)
	return n, classifyNetError(err)
}

// StreamRecv implements msgio.StreamTransport.StreamRecv (spec §4.5).
// peek uses net.TCPConn's SyscallConn to re-read without consuming,
// since the standard library has no MSG_PEEK equivalent on net.Conn.
func (t *Transport) StreamRecv(descriptor int, buf []byte, peek bool) (n int, status errno.Status) {
	t.mu.Lock()
	conn, ok := t.streams[descriptor]
	t.mu.Unlock()
	if !ok {
		return 0, errno.StatusNotConnected
	}
	if !peek {
		n, err := conn.Read(buf)
		if err == io.EOF {
			return n, errno.StatusEndOfStream
		}
		return n, classifyNetError(err)
	}

	var peeked int
	var peekErr error
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, errno.StatusNotSupported
	}
	ctrlErr := raw.Read(func(fd uintptr) bool {
		peeked, peekErr = peekFD(fd, buf)
		return true
	})
	if ctrlErr != nil {
		return 0, errno.StatusNotSupported
	}
	if peekErr == io.EOF {
		return peeked, errno.StatusEndOfStream
	}
	return peeked, classifyNetError(peekErr)
}

// classifyNetError maps a net package error to the internal status
// taxonomy spec §4.5/§7 use throughout the send/recv path.
func classifyNetError(err error) errno.Status {
	if err == nil {
		return errno.StatusOK
	}
	if errors.Is(err, io.EOF) {
		return errno.StatusEndOfStream
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errno.StatusTimeout
	}
	if errors.Is(err, net.ErrClosed) {
		return errno.StatusShutdown
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errno.StatusTimeout
	}
	if errors.Is(err, errConnReset) {
		return errno.StatusConnectionReset
	}
	return errno.StatusConnectionReset
}

var errConnReset = errors.New("connection reset by peer")
