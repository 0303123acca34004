package transport

import "golang.org/x/sys/unix"

// peekFD reads buf's worth of bytes from fd without consuming them,
// the way MSG_PEEK does on recv(); net.Conn has no such method, so
// StreamRecv's peek path drops to the raw fd via SyscallConn.Read.
func peekFD(fd uintptr, buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(int(fd), buf, unix.MSG_PEEK)
	if err != nil {
		return 0, err
	}
	return n, nil
}
