package socket

import (
	"github.com/embedstack/socketcore/internal/errno"
	"github.com/embedstack/socketcore/internal/socktab"
)

// IoctlCmd names the ioctl commands spec §6 requires.
type IoctlCmd int

const (
	FIONBIO IoctlCmd = iota
	FIONREAD
	FIONWRITE
	FIONSPACE
)

// Ioctl implements ioctl(fd, cmd, arg) for the four commands spec §6
// names. FIONBIO toggles the non-blocking bit the same way SO_RCVTIMEO
// does (spec §4.3/§6: "translating the non-blocking bit to/from
// timeout=0"); FIONREAD reports the length of the datagram at the head
// of the receive queue. FIONWRITE and FIONSPACE both report the
// socket's send-buffer size (SndBuf), not the send queue's occupancy
// or free space, which the socket table does not track.
func (s *Stack) Ioctl(descriptor int, cmd IoctlCmd, arg int) (result int, err error) {
	err = s.Table.Get(descriptor, func(sock *socktab.Socket) error {
		switch cmd {
		case FIONBIO:
			if arg != 0 {
				sock.Timeout = 0
			} else {
				sock.Timeout = socktab.Infinite
			}
			return nil
		case FIONREAD:
			if sock.Kind == socktab.Stream {
				// Byte-stream occupancy lives in the out-of-scope
				// transport engine's own buffer, not this table.
				return errno.New("ioctl(FIONREAD)", errno.EOPNOTSUPP, nil)
			}
			if rec := sock.RxQueue.Head; rec != nil {
				result = len(rec.Data)
			}
			return nil
		case FIONWRITE:
			result = sock.SndBuf
			return nil
		case FIONSPACE:
			result = sock.SndBuf
			return nil
		default:
			return errno.New("ioctl", errno.EINVAL, nil)
		}
	})
	return result, err
}

// FcntlCmd names the fcntl commands spec §6 requires.
type FcntlCmd int

const (
	F_GETFL FcntlCmd = iota
	F_SETFL
)

// O_NONBLOCK is the one fcntl flag bit this facade recognizes (spec
// §6: "translating the non-blocking bit to/from timeout=0").
const O_NONBLOCK = 1 << 0

// Fcntl implements fcntl(fd, F_GETFL|F_SETFL, arg) (spec §6).
func (s *Stack) Fcntl(descriptor int, cmd FcntlCmd, arg int) (result int, err error) {
	err = s.Table.Get(descriptor, func(sock *socktab.Socket) error {
		switch cmd {
		case F_GETFL:
			if sock.Timeout == 0 {
				result = O_NONBLOCK
			}
			return nil
		case F_SETFL:
			if arg&O_NONBLOCK != 0 {
				sock.Timeout = 0
			} else if sock.Timeout == 0 {
				sock.Timeout = socktab.Infinite
			}
			return nil
		default:
			return errno.New("fcntl", errno.EINVAL, nil)
		}
	})
	return result, err
}
