package transport

import "golang.org/x/sys/unix"

// SetBroadcast implements sockopt.BroadcastSetter (spec §4.3,
// SO_BROADCAST). Grounded on gobfd's applySockOptsCommon, which sets
// socket options through a syscall.RawConn.Control closure rather than
// touching the fd directly.
func (t *Transport) SetBroadcast(descriptor int, enabled bool) error {
	conn, err := t.datagramConn(descriptor)
	if err != nil {
		return err
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		val := 0
		if enabled {
			val = 1
		}
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, val)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return setErr
}
