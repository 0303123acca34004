package addr

import "github.com/embedstack/socketcore/internal/errno"

// errBufferTooSmall and errUnknownFamily back the Ntop/SocketAddress
// boundary checks (spec §4.1, §4.5): callers compare with errors.Is
// against the errno sentinels, not these package-local values.
var (
	errBufferTooSmall = errno.New("ntop", errno.EFAULT, nil)
	errUnknownFamily  = errno.New("ntop", errno.EINVAL, nil)
)
