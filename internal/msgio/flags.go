// Package msgio implements the transport-agnostic send/receive
// pipeline (spec §4.5, "C5"): send/recv/sendto/recvfrom, sendmsg/
// recvmsg with ancillary control data, and the MSG_* flag translation
// table.
//
// The ancillary-data walk is grounded directly on
// github.com/dantte-lp/gobfd's internal/netio/rawsock_linux.go
// (parseControlMessages/parseTTLMessage/parsePktInfoMessage), lifted
// from "parse what the kernel handed back for GTSM" to a general
// cmsghdr reader/writer built on the same
// golang.org/x/sys/unix.CmsgLen/CmsgSpace/ParseSocketControlMessage
// primitives gobfd uses, per this repository's choice not to add a
// separate ancillary-data library.
package msgio

// Flags is the per-call MSG_* flag bitset (spec §4.5).
type Flags uint32

const (
	MSG_DONTROUTE Flags = 1 << iota
	MSG_PEEK
	MSG_WAITALL
	MSG_DONTWAIT
	MSG_CTRUNC // recvmsg output flag: control buffer was truncated
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
