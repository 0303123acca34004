package msgio

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Ancillary record levels/types this pipeline recognizes (spec §4.5
// step 4): a deliberately small subset of IPPROTO_IP/IPPROTO_IPV6
// cmsg types, matching the option bits C3 can enable.
const (
	levelIP   = unix.IPPROTO_IP
	levelIPv6 = unix.IPPROTO_IPV6

	typePktInfo4  = unix.IP_PKTINFO
	typeToS       = unix.IP_TOS
	typeTTL       = unix.IP_TTL
	typeDontFrag4 = unix.IP_MTU_DISCOVER // nearest Linux analogue to a per-packet DF override
	typePktInfo6  = unix.IPV6_PKTINFO
	typeTClass    = unix.IPV6_TCLASS
	typeHopLimit  = unix.IPV6_HOPLIMIT
	typeDontFrag6 = unix.IPV6_DONTFRAG
)

// Control is the decoded ancillary-data overlay for one message (spec
// §4.5 step 4/recvmsg): each field is set only when the corresponding
// cmsg record was present (send) or the corresponding option is
// enabled (recv).
type Control struct {
	HasPktInfo   bool
	PktInfoIface int // outgoing interface index carried by IP(V6)_PKTINFO

	HasToS bool
	ToS    uint8

	HasTTL bool
	TTL    uint8

	HasDontFrag bool
	DontFrag    bool
}

// cmsgRecord is one parsed ancillary record, mirroring
// unix.SocketControlMessage but exposed so pipeline.go can walk a list
// without re-importing x/sys/unix itself.
type cmsgRecord struct {
	Level int
	Type  int
	Data  []byte
}

// parseRecords decodes a raw control buffer using
// unix.ParseSocketControlMessage, exactly as gobfd's parseMeta does.
func parseRecords(buf []byte) ([]cmsgRecord, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	msgs, err := unix.ParseSocketControlMessage(buf)
	if err != nil {
		return nil, err
	}
	out := make([]cmsgRecord, len(msgs))
	for i, m := range msgs {
		out[i] = cmsgRecord{Level: int(m.Header.Level), Type: int(m.Header.Type), Data: m.Data}
	}
	return out, nil
}

// decodeControl applies spec §4.5 step 4's recognized-pair table to a
// parsed record list, silently skipping anything unrecognized.
func decodeControl(records []cmsgRecord) Control {
	var c Control
	for _, r := range records {
		switch {
		case r.Level == levelIP && r.Type == typePktInfo4 && len(r.Data) >= 4:
			c.HasPktInfo = true
			c.PktInfoIface = int(le32(r.Data))
		case r.Level == levelIPv6 && r.Type == typePktInfo6 && len(r.Data) >= 4:
			c.HasPktInfo = true
			c.PktInfoIface = int(le32(r.Data))
		case r.Level == levelIP && r.Type == typeToS && len(r.Data) >= 1:
			c.HasToS, c.ToS = true, r.Data[0]
		case r.Level == levelIPv6 && r.Type == typeTClass && len(r.Data) >= 1:
			c.HasToS, c.ToS = true, r.Data[0]
		case r.Level == levelIP && r.Type == typeTTL && len(r.Data) >= 1:
			c.HasTTL, c.TTL = true, r.Data[0]
		case r.Level == levelIPv6 && r.Type == typeHopLimit && len(r.Data) >= 1:
			c.HasTTL, c.TTL = true, r.Data[0]
		case r.Level == levelIP && r.Type == typeDontFrag4 && len(r.Data) >= 4:
			// IP_MTU_DISCOVER carries an int PMTU-discovery mode, not a
			// single flag byte; any mode other than IP_PMTUDISC_DONT (0)
			// means "set DF", mirroring the v6 boolean record above.
			c.HasDontFrag, c.DontFrag = true, le32(r.Data) != 0
		case r.Level == levelIPv6 && r.Type == typeDontFrag6 && len(r.Data) >= 1:
			c.HasDontFrag, c.DontFrag = true, r.Data[0] != 0
		}
	}
	return c
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// encodeReply builds the outgoing ancillary buffer for recvmsg, one
// record per enabled, applicable field, stopping and reporting
// truncation once space is exhausted (spec §4.5 recvmsg: "If
// insufficient room, set MSG_CTRUNC ... and stop appending").
//
// capBytes is the caller-declared control buffer size; each record
// costs unix.CmsgSpace(len(payload)) bytes, the real kernel alignment
// rule (cmsghdr rounded up to the platform pointer width) this
// pipeline reuses rather than reimplementing.
func encodeReply(capBytes int, v4 bool, c outbound) (buf []byte, truncated bool) {
	type field struct {
		level, typ int
		payload    []byte
	}
	var fields []field
	if c.wantTTL {
		if v4 {
			fields = append(fields, field{levelIP, typeTTL, []byte{c.ttl}})
		} else {
			fields = append(fields, field{levelIPv6, typeHopLimit, []byte{c.ttl}})
		}
	}
	if c.wantToS {
		if v4 {
			fields = append(fields, field{levelIP, typeToS, []byte{c.tos}})
		} else {
			fields = append(fields, field{levelIPv6, typeTClass, []byte{c.tos}})
		}
	}
	if c.wantPktInfo {
		payload := le32Bytes(uint32(c.ifIndex))
		if v4 {
			fields = append(fields, field{levelIP, typePktInfo4, payload})
		} else {
			fields = append(fields, field{levelIPv6, typePktInfo6, payload})
		}
	}

	for _, f := range fields {
		need := unix.CmsgSpace(len(f.payload))
		if len(buf)+need > capBytes {
			return buf, true
		}
		rec := make([]byte, need)
		putCmsghdr(rec, uint64(unix.CmsgLen(len(f.payload))), int32(f.level), int32(f.typ))
		copy(rec[unix.CmsgLen(0):], f.payload)
		buf = append(buf, rec...)
	}
	return buf, false
}

// outbound is the set of ancillary fields recvmsg is asked to produce,
// derived from which C3 options are enabled on the socket.
type outbound struct {
	wantTTL, wantToS, wantPktInfo bool
	ttl, tos                      uint8
	ifIndex                       int
}

func le32Bytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// putCmsghdr writes the cmsghdr fields at the start of rec in the
// amd64 Linux ABI layout unix.Cmsghdr describes (8-byte length word
// followed by two 4-byte ints), matching the layout
// unix.ParseSocketControlMessage expects to read back -- this
// repository, like gobfd's internal/netio/rawsock_linux.go, targets
// Linux only.
func putCmsghdr(rec []byte, length uint64, level, typ int32) {
	binary.NativeEndian.PutUint64(rec[0:8], length)
	binary.NativeEndian.PutUint32(rec[8:12], uint32(level))
	binary.NativeEndian.PutUint32(rec[12:16], uint32(typ))
}
