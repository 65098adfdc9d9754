package nlconn

// headerLen is the fixed on-wire size of a Header, in octets.
const headerLen = 16

// alignTo is the alignment unit for frames and TLV attributes.
const alignTo = 4

// AutoPort and AutoSeq are sentinel header fields completed by
// Endpoint.SendAuto.
const (
	AutoPort uint32 = 0
	AutoSeq  uint32 = 0
)

// HeaderFlags are the bits carried in Header.Flags.
type HeaderFlags uint16

const (
	// Request marks a message as a request to the peer.
	Request HeaderFlags = 1
	// Multi marks one frame of a multipart batch, terminated by a Done frame.
	Multi HeaderFlags = 2
	// AckRequest asks the peer to acknowledge receipt with an Error frame
	// carrying a zero code.
	AckRequest HeaderFlags = 4
	// Echo asks the peer to echo the request back to the sender.
	Echo HeaderFlags = 8
	// DumpIntr marks a dump batch that was interrupted and may be
	// inconsistent.
	DumpIntr HeaderFlags = 16
	// DumpFiltered marks a dump that was filtered as requested.
	DumpFiltered HeaderFlags = 32
	// AckTLVs marks the presence of extended-acknowledgement TLVs following
	// an Error frame's fixed fields.
	AckTLVs HeaderFlags = 0x200
)

// String renders the set flags for diagnostics.
func (f HeaderFlags) String() string {
	names := []struct {
		bit  HeaderFlags
		name string
	}{
		{Request, "request"},
		{Multi, "multi"},
		{AckRequest, "ack-request"},
		{Echo, "echo"},
		{DumpIntr, "dump-intr"},
		{DumpFiltered, "dump-filtered"},
		{AckTLVs, "ack-tlvs"},
	}

	var s string
	left := f
	for _, n := range names {
		if f&n.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
			left &^= n.bit
		}
	}
	if s == "" && left == 0 {
		return "0"
	}
	if left != 0 {
		if s != "" {
			s += "|"
		}
		s += hex16(uint16(left))
	}
	return s
}

func hex16(v uint16) string {
	const digits = "0123456789abcdef"
	buf := [6]byte{'0', 'x', '0', '0', '0', '0'}
	for i := 0; i < 4; i++ {
		buf[5-i] = digits[(v>>(4*uint(i)))&0xf]
	}
	return string(buf[:])
}

// HeaderType identifies the kind of frame a Header describes. Values below
// 0x10 are reserved terminators/controls understood by the receive state
// machine; family-specific message types start at 0x10, matching the
// convention documented in original_source/lib/nl.c.
type HeaderType uint16

const (
	// Noop means no action was taken for this frame.
	Noop HeaderType = 0x1
	// ErrorType carries a signed error code; zero means "ack".
	ErrorType HeaderType = 0x2
	// Done terminates a multipart batch.
	Done HeaderType = 0x3
	// Overrun indicates data was lost before this frame.
	Overrun HeaderType = 0x4
	// MinType is the first type value available to family payloads.
	MinType HeaderType = 0x10
)

// String renders the type for diagnostics.
func (t HeaderType) String() string {
	switch t {
	case Noop:
		return "noop"
	case ErrorType:
		return "error"
	case Done:
		return "done"
	case Overrun:
		return "overrun"
	default:
		return "type(" + uitoa(uint(t)) + ")"
	}
}

func uitoa(v uint) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Header is the fixed 16-octet frame header shared by every message on the
// wire. Its memory layout matches the kernel's native header for this
// transport (length, type, flags, sequence, port id), native-endian.
type Header struct {
	// Length is the total size of the frame, header included, in octets.
	Length uint32
	// Type identifies the frame's payload kind.
	Type HeaderType
	// Flags modifies how the frame should be interpreted.
	Flags HeaderFlags
	// Sequence is the frame's sequence number, meaningful modulo 2^32.
	Sequence uint32
	// PortID identifies the sending endpoint.
	PortID uint32
}

// align4 rounds n up to the next multiple of 4.
func align4(n int) int {
	return (n + alignTo - 1) &^ (alignTo - 1)
}

// msgSize returns the total frame size for a payload of the given length.
func msgSize(payload int) int {
	return headerLen + payload
}

// totalSize returns msgSize rounded up to the alignment unit.
func totalSize(payload int) int {
	return align4(msgSize(payload))
}

// padlen returns the number of padding octets appended after a payload of
// the given length to reach the alignment unit.
func padlen(payload int) int {
	return totalSize(payload) - msgSize(payload)
}
