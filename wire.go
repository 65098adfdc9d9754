package nlconn

import "encoding/binary"

// wire is the byte order used on this transport: host-native. Linux's
// netlink-family sockets always use host byte order regardless of network
// byte order conventions elsewhere in the stack.
var wire = binary.NativeEndian

func putUint16(b []byte, v uint16) { wire.PutUint16(b, v) }
func putUint32(b []byte, v uint32) { wire.PutUint32(b, v) }
func getUint16(b []byte) uint16    { return wire.Uint16(b) }
func getUint32(b []byte) uint32    { return wire.Uint32(b) }

func putInt32(b []byte, v int32) { wire.PutUint32(b, uint32(v)) }
func getInt32(b []byte) int32    { return int32(wire.Uint32(b)) }

// putHeader encodes h into the first headerLen bytes of b.
func putHeader(b []byte, h Header) {
	putUint32(b[0:4], h.Length)
	putUint16(b[4:6], uint16(h.Type))
	putUint16(b[6:8], uint16(h.Flags))
	putUint32(b[8:12], h.Sequence)
	putUint32(b[12:16], h.PortID)
}

// getHeader decodes the first headerLen bytes of b into a Header.
func getHeader(b []byte) Header {
	return Header{
		Length:   getUint32(b[0:4]),
		Type:     HeaderType(getUint16(b[4:6])),
		Flags:    HeaderFlags(getUint16(b[6:8])),
		Sequence: getUint32(b[8:12]),
		PortID:   getUint32(b[12:16]),
	}
}
