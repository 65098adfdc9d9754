package nlconn

// flags on Message.flags (internal bookkeeping, distinct from Header.Flags).
const (
	msgFlagCreds uint32 = 1 << iota
)

// protoUnset is the sentinel Message.Protocol value meaning "not yet
// assigned"; set by Endpoint on send and on receive.
const protoUnset = -1

// Message is an owned, mutable container for one frame: a Header followed
// by its payload. It is used both to build outgoing frames and to hold a
// frame copied out of a received datagram.
//
// A Message owns its buffer exclusively until it is freed or handed to the
// send path, which never retains it (spec.md §3, "Lifecycles").
type Message struct {
	buf []byte

	// Protocol is the transport family this message belongs to. -1 means
	// unset; Endpoint fills it in on Send and on Recv.
	Protocol int

	// SourceAddr is the sender of a received message. DestAddr is used by
	// Endpoint.Send only after SetDest has been called; otherwise Send
	// uses the endpoint's peer address.
	SourceAddr Address
	DestAddr   Address

	// Credentials is attached when the message carries (outbound) or
	// carried (inbound) an SCM_CREDENTIALS ancillary record.
	Credentials *Credentials

	flags    uint32
	destSet  bool
}

// SetDest overrides the message's destination address; by default a
// message is sent to the owning endpoint's peer (spec.md §4.3).
func (m *Message) SetDest(addr Address) {
	m.DestAddr = addr
	m.destSet = true
}

// NewMessage allocates a Message with room for the given payload size,
// initializing the header skeleton. It corresponds to nlmsg_alloc /
// nlmsg_alloc_size in original_source/lib/msg.c.
func NewMessage(payloadHint int) *Message {
	if payloadHint < 0 {
		payloadHint = 0
	}
	m := &Message{
		buf:      make([]byte, headerLen, totalSize(payloadHint)),
		Protocol: protoUnset,
	}
	putHeader(m.buf[:headerLen], Header{Length: headerLen})
	return m
}

// newMessageFromFrame builds a Message that owns a copy of one already
// length-validated frame taken from a received buffer.
func newMessageFromFrame(frame []byte) *Message {
	m := &Message{
		buf:      make([]byte, len(frame)),
		Protocol: protoUnset,
	}
	copy(m.buf, frame)
	return m
}

// Free releases the message's buffer. It is a no-op beyond letting the
// buffer become garbage; provided for symmetry with nlmsg_free and to mark
// the point past which m must not be used.
func (m *Message) Free() {
	m.buf = nil
}

// Bytes returns the full encoded frame (header plus payload). For a
// message built with NewMessage/Append/PutHeader it is aligned to the
// alignment unit; a message copied from a received frame keeps that
// frame's declared length. The returned slice aliases the Message's
// internal buffer and is invalidated by any subsequent mutating call.
func (m *Message) Bytes() []byte {
	return m.buf
}

// Header decodes and returns the message's current header fields.
func (m *Message) Header() Header {
	return getHeader(m.buf[:headerLen])
}

// Payload returns the payload octets following the header, aliasing the
// internal buffer.
func (m *Message) Payload() []byte {
	return m.buf[headerLen:]
}

// Len returns the total buffer length, which always equals header.Length.
// For messages built with NewMessage/Append/PutHeader it is also a multiple
// of the alignment unit (spec.md §8 invariant 1); a message copied from a
// received frame keeps that frame's declared, possibly unaligned, length.
func (m *Message) Len() int {
	return len(m.buf)
}

// setHeaderLength overwrites only the Length field of the header in place.
func (m *Message) setHeaderLength(n uint32) {
	putUint32(m.buf[0:4], n)
}

// reserve grows the buffer by align(length, pad) octets if pad>0, else by
// exactly length octets, zeroes the newly reserved region (including any
// trailing alignment padding), updates the header's Length field, and
// returns the offset at which the caller should write. It corresponds to
// nlmsg_reserve in original_source/lib/msg.c.
//
// Per spec.md §4.1 and §8 invariant 2: after reserve grows the buffer, any
// previously obtained offsets into the payload remain valid (offsets, not
// pointers, survive reallocation) but any previously captured byte slices
// may have been invalidated by reallocation and must be re-sliced from
// Bytes()/Payload().
func (m *Message) reserve(length int, pad int) (offset int, err error) {
	if length < 0 {
		return 0, ErrRange
	}

	grow := length
	if pad > 0 {
		grow = align(length, pad)
	}

	offset = len(m.buf)
	newLen := offset + grow
	if newLen < offset {
		return 0, ErrOutOfMemory
	}

	if cap(m.buf) >= newLen {
		m.buf = m.buf[:newLen]
	} else {
		nb := make([]byte, newLen)
		copy(nb, m.buf)
		m.buf = nb
	}

	// Zero the newly reserved region, including alignment padding beyond
	// the requested length.
	for i := offset; i < newLen; i++ {
		m.buf[i] = 0
	}

	m.setHeaderLength(uint32(newLen))
	return offset, nil
}

// align rounds n up to the next multiple of pad. pad must be a power of
// two; callers only ever pass alignTo.
func align(n, pad int) int {
	return (n + pad - 1) &^ (pad - 1)
}

// Append reserves len(data) octets, padded to the alignment unit, and
// copies data into the newly reserved region. It corresponds to
// nlmsg_append in original_source/lib/msg.c.
func (m *Message) Append(data []byte) error {
	off, err := m.reserve(len(data), alignTo)
	if err != nil {
		return err
	}
	copy(m.buf[off:off+len(data)], data)
	return nil
}

// PutHeader overwrites the message's header fields and, if payload is
// nonzero, reserves align4(payload) additional octets for the caller to
// fill via Append or direct access to Payload(). It corresponds to
// nlmsg_put in original_source/lib/msg.c. PutHeader requires the buffer
// already hold at least the header skeleton, which every construction path
// (NewMessage) guarantees.
func (m *Message) PutHeader(port, seq uint32, typ HeaderType, payload int, flags HeaderFlags) error {
	if len(m.buf) < headerLen {
		return ErrRange
	}
	h := Header{
		Length:   uint32(len(m.buf)),
		Type:     typ,
		Flags:    flags,
		Sequence: seq,
		PortID:   port,
	}
	putHeader(m.buf[:headerLen], h)

	if payload > 0 {
		if _, err := m.reserve(payload, alignTo); err != nil {
			return err
		}
	}
	return nil
}

// SetCredentials attaches credentials to be sent as an ancillary record
// alongside this message.
func (m *Message) SetCredentials(c Credentials) {
	m.Credentials = &c
	m.flags |= msgFlagCreds
}

// HasCredentials reports whether the message carries credentials.
func (m *Message) HasCredentials() bool {
	return m.flags&msgFlagCreds != 0 && m.Credentials != nil
}

// frameHeaderOK reports whether the first headerLen bytes of buf describe a
// well-formed frame given remaining octets still available in the stream,
// per spec.md §4.1: remaining >= 16, header.Length >= 16, header.Length <=
// remaining.
func frameHeaderOK(buf []byte, remaining int) (Header, bool) {
	if remaining < headerLen || len(buf) < headerLen {
		return Header{}, false
	}
	h := getHeader(buf[:headerLen])
	if h.Length < headerLen || int(h.Length) > remaining {
		return Header{}, false
	}
	return h, true
}

// frameIter walks a raw byte stream containing zero or more frames,
// advancing by align4(header.Length) and decrementing remaining on each
// call to next, per spec.md §4.1.
type frameIter struct {
	buf       []byte
	remaining int
}

// newFrameIter starts iteration over buf, a datagram of the given length.
func newFrameIter(buf []byte) *frameIter {
	return &frameIter{buf: buf, remaining: len(buf)}
}

// next returns the next well-formed frame's header and payload slice, or
// ok=false once the stream is exhausted or malformed.
func (it *frameIter) next() (h Header, frame []byte, ok bool) {
	if it.remaining <= 0 {
		return Header{}, nil, false
	}
	off := len(it.buf) - it.remaining
	h, ok = frameHeaderOK(it.buf[off:], it.remaining)
	if !ok {
		return Header{}, nil, false
	}
	adv := align4(int(h.Length))
	frame = it.buf[off : off+int(h.Length)]
	if adv > it.remaining {
		adv = it.remaining
	}
	it.remaining -= adv
	return h, frame, true
}
