package nlconn

import (
	"bytes"
	"testing"
)

func TestNewMessageSkeleton(t *testing.T) {
	m := NewMessage(64)
	if m.Len() != headerLen {
		t.Fatalf("Len() = %d, want %d", m.Len(), headerLen)
	}
	h := m.Header()
	if h.Length != headerLen {
		t.Errorf("Header.Length = %d, want %d", h.Length, headerLen)
	}
	if m.Protocol != protoUnset {
		t.Errorf("Protocol = %d, want %d", m.Protocol, protoUnset)
	}
}

func TestMessageAppendGrowsAndAligns(t *testing.T) {
	m := NewMessage(0)
	if err := m.Append([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if m.Len()%alignTo != 0 {
		t.Errorf("Len() = %d is not aligned to %d", m.Len(), alignTo)
	}
	if m.Header().Length != uint32(m.Len()) {
		t.Errorf("Header.Length = %d, want %d", m.Header().Length, m.Len())
	}

	payload := m.Payload()
	if !bytes.Equal(payload[:3], []byte{1, 2, 3}) {
		t.Errorf("Payload()[:3] = %v, want [1 2 3]", payload[:3])
	}
	if payload[3] != 0 {
		t.Errorf("padding byte = %d, want 0", payload[3])
	}
}

func TestMessageReserveOffsetsSurviveRealloc(t *testing.T) {
	m := NewMessage(0)
	off1, err := m.reserve(4, alignTo)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	m.buf[off1] = 0xAA

	// Force growth well past the original capacity.
	off2, err := m.reserve(256, alignTo)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if m.buf[off1] != 0xAA {
		t.Errorf("value at offset %d was lost after growth", off1)
	}
	if off2 <= off1 {
		t.Errorf("second offset %d should be past first %d", off2, off1)
	}
}

func TestMessageReserveRejectsNegativeLength(t *testing.T) {
	m := NewMessage(0)
	if _, err := m.reserve(-1, alignTo); err != ErrRange {
		t.Errorf("reserve(-1) err = %v, want ErrRange", err)
	}
}

func TestPutHeaderReservesPayload(t *testing.T) {
	m := NewMessage(0)
	if err := m.PutHeader(42, 7, MinType, 8, Request); err != nil {
		t.Fatalf("PutHeader: %v", err)
	}
	if len(m.Payload()) != 8 {
		t.Errorf("len(Payload()) = %d, want 8", len(m.Payload()))
	}
	h := m.Header()
	if h.PortID != 42 || h.Sequence != 7 || h.Type != MinType || h.Flags != Request {
		t.Errorf("Header = %+v, unexpected", h)
	}
}

func TestSetDestOverridesDefault(t *testing.T) {
	m := NewMessage(0)
	if m.destSet {
		t.Fatal("destSet should default to false")
	}
	m.SetDest(Address{PortID: 99})
	if !m.destSet || m.DestAddr.PortID != 99 {
		t.Errorf("SetDest did not take effect: destSet=%v DestAddr=%+v", m.destSet, m.DestAddr)
	}
}

func TestSetCredentials(t *testing.T) {
	m := NewMessage(0)
	if m.HasCredentials() {
		t.Fatal("HasCredentials() should default to false")
	}
	m.SetCredentials(Credentials{PID: 1, UID: 2, GID: 3})
	if !m.HasCredentials() {
		t.Fatal("HasCredentials() should be true after SetCredentials")
	}
	if *m.Credentials != (Credentials{PID: 1, UID: 2, GID: 3}) {
		t.Errorf("Credentials = %+v, unexpected", *m.Credentials)
	}
}

func TestFrameIterWalksMultipleFrames(t *testing.T) {
	var buf []byte
	for _, seq := range []uint32{1, 2, 3} {
		frame := make([]byte, headerLen)
		putHeader(frame, Header{Length: headerLen, Type: MinType, Sequence: seq})
		buf = append(buf, frame...)
	}

	it := newFrameIter(buf)
	var seqs []uint32
	for {
		h, _, ok := it.next()
		if !ok {
			break
		}
		seqs = append(seqs, h.Sequence)
	}

	if len(seqs) != 3 || seqs[0] != 1 || seqs[1] != 2 || seqs[2] != 3 {
		t.Errorf("seqs = %v, want [1 2 3]", seqs)
	}
}

func TestFrameIterStopsOnMalformedHeader(t *testing.T) {
	buf := make([]byte, headerLen)
	putHeader(buf, Header{Length: 3}) // below headerLen: malformed

	it := newFrameIter(buf)
	if _, _, ok := it.next(); ok {
		t.Error("next() should report ok=false for a malformed header")
	}
}

func TestFrameIterStopsOnShortRemainder(t *testing.T) {
	buf := make([]byte, headerLen-1)
	it := newFrameIter(buf)
	if _, _, ok := it.next(); ok {
		t.Error("next() should report ok=false when fewer than headerLen bytes remain")
	}
}
