package nlconn

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

// Endpoint flag bits (spec.md §3).
const (
	FlagBufSizeSet uint32 = 1 << iota
	FlagNoAutoAck
	FlagPassCred
	FlagPeek
)

// defaultBufSize is one page, the default receive buffer size when the
// caller never calls SetBufferSize.
const defaultBufSize = 4096

// Endpoint is a single-owner handle on a netlink-family datagram socket: it
// binds/connects, auto-completes outgoing headers, and drives the send and
// receive paths (spec.md §3, §4.3). It is not safe for concurrent use by
// multiple goroutines (spec.md §5).
type Endpoint struct {
	id xid.ID

	tp transport

	local Address
	peer  Address

	protocol int
	seqNext  uint32
	seqExpc  uint32

	flags   uint32
	bufsize int

	strictTerminatorSeq bool
	autoSendAck         bool

	cb *CallbackSet

	stats Stats
}

// Stats holds running counters observed by the metrics collector
// (metrics/collector.go) and useful for tests/diagnostics.
type Stats struct {
	mu sync.Mutex

	FramesSent     uint64 `nl:"name=frames_sent,prom_type=counter,prom_help='frames written to the peer'"`
	FramesRecv     uint64 `nl:"name=frames_received,prom_type=counter,prom_help='frames read from the peer'"`
	BytesSent      uint64 `nl:"name=bytes_sent,prom_type=counter,prom_help='octets written to the peer'"`
	BytesRecv      uint64 `nl:"name=bytes_received,prom_type=counter,prom_help='octets read from the peer'"`
	Acks           uint64 `nl:"name=acks_received,prom_type=counter,prom_help='zero-code error frames received'"`
	Nacks          uint64 `nl:"name=nacks_received,prom_type=counter,prom_help='nonzero-code error frames received'"`
	DumpsInterrupt uint64 `nl:"name=dumps_interrupted,prom_type=counter,prom_help='multipart dumps flagged DumpIntr'"`
	HooksInvoked   uint64 `nl:"name=hooks_invoked,prom_type=counter,prom_help='MSG_IN and MSG_OUT hook invocations (other hooks are not counted)'"`
}

func (s *Stats) addSent(n int) {
	s.mu.Lock()
	s.FramesSent++
	s.BytesSent += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) addRecv(buf []byte) {
	frames := 0
	it := newFrameIter(buf)
	for {
		if _, _, ok := it.next(); !ok {
			break
		}
		frames++
	}
	s.mu.Lock()
	s.FramesRecv += uint64(frames)
	s.BytesRecv += uint64(len(buf))
	s.mu.Unlock()
}

func (s *Stats) addAck()            { s.mu.Lock(); s.Acks++; s.mu.Unlock() }
func (s *Stats) addNack()           { s.mu.Lock(); s.Nacks++; s.mu.Unlock() }
func (s *Stats) addDumpInterrupt()  { s.mu.Lock(); s.DumpsInterrupt++; s.mu.Unlock() }
func (s *Stats) addHookInvocation() { s.mu.Lock(); s.HooksInvoked++; s.mu.Unlock() }

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		FramesSent:     s.FramesSent,
		FramesRecv:     s.FramesRecv,
		BytesSent:      s.BytesSent,
		BytesRecv:      s.BytesRecv,
		Acks:           s.Acks,
		Nacks:          s.Nacks,
		DumpsInterrupt: s.DumpsInterrupt,
		HooksInvoked:   s.HooksInvoked,
	}
}

// seqSeed is a monotonic-enough per-process starting point for an
// endpoint's sequence counters. Using wall-clock seconds, as
// original_source/lib/nl.c does for its process-wide seed, but computed
// freshly per Endpoint (spec.md §9: "encapsulate per endpoint at
// construction", not shared module state).
func seqSeed() uint32 {
	return uint32(time.Now().Unix())
}

// New allocates an Endpoint that is not yet connected. It allocates a
// Default-kind CallbackSet with refcount 1, matching nl_socket_alloc's
// behavior of allocating a default callback set at socket-allocation time
// (SPEC_FULL.md §4).
func New() *Endpoint {
	seed := seqSeed()
	return &Endpoint{
		id:       xid.New(),
		protocol: protoUnset,
		seqNext:  seed,
		seqExpc:  seed,
		bufsize:  defaultBufSize,
		cb:       Alloc(Default),
	}
}

// ID returns a process-unique identifier for this endpoint instance, used
// as a Prometheus constant label and log-correlation field (SPEC_FULL.md
// §3).
func (e *Endpoint) ID() string { return e.id.String() }

// Callbacks returns the endpoint's current CallbackSet.
func (e *Endpoint) Callbacks() *CallbackSet { return e.cb }

// SetCallbacks replaces the endpoint's CallbackSet, dropping the endpoint's
// reference to the previous one and taking a reference on the new one.
func (e *Endpoint) SetCallbacks(cb *CallbackSet) {
	if e.cb != nil {
		_ = e.cb.Put()
	}
	e.cb = cb.Get()
}

// SetBufferSize overrides the default receive buffer size (one page).
func (e *Endpoint) SetBufferSize(n int) {
	e.bufsize = n
	e.flags |= FlagBufSizeSet
}

// EnableCredentials turns on SCM_CREDENTIALS passing/receiving.
func (e *Endpoint) EnableCredentials(on bool) {
	if on {
		e.flags |= FlagPassCred
	} else {
		e.flags &^= FlagPassCred
	}
}

// DisableAutoAck sets the endpoint flag FlagNoAutoAck: auto-completion no
// longer ORs AckRequest into outgoing headers, and the receive state
// machine skips its built-in strict sequence check (spec.md §4.3/§4.4).
func (e *Endpoint) DisableAutoAck(on bool) {
	if on {
		e.flags |= FlagNoAutoAck
	} else {
		e.flags &^= FlagNoAutoAck
	}
}

// SetPeek enables PEEK|TRUNC datagram sizing on Recv.
func (e *Endpoint) SetPeek(on bool) {
	if on {
		e.flags |= FlagPeek
	} else {
		e.flags &^= FlagPeek
	}
}

// SetStrictTerminatorSeq opts into the redesigned terminator/sequence
// policy (spec.md §9 open question): when on, only DONE/ERROR/OVERRUN
// advance seq_expect, not NOOP. Default (off) matches the original's
// behavior of advancing on every terminator-like type.
func (e *Endpoint) SetStrictTerminatorSeq(on bool) { e.strictTerminatorSeq = on }

// EnableAutoSendAck opts the built-in SEND_ACK path into sending a real ACK
// reply instead of the legacy no-op (spec.md §9 open question).
func (e *Endpoint) EnableAutoSendAck(on bool) { e.autoSendAck = on }

// SetLocalPort overrides the local port id, independent of Connect's
// auto-assignment (SPEC_FULL.md §4, nl_socket_set_local_port).
func (e *Endpoint) SetLocalPort(port uint32) { e.local.PortID = port }

// SetPeerPort overrides the peer port id used as the default send
// destination.
func (e *Endpoint) SetPeerPort(port uint32) { e.peer.PortID = port }

// LocalAddr returns the endpoint's bound local address.
func (e *Endpoint) LocalAddr() Address { return e.local }

// PeerAddr returns the endpoint's default peer address.
func (e *Endpoint) PeerAddr() Address { return e.peer }

// Protocol returns the transport family the endpoint is connected to, or -1
// if not yet connected.
func (e *Endpoint) Protocol() int { return e.protocol }

// Stats returns a snapshot of the endpoint's running counters.
func (e *Endpoint) Stats() Stats { return e.stats.Snapshot() }

// Close releases the transport handle, resets the protocol to unset (-1),
// and drops the endpoint's reference to its callback set. Close is
// idempotent.
func (e *Endpoint) Close() error {
	var err error
	if e.tp != nil {
		err = e.tp.Close()
		e.tp = nil
	}
	e.protocol = protoUnset
	if e.cb != nil {
		_ = e.cb.Put()
		e.cb = nil
	}
	return err
}

// Fd returns the raw descriptor backing this endpoint, for callers that
// need to integrate with an external readiness poller
// (original_source/lib/nl.c's nl_socket_get_fd).
func (e *Endpoint) Fd() (int, error) {
	if e.tp == nil {
		return 0, ErrBadSocket
	}
	return e.tp.Fd(), nil
}

// autoComplete fills sentinel header fields from endpoint state, per
// spec.md §4.3:
//  1. AutoPort -> local port id
//  2. AutoSeq -> seq_next (and increments seq_next)
//  3. unset protocol -> endpoint protocol
//  4. OR in Request
//  5. unless NoAutoAck, OR in AckRequest
//
// Running autoComplete twice on a message whose port/seq are no longer
// sentinels is a no-op (spec.md §8 invariant 5), since steps 1-2 only fire
// on the sentinel values.
func (e *Endpoint) autoComplete(m *Message) {
	h := m.Header()
	changed := false

	if h.PortID == AutoPort {
		h.PortID = e.local.PortID
		changed = true
	}
	if h.Sequence == AutoSeq {
		h.Sequence = e.seqNext
		e.seqNext++
		changed = true
	}
	if m.Protocol == protoUnset {
		m.Protocol = e.protocol
	}
	if h.Flags&Request == 0 {
		h.Flags |= Request
		changed = true
	}
	if e.flags&FlagNoAutoAck == 0 && h.Flags&AckRequest == 0 {
		h.Flags |= AckRequest
		changed = true
	}

	if changed {
		putHeader(m.buf[:headerLen], h)
	}
}

// SendAuto auto-completes m and sends it, invoking the send_override if
// one is bound, else the built-in Send. It corresponds to nl_send_auto.
func (e *Endpoint) SendAuto(m *Message) (int, error) {
	e.autoComplete(m)

	if e.cb != nil {
		e.cb.mu.Lock()
		ov := e.cb.overrides.send
		e.cb.mu.Unlock()
		if ov != nil {
			return ov(e, m)
		}
	}
	return e.Send(m)
}

// Send writes m in one datagram, attaching credentials if m carries them.
// The destination is m's DestAddr if SetDest was called, else the
// endpoint's peer (spec.md §4.3). Send invokes the MSG_OUT hook before
// writing to the transport.
func (e *Endpoint) Send(m *Message) (int, error) {
	if e.tp == nil {
		return 0, ErrBadSocket
	}

	if e.cb != nil {
		act := e.cb.invoke(HookMsgOut, m)
		e.stats.addHookInvocation()
		if err := actionError(act); err != nil {
			return 0, err
		}
	}

	dest := e.peer
	if m.destSet {
		dest = m.DestAddr
	}
	var creds *Credentials
	if m.HasCredentials() {
		creds = m.Credentials
	}

	n, err := e.tp.SendTo(dest, m.Bytes(), creds)
	if err != nil {
		return n, err
	}
	e.stats.addSent(n)
	return n, nil
}

// Recv reads one datagram, using PEEK|TRUNC sizing if the Peek flag is
// set, else a buffer of the endpoint's configured size, retrying
// internally on EINTR and buffer truncation/growth (spec.md §4.3). It
// returns (0, zero Address, nil, nil, nil) on EAGAIN (non-blocking empty).
func (e *Endpoint) Recv() (n int, from Address, buf []byte, creds *Credentials, err error) {
	if e.tp == nil {
		return 0, Address{}, nil, nil, ErrBadSocket
	}
	peek := e.flags&FlagPeek != 0
	wantCreds := e.flags&FlagPassCred != 0

	from, buf, creds, err = e.tp.RecvFrom(e.effectiveBufSize(), peek, wantCreds)
	if err != nil {
		return 0, Address{}, nil, nil, err
	}
	if buf == nil {
		return 0, Address{}, nil, nil, nil
	}
	e.stats.addRecv(buf)
	return len(buf), from, buf, creds, nil
}

func (e *Endpoint) effectiveBufSize() int {
	if e.flags&FlagBufSizeSet != 0 {
		return e.bufsize
	}
	return defaultBufSize
}

// actionError converts a non-steering Action return (i.e. any value other
// than ActionOK/ActionSkip/ActionStop) into an error, per spec.md §4.2:
// "Any negative value is a library error code and aborts the loop".
func actionError(a Action) error {
	switch a {
	case ActionOK, ActionSkip, ActionStop:
		return nil
	default:
		return Error(-int(a))
	}
}

// SendSync auto-completes and sends m, then waits for the peer's
// acknowledgement, freeing m regardless of outcome. It returns 0 on ACK and
// a negative-code-bearing error on NACK (spec.md §4.3, §8 invariant 9).
func (e *Endpoint) SendSync(m *Message) error {
	defer m.Free()

	if _, err := e.SendAuto(m); err != nil {
		return err
	}
	return e.WaitForAck()
}
