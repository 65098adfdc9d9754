package nlconn

// RecvMsgs drains and processes datagrams from the endpoint using its own
// bound CallbackSet, until a terminating frame or hook action ends the
// loop. It corresponds to nl_recvmsgs in original_source/lib/nl.c.
func (e *Endpoint) RecvMsgs() (int, error) {
	return e.RecvMsgsReport(e.cb)
}

// RecvMsgsReport is RecvMsgs against an explicit CallbackSet, independent
// of the endpoint's bound set, as nl_recvmsgs_report allows callers to
// supply a throwaway set for one exchange (WaitForAck, Pickup). The
// returned count is the number of frames that reached a terminal
// classification: a non-multipart VALID dispatch, an ACK, a NACK, or a
// terminator frame (DONE/OVERRUN) -- multipart continuation frames and
// skipped/NOOP frames are not counted (SPEC_FULL.md §4).
func (e *Endpoint) RecvMsgsReport(cb *CallbackSet) (int, error) {
	if cb == nil {
		cb = e.cb
	}
	if cb != nil {
		cb.mu.Lock()
		ov := cb.overrides.recvmsgs
		cb.mu.Unlock()
		if ov != nil {
			return ov(e, cb)
		}
	}

	total := 0
	interrupted := false
	for {
		_, from, buf, creds, err := e.Recv()
		if err != nil {
			return total, err
		}
		if buf == nil {
			if interrupted {
				return total, ErrDumpInterrupted
			}
			return total, nil
		}

		count, stop, gotInterrupt, err := e.processDatagram(cb, from, buf, creds)
		total += count
		if gotInterrupt {
			interrupted = true
		}
		if err != nil {
			return total, err
		}
		if stop {
			if interrupted {
				return total, ErrDumpInterrupted
			}
			return total, nil
		}
	}
}

// processDatagram walks every frame in one received datagram, dispatching
// each through cb per spec.md §4.4, and reports whether the receive loop
// should stop without reading another datagram. The interrupted return
// value is set once a DumpIntr frame is seen with no DUMP_INTR hook bound,
// so the caller can surface ErrDumpInterrupted on the loop's otherwise
// successful exit instead of silently dropping the interruption.
func (e *Endpoint) processDatagram(cb *CallbackSet, from Address, buf []byte, creds *Credentials) (count int, stop bool, interrupted bool, err error) {
	it := newFrameIter(buf)
	for {
		h, frame, ok := it.next()
		if !ok {
			return count, false, interrupted, nil
		}

		m := newMessageFromFrame(frame)
		m.SourceAddr = from
		m.Protocol = e.protocol
		if creds != nil {
			m.SetCredentials(*creds)
		}

		if cb != nil {
			act := cb.invoke(HookMsgIn, m)
			e.stats.addHookInvocation()
			switch act {
			case ActionSkip:
				continue
			case ActionStop:
				return count, true, interrupted, nil
			case ActionOK:
			default:
				if ferr := actionError(act); ferr != nil {
					return count, true, interrupted, ferr
				}
			}
		}

		switch act := e.checkSeq(cb, m, h); act {
		case ActionSkip:
			continue
		case ActionStop:
			return count, true, interrupted, ErrSeqMismatch
		case ActionOK:
		default:
			if ferr := actionError(act); ferr != nil {
				return count, true, interrupted, ferr
			}
		}

		if h.Flags&DumpIntr != 0 {
			act := defaultAction(HookDumpIntr)
			unbound := cb == nil
			if cb != nil {
				entry := cb.entry(HookDumpIntr)
				if entry.kind == Custom && entry.fn != nil {
					act = entry.fn(m, entry.arg)
				} else if entry.kind != Default {
					act = ActionOK
				} else {
					unbound = true
				}
			}
			if unbound {
				interrupted = true
				e.stats.addDumpInterrupt()
			}
			if ferr := actionError(act); ferr != nil {
				return count, true, interrupted, ferr
			}
			if act == ActionStop {
				return count, true, interrupted, nil
			}
			if act == ActionSkip {
				continue
			}
		}

		if ferr := e.handleAckRequest(cb, from, m, h); ferr != nil {
			return count, true, interrupted, ferr
		}

		c, terminal, ferr := e.classify(cb, from, m, h)
		count += c
		if ferr != nil {
			return count, true, interrupted, ferr
		}
		if terminal {
			return count, true, interrupted, nil
		}
	}
}

// checkSeq applies a Custom SEQ_CHECK hook if bound, else the built-in
// strict check against seq_expect (spec.md §4.4). DisableAutoAck turns off
// the built-in check entirely; a bound Custom hook still runs regardless.
func (e *Endpoint) checkSeq(cb *CallbackSet, m *Message, h Header) Action {
	if cb == nil {
		return ActionOK
	}
	entry := cb.entry(HookSeqCheck)
	if entry.kind == Custom {
		if entry.fn == nil {
			return ActionOK
		}
		return entry.fn(m, entry.arg)
	}
	if e.flags&FlagNoAutoAck != 0 {
		return ActionOK
	}
	if h.Sequence != e.seqExpc {
		return cb.invoke(HookInvalid, m)
	}
	return ActionOK
}

// handleAckRequest dispatches SEND_ACK when the peer set AckRequest on an
// incoming frame, for endpoints acting as a receiver that must acknowledge
// delivery (e.g. a multicast group member). The built-in default is a
// no-op unless EnableAutoSendAck was called (DESIGN.md, "Open Question
// decisions").
func (e *Endpoint) handleAckRequest(cb *CallbackSet, from Address, m *Message, h Header) error {
	if h.Flags&AckRequest == 0 || cb == nil {
		return nil
	}
	entry := cb.entry(HookSendAck)
	if entry.kind == Custom {
		if entry.fn == nil {
			return nil
		}
		return actionError(entry.fn(m, entry.arg))
	}
	if !e.autoSendAck {
		return nil
	}
	return e.sendAck(from, h.Sequence)
}

func (e *Endpoint) sendAck(to Address, seq uint32) error {
	ack := NewMessage(4)
	if err := ack.PutHeader(e.local.PortID, seq, ErrorType, 4, 0); err != nil {
		return err
	}
	putInt32(ack.Payload()[0:4], 0)
	ack.SetDest(to)
	_, err := e.Send(ack)
	return err
}

// classify applies terminator dispatch per spec.md §4.4: DONE, NOOP,
// OVERRUN, truncated/zero/nonzero ERROR, and otherwise VALID data. It
// returns the count delta, whether the loop should stop, and any error.
func (e *Endpoint) classify(cb *CallbackSet, from Address, m *Message, h Header) (int, bool, error) {
	switch {
	case h.Type == Noop:
		e.advanceSeq(true)
		return 0, false, nil

	case h.Type == Done:
		e.advanceSeq(false)
		act := ActionStop
		if cb != nil {
			act = cb.invoke(HookFinish, m)
		}
		if err := actionError(act); err != nil {
			return 1, true, err
		}
		return 1, true, nil

	case h.Type == Overrun:
		e.advanceSeq(false)
		if cb == nil || cb.entry(HookOverrun).kind == Default {
			return 1, true, ErrMsgOverflow
		}
		act := cb.invoke(HookOverrun, m)
		if err := actionError(act); err != nil {
			return 1, true, err
		}
		return 1, act == ActionStop, nil

	case h.Type == ErrorType:
		e.advanceSeq(false)
		payload := m.Payload()
		if len(payload) < 4 {
			return 1, true, ErrMsgTrunc
		}
		code := getInt32(payload[0:4])

		if code == 0 {
			e.stats.addAck()
			act := ActionStop
			if cb != nil {
				act = cb.invoke(HookAck, m)
			}
			if err := actionError(act); err != nil {
				return 1, true, err
			}
			return 1, act == ActionStop, nil
		}

		e.stats.addNack()
		kerr := translateErrno(code)
		opErr := &OpError{Op: "recvmsgs", Addr: from, Err: kerr}
		act := ActionStop
		if cb != nil {
			act = cb.invokeErr(from, opErr)
		}
		switch act {
		case ActionOK:
			return 1, true, nil
		case ActionSkip:
			return 1, false, nil
		default:
			return 1, true, opErr
		}

	default:
		// An ordinary data frame (h.Type >= MinType).
		act := ActionOK
		if cb != nil {
			act = cb.invoke(HookValid, m)
		}
		if err := actionError(act); err != nil {
			return 0, true, err
		}
		if act == ActionSkip {
			return 0, false, nil
		}
		if act == ActionStop {
			return 1, true, nil
		}
		if h.Flags&Multi != 0 {
			return 0, false, nil
		}
		return 1, true, nil
	}
}

// advanceSeq moves seq_expect forward past a terminator-classified frame.
// In strict mode (SetStrictTerminatorSeq) a NOOP does not advance it,
// matching the redesigned policy; the default matches the original's
// behavior of advancing on every terminator type.
func (e *Endpoint) advanceSeq(isNoop bool) {
	if isNoop && e.strictTerminatorSeq {
		return
	}
	e.seqExpc++
}

// WaitForAck blocks for a single ACK or peer-reported error, ignoring the
// endpoint's bound CallbackSet entirely, mirroring nl_wait_for_ack's use of
// a throwaway callback set.
func (e *Endpoint) WaitForAck() error {
	wait := Alloc(Default)
	_, err := e.RecvMsgsReport(wait)
	return err
}

// Pickup runs the receive loop with a fresh CallbackSet whose VALID hook
// captures and parses the first data frame, then stops, corresponding to
// nl_pickup in original_source/lib/nl.c.
func (e *Endpoint) Pickup(parser func(*Message) (any, error)) (any, error) {
	var (
		result   any
		parseErr error
	)
	pick := Alloc(Default)
	_ = pick.Set(HookValid, func(m *Message, _ any) Action {
		result, parseErr = parser(m)
		return ActionStop
	}, nil)

	if _, err := e.RecvMsgsReport(pick); err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return result, nil
}
