package nlconn

import (
	"errors"
	"testing"
)

func buildFrame(seq uint32, typ HeaderType, flags HeaderFlags, payload []byte) []byte {
	total := totalSize(len(payload))
	buf := make([]byte, total)
	putHeader(buf, Header{Length: uint32(msgSize(len(payload))), Type: typ, Flags: flags, Sequence: seq, PortID: 1})
	copy(buf[headerLen:], payload)
	return buf
}

func errorPayload(code int32) []byte {
	b := make([]byte, 4)
	putInt32(b, code)
	return b
}

func TestRecvMsgsReportAck(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(50, ErrorType, 0, errorPayload(0)),
	}

	n, err := e.RecvMsgsReport(nil)
	if err != nil {
		t.Fatalf("RecvMsgsReport: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if e.stats.Acks != 1 {
		t.Errorf("stats.Acks = %d, want 1", e.stats.Acks)
	}
	if e.seqExpc != 51 {
		t.Errorf("seqExpc = %d, want 51", e.seqExpc)
	}
}

func TestRecvMsgsReportNack(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(50, ErrorType, 0, errorPayload(-2)),
	}

	_, err := e.RecvMsgsReport(nil)
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %v, want *OpError", err)
	}
	if e.stats.Nacks != 1 {
		t.Errorf("stats.Nacks = %d, want 1", e.stats.Nacks)
	}
}

func TestRecvMsgsReportSeqMismatch(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(999, ErrorType, 0, errorPayload(0)),
	}

	_, err := e.RecvMsgsReport(nil)
	if err != ErrSeqMismatch {
		t.Errorf("err = %v, want ErrSeqMismatch", err)
	}
}

func TestRecvMsgsReportSeqMismatchIgnoredWhenAutoAckDisabled(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50
	e.DisableAutoAck(true)

	tp.recvQueue = [][]byte{
		buildFrame(999, ErrorType, 0, errorPayload(0)),
	}

	_, err := e.RecvMsgsReport(nil)
	if err != nil {
		t.Errorf("err = %v, want nil (strict seq check disabled)", err)
	}
}

func TestRecvMsgsReportMultipartAcrossDatagrams(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(50, MinType, Multi, []byte{1, 2, 3, 4}),
		buildFrame(50, Done, 0, nil),
	}

	n, err := e.RecvMsgsReport(nil)
	if err != nil {
		t.Fatalf("RecvMsgsReport: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1 (multipart continuation frames aren't counted)", n)
	}
	if e.seqExpc != 51 {
		t.Errorf("seqExpc = %d, want 51 (advanced only by Done)", e.seqExpc)
	}
}

func TestRecvMsgsReportSingleValidTerminates(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(50, MinType, 0, []byte{9, 9}),
	}

	n, err := e.RecvMsgsReport(nil)
	if err != nil {
		t.Fatalf("RecvMsgsReport: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestRecvMsgsReportOverrun(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(50, Overrun, 0, nil),
	}

	_, err := e.RecvMsgsReport(nil)
	if err != ErrMsgOverflow {
		t.Errorf("err = %v, want ErrMsgOverflow", err)
	}
}

func TestRecvMsgsReportDumpInterrupted(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50

	tp.recvQueue = [][]byte{
		buildFrame(50, MinType, DumpIntr, []byte{1}),
	}

	_, err := e.RecvMsgsReport(nil)
	if err != ErrDumpInterrupted {
		t.Errorf("err = %v, want ErrDumpInterrupted", err)
	}
}

func TestWaitForAckSucceedsOnZeroCode(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50
	tp.recvQueue = [][]byte{
		buildFrame(50, ErrorType, 0, errorPayload(0)),
	}

	if err := e.WaitForAck(); err != nil {
		t.Errorf("WaitForAck: %v", err)
	}
}

func TestSendSyncReturnsOpErrorOnNack(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = e.seqNext

	tp.recvQueue = [][]byte{
		buildFrame(e.seqNext, ErrorType, 0, errorPayload(-13)),
	}

	err := e.SendSync(NewMessage(0))
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %v, want *OpError", err)
	}
}

func TestPickupCapturesFirstValidFrame(t *testing.T) {
	e, tp := newTestEndpoint()
	e.seqExpc = 50
	tp.recvQueue = [][]byte{
		buildFrame(50, MinType, 0, []byte{1, 2, 3}),
	}

	result, err := e.Pickup(func(m *Message) (any, error) {
		return append([]byte(nil), m.Payload()...), nil
	})
	if err != nil {
		t.Fatalf("Pickup: %v", err)
	}
	got, ok := result.([]byte)
	if !ok || len(got) != 3 || got[0] != 1 {
		t.Errorf("result = %v, want [1 2 3]", result)
	}
}
