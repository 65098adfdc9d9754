package nlconn

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// HookType enumerates the interception points a CallbackSet may bind, per
// spec.md §4.2.
type HookType int

const (
	HookValid HookType = iota
	HookFinish
	HookOverrun
	HookSkipped
	HookAck
	HookMsgIn
	HookMsgOut
	HookInvalid
	HookSeqCheck
	HookSendAck
	HookDumpIntr

	hookCount
)

// Action is the return code produced by a non-error hook, steering the
// receive loop.
type Action int

const (
	// ActionOK means proceed.
	ActionOK Action = 0
	// ActionSkip means drop the current frame and continue the loop.
	ActionSkip Action = -1
	// ActionStop means end the receive loop successfully.
	ActionStop Action = -2
)

// HookFunc is a user-supplied hook. msg is the frame under consideration
// (nil for hooks that do not receive one, such as the error hook's use of
// ErrFunc instead). arg is the opaque per-hook user argument bound at Set
// time. A return value among {ActionOK, ActionSkip, ActionStop} steers the
// loop; any other negative value is treated as a library error code and
// aborts the loop (spec.md §4.2).
type HookFunc func(msg *Message, arg any) Action

// ErrFunc is the dedicated error-hook signature, invoked for a peer-
// reported nonzero error code (spec.md §4.4 step h, "ERROR with nonzero
// inner code").
type ErrFunc func(source Address, code error, arg any) Action

// Kind selects the default behavior of a hook slot at allocation time.
type Kind int

const (
	// Default leaves the slot empty; the built-in receive/send path
	// applies the per-hook default documented in spec.md §4.2's table.
	Default Kind = iota
	// Verbose binds a diagnostic writer that logs a one-line summary of
	// each frame via logrus, then falls through to the per-hook default
	// return code.
	Verbose
	// Debug binds a diagnostic writer that logs a full field dump of each
	// frame via logrus at Debug level.
	Debug
	// Custom marks a slot bound to a user-supplied function.
	Custom
)

type hookEntry struct {
	kind Kind
	fn   HookFunc
	arg  any
}

type overrideFuncs struct {
	send      func(e *Endpoint, m *Message) (int, error)
	recv      func(e *Endpoint, addr *Address, buf *[]byte, creds *Credentials) (int, error)
	recvmsgs  func(e *Endpoint, cb *CallbackSet) (int, error)
}

// CallbackSet is the ordered, reference-counted table of hooks consulted by
// the send and receive paths, per spec.md §4.2. The zero value is not
// usable; construct with Alloc.
type CallbackSet struct {
	mu sync.Mutex

	hooks [hookCount]hookEntry

	errKind Kind
	errFn   ErrFunc
	errArg  any

	overrides overrideFuncs

	refcount int
}

// Alloc constructs a CallbackSet with refcount 1. kind selects the default
// function applied to every hook slot (Default leaves every slot empty).
// It corresponds to nl_cb_alloc in original_source/lib/handlers.c.
func Alloc(kind Kind) *CallbackSet {
	cb := &CallbackSet{refcount: 1}
	for i := range cb.hooks {
		cb.hooks[i] = hookEntry{kind: kind}
	}
	cb.errKind = kind
	return cb
}

// Set binds hook to a Custom function with the given user argument.
// Overwriting a previously bound slot is silent (there is no global debug
// channel to warn through; see SPEC_FULL.md §4).
func (cb *CallbackSet) Set(hook HookType, fn HookFunc, arg any) error {
	if hook < 0 || hook >= hookCount {
		return ErrRange
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.hooks[hook] = hookEntry{kind: Custom, fn: fn, arg: arg}
	return nil
}

// SetKind rebinds hook to one of the non-Custom presets (Default, Verbose,
// Debug), clearing any previously bound function.
func (cb *CallbackSet) SetKind(hook HookType, kind Kind) error {
	if hook < 0 || hook >= hookCount {
		return ErrRange
	}
	if kind == Custom {
		return ErrRange
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.hooks[hook] = hookEntry{kind: kind}
	return nil
}

// SetAll applies kind (and, for Custom, fn/arg) to every hook slot at once.
func (cb *CallbackSet) SetAll(kind Kind, fn HookFunc, arg any) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	for i := range cb.hooks {
		cb.hooks[i] = hookEntry{kind: kind, fn: fn, arg: arg}
	}
}

// Err binds the dedicated error hook.
func (cb *CallbackSet) Err(kind Kind, fn ErrFunc, arg any) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.errKind = kind
	cb.errFn = fn
	cb.errArg = arg
}

// OverrideSend replaces the entire send stage. A nil fn restores the
// built-in implementation.
func (cb *CallbackSet) OverrideSend(fn func(e *Endpoint, m *Message) (int, error)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.overrides.send = fn
}

// OverrideRecv replaces the entire recv stage.
func (cb *CallbackSet) OverrideRecv(fn func(e *Endpoint, addr *Address, buf *[]byte, creds *Credentials) (int, error)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.overrides.recv = fn
}

// OverrideRecvMsgs replaces the entire recvmsgs stage.
func (cb *CallbackSet) OverrideRecvMsgs(fn func(e *Endpoint, cb *CallbackSet) (int, error)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.overrides.recvmsgs = fn
}

// Clone produces an independent CallbackSet with its own refcount of 1,
// copying every slot's current binding. It corresponds to nl_cb_clone.
func (cb *CallbackSet) Clone() *CallbackSet {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	out := &CallbackSet{
		hooks:     cb.hooks,
		errKind:   cb.errKind,
		errFn:     cb.errFn,
		errArg:    cb.errArg,
		overrides: cb.overrides,
		refcount:  1,
	}
	return out
}

// Get increments the refcount and returns cb, for callers that want to
// share ownership explicitly.
func (cb *CallbackSet) Get() *CallbackSet {
	cb.mu.Lock()
	cb.refcount++
	cb.mu.Unlock()
	return cb
}

// Put decrements the refcount. Per spec.md §9's open-question resolution,
// calling Put at refcount zero returns ErrRange instead of asserting/
// panicking (the source's nl_cb_put decrements first and asserts on a
// negative result; undefined behavior under concurrent misuse).
func (cb *CallbackSet) Put() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.refcount <= 0 {
		return ErrRange
	}
	cb.refcount--
	return nil
}

func (cb *CallbackSet) entry(hook HookType) hookEntry {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.hooks[hook]
}

// defaultAction is the fallback Action applied when a hook slot is
// Default-kind (empty), per spec.md §4.2's table.
func defaultAction(hook HookType) Action {
	switch hook {
	case HookFinish, HookOverrun, HookAck, HookInvalid:
		return ActionStop
	case HookSkipped:
		return ActionSkip
	default:
		return ActionOK
	}
}

// invoke runs hook against msg, applying Verbose/Debug diagnostic writers
// or a Custom function, and falling back to defaultAction when the slot is
// Default (empty).
func (cb *CallbackSet) invoke(hook HookType, msg *Message) Action {
	e := cb.entry(hook)
	switch e.kind {
	case Custom:
		if e.fn == nil {
			return defaultAction(hook)
		}
		return e.fn(msg, e.arg)
	case Verbose:
		logVerbose(hook, msg)
		return defaultAction(hook)
	case Debug:
		logDebug(hook, msg)
		return defaultAction(hook)
	default:
		return defaultAction(hook)
	}
}

// invokeErr runs the dedicated error hook for a peer-reported nonzero
// error code.
func (cb *CallbackSet) invokeErr(source Address, code error) Action {
	cb.mu.Lock()
	kind, fn, arg := cb.errKind, cb.errFn, cb.errArg
	cb.mu.Unlock()

	switch kind {
	case Custom:
		if fn == nil {
			return ActionStop
		}
		return fn(source, code, arg)
	case Verbose, Debug:
		logrus.WithField("peer", source.PortID).Warnf("nlconn: peer error: %v", code)
		return ActionStop
	default:
		return ActionStop
	}
}

func logVerbose(hook HookType, msg *Message) {
	if msg == nil {
		logrus.Infof("nlconn: hook=%v", hookName(hook))
		return
	}
	h := msg.Header()
	logrus.Infof("nlconn: hook=%v type=%v flags=%v seq=%d port=%d len=%d",
		hookName(hook), h.Type, h.Flags, h.Sequence, h.PortID, h.Length)
}

func logDebug(hook HookType, msg *Message) {
	if msg == nil {
		logrus.Debugf("nlconn: hook=%v (no message)", hookName(hook))
		return
	}
	h := msg.Header()
	logrus.WithFields(logrus.Fields{
		"hook":   hookName(hook),
		"type":   h.Type,
		"flags":  h.Flags,
		"seq":    h.Sequence,
		"port":   h.PortID,
		"length": h.Length,
		"bytes":  msg.Bytes(),
	}).Debug("nlconn: frame")
}

func hookName(h HookType) string {
	switch h {
	case HookValid:
		return "valid"
	case HookFinish:
		return "finish"
	case HookOverrun:
		return "overrun"
	case HookSkipped:
		return "skipped"
	case HookAck:
		return "ack"
	case HookMsgIn:
		return "msg_in"
	case HookMsgOut:
		return "msg_out"
	case HookInvalid:
		return "invalid"
	case HookSeqCheck:
		return "seq_check"
	case HookSendAck:
		return "send_ack"
	case HookDumpIntr:
		return "dump_intr"
	default:
		return "unknown"
	}
}
