package nlconn

import "testing"

func TestAllocFillsEveryHookWithKind(t *testing.T) {
	cb := Alloc(Verbose)
	for h := HookType(0); h < hookCount; h++ {
		if cb.entry(h).kind != Verbose {
			t.Errorf("hook %v kind = %v, want Verbose", h, cb.entry(h).kind)
		}
	}
	if cb.errKind != Verbose {
		t.Errorf("errKind = %v, want Verbose", cb.errKind)
	}
}

func TestSetBindsCustomHook(t *testing.T) {
	cb := Alloc(Default)
	called := false
	if err := cb.Set(HookValid, func(m *Message, arg any) Action {
		called = true
		return ActionOK
	}, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if act := cb.invoke(HookValid, nil); act != ActionOK {
		t.Errorf("invoke() = %v, want ActionOK", act)
	}
	if !called {
		t.Error("custom hook was not invoked")
	}
}

func TestSetRejectsOutOfRangeHook(t *testing.T) {
	cb := Alloc(Default)
	if err := cb.Set(hookCount, nil, nil); err != ErrRange {
		t.Errorf("err = %v, want ErrRange", err)
	}
}

func TestDefaultActionTable(t *testing.T) {
	tests := []struct {
		hook HookType
		want Action
	}{
		{HookValid, ActionOK},
		{HookFinish, ActionStop},
		{HookOverrun, ActionStop},
		{HookSkipped, ActionSkip},
		{HookAck, ActionStop},
		{HookMsgIn, ActionOK},
		{HookInvalid, ActionStop},
	}
	for _, tt := range tests {
		if got := defaultAction(tt.hook); got != tt.want {
			t.Errorf("defaultAction(%v) = %v, want %v", tt.hook, got, tt.want)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cb := Alloc(Default)
	_ = cb.Set(HookValid, func(m *Message, arg any) Action { return ActionSkip }, nil)

	clone := cb.Clone()
	_ = clone.Set(HookValid, func(m *Message, arg any) Action { return ActionStop }, nil)

	if got := cb.invoke(HookValid, nil); got != ActionSkip {
		t.Errorf("original invoke() = %v, want ActionSkip (clone should not alias)", got)
	}
	if got := clone.invoke(HookValid, nil); got != ActionStop {
		t.Errorf("clone invoke() = %v, want ActionStop", got)
	}
}

func TestGetPutRefcounting(t *testing.T) {
	cb := Alloc(Default)
	cb.Get()
	if err := cb.Put(); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := cb.Put(); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if err := cb.Put(); err != ErrRange {
		t.Errorf("Put at refcount 0 = %v, want ErrRange", err)
	}
}

func TestOverrideSendRoundTrip(t *testing.T) {
	cb := Alloc(Default)
	if cb.overrides.send != nil {
		t.Fatal("overrides.send should start nil")
	}
	cb.OverrideSend(func(e *Endpoint, m *Message) (int, error) { return 1, nil })
	if cb.overrides.send == nil {
		t.Error("OverrideSend did not bind a function")
	}
}
