package domain

import "testing"

func TestMethodGuardOpeningOnlyAcceptsInitialize(t *testing.T) {
	g := NewMethodGuard()

	if err := g.Check(Opening, "initialize"); err != nil {
		t.Errorf("Check(Opening, initialize) error = %v", err)
	}
	if err := g.Check(Opening, "tools/list"); err == nil {
		t.Error("Check(Opening, tools/list) = nil, want error")
	}
}

func TestMethodGuardAwaitingInitializedOnlyAcceptsNotification(t *testing.T) {
	g := NewMethodGuard()

	if err := g.Check(AwaitingInitialized, "notifications/initialized"); err != nil {
		t.Errorf("Check error = %v", err)
	}
	if err := g.Check(AwaitingInitialized, "tools/call"); err == nil {
		t.Error("Check(AwaitingInitialized, tools/call) = nil, want error")
	}
}

func TestMethodGuardInitializedAcceptsEverything(t *testing.T) {
	g := NewMethodGuard()

	for _, method := range []string{"tools/list", "tools/call", "resources/list", "resources/read", "prompts/list", "prompts/get", "anything/future"} {
		if err := g.Check(Initialized, method); err != nil {
			t.Errorf("Check(Initialized, %s) error = %v", method, err)
		}
	}
}

func TestMethodGuardClosingAndClosedRejectEverything(t *testing.T) {
	g := NewMethodGuard()

	for _, state := range []SessionState{Closing, Closed} {
		if err := g.Check(state, "tools/list"); err == nil {
			t.Errorf("Check(%s, tools/list) = nil, want error", state)
		}
	}
}

func TestMethodGuardAdvance(t *testing.T) {
	g := NewMethodGuard()

	if got := g.Advance(Opening, "initialize"); got != AwaitingInitialized {
		t.Errorf("Advance(Opening, initialize) = %v, want AwaitingInitialized", got)
	}
	if got := g.Advance(AwaitingInitialized, "notifications/initialized"); got != Initialized {
		t.Errorf("Advance(AwaitingInitialized, notifications/initialized) = %v, want Initialized", got)
	}
	if got := g.Advance(Initialized, "tools/call"); got != Initialized {
		t.Errorf("Advance(Initialized, tools/call) = %v, want Initialized", got)
	}
	if got := g.Advance(Opening, "tools/list"); got != Opening {
		t.Errorf("Advance(Opening, tools/list) = %v, want Opening (no transition)", got)
	}
}

func TestSessionStateString(t *testing.T) {
	tests := map[SessionState]string{
		Opening:              "opening",
		AwaitingInitialized:  "awaiting initialized",
		Initialized:          "initialized",
		Closing:              "closing",
		Closed:               "closed",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%v.String() = %s, want %s", int(state), got, want)
		}
	}
}
