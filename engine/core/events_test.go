package core

import "testing"

func TestEventRegisterAndFire(t *testing.T) {
	if !EventSystemInitialize() {
		t.Fatal("event system failed to initialize")
	}
	t.Cleanup(func() { EventSystemShutdown() })

	var got []EventContext
	EventRegister(EVENT_CODE_ASSET_MODIFIED, func(ctx EventContext) {
		got = append(got, ctx)
	})

	fired := EventContext{
		Type: EVENT_CODE_ASSET_MODIFIED,
		Data: &AssetEvent{Path: "assets/brick.png"},
	}
	EventFire(fired)
	// Listeners only see their own code.
	EventFire(EventContext{Type: EVENT_CODE_RESIZED, Data: &SystemEvent{}})

	if len(got) != 1 {
		t.Fatalf("listener ran %d times, want 1", len(got))
	}
	ae, ok := got[0].Data.(*AssetEvent)
	if !ok || ae.Path != "assets/brick.png" {
		t.Errorf("unexpected event payload: %+v", got[0].Data)
	}
}

func TestEventShutdownClearsListeners(t *testing.T) {
	EventSystemInitialize()

	calls := 0
	EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) { calls++ })
	if err := EventSystemShutdown(); err != nil {
		t.Fatal(err)
	}

	EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT})
	if calls != 0 {
		t.Error("listeners must not survive a shutdown")
	}
}
