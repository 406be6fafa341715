package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	// Data is a *SystemEvent carrying the new framebuffer size.
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// A watched asset file changed on disk.
	// Data is an *AssetEvent.
	EVENT_CODE_ASSET_MODIFIED SystemEventCode = 0x03

	// A scene import finished.
	// Data is a *SceneImportedEvent.
	EVENT_CODE_SCENE_IMPORTED SystemEventCode = 0x04

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type AssetEvent struct {
	Path string
}

type SceneImportedEvent struct {
	Path          string
	MaterialCount int
	TextureCount  int
}

type FnOnEvent func(context EventContext)

type eventSystemState struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]FnOnEvent
}

var onceEvent sync.Once
var eventState *eventSystemState

func EventSystemInitialize() bool {
	onceEvent.Do(func() {
		eventState = &eventSystemState{
			registered: make(map[SystemEventCode][]FnOnEvent),
		}
	})
	return eventState != nil
}

func EventSystemShutdown() error {
	if eventState == nil {
		return ErrNotInitialized
	}
	eventState.mu.Lock()
	eventState.registered = make(map[SystemEventCode][]FnOnEvent)
	eventState.mu.Unlock()
	return nil
}

func EventRegister(code SystemEventCode, callback FnOnEvent) {
	if eventState == nil {
		LogError("EventRegister called before the event system is initialized")
		return
	}
	eventState.mu.Lock()
	eventState.registered[code] = append(eventState.registered[code], callback)
	eventState.mu.Unlock()
}

// EventFire invokes every listener registered for the context's code, on the
// calling goroutine.
func EventFire(context EventContext) {
	if eventState == nil {
		return
	}
	eventState.mu.RLock()
	listeners := eventState.registered[context.Type]
	eventState.mu.RUnlock()

	for _, cb := range listeners {
		cb(context)
	}
}
