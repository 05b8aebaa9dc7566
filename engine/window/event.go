package window

// Event is a window or input event delivered to the handler installed with SetEventHandler.
// Handlers switch on the concrete type.
type Event interface {
	isEvent()
}

// EventResumed is delivered once, at the start of the message loop. Surface-dependent state is
// created in response to it.
type EventResumed struct{}

// EventCloseRequested is delivered when the user closes the window or presses Escape.
// The message loop exits after the handler returns.
type EventCloseRequested struct{}

// EventResized carries the new framebuffer size in pixels. Either dimension may be zero while
// the window is minimized.
type EventResized struct {
	Width  uint32
	Height uint32
}

// EventRedrawRequested is delivered once per loop iteration after RequestRedraw was called.
type EventRedrawRequested struct{}

// EventKey reports a key transition. Pressed is true for press and repeat, false for release.
type EventKey struct {
	Key     uint32
	Pressed bool
}

func (EventResumed) isEvent()         {}
func (EventCloseRequested) isEvent()  {}
func (EventResized) isEvent()         {}
func (EventRedrawRequested) isEvent() {}
func (EventKey) isEvent()             {}
