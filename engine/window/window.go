package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and delivers input and lifecycle events to a single handler.
type Window interface {
	// SetEventHandler sets the function that receives every window event.
	//
	// Parameters:
	//   - handler: the event handler (or nil to drop events)
	SetEventHandler(handler func(Event))

	// RequestRedraw schedules one EventRedrawRequested for the next loop iteration.
	// Repeated calls within one iteration collapse into a single event.
	RequestRedraw()

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Delivers EventResumed first, then polls events until the window stops running.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and the event handler.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth and maxHeight bound the window size during resize.
	maxWidth  int
	maxHeight int

	// minWidth and minHeight bound the window size during resize.
	minWidth  int
	minHeight int

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// handler receives every event.
	handler func(Event)

	// redrawRequested is set by RequestRedraw and consumed once per loop iteration.
	redrawRequested bool
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "wgpu glfw instancing",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetEventHandler(handler func(Event)) {
	w.handler = handler
}

func (w *engineWindow) RequestRedraw() {
	w.redrawRequested = true
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	w.emit(EventResumed{})
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		w.flushRedraw()

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) emit(ev Event) {
	if w.handler != nil {
		w.handler(ev)
	}
}

// flushRedraw delivers at most one EventRedrawRequested. The flag is cleared before the handler
// runs so a handler that requests the next frame is honoured on the following iteration.
func (w *engineWindow) flushRedraw() {
	if !w.redrawRequested {
		return
	}
	w.redrawRequested = false
	w.emit(EventRedrawRequested{})
}

func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	w.emit(EventResized{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))})
}
