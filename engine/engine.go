package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-instancer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-instancer/engine/window"
)

// AppPhase is the lifecycle position of an App.
type AppPhase int

const (
	// AppUninitialized holds only configuration; no GPU state exists yet.
	AppUninitialized AppPhase = iota
	// AppReady owns a render state bound to the window.
	AppReady
	// AppClosed is final.
	AppClosed
)

func (p AppPhase) String() string {
	switch p {
	case AppUninitialized:
		return "uninitialized"
	case AppReady:
		return "ready"
	case AppClosed:
		return "closed"
	default:
		return fmt.Sprintf("AppPhase(%d)", int(p))
	}
}

// ErrNoWindow is returned by Run when the App was built without a window.
var ErrNoWindow = errors.New("engine: no window")

// RenderState is the per-window render state driven by an App. renderer.State satisfies it.
type RenderState interface {
	Input(ev window.Event) bool
	Resize(width, height uint32) error
	Frame() error
	Release()
}

// StateFactory builds the render state once the window is live.
//
// Parameters:
//   - w: the window, whose surface descriptor and size are now valid
//   - p: the frame profiler, or nil when profiling is disabled
//
// Returns:
//   - RenderState: the ready state
//   - error: an initialisation failure; the App closes the window and Run returns it
type StateFactory func(w window.Window, p *profiler.Profiler) (RenderState, error)

// app implements the App interface.
type app struct {
	window  window.Window
	factory StateFactory

	profiler         *profiler.Profiler
	profilingEnabled bool
	profileInterval  time.Duration

	phase        AppPhase
	ready        *readyApp
	err          error
	windowClosed bool
}

// readyApp is the window-bound half of the App. Per-frame handling only exists here.
type readyApp struct {
	window window.Window
	state  RenderState
}

// App is the application shell. It routes window events to a render state that is created
// on the first EventResumed, requests a redraw after every frame, and tears everything down
// when the window closes or rendering fails fatally.
type App interface {
	// Run enters the window message loop and blocks until the window closes.
	//
	// Returns:
	//   - error: the state construction or fatal render error that ended the run, if any
	Run() error

	// Phase returns the lifecycle phase.
	//
	// Returns:
	//   - AppPhase: the phase
	Phase() AppPhase

	// Profiler returns the frame profiler, or nil when profiling is disabled.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler
}

var _ App = &app{}

// NewApp creates an App in the AppUninitialized phase. Nothing touches the GPU until Run
// delivers EventResumed.
//
// Parameters:
//   - options: functional options for app configuration (window, state factory, profiling)
//
// Returns:
//   - App: the newly created app
func NewApp(options ...AppBuilderOption) App {
	a := &app{
		phase:           AppUninitialized,
		profileInterval: time.Second,
	}
	for _, opt := range options {
		opt(a)
	}
	if a.profilingEnabled {
		a.profiler = profiler.NewProfiler(a.profileInterval)
	}
	return a
}

func (a *app) Run() error {
	if a.window == nil {
		return ErrNoWindow
	}
	if a.factory == nil {
		return errors.New("engine: no state factory")
	}

	a.window.SetEventHandler(a.handleEvent)
	a.window.ProcessMessages()

	a.shutdown()
	if !a.windowClosed {
		a.windowClosed = true
		if err := a.window.Close(); err != nil {
			log.Printf("[Engine] close window: %v", err)
		}
	}
	return a.err
}

func (a *app) Phase() AppPhase {
	return a.phase
}

func (a *app) Profiler() *profiler.Profiler {
	return a.profiler
}

func (a *app) handleEvent(ev window.Event) {
	switch a.phase {
	case AppUninitialized:
		a.handleUninitialized(ev)
	case AppReady:
		a.ready.handle(a, ev)
	}
}

func (a *app) handleUninitialized(ev window.Event) {
	switch ev.(type) {
	case window.EventResumed:
		state, err := a.factory(a.window, a.profiler)
		if err != nil {
			log.Printf("[Engine] failed to create render state: %v", err)
			a.fail(err)
			return
		}
		a.ready = &readyApp{window: a.window, state: state}
		a.phase = AppReady
		log.Printf("[Engine] ready at %dx%d", a.window.Width(), a.window.Height())
		a.window.RequestRedraw()
	case window.EventCloseRequested:
		a.shutdown()
	}
}

func (r *readyApp) handle(a *app, ev window.Event) {
	switch e := ev.(type) {
	case window.EventCloseRequested:
		a.shutdown()
	case window.EventResized:
		if err := r.state.Resize(e.Width, e.Height); err != nil {
			log.Printf("[Engine] resize to %dx%d failed: %v", e.Width, e.Height, err)
		}
	case window.EventKey:
		r.state.Input(e)
	case window.EventRedrawRequested:
		if err := r.state.Frame(); err != nil {
			log.Printf("[Engine] rendering stopped: %v", err)
			a.fail(err)
			return
		}
		r.window.RequestRedraw()
	}
}

// fail records err, releases any state and closes the window, which ends the message loop.
// Only reached outside platform callbacks (resume and redraw events).
func (a *app) fail(err error) {
	a.err = err
	a.shutdown()
	if !a.windowClosed {
		a.windowClosed = true
		if cerr := a.window.Close(); cerr != nil {
			log.Printf("[Engine] close window: %v", cerr)
		}
	}
}

// shutdown releases the render state once. The window stops on its own after a close
// request, so it is left for Run to close.
func (a *app) shutdown() {
	if a.ready != nil {
		a.ready.state.Release()
		a.ready = nil
	}
	a.phase = AppClosed
}
