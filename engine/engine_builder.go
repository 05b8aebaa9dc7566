package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-instancer/engine/window"
)

// AppBuilderOption is a functional option for configuring an App.
// Use the With* functions to create options that are applied directly to the app instance.
type AppBuilderOption func(*app)

// WithProfiling enables or disables frame statistics logging.
//
// Parameters:
//   - enabled: if true, a profiler is created and handed to the state factory
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithProfiling(enabled bool) AppBuilderOption {
	return func(a *app) {
		a.profilingEnabled = enabled
	}
}

// WithProfileInterval sets how often the profiler logs. Values <= 0 keep the default (1s).
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithProfileInterval(interval time.Duration) AppBuilderOption {
	return func(a *app) {
		if interval > 0 {
			a.profileInterval = interval
		}
	}
}

// WithWindow sets the window the app runs in.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithWindow(w window.Window) AppBuilderOption {
	return func(a *app) {
		a.window = w
	}
}

// WithStateFactory sets the function that builds the render state on EventResumed.
//
// Parameters:
//   - f: the factory
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithStateFactory(f StateFactory) AppBuilderOption {
	return func(a *app) {
		a.factory = f
	}
}
