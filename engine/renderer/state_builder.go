package renderer

import (
	"github.com/Carmen-Shannon/oxy-instancer/engine/camera"
	"github.com/Carmen-Shannon/oxy-instancer/engine/profiler"
	"github.com/cogentcore/webgpu/wgpu"
)

// StateBuilderOption is a functional option for configuring a State.
type StateBuilderOption func(*state)

// WithGrid sets the instance grid dimensions.
//
// Parameters:
//   - size: instances per axis; the grid holds size³ instances
//   - spacing: distance between neighbouring instances
//
// Returns:
//   - StateBuilderOption: a function that applies the grid option
func WithGrid(size int, spacing float32) StateBuilderOption {
	return func(s *state) {
		if size > 0 {
			s.gridSize = size
		}
		s.spacing = spacing
	}
}

// WithClearColor sets the colour each frame is cleared to.
//
// Parameters:
//   - c: the clear colour
//
// Returns:
//   - StateBuilderOption: a function that applies the clear colour option
func WithClearColor(c wgpu.Color) StateBuilderOption {
	return func(s *state) {
		s.clearColor = c
	}
}

// WithModel sets the name of the model loaded at construction.
//
// Parameters:
//   - name: the model file name
//
// Returns:
//   - StateBuilderOption: a function that applies the model option
func WithModel(name string) StateBuilderOption {
	return func(s *state) {
		if name != "" {
			s.modelName = name
		}
	}
}

// WithPresentMode sets the surface presentation mode.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - StateBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) StateBuilderOption {
	return func(s *state) {
		s.presentMode = mode
	}
}

// WithCameraOptions forwards options to the camera. The aspect ratio is always derived from
// the surface size.
//
// Parameters:
//   - opts: camera options
//
// Returns:
//   - StateBuilderOption: a function that applies the camera options
func WithCameraOptions(opts ...camera.CameraBuilderOption) StateBuilderOption {
	return func(s *state) {
		s.cameraOptions = append(s.cameraOptions, opts...)
	}
}

// WithControllerOptions forwards options to the camera controller.
//
// Parameters:
//   - opts: controller options
//
// Returns:
//   - StateBuilderOption: a function that applies the controller options
func WithControllerOptions(opts ...camera.CameraControllerBuilderOption) StateBuilderOption {
	return func(s *state) {
		s.controllerOptions = append(s.controllerOptions, opts...)
	}
}

// WithProfiler attaches a frame profiler that is notified of every presented and dropped frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - StateBuilderOption: a function that applies the profiler option
func WithProfiler(p *profiler.Profiler) StateBuilderOption {
	return func(s *state) {
		s.profiler = p
	}
}
