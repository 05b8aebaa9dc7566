package renderer

import (
	"errors"
	"fmt"
	"strings"
)

// FramePhase is the position of State within the update/render cycle.
type FramePhase int

const (
	// FrameIdle is the phase between frames.
	FrameIdle FramePhase = iota
	// FrameUpdated means the camera uniform has been staged for the next render.
	FrameUpdated
	// FrameRendered means a render was attempted for the staged update.
	FrameRendered
	// FrameResized means the surface was reconfigured after a recoverable acquire failure.
	FrameResized
	// FrameTerminated is final; no further frames are produced.
	FrameTerminated
)

func (p FramePhase) String() string {
	switch p {
	case FrameIdle:
		return "idle"
	case FrameUpdated:
		return "updated"
	case FrameRendered:
		return "rendered"
	case FrameResized:
		return "resized"
	case FrameTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("FramePhase(%d)", int(p))
	}
}

var (
	// ErrInvalidSurfaceSize is returned when a state is created for a zero-sized surface.
	ErrInvalidSurfaceSize = errors.New("renderer: surface width and height must be positive")
	// ErrSurfaceLost means the surface must be reconfigured before it can be used again.
	ErrSurfaceLost = errors.New("renderer: surface lost")
	// ErrSurfaceOutdated means the surface no longer matches the window and must be reconfigured.
	ErrSurfaceOutdated = errors.New("renderer: surface outdated")
	// ErrSurfaceTimeout means no surface image became available in time.
	ErrSurfaceTimeout = errors.New("renderer: surface acquire timed out")
	// ErrOutOfMemory means the GPU ran out of memory.
	ErrOutOfMemory = errors.New("renderer: out of memory")
	// ErrDeviceLost means the GPU device is gone.
	ErrDeviceLost = errors.New("renderer: device lost")
	// ErrFatalRender wraps the error that terminated rendering.
	ErrFatalRender = errors.New("renderer: fatal render error")
	// ErrNotUpdated is returned by Render when no Update preceded it.
	ErrNotUpdated = errors.New("renderer: render without update")
	// ErrTerminated is returned by every frame operation after a fatal error.
	ErrTerminated = errors.New("renderer: terminated")
)

// classifySurfaceError maps a surface acquisition error onto the sentinel describing how to
// react to it. Errors that already wrap a sentinel, and errors that match none, are returned
// unchanged.
//
// The wgpu binding does not expose the surface texture status as a value: GetCurrentTexture
// only returns the message captured by its validation error scope. Classification therefore
// matches on message text, and a lost or outdated acquire whose message says neither falls
// through unclassified and is logged and skipped like any other transient error. Backends
// that know the status should wrap the matching sentinel instead.
func classifySurfaceError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrSurfaceLost, ErrSurfaceOutdated, ErrSurfaceTimeout, ErrOutOfMemory, ErrDeviceLost} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "outofmemory"):
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	case strings.Contains(msg, "device lost"), strings.Contains(msg, "devicelost"):
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	case strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", ErrSurfaceOutdated, err)
	case strings.Contains(msg, "lost"):
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return fmt.Errorf("%w: %v", ErrSurfaceTimeout, err)
	}
	return err
}

// isRecoverable reports whether reconfiguring the surface fixes err.
func isRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated)
}

// isFatal reports whether err ends rendering.
func isFatal(err error) bool {
	return errors.Is(err, ErrOutOfMemory) || errors.Is(err, ErrDeviceLost)
}
