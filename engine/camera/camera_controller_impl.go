package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-instancer/common"
)

// maxUpAlignment bounds |dot(forward, up)| for vertical moves; beyond it LookAt degenerates.
const maxUpAlignment = 0.99

type cameraControllerImpl struct {
	mu *sync.Mutex

	speed float32

	forward  bool
	backward bool
	left     bool
	right    bool
	up       bool
	down     bool
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new CameraController with a default speed of 0.2 units per step.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - CameraController: the controller
func NewCameraController(options ...CameraControllerBuilderOption) CameraController {
	c := &cameraControllerImpl{
		mu:    &sync.Mutex{},
		speed: 0.2,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraControllerImpl) ProcessKey(key uint32, pressed bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch key {
	case common.KeyW, common.KeyUp:
		c.forward = pressed
	case common.KeyS, common.KeyDown:
		c.backward = pressed
	case common.KeyA, common.KeyLeft:
		c.left = pressed
	case common.KeyD, common.KeyRight:
		c.right = pressed
	case common.KeySpace:
		c.up = pressed
	case common.KeyLeftShift:
		c.down = pressed
	default:
		return false
	}
	return true
}

func (c *cameraControllerImpl) UpdateCamera(cam Camera) {
	c.mu.Lock()
	defer c.mu.Unlock()

	eye := cam.Eye()
	target := cam.Target()
	up := cam.Up()

	forward := target.Sub(eye)
	forwardMag := forward.Len()
	if forwardMag == 0 {
		return
	}
	forwardNorm := forward.Mul(1 / forwardMag)

	if c.forward && forwardMag > c.speed {
		eye = eye.Add(forwardNorm.Mul(c.speed))
	}
	if c.backward {
		eye = eye.Sub(forwardNorm.Mul(c.speed))
	}

	right := forwardNorm.Cross(up)

	// Redo the forward vector in case forward/backward moved the eye.
	forward = target.Sub(eye)
	forwardMag = forward.Len()

	if c.right != c.left {
		step := right.Mul(c.speed)
		if c.left {
			step = step.Mul(-1)
		}
		if dir := forward.Add(step); dir.Len() > 0 {
			eye = target.Sub(dir.Normalize().Mul(forwardMag))
		}
	}

	if c.up != c.down {
		step := up.Normalize().Mul(c.speed)
		if c.down {
			step = step.Mul(-1)
		}
		next := eye.Add(step)
		if dir := target.Sub(next); dir.Len() > 0 && abs(dir.Normalize().Dot(up.Normalize())) < maxUpAlignment {
			eye = next
		}
	}

	cam.SetEye(eye)
}

func (c *cameraControllerImpl) Speed() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

func (c *cameraControllerImpl) SetSpeed(speed float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
