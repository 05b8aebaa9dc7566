package camera

// CameraControllerBuilderOption is a functional option for configuring a camera controller.
type CameraControllerBuilderOption func(*cameraControllerImpl)

// WithSpeed sets the distance moved per update step.
//
// Parameters:
//   - speed: world units per step
//
// Returns:
//   - CameraControllerBuilderOption: a function that sets the controller speed
func WithSpeed(speed float32) CameraControllerBuilderOption {
	return func(c *cameraControllerImpl) {
		c.speed = speed
	}
}
