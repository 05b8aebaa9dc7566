package camera

// CameraController turns keyboard state into camera motion. Key events only latch a pressed
// flag; the camera moves once per UpdateCamera call, so motion is tied to the update rate
// rather than to key repeat.
type CameraController interface {
	// ProcessKey records the state of a movement key.
	//
	// Parameters:
	//   - key: the GLFW key code
	//   - pressed: true on press or repeat, false on release
	//
	// Returns:
	//   - bool: true if the key is a movement key and was consumed
	ProcessKey(key uint32, pressed bool) bool

	// UpdateCamera applies one step of the latched movement to cam.
	// Forward motion stops once the eye is within one step of the target. Left and right orbit
	// the target keeping the current distance. Up and down are refused when they would align
	// the view direction with the camera's up vector.
	//
	// Parameters:
	//   - cam: the camera to move
	UpdateCamera(cam Camera)

	// Speed returns the distance moved per update step.
	//
	// Returns:
	//   - float32: world units per step
	Speed() float32

	// SetSpeed sets the distance moved per update step.
	//
	// Parameters:
	//   - speed: world units per step
	SetSpeed(speed float32)
}
