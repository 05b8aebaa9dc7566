package camera

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-instancer/common"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct: a single mat4x4<f32>.
// Size: 64 bytes.
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset 0: combined view-projection matrix, column-major
}

// NewGPUCameraUniform returns a uniform holding the identity matrix.
//
// Returns:
//   - GPUCameraUniform: the identity uniform
func NewGPUCameraUniform() GPUCameraUniform {
	return GPUCameraUniform{ViewProj: [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}}
}

// UpdateViewProj copies the camera's current view-projection matrix into the uniform.
//
// Parameters:
//   - cam: the camera to read
func (g *GPUCameraUniform) UpdateViewProj(cam Camera) {
	g.ViewProj = cam.ViewProjectionMatrix()
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutFloat32s(buf, 0, g.ViewProj[:]...)
	return buf
}
