package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OpenGLToWGPU remaps OpenGL clip-space depth [-1, 1] into the WebGPU range [0, 1].
// mgl32 projections follow the OpenGL convention, so every projection handed to the GPU
// is pre-multiplied by this matrix. Stored column-major like every mgl32.Mat4.
var OpenGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// PutFloat32s writes values into buf as consecutive little-endian float32 words starting at offset.
// buf must have room for offset + 4*len(values) bytes.
//
// Parameters:
//   - buf: destination buffer
//   - offset: byte offset of the first word
//   - values: the floats to encode
//
// Returns:
//   - int: the byte offset just past the last written word
func PutFloat32s(buf []byte, offset int, values ...float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
		offset += 4
	}
	return offset
}

// Uint32sToBytes encodes indices as little-endian uint32 words for index buffer upload.
func Uint32sToBytes(values []uint32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}
