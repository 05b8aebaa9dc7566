package instance

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUInstanceRaw is the per-instance vertex stream: one 4×4 column-major model matrix read by
// the vertex stage as four vec4<f32> attributes at locations 5, 6, 7 and 8.
// Size: 64 bytes.
type GPUInstanceRaw struct {
	Model mgl32.Mat4
}

// GPUInstanceRawSize is the stride of one GPUInstanceRaw in the instance buffer.
const GPUInstanceRawSize = 64

// firstInstanceLocation is the shader location of the matrix's first column.
const firstInstanceLocation = 5

// Size returns the size of the GPUInstanceRaw struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUInstanceRaw) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the matrix column by column for GPU upload.
//
// Returns:
//   - []byte: the 64-byte buffer
func (g *GPUInstanceRaw) Marshal() []byte {
	buf := make([]byte, GPUInstanceRawSize)
	common.PutFloat32s(buf, 0, g.Model[:]...)
	return buf
}

// MarshalAll packs raw transforms back to back for a single instance buffer upload.
//
// Parameters:
//   - raws: the transforms
//
// Returns:
//   - []byte: len(raws) * GPUInstanceRawSize bytes
func MarshalAll(raws []GPUInstanceRaw) []byte {
	buf := make([]byte, len(raws)*GPUInstanceRawSize)
	for i := range raws {
		common.PutFloat32s(buf, i*GPUInstanceRawSize, raws[i].Model[:]...)
	}
	return buf
}

// VertexBufferLayout describes GPUInstanceRaw as the per-instance stream at buffer slot 1.
//
// Returns:
//   - wgpu.VertexBufferLayout: stride 64, instance step mode, four float32x4 at locations 5-8
func VertexBufferLayout() wgpu.VertexBufferLayout {
	attributes := make([]wgpu.VertexAttribute, 4)
	for col := range attributes {
		attributes[col] = wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x4,
			Offset:         uint64(col * 16),
			ShaderLocation: uint32(firstInstanceLocation + col),
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUInstanceRawSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  attributes,
	}
}
