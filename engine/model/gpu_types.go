package model

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct (locations 0, 1, 2).
// Size: 32 bytes, tightly packed.
type GPUVertex struct {
	Position  [3]float32 // offset  0: position in model space (location 0)
	TexCoords [2]float32 // offset 12: UV texture coordinate, v already flipped (location 1)
	Normal    [3]float32 // offset 20: vertex normal, zero when the source has none (location 2)
}

// GPUVertexSize is the stride of one GPUVertex in a vertex buffer.
const GPUVertexSize = 32

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPUVertex) marshalInto(buf []byte) {
	off := common.PutFloat32s(buf, 0, g.Position[:]...)
	off = common.PutFloat32s(buf, off, g.TexCoords[:]...)
	common.PutFloat32s(buf, off, g.Normal[:]...)
}

// MarshalVertices packs vertices back to back for a single vertex buffer upload.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices) * GPUVertexSize bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexSize)
	for i := range vertices {
		vertices[i].marshalInto(buf[i*GPUVertexSize:])
	}
	return buf
}

// VertexBufferLayout describes GPUVertex as the per-vertex stream at buffer slot 0.
//
// Returns:
//   - wgpu.VertexBufferLayout: stride 32, vertex step mode, locations 0-2
func VertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2},
		},
	}
}
