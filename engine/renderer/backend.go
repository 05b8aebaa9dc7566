package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancer/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing. This is the default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// WGPU maps the mode onto the wgpu present mode.
//
// Returns:
//   - wgpu.PresentMode: Fifo for VSync, Immediate for Uncapped
func (m PresentMode) WGPU() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// String returns the config spelling of the mode.
func (m PresentMode) String() string {
	if m == PresentModeUncapped {
		return "uncapped"
	}
	return "vsync"
}

// ParsePresentMode parses the config spelling of a present mode ("vsync" or "uncapped").
// The empty string is VSync.
//
// Parameters:
//   - s: the mode name, case-insensitive
//
// Returns:
//   - PresentMode: the mode
//   - error: an error for unknown names
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vsync", "fifo":
		return PresentModeVSync, nil
	case "uncapped", "immediate":
		return PresentModeUncapped, nil
	default:
		return PresentModeVSync, fmt.Errorf("unknown present mode %q", s)
	}
}

// SurfaceConfig is the presentation configuration of the window surface.
type SurfaceConfig struct {
	Format      wgpu.TextureFormat
	Width       uint32
	Height      uint32
	PresentMode PresentMode
}

// Backend is the GPU API used by State. The wgpu implementation owns the instance, adapter,
// device, queue and surface; every other GPU object it creates is handed back to the caller,
// who owns it from then on.
type Backend interface {
	// SurfaceFormat returns the adapter's preferred surface format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the first format reported by the surface capabilities
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSurface (re)configures the surface for presentation.
	//
	// Parameters:
	//   - cfg: the format, size and present mode to use
	//
	// Returns:
	//   - error: an error if the size is zero
	ConfigureSurface(cfg SurfaceConfig) error

	// CreateDepthTexture creates a depth render target in texture.DepthFormat.
	//
	// Parameters:
	//   - width: width in pixels
	//   - height: height in pixels
	//
	// Returns:
	//   - *texture.Texture: the depth texture with its view and comparison sampler
	//   - error: an error if creation fails
	CreateDepthTexture(width, height uint32) (*texture.Texture, error)

	// CreateTexture uploads RGBA staging data into a sampled colour texture.
	//
	// Parameters:
	//   - label: debug label
	//   - staging: decoded pixels
	//   - sampler: sampler configuration; zero fields fall back to defaults
	//
	// Returns:
	//   - *texture.Texture: the texture with its view and sampler
	//   - error: an error if creation fails
	CreateTexture(label string, staging common.TextureStagingData, sampler common.SamplerStagingData) (*texture.Texture, error)

	// CreateBindGroupLayout creates a bind group layout.
	//
	// Parameters:
	//   - label: debug label
	//   - descriptor: the layout entries
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	//   - error: an error if creation fails
	CreateBindGroupLayout(label string, descriptor wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)

	// InitMeshBuffers creates vertex and index buffers from raw bytes and stores them on the provider.
	// Empty index data creates no index buffer, which is how per-instance buffers are made.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices represented in indexData
	//
	// Returns:
	//   - error: an error if the buffers could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the bind group described by descriptor. Texture and sampler entries are
	// read from the provider; missing buffer entries are created (sized by MinBindingSize unless
	// overridden) and stored on it. The provider's layout is used when set, otherwise one is created.
	//
	// Parameters:
	//   - provider: the BindGroupProvider describing and receiving the resources
	//   - descriptor: the layout entries
	//   - bufferSizeOverrides: buffer sizes keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if a resource is missing or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// RegisterRenderPipeline creates the GPU render pipeline described by p and stores it on p.
	//
	// Parameters:
	//   - p: the pipeline description
	//   - layouts: bind group layouts in group order
	//
	// Returns:
	//   - error: an error if the pipeline could not be created
	RegisterRenderPipeline(p pipeline.Pipeline, layouts []*wgpu.BindGroupLayout) error

	// WriteBuffers stages buffer writes on the queue. They take effect with the next submission.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface image and begins the single render pass of the frame,
	// clearing colour to clear and depth to 1.0.
	//
	// Parameters:
	//   - depth: the depth attachment
	//   - clear: the clear colour
	//
	// Returns:
	//   - error: the surface acquisition error, unclassified
	BeginFrame(depth *texture.Texture, clear wgpu.Color) error

	// SetPipeline binds the render pipeline for the following draws.
	//
	// Parameters:
	//   - p: the registered pipeline
	SetPipeline(p pipeline.Pipeline)

	// SetVertexBuffer binds the provider's vertex buffer to a slot.
	//
	// Parameters:
	//   - slot: the vertex buffer slot
	//   - provider: the provider holding the buffer
	SetVertexBuffer(slot uint32, provider bind_group_provider.BindGroupProvider)

	// DrawMesh binds the bind groups in group order plus the mesh's vertex (slot 0) and uint32
	// index buffers, then issues one indexed draw of every element for instanceCount instances.
	//
	// Parameters:
	//   - mesh: the provider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: providers whose bind groups are set at their slice index
	DrawMesh(mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider)

	// EndFrame ends the render pass and submits the command buffer. The surface image stays
	// acquired until Present.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Present presents the acquired surface image and releases it.
	Present()

	// Release frees the surface, queue, device, adapter and instance.
	Release()
}
