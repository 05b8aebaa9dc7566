package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-instancer/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoShader is returned by Validate when no shader was provided.
	ErrNoShader = errors.New("pipeline: no shader")
	// ErrLayoutMismatch is returned by Validate when the vertex buffer layouts do not feed
	// exactly the inputs the vertex stage declares.
	ErrLayoutMismatch = errors.New("pipeline: vertex layouts do not match shader inputs")
)

// ReplaceBlend writes the fragment colour over the target unchanged.
var ReplaceBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorZero,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorZero,
		Operation: wgpu.BlendOperationAdd,
	},
}

// pipeline is the implementation of the Pipeline interface.
// It holds the CPU-side description of a render pipeline and, once registered with the
// backend, the GPU pipeline object.
type pipeline struct {
	// key is the unique identifier for this pipeline, used as the GPU label
	key string

	shader shader.Shader
	// vertexLayouts are bound to vertex buffer slots in order
	vertexLayouts []wgpu.VertexBufferLayout

	renderPipeline *wgpu.RenderPipeline

	depthFormat       wgpu.TextureFormat
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	sampleCount       uint32
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline describes a render pipeline: its shader, the vertex buffer layouts feeding it,
// and the depth, rasterizer and colour target state used when the backend creates it.
type Pipeline interface {
	// Key returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Shader returns the shader providing both entry points.
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader() shader.Shader

	// VertexLayouts returns the vertex buffer layouts; index i describes buffer slot i.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in slot order
	VertexLayouts() []wgpu.VertexBufferLayout

	// RenderPipeline returns the GPU pipeline, or nil before registration.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the GPU pipeline created by the backend.
	//
	// Parameters:
	//   - rp: the WebGPU render pipeline to set
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// DepthFormat returns the depth attachment format the pipeline is built against.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth format
	DepthFormat() wgpu.TextureFormat

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	//
	// Returns:
	//   - wgpu.CompareFunction: the comparison, Less by default
	DepthCompare() wgpu.CompareFunction

	// SampleCount returns the multisample count.
	//
	// Returns:
	//   - uint32: the sample count, 1 by default
	SampleCount() uint32

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode, Back by default
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology, TriangleList by default
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order, CCW by default
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, ReplaceBlend by default
	BlendState() *wgpu.BlendState

	// Validate checks that a shader is set and that the vertex layouts provide exactly the
	// locations its vertex inputs declare.
	//
	// Returns:
	//   - error: ErrNoShader or ErrLayoutMismatch
	Validate() error

	// Release frees the GPU pipeline. Safe to call more than once.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description. Defaults: depth Less with writes against
// texture.DepthFormat, back-face culling, counter-clockwise front faces, triangle lists,
// one sample and replace blending.
//
// Parameters:
//   - key: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	blend := ReplaceBlend
	p := &pipeline{
		key:               key,
		depthFormat:       texture.DepthFormat,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLess,
		sampleCount:       1,
		cullMode:          wgpu.CullModeBack,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState:        &blend,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Validate() error {
	if p.shader == nil {
		return fmt.Errorf("%w: %s", ErrNoShader, p.key)
	}
	var provided []uint32
	for _, layout := range p.vertexLayouts {
		for _, attr := range layout.Attributes {
			provided = append(provided, attr.ShaderLocation)
		}
	}
	slices.Sort(provided)
	if want := p.shader.VertexInputLocations(); !slices.Equal(provided, want) {
		return fmt.Errorf("%w: %s provides %v, shader reads %v", ErrLayoutMismatch, p.key, provided, want)
	}
	return nil
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
