package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed instanced.wgsl
var instancedSource string

var (
	// ErrMissingEntryPoint is returned when a source lacks a @vertex or @fragment function.
	ErrMissingEntryPoint = errors.New("shader: missing entry point")
)

// shader is the implementation of the Shader interface.
// It holds the WGSL source for a single module carrying both a vertex and a fragment entry point,
// plus the layout metadata parsed from it.
type shader struct {
	key                        string
	source                     string
	vertexEntryPoint           string
	fragmentEntryPoint         string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexInputLocations       []uint32
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a parsed WGSL render shader. It exposes the source, both
// entry points, and the bind group layout descriptors declared by the source so the renderer
// can create matching GPU layouts.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// VertexEntryPoint returns the name of the @vertex function.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the @fragment function.
	//
	// Returns:
	//   - string: the entry point name (e.g. "fs_main")
	FragmentEntryPoint() string

	// BindGroupLayoutDescriptor retrieves the layout descriptor parsed for a bind group index.
	// Entry visibility is the set of stages whose entry point references the variable.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the WGSL variable name bound at group/binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not declared
	BindGroupVarName(group, binding int) string

	// VertexInputLocations returns every @location consumed by the vertex stage inputs, sorted.
	//
	// Returns:
	//   - []uint32: the shader locations
	VertexInputLocations() []uint32

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses a WGSL source holding one @vertex and one @fragment entry point.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrMissingEntryPoint if either stage is absent
func NewShader(key, source string) (Shader, error) {
	cleaned := stripComments(source)
	s := &shader{
		key:                key,
		source:             source,
		vertexEntryPoint:   parseEntryPoint(cleaned, vertexEntryRegex),
		fragmentEntryPoint: parseEntryPoint(cleaned, fragmentEntryRegex),
	}
	if s.vertexEntryPoint == "" {
		return nil, fmt.Errorf("%w: %s has no @vertex function", ErrMissingEntryPoint, key)
	}
	if s.fragmentEntryPoint == "" {
		return nil, fmt.Errorf("%w: %s has no @fragment function", ErrMissingEntryPoint, key)
	}
	stages := map[wgpu.ShaderStage]string{
		wgpu.ShaderStageVertex:   functionBody(cleaned, s.vertexEntryPoint),
		wgpu.ShaderStageFragment: functionBody(cleaned, s.fragmentEntryPoint),
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(cleaned, stages)
	s.vertexInputLocations = parseVertexInputLocations(cleaned)
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	}
	return s, nil
}

// NewInstancedShader returns the built-in instanced textured mesh shader.
// Material texture and sampler live in group 0, the camera uniform in group 1.
//
// Returns:
//   - Shader: the parsed shader
//   - error: non-nil only if the embedded source is malformed
func NewInstancedShader() (Shader, error) {
	return NewShader("instanced", instancedSource)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexInputLocations() []uint32 {
	return s.vertexInputLocations
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
