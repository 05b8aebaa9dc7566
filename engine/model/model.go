package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-instancer/engine/texture"
)

// Mesh is one drawable sub-mesh. Its provider holds the vertex buffer, the uint32 index
// buffer and the element count.
type Mesh struct {
	Name          string
	Provider      bind_group_provider.BindGroupProvider
	MaterialIndex int
}

// NumElements returns the number of indices drawn for this mesh.
func (m *Mesh) NumElements() uint32 {
	return uint32(m.Provider.IndexCount())
}

// Material pairs a diffuse texture with the bind group (texture at binding 0, sampler at
// binding 1) that exposes it to the fragment stage.
type Material struct {
	Name     string
	Texture  *texture.Texture
	Provider bind_group_provider.BindGroupProvider
}

// model is the implementation of the Model interface.
type model struct {
	name      string
	meshes    []*Mesh
	materials []*Material
}

// Model defines the interface for a GPU-resident model: a list of meshes and the materials
// they reference. A Model exclusively owns the GPU resources of its meshes and materials.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Meshes returns the meshes in draw order.
	//
	// Returns:
	//   - []*Mesh: the meshes
	Meshes() []*Mesh

	// Materials returns the materials.
	//
	// Returns:
	//   - []*Material: the materials
	Materials() []*Material

	// Material returns the material a mesh index refers to.
	//
	// Parameters:
	//   - index: the material index
	//
	// Returns:
	//   - *Material: the material, or nil if index is out of range
	Material(index int) *Material

	// AddMesh appends a mesh. Ownership of its provider moves to the model.
	//
	// Parameters:
	//   - mesh: the mesh to append
	AddMesh(mesh *Mesh)

	// AddMaterial appends a material. Ownership of its texture and provider moves to the model.
	//
	// Parameters:
	//   - mat: the material to append
	AddMaterial(mat *Material)

	// Validate checks that every mesh references an existing material.
	//
	// Returns:
	//   - error: wraps ErrInvalidMaterialIndex on failure
	Validate() error

	// Release frees every mesh buffer, then every material bind group and texture.
	Release()
}

var _ Model = &model{}

// NewModel creates an empty Model with the provided options.
//
// Parameters:
//   - name: the model identifier
//   - options: functional options applied in order
//
// Returns:
//   - Model: the new model
func NewModel(name string, options ...ModelBuilderOption) Model {
	m := &model{name: name}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Meshes() []*Mesh {
	return m.meshes
}

func (m *model) Materials() []*Material {
	return m.materials
}

func (m *model) Material(index int) *Material {
	if index < 0 || index >= len(m.materials) {
		return nil
	}
	return m.materials[index]
}

func (m *model) AddMesh(mesh *Mesh) {
	m.meshes = append(m.meshes, mesh)
}

func (m *model) AddMaterial(mat *Material) {
	m.materials = append(m.materials, mat)
}

func (m *model) Validate() error {
	for _, mesh := range m.meshes {
		if m.Material(mesh.MaterialIndex) == nil {
			return fmt.Errorf("%w: mesh %q uses material %d, model %q has %d",
				ErrInvalidMaterialIndex, mesh.Name, mesh.MaterialIndex, m.name, len(m.materials))
		}
	}
	return nil
}

func (m *model) Release() {
	for _, mesh := range m.meshes {
		if mesh.Provider != nil {
			mesh.Provider.Release()
		}
	}
	m.meshes = nil
	for _, mat := range m.materials {
		if mat.Provider != nil {
			mat.Provider.Release()
		}
		mat.Texture.Release()
	}
	m.materials = nil
}
