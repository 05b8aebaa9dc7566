package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancer/common"
)

// ErrInvalidMaterialIndex is returned when a mesh references a material the model does not have.
var ErrInvalidMaterialIndex = errors.New("mesh references a material index out of range")

// ImportedModel is the CPU-side result of loading a model file. It holds everything the
// renderer needs to create the GPU Model and nothing that requires a device.
type ImportedModel struct {
	// Name is the file name the model was loaded from.
	Name string

	// Meshes are the sub-meshes in file order.
	Meshes []ImportedMesh

	// Materials are the materials referenced by the meshes.
	Materials []ImportedMaterial
}

// ImportedMesh is one single-indexed sub-mesh.
type ImportedMesh struct {
	// Name is the object or group name from the source file.
	Name string

	// Vertices are the unique vertices of the mesh.
	Vertices []GPUVertex

	// Indices index into Vertices, three per triangle.
	Indices []uint32

	// MaterialIndex indexes ImportedModel.Materials. Zero when the source names no material.
	MaterialIndex int
}

// ImportedMaterial is a material with its diffuse texture already decoded.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// DiffuseTexturePath is the asset name of the diffuse texture.
	DiffuseTexturePath string

	// Diffuse holds the decoded RGBA pixels of the diffuse texture.
	Diffuse common.TextureStagingData
}

// Validate checks that every mesh references an existing material and that every material
// carries uploadable pixels.
//
// Returns:
//   - error: the first problem found, or nil
func (m *ImportedModel) Validate() error {
	for _, mesh := range m.Meshes {
		if mesh.MaterialIndex < 0 || mesh.MaterialIndex >= len(m.Materials) {
			return fmt.Errorf("%w: mesh %q uses material %d, model %q has %d",
				ErrInvalidMaterialIndex, mesh.Name, mesh.MaterialIndex, m.Name, len(m.Materials))
		}
		if len(mesh.Indices)%3 != 0 {
			return fmt.Errorf("mesh %q has %d indices, not a triangle list", mesh.Name, len(mesh.Indices))
		}
	}
	for _, mat := range m.Materials {
		if !mat.Diffuse.Valid() {
			return fmt.Errorf("material %q has no decoded diffuse texture", mat.Name)
		}
	}
	return nil
}
