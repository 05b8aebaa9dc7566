package model

// ModelBuilderOption is a functional option for configuring a model during construction.
type ModelBuilderOption func(*model)

// WithMeshes seeds the model with meshes.
//
// Parameters:
//   - meshes: the meshes, in draw order
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithMeshes(meshes ...*Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = append(m.meshes, meshes...)
	}
}

// WithMaterials seeds the model with materials.
//
// Parameters:
//   - materials: the materials, indexed by Mesh.MaterialIndex
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithMaterials(materials ...*Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = append(m.materials, materials...)
	}
}
