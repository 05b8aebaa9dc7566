package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
)

// loaderBackend defines the format-specific half of a Loader. A backend produces meshes and
// materials with texture paths resolved; texture decoding is done by the Loader.
type loaderBackend interface {
	// Load imports the named model file through the asset resolver.
	//
	// Parameters:
	//   - name: the asset name of the model file
	//
	// Returns:
	//   - *model.ImportedModel: the model, with DiffuseTexturePath set on every material
	//   - error: error if loading fails
	Load(name string) (*model.ImportedModel, error)

	// LoadReader imports a model from a stream. Referenced files (material libraries and
	// textures) are still resolved through the asset resolver, relative to its root.
	//
	// Parameters:
	//   - name: the model name to report
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *model.ImportedModel: the model, with DiffuseTexturePath set on every material
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*model.ImportedModel, error)
}
