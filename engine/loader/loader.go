package loader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-instancer/common"
	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
	"github.com/Carmen-Shannon/oxy-instancer/engine/resources"
	"github.com/Carmen-Shannon/oxy-instancer/engine/texture"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

var (
	// ErrMissingTexture is returned when a material names no diffuse texture or the texture
	// file cannot be found.
	ErrMissingTexture = errors.New("loader: missing diffuse texture")
	// ErrNoMeshes is returned when a model file contains no faces.
	ErrNoMeshes = errors.New("loader: model has no meshes")
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeOBJ selects the Wavefront OBJ/MTL backend.
	BackendTypeOBJ LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	resolver resources.Resolver
	workers  int
	progress bool
	pool     worker.DynamicWorkerPool

	modelCache map[string]*model.ImportedModel

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching models. The file format
// is handled by a backend; the Loader decodes textures and owns the cache.
type Loader interface {
	// Load imports a model file and caches the result by name. If the model is already
	// cached the cached version is returned. Textures are decoded in parallel.
	//
	// Parameters:
	//   - name: the asset name of the model file
	//
	// Returns:
	//   - *model.ImportedModel: the loaded model with every material texture decoded
	//   - error: ErrNoMeshes, ErrMissingTexture, a parse error, or a decode error
	Load(name string) (*model.ImportedModel, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	// Material libraries and textures are resolved relative to the asset root.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *model.ImportedModel: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*model.ImportedModel, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *model.ImportedModel: the cached model or nil
	Get(name string) *model.ImportedModel

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]*model.ImportedModel: all cached models keyed by name
	Models() map[string]*model.ImportedModel
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
// Without WithResolver, assets are read from the "res" directory.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeOBJ)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		workers:    runtime.NumCPU(),
		modelCache: make(map[string]*model.ImportedModel),
	}

	for _, option := range options {
		option(l)
	}
	if l.resolver == nil {
		l.resolver = resources.NewResolver("res")
	}

	switch backendType {
	case BackendTypeOBJ:
		l.backend = newOBJLoaderBackend(l.resolver)
	}

	// Workers idle-exit after a second, so a pool left alone between loads costs nothing.
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) Load(name string) (*model.ImportedModel, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	imported, err := backend.Load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return l.finish(name, imported, start)
}

func (l *loader) LoadReader(name string, r io.Reader) (*model.ImportedModel, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	start := time.Now()
	imported, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.finish(name, imported, start)
}

func (l *loader) Get(name string) *model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]*model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*model.ImportedModel, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

// finish decodes the textures, validates the model and caches it.
func (l *loader) finish(name string, imported *model.ImportedModel, start time.Time) (*model.ImportedModel, error) {
	if err := l.decodeTextures(name, imported); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if err := imported.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = imported
	l.mu.Unlock()

	vertices := 0
	for _, mesh := range imported.Meshes {
		vertices += len(mesh.Vertices)
	}
	log.Printf("[Loader] %s: %d meshes, %d vertices, %d materials in %s",
		name, len(imported.Meshes), vertices, len(imported.Materials), time.Since(start).Round(time.Millisecond))
	return imported, nil
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// A trailing .lz4 is ignored since the resolver decompresses transparently.
func (l *loader) resolveBackend(name string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(name, ".lz4")))
	switch ext {
	case ".obj":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}

// decodeTextures decodes every distinct diffuse texture of the model on the worker pool.
// A WaitGroup is the per-load barrier. The first error in material order fails the load.
func (l *loader) decodeTextures(name string, imported *model.ImportedModel) error {
	var paths []string
	slots := make(map[string]int)
	for _, mat := range imported.Materials {
		if _, ok := slots[mat.DiffuseTexturePath]; !ok {
			slots[mat.DiffuseTexturePath] = len(paths)
			paths = append(paths, mat.DiffuseTexturePath)
		}
	}
	if len(paths) == 0 {
		return nil
	}

	bar := l.newProgressBar(name, len(paths))
	results := make([]common.TextureStagingData, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		id := i
		texPath := path
		l.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				results[id], errs[id] = l.decodeTexture(texPath)
				if bar != nil {
					_ = bar.Add(1)
				}
				return nil, errs[id]
			},
		})
	}
	wg.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for i := range imported.Materials {
		imported.Materials[i].Diffuse = results[slots[imported.Materials[i].DiffuseTexturePath]]
	}
	return nil
}

func (l *loader) decodeTexture(path string) (common.TextureStagingData, error) {
	data, err := l.resolver.LoadBinary(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: %w", ErrMissingTexture, err)
	}
	staging, err := texture.Decode(path, data)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("texture %s: %w", path, err)
	}
	return staging, nil
}

// newProgressBar returns nil unless progress output is enabled and stderr is a terminal.
func (l *loader) newProgressBar(name string, total int) *progressbar.ProgressBar {
	if !l.progress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("[Loader] "+filepath.Base(name)),
		progressbar.OptionClearOnFinish(),
	)
}
