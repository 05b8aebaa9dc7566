package loader

import (
	"github.com/Carmen-Shannon/oxy-instancer/engine/model"
	"github.com/Carmen-Shannon/oxy-instancer/engine/resources"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithResolver is an option builder that sets the asset resolver used for model files,
// material libraries and textures.
//
// Parameters:
//   - r: the resolver
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resolver option to a loader
func WithResolver(r resources.Resolver) LoaderBuilderOption {
	return func(l *loader) {
		l.resolver = r
	}
}

// WithWorkers is an option builder that sets the maximum number of texture decode workers.
//
// Parameters:
//   - n: the worker count; values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithProgress is an option builder that enables a texture decode progress bar on stderr.
// The bar is only drawn when stderr is a terminal.
//
// Parameters:
//   - enabled: whether to show progress
//
// Returns:
//   - LoaderBuilderOption: a function that applies the progress option to a loader
func WithProgress(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.progress = enabled
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model *model.ImportedModel) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}
