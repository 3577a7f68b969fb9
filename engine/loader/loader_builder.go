package loader

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLanguage is an option builder that sets the shading language imported materials are
// built for. It must match the device the assets are drawn with.
//
// Parameters:
//   - lang: the shading language
//
// Returns:
//   - LoaderBuilderOption: a function that applies the language option to a loader
func WithLanguage(lang shader.Language) LoaderBuilderOption {
	return func(l *loader) {
		l.language = lang
	}
}

// WithAsset is an option builder that pre-populates the cache with an asset.
//
// Parameters:
//   - key: the cache key for the asset
//   - a: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, a *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = a
	}
}
