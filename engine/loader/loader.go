// Package loader imports static glTF 2.0 models (.gltf and .glb) as assets whose node trees can
// be added to a scene. Geometry becomes model.Model values and materials become forward
// materials; skins, animations and textures are not imported.
package loader

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files or document features the loader cannot import.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu       sync.RWMutex
	language shader.Language
	cache    map[string]*Asset
	backend  loaderBackend
}

// Loader imports model files and caches the resulting assets by path or name.
type Loader interface {
	// Load imports a model file, or returns the cached asset for path. The backend is chosen
	// by extension (.gltf or .glb).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: ErrUnsupportedFormat for an unknown extension, or the import error
	Load(path string) (*Asset, error)

	// LoadReader imports a model from a stream and caches it under name. External buffer
	// URIs resolve against the working directory.
	//
	// Parameters:
	//   - name: the cache key and fallback asset name
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)

	// Get retrieves a cached asset by path or name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Asset: the cached asset or nil
	Get(name string) *Asset

	// Assets returns a copy of the cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by path or name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the given backend. Materials are built for GLSL unless
// WithLanguage says otherwise.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		language: shader.LanguageGLSL,
		cache:    make(map[string]*Asset),
	}
	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.language)
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	if a := l.Get(path); a != nil {
		return a, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	a, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	common.Logger().Debug("model loaded", zap.String("path", path), zap.String("asset", a.Name),
		zap.Int("models", len(a.Models)), zap.Int("materials", len(a.Materials)))
	return l.store(path, a), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	if a := l.Get(name); a != nil {
		return a, nil
	}
	if l.backend == nil {
		return nil, ErrUnsupportedFormat
	}

	a, err := l.backend.LoadReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return l.store(name, a), nil
}

// store caches a unless another goroutine cached the same key first, returning the winner.
func (l *loader) store(key string, a *Asset) *Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[key]; ok {
		return cached
	}
	l.cache[key] = a
	return a
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.cache)
}

// resolveBackend selects a loader backend from the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend != nil {
			return l.backend, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
}
