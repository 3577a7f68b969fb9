package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/shader"
)

// loaderBackend imports one file format.
type loaderBackend interface {
	// Load imports the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if loading fails
	Load(path string) (*Asset, error)

	// LoadReader imports a model from a stream.
	//
	// Parameters:
	//   - name: the fallback asset name
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)
}

// gltfLoaderBackend is the loaderBackend for glTF and GLB files.
type gltfLoaderBackend struct {
	importer gltfImporter
}

var _ loaderBackend = &gltfLoaderBackend{}

func newGLTFLoaderBackend(lang shader.Language) loaderBackend {
	return &gltfLoaderBackend{importer: newGLTFImporter(lang)}
}

func (b *gltfLoaderBackend) Load(path string) (*Asset, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackend) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	return b.importer.ImportReader(name, r, isGLB, ".")
}
