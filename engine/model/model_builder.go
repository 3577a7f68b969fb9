package model

import (
	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshData is an option builder that sets the geometry of the Model.
//
// Parameters:
//   - data: the CPU-side geometry
//
// Returns:
//   - ModelBuilderOption: a function that applies the geometry to a model
func WithMeshData(data gpu.MeshData) ModelBuilderOption {
	return func(m *model) {
		m.data = data
	}
}

// WithBounds is an option builder that overrides the computed local bounds, for geometry
// displaced in the vertex shader.
//
// Parameters:
//   - bounds: the local bounds
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounds to a model
func WithBounds(bounds common.AABB) ModelBuilderOption {
	return func(m *model) {
		m.bounds = bounds
		m.boundsSet = true
	}
}

// WithMesh is an option builder that attaches an already uploaded device mesh.
//
// Parameters:
//   - mesh: the device mesh
//
// Returns:
//   - ModelBuilderOption: a function that attaches the mesh to a model
func WithMesh(mesh gpu.Mesh) ModelBuilderOption {
	return func(m *model) {
		m.mesh = mesh
	}
}
