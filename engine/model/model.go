package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/chewxy/math32"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	data           gpu.MeshData
	bounds         common.AABB
	boundsSet      bool
	boundingRadius float32
	mesh           gpu.Mesh
}

// Model defines the interface for drawable geometry: CPU-side vertex data, its local bounds and,
// once uploaded, the device mesh the renderer draws.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Data returns the CPU-side geometry.
	Data() gpu.MeshData

	// Bounds returns the local-space bounding box. Unless set explicitly it is computed from the
	// vertex positions.
	//
	// Returns:
	//   - common.AABB: the local bounds
	Bounds() common.AABB

	// BoundingRadius returns the bounding sphere radius, measured as the maximum vertex
	// distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Mesh returns the uploaded device mesh, or nil before Upload.
	Mesh() gpu.Mesh

	// Upload creates the device mesh. Calling it again replaces the mesh.
	//
	// Parameters:
	//   - device: the device to upload to
	//
	// Returns:
	//   - error: the device's allocation error
	Upload(device gpu.Device) error
}

var _ Model = &model{}

// NewModel creates a Model.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.data.Label == "" {
		m.data.Label = m.name
	}

	box := common.EmptyAABB()
	for _, p := range m.data.Positions {
		box = box.Extend(p)
		m.boundingRadius = math32.Max(m.boundingRadius, p.Len())
	}
	if !m.boundsSet {
		m.bounds = box
		if box.IsEmpty() {
			m.bounds = common.AABB{}
		}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Data() gpu.MeshData {
	return m.data
}

func (m *model) Bounds() common.AABB {
	return m.bounds
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Mesh() gpu.Mesh {
	return m.mesh
}

func (m *model) Upload(device gpu.Device) error {
	mesh, err := device.CreateMesh(m.data)
	if err != nil {
		return fmt.Errorf("upload model %q: %w", m.name, err)
	}
	m.mesh = mesh
	return nil
}
