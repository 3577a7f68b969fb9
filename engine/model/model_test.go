package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelComputesBounds(t *testing.T) {
	m := NewModel(WithName("tri"), WithMeshData(gpu.MeshData{
		Positions: []mgl32.Vec3{{-1, 0, 0}, {2, 1, 0}, {0, -3, 4}},
	}))

	assert.Equal(t, "tri", m.Name())
	assert.Equal(t, "tri", m.Data().Label)
	assert.Equal(t, common.AABB{Min: mgl32.Vec3{-1, -3, 0}, Max: mgl32.Vec3{2, 1, 4}}, m.Bounds())
	assert.InDelta(t, 5, m.BoundingRadius(), 1e-5)
	assert.Nil(t, m.Mesh())
}

func TestWithBoundsOverrides(t *testing.T) {
	b := common.AABB{Min: mgl32.Vec3{-10, -10, -10}, Max: mgl32.Vec3{10, 10, 10}}
	m := NewModel(WithMeshData(gpu.MeshData{Positions: []mgl32.Vec3{{0, 0, 0}}}), WithBounds(b))
	assert.Equal(t, b, m.Bounds())
}

func TestEmptyModelBounds(t *testing.T) {
	assert.Equal(t, common.AABB{}, NewModel().Bounds())
}

func TestUpload(t *testing.T) {
	rec := gpu.NewRecorder()
	m := Box("crate", mgl32.Vec3{1, 1, 1})
	require.NoError(t, m.Upload(rec))
	require.NotNil(t, m.Mesh())
	assert.Equal(t, 24, m.Mesh().VertexCount())
	assert.Equal(t, 36, m.Mesh().IndexCount())
	assert.Equal(t, []gpu.Call{{Name: "CreateMesh", Args: []any{"crate"}}}, rec.Calls())
}

func TestBox(t *testing.T) {
	m := Box("box", mgl32.Vec3{2, 4, 6})
	assert.Equal(t, common.AABB{Min: mgl32.Vec3{-1, -2, -3}, Max: mgl32.Vec3{1, 2, 3}}, m.Bounds())

	d := m.Data()
	for i := 0; i < len(d.Indices); i += 3 {
		a, b, c := d.Positions[d.Indices[i]], d.Positions[d.Indices[i+1]], d.Positions[d.Indices[i+2]]
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, face.Dot(d.Normals[d.Indices[i]]), float32(0), "triangle %d winds counter-clockwise seen from outside", i/3)
	}
}

func TestPlane(t *testing.T) {
	m := Plane("ground", 10)
	assert.Equal(t, common.AABB{Min: mgl32.Vec3{-5, 0, -5}, Max: mgl32.Vec3{5, 0, 5}}, m.Bounds())
	d := m.Data()
	face := d.Positions[1].Sub(d.Positions[0]).Cross(d.Positions[2].Sub(d.Positions[0]))
	assert.Greater(t, face.Y(), float32(0))
}

func TestFullscreenQuad(t *testing.T) {
	d := FullscreenQuad().Data()
	assert.Len(t, d.Positions, 6)
	assert.Empty(t, d.Indices)
	assert.Equal(t, mgl32.Vec2{0, 0}, d.UVs[0])
	assert.Equal(t, mgl32.Vec2{1, 1}, d.UVs[2])
}
