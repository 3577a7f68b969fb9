package model

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Box returns an axis-aligned box centered on the origin with per-face normals.
//
// Parameters:
//   - name: the model name
//   - size: the edge lengths along X, Y and Z
//
// Returns:
//   - Model: the box
func Box(name string, size mgl32.Vec3) Model {
	h := size.Mul(0.5)
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	var d gpu.MeshData
	d.Label = name
	d.Primitive = gpu.PrimitiveTriangles
	for _, f := range faces {
		base := uint32(len(d.Positions))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			d.Positions = append(d.Positions, mgl32.Vec3{p[0] * h[0], p[1] * h[1], p[2] * h[2]})
			d.Normals = append(d.Normals, f.normal)
			d.UVs = append(d.UVs, mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2})
		}
		d.Indices = append(d.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewModel(WithName(name), WithMeshData(d))
}

// Plane returns a square in the XZ plane facing +Y, centered on the origin.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//
// Returns:
//   - Model: the plane
func Plane(name string, size float32) Model {
	h := size / 2
	d := gpu.MeshData{
		Label:     name,
		Primitive: gpu.PrimitiveTriangles,
		Positions: []mgl32.Vec3{{-h, 0, h}, {h, 0, h}, {h, 0, -h}, {-h, 0, -h}},
		Normals:   []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	return NewModel(WithName(name), WithMeshData(d))
}

// FullscreenQuad returns two triangles covering clip space, six vertices with no indices.
// UVs run from (0,0) at the bottom left to (1,1) at the top right.
//
// Returns:
//   - Model: the quad
func FullscreenQuad() Model {
	corners := []mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}
	d := gpu.MeshData{Label: "fullscreen", Primitive: gpu.PrimitiveTriangles}
	for _, c := range corners {
		d.Positions = append(d.Positions, mgl32.Vec3{c[0], c[1], 0})
		d.Normals = append(d.Normals, mgl32.Vec3{0, 0, 1})
		d.UVs = append(d.UVs, mgl32.Vec2{c[0]*0.5 + 0.5, c[1]*0.5 + 0.5})
	}
	return NewModel(WithName("fullscreen"), WithMeshData(d))
}
