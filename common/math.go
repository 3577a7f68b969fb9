package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// NDCCorners are the eight corners of the normalized device coordinate cube.
// The first four lie on the near plane (z = -1), the last four on the far plane (z = +1),
// and corner i on the near plane pairs with corner i+4 on the far plane.
var NDCCorners = [8]mgl32.Vec4{
	{-1, -1, -1, 1},
	{-1, 1, -1, 1},
	{1, 1, -1, 1},
	{1, -1, -1, 1},
	{-1, -1, 1, 1},
	{-1, 1, 1, 1},
	{1, 1, 1, 1},
	{1, -1, 1, 1},
}

// AABB is an axis-aligned bounding box described by its minimum and maximum corners.
// The zero value is not empty; use EmptyAABB to start an accumulation.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that any Extend call will replace.
//
// Returns:
//   - AABB: a box with Min at +Inf and Max at -Inf
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include the point p.
//
// Parameters:
//   - p: the point to include
//
// Returns:
//   - AABB: the grown box
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the eight corners of the box.
//
// Returns:
//   - [8]mgl32.Vec3: corners ordered by (x, y, z) bit pattern
func (b AABB) Corners() [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		out[i] = mgl32.Vec3{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
		}
	}
	return out
}

// Transform returns the axis-aligned box enclosing b after transforming all eight corners by m.
//
// Parameters:
//   - m: an affine transform
//
// Returns:
//   - AABB: the enclosing box in the target space
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.Extend(TransformPoint(m, c))
	}
	return out
}

// TransformPoint applies m to the point p (w = 1) and performs the perspective divide.
//
// Parameters:
//   - m: the transform
//   - p: the point
//
// Returns:
//   - mgl32.Vec3: the transformed affine point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return PerspectiveDivide(m.Mul4x1(p.Vec4(1)))
}

// TransformDirection applies the upper 3x3 of m to d (w = 0).
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// PerspectiveDivide converts a homogeneous point to affine space by dividing by w.
// A zero w returns the xyz components unchanged.
func PerspectiveDivide(v mgl32.Vec4) mgl32.Vec3 {
	if v[3] == 0 {
		return v.Vec3()
	}
	return v.Vec3().Mul(1 / v[3])
}

// FrustumCorners inverse-transforms the NDC cube corners through invViewProj and
// divides each by w, yielding the world-space corners of the frustum.
// Corner order matches NDCCorners.
//
// Parameters:
//   - invViewProj: inverse of projection * view
//
// Returns:
//   - [8]mgl32.Vec3: world-space frustum corners
func FrustumCorners(invViewProj mgl32.Mat4) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i, c := range NDCCorners {
		out[i] = PerspectiveDivide(invViewProj.Mul4x1(c))
	}
	return out
}

// FrustumSlice interpolates each near/far corner pair of corners between the depth fractions
// start and end (0 = near plane, 1 = far plane).
//
// Parameters:
//   - corners: frustum corners as returned by FrustumCorners
//   - start: depth fraction of the slice's near face
//   - end: depth fraction of the slice's far face
//
// Returns:
//   - [8]mgl32.Vec3: the corners of the slice, in the same order
func FrustumSlice(corners [8]mgl32.Vec3, start, end float32) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 4; i++ {
		ray := corners[i+4].Sub(corners[i])
		out[i] = corners[i].Add(ray.Mul(start))
		out[i+4] = corners[i].Add(ray.Mul(end))
	}
	return out
}

// NormalMatrix returns the 3x3 matrix that transforms normals under m,
// transpose(inverse(mat3(m))).
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}

// RotationOnly strips translation and scale from an affine matrix,
// leaving an orthonormal rotation.
func RotationOnly(m mgl32.Mat4) mgl32.Mat4 {
	x := m.Col(0).Vec3().Normalize()
	y := m.Col(1).Vec3().Normalize()
	z := m.Col(2).Vec3().Normalize()
	return mgl32.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl32.Vec4{0, 0, 0, 1})
}

// ScaleOf returns the length of each basis column of an affine matrix.
func ScaleOf(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}
