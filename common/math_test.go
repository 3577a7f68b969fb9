package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func vecNear(t *testing.T, expected, actual mgl32.Vec3, tol float32) {
	t.Helper()
	assert.InDeltaSlice(t, expected[:], actual[:], float64(tol))
}

func TestAABBExtendAndCorners(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.IsEmpty())

	b = b.Extend(mgl32.Vec3{1, -2, 3}).Extend(mgl32.Vec3{-1, 2, 0})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, mgl32.Vec3{-1, -2, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Max)
	assert.Equal(t, mgl32.Vec3{0, 0, 1.5}, b.Center())

	corners := b.Corners()
	assert.Equal(t, b.Min, corners[0])
	assert.Equal(t, b.Max, corners[7])
}

func TestAABBUnionIgnoresEmpty(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	assert.Equal(t, b, b.Union(EmptyAABB()))

	u := b.Union(AABB{Min: mgl32.Vec3{-1, 0, 0}, Max: mgl32.Vec3{0, 5, 0}})
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, u.Min)
	assert.Equal(t, mgl32.Vec3{1, 5, 1}, u.Max)
}

func TestAABBTransform(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	moved := b.Transform(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1)))
	vecNear(t, mgl32.Vec3{8, -1, -1}, moved.Min, 1e-6)
	vecNear(t, mgl32.Vec3{12, 1, 1}, moved.Max, 1e-6)

	assert.True(t, EmptyAABB().Transform(mgl32.Ident4()).IsEmpty())
}

func TestFrustumCornersRoundTrip(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	viewProj := proj.Mul4(view)

	corners := FrustumCorners(viewProj.Inv())
	for i, c := range corners {
		back := TransformPoint(viewProj, c)
		vecNear(t, NDCCorners[i].Vec3(), back, 2e-3)
	}
}

func TestFrustumSliceEndpoints(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 1, 11)
	corners := FrustumCorners(proj.Inv())

	full := FrustumSlice(corners, 0, 1)
	for i := range corners {
		vecNear(t, corners[i], full[i], 1e-5)
	}

	half := FrustumSlice(corners, 0.5, 1)
	for i := 0; i < 4; i++ {
		// view-space depth varies linearly along each edge
		assert.InDelta(t, -6, half[i].Z(), 1e-3)
		assert.InDelta(t, -11, half[i+4].Z(), 1e-3)
	}
}

func TestNormalMatrixOfRotationIsRotation(t *testing.T) {
	rot := mgl32.HomogRotate3DY(0.7)
	n := NormalMatrix(rot.Mul4(mgl32.Translate3D(1, 2, 3)))
	expected := rot.Mat3()
	assert.InDeltaSlice(t, expected[:], n[:], 1e-5)
}

func TestNormalMatrixUndoesNonUniformScale(t *testing.T) {
	n := NormalMatrix(mgl32.Scale3D(2, 1, 1))
	normal := n.Mul3x1(mgl32.Vec3{1, 1, 0})
	vecNear(t, mgl32.Vec3{0.5, 1, 0}, normal, 1e-6)
}

func TestRotationOnly(t *testing.T) {
	m := mgl32.Translate3D(5, 6, 7).Mul4(mgl32.HomogRotate3DZ(0.3)).Mul4(mgl32.Scale3D(3, 3, 3))
	r := RotationOnly(m)
	expected := mgl32.HomogRotate3DZ(0.3)
	assert.InDeltaSlice(t, expected[:], r[:], 1e-5)
}

func TestPerspectiveDivideZeroW(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, PerspectiveDivide(mgl32.Vec4{1, 2, 3, 0}))
	assert.Equal(t, mgl32.Vec3{0.5, 1, 1.5}, PerspectiveDivide(mgl32.Vec4{1, 2, 3, 2}))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)
}

func TestClampAndCoalesce(t *testing.T) {
	assert.Equal(t, 6, Clamp(9, 1, 6))
	assert.Equal(t, float32(0), Clamp(float32(-1), 0, 1))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
