package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestExtractFrustumOrthographic(t *testing.T) {
	f := ExtractFrustum(mgl32.Ortho(-1, 1, -1, 1, 0, 10))

	inside := AABB{Min: mgl32.Vec3{-0.5, -0.5, -5}, Max: mgl32.Vec3{0.5, 0.5, -4}}
	straddling := AABB{Min: mgl32.Vec3{0.5, 0, -2}, Max: mgl32.Vec3{3, 1, -1}}
	behind := AABB{Min: mgl32.Vec3{-0.5, -0.5, 1}, Max: mgl32.Vec3{0.5, 0.5, 2}}
	beyond := AABB{Min: mgl32.Vec3{-0.5, -0.5, -20}, Max: mgl32.Vec3{0.5, 0.5, -11}}
	left := AABB{Min: mgl32.Vec3{-5, 0, -2}, Max: mgl32.Vec3{-2, 1, -1}}

	assert.True(t, f.IntersectsAABB(inside))
	assert.True(t, f.IntersectsAABB(straddling))
	assert.False(t, f.IntersectsAABB(behind))
	assert.False(t, f.IntersectsAABB(beyond))
	assert.False(t, f.IntersectsAABB(left))
	assert.False(t, f.IntersectsAABB(EmptyAABB()))
}

func TestExtractFrustumPlanesAreNormalized(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1.5, 0.5, 50)
	f := ExtractFrustum(proj)
	for i, p := range f.Planes {
		assert.InDeltaf(t, 1, p.Normal.Len(), 1e-5, "plane %d", i)
	}
	// the near plane faces down -Z in view space
	assert.InDelta(t, -1, f.Planes[FrustumNear].Normal.Z(), 1e-5)
	assert.InDelta(t, -0.5, f.Planes[FrustumNear].Distance, 1e-4)
}
