package scene

import (
	"runtime"
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/camera"
	"github.com/Carmen-Shannon/oxy-forward/engine/light"
	"github.com/Carmen-Shannon/oxy-forward/engine/model"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/material"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3(v mgl32.Vec3) []float32  { return v[:] }
func s16(m mgl32.Mat4) []float32 { return m[:] }

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode(WithName("n"))
	assert.Equal(t, "n", n.Name())
	assert.True(t, n.Enabled())
	assert.Nil(t, n.Parent())
	assert.Zero(t, n.ChildCount())
	assert.Equal(t, mgl32.Ident4(), n.LocalMatrix())
	assert.Equal(t, mgl32.Ident4(), n.WorldMatrix())
	assert.NotZero(t, n.ID())
}

func TestIDsAreUnique(t *testing.T) {
	a, b := NewNode(), NewNode()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Same(t, a, ByID(a.ID()))
	assert.Same(t, b, ByID(b.ID()))
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestSetIDRekeysRegistry(t *testing.T) {
	a, b := NewNode(), NewNode()
	old := a.ID()
	id := NodeID(1<<40) + a.ID()

	require.NoError(t, a.SetID(id))
	assert.Equal(t, id, a.ID())
	assert.Same(t, a, ByID(id))
	assert.Nil(t, ByID(old))

	assert.ErrorIs(t, b.SetID(id), ErrIDInUse)
	assert.NoError(t, a.SetID(id), "re-setting the same id is a no-op")
	runtime.KeepAlive(b)
}

func TestByIDUnknown(t *testing.T) {
	assert.Nil(t, ByID(NodeID(1<<50)))
}

func TestAddReparents(t *testing.T) {
	a, b, c := NewNode(WithName("a")), NewNode(WithName("b")), NewNode(WithName("c"))
	a.Add(c)
	b.Add(c)

	assert.Same(t, b, c.Parent())
	assert.Zero(t, a.ChildCount())
	require.Equal(t, 1, b.ChildCount())
	assert.Same(t, c, b.Child(0))
}

func TestAddCyclePanics(t *testing.T) {
	a, b := NewNode(), NewNode()
	a.Add(b)
	assert.Panics(t, func() { b.Add(a) })
	assert.Panics(t, func() { a.Add(a) })
}

func TestRemoveDetachesFromParentOnly(t *testing.T) {
	grand := NewNode(WithName("grand"))
	parent := NewNode(WithName("parent"))
	child := NewNode(WithName("child"))
	sibling := NewNode(WithName("sibling"))
	grand.Add(parent)
	parent.Add(child)
	parent.Add(sibling)

	assert.False(t, grand.Remove(child), "a grandparent does not own the grandchild")
	assert.Same(t, parent, child.Parent())

	assert.True(t, parent.Remove(child))
	assert.Nil(t, child.Parent())
	assert.Equal(t, []Node{sibling}, parent.Children())
	assert.Equal(t, []Node{parent}, grand.Children())
	assert.False(t, parent.Remove(child))
}

func TestChildrenIsACopy(t *testing.T) {
	p, c := NewNode(), NewNode()
	p.Add(c)
	kids := p.Children()
	kids[0] = nil
	assert.Same(t, c, p.Child(0))
}

func TestLocalMatrixIsTRS(t *testing.T) {
	q := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 1, 0})
	n := NewNode()
	n.SetTransform(mgl32.Vec3{1, 2, 3}, q, mgl32.Vec3{2, 2, 2})

	want := mgl32.Translate3D(1, 2, 3).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))
	assert.InDeltaSlice(t, s16(want), s16(n.LocalMatrix()), 1e-5)

	n.SetPosition(mgl32.Vec3{0, 0, 0})
	assert.InDeltaSlice(t, []float32{0, 0, 0}, s3(n.LocalMatrix().Col(3).Vec3()), 1e-6, "setters invalidate the cached matrix")
}

func TestWorldMatrixComposesParents(t *testing.T) {
	root := NewNode(WithPosition(mgl32.Vec3{10, 0, 0}))
	mid := NewNode(WithRotation(mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})))
	leaf := NewNode(WithPosition(mgl32.Vec3{1, 0, 0}))
	root.Add(mid)
	mid.Add(leaf)

	assert.InDeltaSlice(t, []float32{10, 1, 0}, s3(leaf.WorldPosition()), 1e-5)

	root.SetPosition(mgl32.Vec3{0, 5, 0})
	assert.InDeltaSlice(t, []float32{0, 6, 0}, s3(leaf.WorldPosition()), 1e-5, "world follows parent changes immediately")
}

func TestSetMatrixDecomposes(t *testing.T) {
	q := mgl32.QuatRotate(0.7, mgl32.Vec3{1, 1, 0}.Normalize())
	m := mgl32.Translate3D(4, 5, 6).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(1, 2, 3))

	n := NewNode()
	n.SetMatrix(m)
	assert.InDeltaSlice(t, []float32{4, 5, 6}, s3(n.Position()), 1e-5)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, s3(n.Scale()), 1e-5)
	assert.InDeltaSlice(t, s16(m), s16(n.LocalMatrix()), 1e-4)
}

func TestRotateLocalAndWorld(t *testing.T) {
	parent := NewNode(WithRotation(mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 1, 0})))
	n := NewNode()
	parent.Add(n)

	n.Rotate(math32.Pi/2, mgl32.Vec3{1, 0, 0})
	// Local X is world -Z under the parent; pitching up about it turns forward to world up.
	assert.InDeltaSlice(t, []float32{0, 1, 0}, s3(n.Forward()), 1e-5)

	m := NewNode()
	parent.Add(m)
	m.RotateWorld(math32.Pi/2, mgl32.Vec3{1, 0, 0})
	// Forward is world -X under the parent; rotating about world X leaves it unchanged.
	assert.InDeltaSlice(t, []float32{-1, 0, 0}, s3(m.Forward()), 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0, 1}, s3(m.Up()), 1e-5)
}

func TestLookAt(t *testing.T) {
	parent := NewNode(WithPosition(mgl32.Vec3{0, 0, 5}), WithRotation(mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0})))
	n := NewNode(WithPosition(mgl32.Vec3{1, 0, 0}))
	parent.Add(n)

	target := mgl32.Vec3{3, 4, -2}
	n.LookAt(target, mgl32.Vec3{0, 1, 0})
	want := target.Sub(n.WorldPosition()).Normalize()
	assert.InDeltaSlice(t, s3(want), s3(n.Forward()), 1e-4)
	assert.InDelta(t, 0, n.Right().Dot(mgl32.Vec3{0, 1, 0}), 1e-4, "right stays horizontal")
}

func TestDirections(t *testing.T) {
	n := NewNode()
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, n.Forward())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, n.Right())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, n.Up())
}

func TestMaterialInherited(t *testing.T) {
	mat := material.NewMaterial(material.WithName("m"))
	root := NewNode(WithMaterial(mat))
	child := NewNode()
	root.Add(child)

	assert.Same(t, mat, child.Material())
	assert.Nil(t, child.OwnMaterial())

	own := material.NewMaterial(material.WithName("own"))
	child.SetMaterial(own)
	assert.Same(t, own, child.Material())
	child.SetMaterial(nil)
	assert.Same(t, mat, child.Material())
}

func TestWorldBounds(t *testing.T) {
	n := NewNode(WithPosition(mgl32.Vec3{0, 10, 0}))
	_, ok := n.WorldBounds()
	assert.False(t, ok)

	n.SetMesh(model.Box("box", mgl32.Vec3{2, 2, 2}))
	b, ok := n.WorldBounds()
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{-1, 9, -1}, s3(b.Min), 1e-5)
	assert.InDeltaSlice(t, []float32{1, 11, 1}, s3(b.Max), 1e-5)
}

func TestSetLightMovesBetweenNodes(t *testing.T) {
	l := light.NewLight(light.WithShadow(light.WithCascades(2)))
	a := NewNode(WithName("a"), WithLight(l))
	assert.Same(t, a, l.Host())
	assert.Equal(t, 2, a.ChildCount(), "cascade mounts are parented under the light node")

	b := NewNode(WithName("b"))
	b.SetLight(l)
	assert.Nil(t, a.Light())
	assert.Zero(t, a.ChildCount())
	assert.Same(t, b, l.Host())
	assert.Equal(t, 2, b.ChildCount())

	b.SetLight(nil)
	assert.Nil(t, l.Host())
	assert.Zero(t, b.ChildCount())
}

func TestCascadeCamerasFollowLightNode(t *testing.T) {
	l := light.NewLight(light.WithType(light.LightTypeSpot), light.WithRange(20), light.WithShadow())
	n := NewNode(WithPosition(mgl32.Vec3{0, 8, 0}), WithLight(l))
	n.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})

	l.Shadow().Update(camera.NewCamera(), common.EmptyAABB())
	cam := l.Shadow().Camera(0)
	assert.InDeltaSlice(t, []float32{0, 8, 0}, s3(cam.Position()), 1e-5)
	ndc := cam.Project(mgl32.Vec3{0, 0, 0})
	assert.InDelta(t, 0, ndc[0], 1e-4)
	assert.InDelta(t, 0, ndc[1], 1e-4)
}

func TestCascadeCamerasIgnoreLightNodeScale(t *testing.T) {
	l := light.NewLight(light.WithType(light.LightTypeSpot), light.WithRange(20), light.WithShadow())
	n := NewNode(WithPosition(mgl32.Vec3{0, 8, 0}), WithScale(mgl32.Vec3{2, 3, 2}), WithLight(l))
	n.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1})

	l.Shadow().Update(camera.NewCamera(), common.EmptyAABB())
	cam := l.Shadow().Camera(0)
	assert.InDeltaSlice(t, []float32{1, 1, 1}, s3(common.ScaleOf(cam.InverseViewMatrix())), 1e-4)
	assert.InDelta(t, 1, cam.Project(mgl32.Vec3{0, -12, 0})[2], 1e-3, "far plane sits at the light range")
}

func TestSetCameraAnchors(t *testing.T) {
	cam := camera.NewCamera()
	n := NewNode(WithPosition(mgl32.Vec3{0, 0, 7}), WithCamera(cam))
	cam.Update()
	assert.Same(t, n, cam.Anchor())
	assert.InDeltaSlice(t, []float32{0, 0, 7}, s3(cam.Position()), 1e-5)

	n.SetCamera(nil)
	assert.Nil(t, cam.Anchor())
}
