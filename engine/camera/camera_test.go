package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type fixedAnchor struct {
	world mgl32.Mat4
}

func (a *fixedAnchor) WorldMatrix() mgl32.Mat4 { return a.world }

type recordingMover struct {
	position, target mgl32.Vec3
}

func (m *recordingMover) SetPosition(p mgl32.Vec3)    { m.position = p }
func (m *recordingMover) LookAt(target, _ mgl32.Vec3) { m.target = target }

func s3(v mgl32.Vec3) []float32  { return v[:] }
func s16(m mgl32.Mat4) []float32 { return m[:] }

func TestDefaults(t *testing.T) {
	assert.Equal(t, Perspective{FovY: mgl32.DegToRad(45), Aspect: 1, Near: 0.1, Far: 100}, DefaultPerspective())
	assert.Equal(t, Orthographic{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 1}, DefaultOrthographic())

	c := NewCamera()
	assert.Equal(t, DefaultPerspective(), c.Projection())
	assert.Equal(t, DefaultPerspective().Matrix(), c.ProjectionMatrix())
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
}

func TestProjectionIsPure(t *testing.T) {
	o := Orthographic{Left: -2, Right: 2, Bottom: -1, Top: 1, Near: 0, Far: 10}
	assert.Equal(t, mgl32.Ortho(-2, 2, -1, 1, 0, 10), o.Matrix())
	assert.Equal(t, o.Matrix(), o.Matrix())
	n, f := o.NearFar()
	assert.Equal(t, float32(0), n)
	assert.Equal(t, float32(10), f)
}

func TestSettersWaitForUpdate(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetAspect(2)
	assert.Equal(t, before, c.ProjectionMatrix(), "setters never recompute")

	c.Update()
	assert.Equal(t, Perspective{FovY: mgl32.DegToRad(45), Aspect: 2, Near: 0.1, Far: 100}.Matrix(), c.ProjectionMatrix())

	c.SetProjection(DefaultOrthographic())
	c.SetAspect(3)
	c.Update()
	assert.Equal(t, DefaultOrthographic(), c.Projection(), "aspect does not apply to orthographic lenses")
}

func TestAnchoredView(t *testing.T) {
	anchor := &fixedAnchor{world: mgl32.Translate3D(1, 2, 3)}
	c := NewCamera(WithAnchor(anchor))
	assert.InDeltaSlice(t, s16(mgl32.Translate3D(-1, -2, -3)), s16(c.ViewMatrix()), 1e-5)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, s3(c.Position()), 1e-5)

	anchor.world = mgl32.Translate3D(0, 0, 5)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, s3(c.Position()), 1e-5, "the anchor is read on Update")
	c.Update()
	assert.InDeltaSlice(t, []float32{0, 0, 5}, s3(c.Position()), 1e-5)
}

func TestExplicitView(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	c := NewCamera(WithViewMatrix(view))
	assert.Equal(t, view, c.ViewMatrix())
	assert.InDeltaSlice(t, []float32{0, 0, 10}, s3(c.Position()), 1e-5)
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	c := NewCamera(
		WithProjection(Perspective{FovY: mgl32.DegToRad(60), Aspect: 1.5, Near: 0.5, Far: 50}),
		WithViewMatrix(mgl32.LookAtV(mgl32.Vec3{3, 4, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})),
	)

	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1, -2, 3}, {-4, 1, -6}} {
		ndc := c.Project(p)
		back := c.Unproject(ndc)
		assert.InDeltaSlice(t, p[:], back[:], 1e-3)
	}

	// NDC corners survive the inverse and forward transforms.
	inv := c.ViewProjectionMatrix().Inv()
	for i, corner := range common.FrustumCorners(inv) {
		ndc := c.Project(corner)
		want := common.NDCCorners[i].Vec3()
		assert.InDeltaSlice(t, want[:], ndc[:], 1e-3)
	}
}

func TestControllerDrivesUnanchoredCamera(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithElevation(0), WithAzimuth(0))
	c := NewCamera(WithController(ctrl))
	assert.InDeltaSlice(t, []float32{0, 0, 10}, s3(c.Position()), 1e-4)

	ctrl.SetAzimuth(math32.Pi / 2)
	c.Update()
	assert.InDeltaSlice(t, []float32{10, 0, 0}, s3(c.Position()), 1e-4)
}

func TestOrbitControllerClamps(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithRadiusBounds(5, 15), WithElevationBounds(-0.5, 0.5), WithZoomSpeed(1))
	ctrl.Zoom(100)
	assert.Equal(t, float32(5), ctrl.Radius())
	ctrl.SetRadius(100)
	assert.Equal(t, float32(15), ctrl.Radius())
	ctrl.SetElevation(2)
	assert.Equal(t, float32(0.5), ctrl.Elevation())
	ctrl.Orbit(0, -1000)
	assert.Equal(t, float32(-0.5), ctrl.Elevation())
}

func TestOrbitControllerPan(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithElevation(0), WithAzimuth(0), WithPanSpeed(1))
	ctrl.PanRight(2)
	assert.InDeltaSlice(t, []float32{2, 0, 0}, s3(ctrl.Target()), 1e-5)
	assert.InDeltaSlice(t, []float32{2, 0, 10}, s3(ctrl.Position()), 1e-5)

	ctrl.PanForward(3)
	assert.InDeltaSlice(t, []float32{2, 0, -3}, s3(ctrl.Target()), 1e-5)
	assert.InDelta(t, 10, ctrl.Position().Sub(ctrl.Target()).Len(), 1e-4, "panning keeps the orbit radius")
}

func TestControllerApply(t *testing.T) {
	ctrl := NewOrbitController(WithTarget(mgl32.Vec3{1, 0, 0}), WithRadius(4), WithElevation(0))
	var m recordingMover
	ctrl.Apply(&m)
	assert.InDeltaSlice(t, []float32{1, 0, 4}, m.position[:], 1e-5)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, m.target)
}
