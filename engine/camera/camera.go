package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Anchor is what a camera hangs off: its world matrix places the eye.
type Anchor interface {
	WorldMatrix() mgl32.Mat4
}

type cameraImpl struct {
	mu *sync.Mutex

	projection      Projection
	projectionDirty bool

	anchor     Anchor
	controller CameraController
	up         mgl32.Vec3

	viewMatrix              mgl32.Mat4
	inverseViewMatrix       mgl32.Mat4
	projectionMatrix        mgl32.Mat4
	inverseProjectionMatrix mgl32.Mat4
	viewDirty               bool
}

// Camera holds a projection and computes view and projection matrices.
//
// Setters only mark state stale. Update rebuilds what is stale: the projection from the
// Projection value, the view from the anchor's world matrix (or the controller when there is
// no anchor). Matrix getters return the values computed by the last Update, so a frame sees one
// consistent set of matrices.
type Camera interface {
	// Projection returns the current lens.
	//
	// Returns:
	//   - Projection: a Perspective or Orthographic value
	Projection() Projection

	// SetProjection replaces the lens. The matrix is rebuilt on the next Update.
	//
	// Parameters:
	//   - p: a Perspective or Orthographic value
	SetProjection(p Projection)

	// SetAspect changes the aspect ratio of a perspective lens. Orthographic lenses are left as is.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// Anchor returns the object whose world matrix places the camera, or nil.
	Anchor() Anchor

	// SetAnchor attaches the camera to a. The view becomes inverse(a.WorldMatrix()) on every Update.
	//
	// Parameters:
	//   - a: the anchor, or nil to detach
	SetAnchor(a Anchor)

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// SetController attaches a controller that places an unanchored camera on Update.
	//
	// Parameters:
	//   - ctrl: the controller, or nil
	SetController(ctrl CameraController)

	// SetViewMatrix sets the view of an unanchored camera without a controller.
	//
	// Parameters:
	//   - view: the world to view transform
	SetViewMatrix(view mgl32.Mat4)

	// Update rebuilds stale matrices. Call once per frame before rendering.
	Update()

	// ViewMatrix returns the view matrix computed by the last Update.
	ViewMatrix() mgl32.Mat4

	// InverseViewMatrix returns the camera's world matrix.
	InverseViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the projection matrix computed by the last Update.
	ProjectionMatrix() mgl32.Mat4

	// InverseProjectionMatrix returns the inverse of ProjectionMatrix.
	InverseProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns ProjectionMatrix × ViewMatrix.
	ViewProjectionMatrix() mgl32.Mat4

	// Position returns the eye position in world space.
	Position() mgl32.Vec3

	// Project maps a world-space point to normalized device coordinates.
	//
	// Parameters:
	//   - v: the world-space point
	//
	// Returns:
	//   - mgl32.Vec3: the point after P·V and the perspective divide
	Project(v mgl32.Vec3) mgl32.Vec3

	// Unproject maps a normalized device coordinate back to world space.
	//
	// Parameters:
	//   - v: the NDC point
	//
	// Returns:
	//   - mgl32.Vec3: the point after V⁻¹·P⁻¹ and the perspective divide
	Unproject(v mgl32.Vec3) mgl32.Vec3
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with the default perspective lens and an identity view. The
// matrices are computed immediately so the camera is usable before the first Update.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		projection: DefaultPerspective(),
		up:         mgl32.Vec3{0, 1, 0},
		viewMatrix: mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	c.projectionDirty = true
	c.viewDirty = true
	c.update()
	return c
}

func (c *cameraImpl) Projection() Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) SetProjection(p Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection = p
	c.projectionDirty = true
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.projection.(Perspective); ok {
		p.Aspect = aspect
		c.projection = p
		c.projectionDirty = true
	}
}

func (c *cameraImpl) Anchor() Anchor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchor
}

func (c *cameraImpl) SetAnchor(a Anchor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor = a
	c.viewDirty = true
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.viewDirty = true
}

func (c *cameraImpl) SetViewMatrix(view mgl32.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMatrix = view
	c.viewDirty = true
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update()
}

// update is Update with the mutex held. Anchored and controlled views are always rebuilt since
// nothing tells the camera when they move.
func (c *cameraImpl) update() {
	switch {
	case c.anchor != nil:
		world := c.anchor.WorldMatrix()
		c.inverseViewMatrix = world
		c.viewMatrix = world.Inv()
	case c.controller != nil:
		c.viewMatrix = mgl32.LookAtV(c.controller.Position(), c.controller.Target(), c.up)
		c.inverseViewMatrix = c.viewMatrix.Inv()
	case c.viewDirty:
		c.inverseViewMatrix = c.viewMatrix.Inv()
	}
	c.viewDirty = false

	if c.projectionDirty {
		c.projectionMatrix = c.projection.Matrix()
		c.inverseProjectionMatrix = c.projectionMatrix.Inv()
		c.projectionDirty = false
	}
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) InverseViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix.Mul4(c.viewMatrix)
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewMatrix.Col(3).Vec3()
}

func (c *cameraImpl) Project(v mgl32.Vec3) mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.PerspectiveDivide(c.projectionMatrix.Mul4(c.viewMatrix).Mul4x1(v.Vec4(1)))
}

func (c *cameraImpl) Unproject(v mgl32.Vec3) mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.PerspectiveDivide(c.inverseViewMatrix.Mul4(c.inverseProjectionMatrix).Mul4x1(v.Vec4(1)))
}
