package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithProjection sets the lens.
//
// Parameters:
//   - p: a Perspective or Orthographic value
//
// Returns:
//   - CameraBuilderOption: functional option to set the projection
func WithProjection(p Projection) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection = p
	}
}

// WithAnchor attaches the camera to a node.
//
// Parameters:
//   - a: the anchor
//
// Returns:
//   - CameraBuilderOption: functional option to set the anchor
func WithAnchor(a Anchor) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.anchor = a
	}
}

// WithController attaches a controller to an unanchored camera.
//
// Parameters:
//   - ctrl: the camera controller
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithUp sets the up vector used with a controller.
//
// Parameters:
//   - up: the world up direction
//
// Returns:
//   - CameraBuilderOption: functional option to set the up vector
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithViewMatrix sets the initial view of an unanchored camera.
//
// Parameters:
//   - view: the world to view transform
//
// Returns:
//   - CameraBuilderOption: functional option to set the view
func WithViewMatrix(view mgl32.Mat4) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewMatrix = view
	}
}
