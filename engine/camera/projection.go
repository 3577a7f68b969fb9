package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Projection is the closed set of camera lenses: Perspective or Orthographic. The projection
// matrix is a pure function of the value.
type Projection interface {
	// Matrix returns the projection matrix.
	Matrix() mgl32.Mat4

	// NearFar returns the clip plane distances.
	NearFar() (near, far float32)

	isProjection()
}

// Perspective is a symmetric perspective frustum. FovY is in radians.
type Perspective struct {
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
}

// DefaultPerspective returns a 45 degree lens with aspect 1 and clip planes at 0.1 and 100.
func DefaultPerspective() Perspective {
	return Perspective{FovY: mgl32.DegToRad(45), Aspect: 1, Near: 0.1, Far: 100}
}

func (p Perspective) Matrix() mgl32.Mat4 {
	return mgl32.Perspective(p.FovY, p.Aspect, p.Near, p.Far)
}

func (p Perspective) NearFar() (float32, float32) { return p.Near, p.Far }
func (Perspective) isProjection()                 {}

// Orthographic is an axis-aligned box projection.
type Orthographic struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

// DefaultOrthographic returns the unit cube (-1..1 on every axis).
func DefaultOrthographic() Orthographic {
	return Orthographic{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 1}
}

func (o Orthographic) Matrix() mgl32.Mat4 {
	return mgl32.Ortho(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far)
}

func (o Orthographic) NearFar() (float32, float32) { return o.Near, o.Far }
func (Orthographic) isProjection()                 {}
