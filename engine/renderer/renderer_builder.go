package renderer

import (
	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize sets the viewport to cover a width × height surface.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that sets the viewport on a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.viewport = gpu.Viewport{Width: int32(width), Height: int32(height)}
	}
}

// WithViewport sets the rectangle the main pass draws into.
//
// Parameters:
//   - v: the viewport
//
// Returns:
//   - RendererBuilderOption: a function that sets the viewport on a renderer
func WithViewport(v gpu.Viewport) RendererBuilderOption {
	return func(r *renderer) {
		r.viewport = v
	}
}

// WithClearColor sets the color the main target is cleared to. The default is opaque black.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that sets the clear color on a renderer
func WithClearColor(c mgl32.Vec4) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithClearDepth sets the depth the main target is cleared to. The default is 1.
//
// Parameters:
//   - d: the clear depth
//
// Returns:
//   - RendererBuilderOption: a function that sets the clear depth on a renderer
func WithClearDepth(d float32) RendererBuilderOption {
	return func(r *renderer) {
		r.clearDepth = d
	}
}

// WithAutoClear sets whether every executed frame starts by clearing the main target. On by default.
//
// Parameters:
//   - enabled: true to clear automatically
//
// Returns:
//   - RendererBuilderOption: a function that sets auto clear on a renderer
func WithAutoClear(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.autoClear = enabled
	}
}

// WithStateBlock replaces pipeline.DefaultStateBlock as the state applied at the start of every frame.
//
// Parameters:
//   - s: the default state
//
// Returns:
//   - RendererBuilderOption: a function that sets the default state on a renderer
func WithStateBlock(s pipeline.StateBlock) RendererBuilderOption {
	return func(r *renderer) {
		r.state = s
	}
}

// WithAmbientColor sets the color ambient passes receive.
//
// Parameters:
//   - c: the ambient color
//
// Returns:
//   - RendererBuilderOption: a function that sets the ambient color on a renderer
func WithAmbientColor(c mgl32.Vec3) RendererBuilderOption {
	return func(r *renderer) {
		r.ambientColor = c
	}
}

// WithFrustumCulling enables skipping meshes outside the camera frustum in the main pass.
//
// Returns:
//   - RendererBuilderOption: a function that enables culling on a renderer
func WithFrustumCulling() RendererBuilderOption {
	return func(r *renderer) {
		r.culling = true
	}
}

// WithSceneBounds fixes the world-space bounds shadow cameras are fitted to.
//
// Parameters:
//   - b: the scene bounds
//
// Returns:
//   - RendererBuilderOption: a function that sets the scene bounds on a renderer
func WithSceneBounds(b common.AABB) RendererBuilderOption {
	return func(r *renderer) {
		r.sceneBounds = b
		r.hasSceneBounds = !b.IsEmpty()
	}
}

// WithRenderTarget directs the main pass into an offscreen target.
//
// Parameters:
//   - t: the target
//
// Returns:
//   - RendererBuilderOption: a function that sets the render target on a renderer
func WithRenderTarget(t gpu.RenderTarget) RendererBuilderOption {
	return func(r *renderer) {
		r.target = t
	}
}

// WithTextureUnits limits the texture units a draw may claim, for devices with fewer than
// pipeline.MaxTextureUnits.
//
// Parameters:
//   - n: the number of units
//
// Returns:
//   - RendererBuilderOption: a function that sets the unit count on a renderer
func WithTextureUnits(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.textureUnits = n
	}
}
