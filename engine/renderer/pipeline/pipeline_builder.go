package pipeline

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
)

// StateBlockBuilderOption is a functional option used to configure a StateBlock during construction.
type StateBlockBuilderOption func(*StateBlock)

// NewStateBlock creates a StateBlock starting from DefaultStateBlock and applying the given options.
//
// Parameters:
//   - options: variadic list of StateBlockBuilderOption functions to configure the block
//
// Returns:
//   - StateBlock: the configured block
func NewStateBlock(options ...StateBlockBuilderOption) StateBlock {
	s := DefaultStateBlock()
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// WithDepthWrite sets whether the block writes depth.
//
// Parameters:
//   - enabled: true to write depth
//
// Returns:
//   - StateBlockBuilderOption: a function that sets depth writes on the block
func WithDepthWrite(enabled bool) StateBlockBuilderOption {
	return func(s *StateBlock) {
		s.depthWrite = enabled
	}
}

// WithDepthFunc sets the depth comparison. gpu.DepthDisabled turns the depth test off.
//
// Parameters:
//   - fn: the depth comparison
//
// Returns:
//   - StateBlockBuilderOption: a function that sets the depth comparison on the block
func WithDepthFunc(fn gpu.DepthFunc) StateBlockBuilderOption {
	return func(s *StateBlock) {
		s.depthFunc = fn
	}
}

// WithCullFaces sets the culled faces.
//
// Parameters:
//   - faces: the faces to cull, gpu.CullNone to disable culling
//
// Returns:
//   - StateBlockBuilderOption: a function that sets the culled faces on the block
func WithCullFaces(faces gpu.CullFaces) StateBlockBuilderOption {
	return func(s *StateBlock) {
		s.cullFaces = faces
	}
}

// WithFrontFace sets the front-facing winding order.
//
// Parameters:
//   - face: the winding order of front faces
//
// Returns:
//   - StateBlockBuilderOption: a function that sets the front face on the block
func WithFrontFace(face gpu.FrontFace) StateBlockBuilderOption {
	return func(s *StateBlock) {
		s.frontFace = face
	}
}

// WithBlend enables blending with the given factors.
//
// Parameters:
//   - src: the source blend factor
//   - dst: the destination blend factor
//
// Returns:
//   - StateBlockBuilderOption: a function that enables blending on the block
func WithBlend(src, dst gpu.BlendFactor) StateBlockBuilderOption {
	return func(s *StateBlock) {
		s.blendEnabled = true
		s.blendSrc = src
		s.blendDst = dst
	}
}

// WithBlendEquation sets the blend equation.
//
// Parameters:
//   - eq: the blend equation
//
// Returns:
//   - StateBlockBuilderOption: a function that sets the blend equation on the block
func WithBlendEquation(eq gpu.BlendEquation) StateBlockBuilderOption {
	return func(s *StateBlock) {
		s.blendEquation = eq
	}
}
