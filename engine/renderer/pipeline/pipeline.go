package pipeline

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
)

// StateBlock is a snapshot of the fixed-function pipeline state a draw needs: depth, culling,
// winding and blending. It is a plain value; copies are independent.
//
// A StateBlock does nothing on its own. Apply hands it to a Context, which only forwards the
// fields that differ from what the device currently has.
type StateBlock struct {
	depthWrite    bool
	depthFunc     gpu.DepthFunc
	cullFaces     gpu.CullFaces
	frontFace     gpu.FrontFace
	blendEnabled  bool
	blendSrc      gpu.BlendFactor
	blendDst      gpu.BlendFactor
	blendEquation gpu.BlendEquation
}

// DefaultStateBlock returns the state the device starts in: depth writes on, LESS, back-face
// culling, counter-clockwise front faces and blending off with ONE/ZERO and ADD.
func DefaultStateBlock() StateBlock {
	return StateBlock{
		depthWrite:    true,
		depthFunc:     gpu.DepthLess,
		cullFaces:     gpu.CullBack,
		frontFace:     gpu.FrontFaceCCW,
		blendEnabled:  false,
		blendSrc:      gpu.BlendOne,
		blendDst:      gpu.BlendZero,
		blendEquation: gpu.BlendAdd,
	}
}

// DepthWrite reports whether the block writes depth.
func (s StateBlock) DepthWrite() bool { return s.depthWrite }

// DepthFunc returns the depth comparison. gpu.DepthDisabled means the test is off.
func (s StateBlock) DepthFunc() gpu.DepthFunc { return s.depthFunc }

// CullFaces returns the culled faces. gpu.CullNone means culling is off.
func (s StateBlock) CullFaces() gpu.CullFaces { return s.cullFaces }

// FrontFace returns the front-facing winding.
func (s StateBlock) FrontFace() gpu.FrontFace { return s.frontFace }

// BlendEnabled reports whether blending is on.
func (s StateBlock) BlendEnabled() bool { return s.blendEnabled }

// BlendSrc returns the source blend factor.
func (s StateBlock) BlendSrc() gpu.BlendFactor { return s.blendSrc }

// BlendDst returns the destination blend factor.
func (s StateBlock) BlendDst() gpu.BlendFactor { return s.blendDst }

// BlendFactors returns the source and destination blend factors.
func (s StateBlock) BlendFactors() (src, dst gpu.BlendFactor) { return s.blendSrc, s.blendDst }

// BlendEquation returns the blend equation.
func (s StateBlock) BlendEquation() gpu.BlendEquation { return s.blendEquation }

func (s *StateBlock) SetDepthWrite(enabled bool)        { s.depthWrite = enabled }
func (s *StateBlock) SetDepthFunc(fn gpu.DepthFunc)     { s.depthFunc = fn }
func (s *StateBlock) SetCullFaces(faces gpu.CullFaces)  { s.cullFaces = faces }
func (s *StateBlock) SetFrontFace(face gpu.FrontFace)   { s.frontFace = face }
func (s *StateBlock) SetBlendEnabled(enabled bool)      { s.blendEnabled = enabled }
func (s *StateBlock) SetBlendSrc(f gpu.BlendFactor)     { s.blendSrc = f }
func (s *StateBlock) SetBlendDst(f gpu.BlendFactor)     { s.blendDst = f }

// SetBlendEquation sets the blend equation.
func (s *StateBlock) SetBlendEquation(eq gpu.BlendEquation) { s.blendEquation = eq }

// SetBlendFactors sets both blend factors at once.
func (s *StateBlock) SetBlendFactors(src, dst gpu.BlendFactor) {
	s.blendSrc = src
	s.blendDst = dst
}

// AdditionalPassDepthFunc returns the depth comparison an additive pass drawn over this block's
// output should use so it only touches the fragments that won the first pass.
//
// When the block writes depth, every comparing function becomes EQUAL; DISABLED and NEVER are
// returned as is. When it does not write depth the depth buffer holds nothing of ours to match,
// so the block's own function is returned.
func (s StateBlock) AdditionalPassDepthFunc() gpu.DepthFunc {
	if !s.depthWrite {
		return s.depthFunc
	}
	switch s.depthFunc {
	case gpu.DepthLess, gpu.DepthLessEqual, gpu.DepthGreater, gpu.DepthNotEqual,
		gpu.DepthGreaterEqual, gpu.DepthAlways, gpu.DepthEqual:
		return gpu.DepthEqual
	default:
		return s.depthFunc
	}
}

// Apply makes this block the device state, issuing only the calls whose field differs from the
// context's baseline. The first Apply on a fresh Context issues every call.
func (s StateBlock) Apply(ctx *Context) {
	ctx.applyState(s, false)
}

// ApplyForced issues every state call regardless of the baseline.
func (s StateBlock) ApplyForced(ctx *Context) {
	ctx.applyState(s, true)
}
