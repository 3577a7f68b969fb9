package glgpu

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
)

var depthFuncs = [...]uint32{
	gpu.DepthNever:        gl.NEVER,
	gpu.DepthLess:         gl.LESS,
	gpu.DepthEqual:        gl.EQUAL,
	gpu.DepthLessEqual:    gl.LEQUAL,
	gpu.DepthGreater:      gl.GREATER,
	gpu.DepthNotEqual:     gl.NOTEQUAL,
	gpu.DepthGreaterEqual: gl.GEQUAL,
	gpu.DepthAlways:       gl.ALWAYS,
}

var cullFaces = [...]uint32{
	gpu.CullFront:        gl.FRONT,
	gpu.CullBack:         gl.BACK,
	gpu.CullFrontAndBack: gl.FRONT_AND_BACK,
}

var blendFactors = [...]uint32{
	gpu.BlendZero:             gl.ZERO,
	gpu.BlendOne:              gl.ONE,
	gpu.BlendSrcColor:         gl.SRC_COLOR,
	gpu.BlendOneMinusSrcColor: gl.ONE_MINUS_SRC_COLOR,
	gpu.BlendSrcAlpha:         gl.SRC_ALPHA,
	gpu.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	gpu.BlendDstColor:         gl.DST_COLOR,
	gpu.BlendOneMinusDstColor: gl.ONE_MINUS_DST_COLOR,
	gpu.BlendDstAlpha:         gl.DST_ALPHA,
	gpu.BlendOneMinusDstAlpha: gl.ONE_MINUS_DST_ALPHA,
	gpu.BlendSrcAlphaSaturate: gl.SRC_ALPHA_SATURATE,
}

var blendEquations = [...]uint32{
	gpu.BlendAdd:             gl.FUNC_ADD,
	gpu.BlendSubtract:        gl.FUNC_SUBTRACT,
	gpu.BlendReverseSubtract: gl.FUNC_REVERSE_SUBTRACT,
	gpu.BlendMin:             gl.MIN,
	gpu.BlendMax:             gl.MAX,
}

var primitives = [...]uint32{
	gpu.PrimitiveTriangles:     gl.TRIANGLES,
	gpu.PrimitiveTriangleStrip: gl.TRIANGLE_STRIP,
	gpu.PrimitiveLines:         gl.LINES,
	gpu.PrimitivePoints:        gl.POINTS,
}

func glDepthFunc(f gpu.DepthFunc) uint32 {
	if int(f) < len(depthFuncs) && f != gpu.DepthDisabled {
		return depthFuncs[f]
	}
	return gl.ALWAYS
}

func glCullFace(c gpu.CullFaces) uint32 {
	if int(c) < len(cullFaces) && c != gpu.CullNone {
		return cullFaces[c]
	}
	return gl.BACK
}

func glFrontFace(f gpu.FrontFace) uint32 {
	if f == gpu.FrontFaceCW {
		return gl.CW
	}
	return gl.CCW
}

func glBlendFactor(b gpu.BlendFactor) uint32 {
	if int(b) < len(blendFactors) {
		return blendFactors[b]
	}
	return gl.ONE
}

func glBlendEquation(e gpu.BlendEquation) uint32 {
	if int(e) < len(blendEquations) {
		return blendEquations[e]
	}
	return gl.FUNC_ADD
}

func glPrimitive(p gpu.Primitive) uint32 {
	if int(p) < len(primitives) {
		return primitives[p]
	}
	return gl.TRIANGLES
}

func clearMask(color, depth, stencil bool) uint32 {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if stencil {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	return mask
}
