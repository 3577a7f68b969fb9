package wgpugpu

import (
	"github.com/Carmen-Shannon/oxy-forward/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var compareFunctions = [...]wgpu.CompareFunction{
	gpu.DepthDisabled:     wgpu.CompareFunctionAlways,
	gpu.DepthNever:        wgpu.CompareFunctionNever,
	gpu.DepthLess:         wgpu.CompareFunctionLess,
	gpu.DepthEqual:        wgpu.CompareFunctionEqual,
	gpu.DepthLessEqual:    wgpu.CompareFunctionLessEqual,
	gpu.DepthGreater:      wgpu.CompareFunctionGreater,
	gpu.DepthNotEqual:     wgpu.CompareFunctionNotEqual,
	gpu.DepthGreaterEqual: wgpu.CompareFunctionGreaterEqual,
	gpu.DepthAlways:       wgpu.CompareFunctionAlways,
}

var blendFactors = [...]wgpu.BlendFactor{
	gpu.BlendZero:             wgpu.BlendFactorZero,
	gpu.BlendOne:              wgpu.BlendFactorOne,
	gpu.BlendSrcColor:         wgpu.BlendFactorSrc,
	gpu.BlendOneMinusSrcColor: wgpu.BlendFactorOneMinusSrc,
	gpu.BlendSrcAlpha:         wgpu.BlendFactorSrcAlpha,
	gpu.BlendOneMinusSrcAlpha: wgpu.BlendFactorOneMinusSrcAlpha,
	gpu.BlendDstColor:         wgpu.BlendFactorDst,
	gpu.BlendOneMinusDstColor: wgpu.BlendFactorOneMinusDst,
	gpu.BlendDstAlpha:         wgpu.BlendFactorDstAlpha,
	gpu.BlendOneMinusDstAlpha: wgpu.BlendFactorOneMinusDstAlpha,
	gpu.BlendSrcAlphaSaturate: wgpu.BlendFactorSrcAlphaSaturated,
}

var blendOperations = [...]wgpu.BlendOperation{
	gpu.BlendAdd:             wgpu.BlendOperationAdd,
	gpu.BlendSubtract:        wgpu.BlendOperationSubtract,
	gpu.BlendReverseSubtract: wgpu.BlendOperationReverseSubtract,
	gpu.BlendMin:             wgpu.BlendOperationMin,
	gpu.BlendMax:             wgpu.BlendOperationMax,
}

var topologies = [...]wgpu.PrimitiveTopology{
	gpu.PrimitiveTriangles:     wgpu.PrimitiveTopologyTriangleList,
	gpu.PrimitiveTriangleStrip: wgpu.PrimitiveTopologyTriangleStrip,
	gpu.PrimitiveLines:         wgpu.PrimitiveTopologyLineList,
	gpu.PrimitivePoints:        wgpu.PrimitiveTopologyPointList,
}

func compareFunction(f gpu.DepthFunc) wgpu.CompareFunction {
	if int(f) < len(compareFunctions) {
		return compareFunctions[f]
	}
	return wgpu.CompareFunctionAlways
}

// cullMode maps culled faces onto WebGPU. CullFrontAndBack has no equivalent; Draw drops
// triangles instead.
func cullMode(c gpu.CullFaces) wgpu.CullMode {
	switch c {
	case gpu.CullFront:
		return wgpu.CullModeFront
	case gpu.CullBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

func frontFace(f gpu.FrontFace) wgpu.FrontFace {
	if f == gpu.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func blendFactor(b gpu.BlendFactor) wgpu.BlendFactor {
	if int(b) < len(blendFactors) {
		return blendFactors[b]
	}
	return wgpu.BlendFactorOne
}

func blendOperation(e gpu.BlendEquation) wgpu.BlendOperation {
	if int(e) < len(blendOperations) {
		return blendOperations[e]
	}
	return wgpu.BlendOperationAdd
}

func topology(p gpu.Primitive) wgpu.PrimitiveTopology {
	if int(p) < len(topologies) {
		return topologies[p]
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func isTriangles(p gpu.Primitive) bool {
	return p == gpu.PrimitiveTriangles || p == gpu.PrimitiveTriangleStrip
}

// flipViewport converts a bottom-left origin viewport to the top-left origin WebGPU uses,
// clamped to a width × height target.
func flipViewport(v gpu.Viewport, width, height int) (x, y, w, h float32) {
	x0 := clampInt(int(v.X), 0, width)
	x1 := clampInt(int(v.X+v.Width), x0, width)
	top := clampInt(height-int(v.Y+v.Height), 0, height)
	bottom := clampInt(height-int(v.Y), top, height)
	return float32(x0), float32(top), float32(x1 - x0), float32(bottom - top)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}
