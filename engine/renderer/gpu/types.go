package gpu

import "fmt"

// DepthFunc is the depth comparison used by the depth test.
// DepthDisabled turns the depth test off entirely.
type DepthFunc uint8

const (
	DepthDisabled DepthFunc = iota
	DepthNever
	DepthLess
	DepthEqual
	DepthLessEqual
	DepthGreater
	DepthNotEqual
	DepthGreaterEqual
	DepthAlways
)

var depthFuncNames = [...]string{"DISABLED", "NEVER", "LESS", "EQUAL", "LEQUAL", "GREATER", "NOTEQUAL", "GEQUAL", "ALWAYS"}

func (f DepthFunc) String() string {
	if int(f) < len(depthFuncNames) {
		return depthFuncNames[f]
	}
	return fmt.Sprintf("DepthFunc(%d)", f)
}

// CullFaces selects which polygon faces are discarded. CullNone disables culling.
type CullFaces uint8

const (
	CullNone CullFaces = iota
	CullFront
	CullBack
	CullFrontAndBack
)

var cullFacesNames = [...]string{"NONE", "FRONT", "BACK", "FRONT_AND_BACK"}

func (c CullFaces) String() string {
	if int(c) < len(cullFacesNames) {
		return cullFacesNames[c]
	}
	return fmt.Sprintf("CullFaces(%d)", c)
}

// FrontFace is the winding order that defines a front-facing polygon.
type FrontFace uint8

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

func (f FrontFace) String() string {
	switch f {
	case FrontFaceCCW:
		return "CCW"
	case FrontFaceCW:
		return "CW"
	}
	return fmt.Sprintf("FrontFace(%d)", f)
}

// BlendFactor scales the source or destination color in the blend equation.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcAlphaSaturate
)

var blendFactorNames = [...]string{
	"ZERO", "ONE", "SRC_COLOR", "ONE_MINUS_SRC_COLOR", "SRC_ALPHA", "ONE_MINUS_SRC_ALPHA",
	"DST_COLOR", "ONE_MINUS_DST_COLOR", "DST_ALPHA", "ONE_MINUS_DST_ALPHA", "SRC_ALPHA_SATURATE",
}

func (b BlendFactor) String() string {
	if int(b) < len(blendFactorNames) {
		return blendFactorNames[b]
	}
	return fmt.Sprintf("BlendFactor(%d)", b)
}

// BlendEquation combines the scaled source and destination colors.
type BlendEquation uint8

const (
	BlendAdd BlendEquation = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

var blendEquationNames = [...]string{"ADD", "SUBTRACT", "REVERSE_SUBTRACT", "MIN", "MAX"}

func (e BlendEquation) String() string {
	if int(e) < len(blendEquationNames) {
		return blendEquationNames[e]
	}
	return fmt.Sprintf("BlendEquation(%d)", e)
}

// Primitive is the topology a mesh is drawn with.
type Primitive uint8

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveTriangleStrip
	PrimitiveLines
	PrimitivePoints
)

// Viewport is a rectangle of the bound render target in pixels.
type Viewport struct {
	X, Y          int32
	Width, Height int32
}
