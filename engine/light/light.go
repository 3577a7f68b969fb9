package light

import (
	"github.com/Carmen-Shannon/oxy-forward/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// LightType identifies the kind of light source. The values are the ones shaders receive in
// light.type.
type LightType int

const (
	// LightTypePoint emits in all directions from the node position. Point lights cannot cast
	// shadows.
	LightTypePoint LightType = iota

	// LightTypeDirectional has no position, only the node's forward direction. Its shadow is split
	// into cascades.
	LightTypeDirectional

	// LightTypeSpot emits in a cone along the node's forward direction.
	LightTypeSpot

	lightTypeCount
)

// LightTypeCount is the number of light types.
const LightTypeCount = int(lightTypeCount)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeDirectional:
		return "directional"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// Attenuation defaults. A cutoff of 0.004 is roughly one 8-bit color step.
const (
	DefaultRadius      float32 = 1.0
	DefaultAttenCutoff float32 = 0.004
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType   LightType
	color       mgl32.Vec3
	radius      float32
	attenCutoff float32
	innerCone   float32 // cos of the inner half-angle
	outerCone   float32 // cos of the outer half-angle
	enabled     bool
	host        Host
	shadow      *Shadow
}

// Light defines the interface for a light source attached to a scene node.
//
// Position and direction come from the node: a light sits at the node origin and points along
// the node's forward axis (-Z). Intensity falls off as 1/((d/radius + 1)^2) and is treated as
// zero once it drops below the cutoff, which gives the light a finite range.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// SetType changes the kind of light. Switching to a point light drops the shadow; switching
	// to a spot light clamps the shadow to one cascade.
	//
	// Parameters:
	//   - t: the new type
	SetType(t LightType)

	// Color returns the RGB color of the light.
	Color() mgl32.Vec3

	// SetColor sets the RGB color of the light.
	SetColor(c mgl32.Vec3)

	// Radius returns the attenuation radius.
	Radius() float32

	// SetRadius sets the attenuation radius.
	SetRadius(r float32)

	// AttenCutoff returns the attenuation below which the light is ignored.
	AttenCutoff() float32

	// SetAttenCutoff sets the attenuation below which the light is ignored.
	SetAttenCutoff(cutoff float32)

	// Attenuation returns the intensity factor at distance d.
	//
	// Parameters:
	//   - d: the distance from the light
	//
	// Returns:
	//   - float32: 1/((d/radius + 1)^2)
	Attenuation(d float32) float32

	// Range returns the distance at which the brightest color channel attenuates to the cutoff.
	//
	// Returns:
	//   - float32: radius·(sqrt(maxColor/cutoff) − 1)
	Range() float32

	// SetRange adjusts the cutoff so that Range returns r.
	//
	// Parameters:
	//   - r: the desired range
	SetRange(r float32)

	// InnerCone returns the cosine of the spot inner half-angle.
	InnerCone() float32

	// OuterCone returns the cosine of the spot outer half-angle.
	OuterCone() float32

	// SetSpotCone sets the spot cone half-angles. Angles are in radians and stored as cosines.
	//
	// Parameters:
	//   - inner: the half-angle of full intensity
	//   - outer: the half-angle beyond which the light contributes nothing
	SetSpotCone(inner, outer float32)

	// Enabled returns whether this light is active for rendering.
	Enabled() bool

	// SetEnabled enables or disables the light for rendering.
	SetEnabled(enabled bool)

	// Host returns the node the light is attached to, or nil.
	Host() Host

	// Attach binds the light to a scene node. Cascade cameras of an existing shadow are mounted
	// under it. Scene nodes call this from SetLight.
	//
	// Parameters:
	//   - h: the node, or nil to detach
	Attach(h Host)

	// Position returns the world-space position of the host node.
	Position() mgl32.Vec3

	// Direction returns the world-space forward direction of the host node.
	Direction() mgl32.Vec3

	// Shadow returns the light's shadow, or nil.
	Shadow() *Shadow

	// EnableShadow gives the light a shadow, replacing any existing one. Point lights cannot
	// cast shadows: the request is logged and nil returned.
	//
	// Parameters:
	//   - opts: variadic list of ShadowBuilderOption functions to configure the shadow
	//
	// Returns:
	//   - *Shadow: the new shadow, or nil
	EnableShadow(opts ...ShadowBuilderOption) *Shadow

	// DisableShadow removes the shadow and its cascade mounts.
	DisableShadow()
}

var _ Light = &lightImpl{}

// NewLight creates a new directional Light with the default attenuation and a white color,
// then applies options.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:   LightTypeDirectional,
		color:       mgl32.Vec3{1, 1, 1},
		radius:      DefaultRadius,
		attenCutoff: DefaultAttenCutoff,
		innerCone:   math32.Cos(mgl32.DegToRad(25)),
		outerCone:   math32.Cos(mgl32.DegToRad(35)),
		enabled:     true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) SetType(t LightType) {
	l.lightType = t
	if l.shadow == nil {
		return
	}
	if t == LightTypePoint {
		common.Logger().Warn("point lights cannot cast shadows, dropping shadow")
		l.DisableShadow()
		return
	}
	l.shadow.SetCascadeCount(l.shadow.CascadeCount())
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) Radius() float32 {
	return l.radius
}

func (l *lightImpl) SetRadius(r float32) {
	l.radius = r
}

func (l *lightImpl) AttenCutoff() float32 {
	return l.attenCutoff
}

func (l *lightImpl) SetAttenCutoff(cutoff float32) {
	l.attenCutoff = cutoff
}

func (l *lightImpl) Attenuation(d float32) float32 {
	d = d/l.radius + 1
	return 1 / (d * d)
}

func (l *lightImpl) Range() float32 {
	return l.radius * (math32.Sqrt(l.maxColor()/l.attenCutoff) - 1)
}

func (l *lightImpl) SetRange(r float32) {
	l.attenCutoff = l.maxColor() * l.Attenuation(r)
}

func (l *lightImpl) maxColor() float32 {
	return math32.Max(math32.Max(l.color[0], l.color[1]), l.color[2])
}

func (l *lightImpl) InnerCone() float32 {
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	return l.outerCone
}

func (l *lightImpl) SetSpotCone(inner, outer float32) {
	if inner > outer {
		common.Logger().Warn("spot inner angle exceeds outer angle, clamping",
			zap.Float32("inner", inner), zap.Float32("outer", outer))
		inner = outer
	}
	l.innerCone = math32.Cos(inner)
	l.outerCone = math32.Cos(outer)
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) Host() Host {
	return l.host
}

func (l *lightImpl) Attach(h Host) {
	if l.shadow != nil {
		l.shadow.unmount()
	}
	l.host = h
	if l.shadow != nil {
		l.shadow.mount()
	}
}

func (l *lightImpl) Position() mgl32.Vec3 {
	if l.host == nil {
		return mgl32.Vec3{}
	}
	return l.host.WorldMatrix().Col(3).Vec3()
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	if l.host == nil {
		return mgl32.Vec3{0, 0, -1}
	}
	return common.TransformDirection(l.host.WorldMatrix(), mgl32.Vec3{0, 0, -1}).Normalize()
}

func (l *lightImpl) Shadow() *Shadow {
	return l.shadow
}

func (l *lightImpl) EnableShadow(opts ...ShadowBuilderOption) *Shadow {
	if l.lightType == LightTypePoint {
		common.Logger().Warn("point lights cannot cast shadows, shadow omitted")
		return nil
	}
	l.DisableShadow()
	l.shadow = newShadow(l, opts...)
	l.shadow.mount()
	return l.shadow
}

func (l *lightImpl) DisableShadow() {
	if l.shadow == nil {
		return
	}
	l.shadow.unmount()
	l.shadow = nil
}
