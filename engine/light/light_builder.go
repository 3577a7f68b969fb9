package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithType is an option builder that sets the kind of light.
//
// Parameters:
//   - t: the light type
//
// Returns:
//   - LightBuilderOption: a function that applies the type option to a lightImpl
func WithType(t LightType) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightType = t
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(c mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = c
	}
}

// WithRadius is an option builder that sets the attenuation radius.
//
// Parameters:
//   - r: the radius
//
// Returns:
//   - LightBuilderOption: a function that applies the radius option to a lightImpl
func WithRadius(r float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.radius = r
	}
}

// WithAttenCutoff is an option builder that sets the attenuation cutoff.
//
// Parameters:
//   - cutoff: the attenuation below which the light is ignored
//
// Returns:
//   - LightBuilderOption: a function that applies the cutoff option to a lightImpl
func WithAttenCutoff(cutoff float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.attenCutoff = cutoff
	}
}

// WithRange is an option builder that derives the cutoff from a desired range. Apply it after
// WithColor and WithRadius.
//
// Parameters:
//   - r: the range
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a lightImpl
func WithRange(r float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetRange(r)
	}
}

// WithSpotCone is an option builder that sets the spot cone half-angles in radians.
//
// Parameters:
//   - inner: the half-angle of full intensity
//   - outer: the half-angle beyond which the light contributes nothing
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a lightImpl
func WithSpotCone(inner, outer float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetSpotCone(inner, outer)
	}
}

// WithEnabled is an option builder that enables or disables the light.
//
// Parameters:
//   - enabled: true to render the light
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// WithShadow is an option builder that gives the light a shadow. Apply it after WithType.
//
// Parameters:
//   - opts: variadic list of ShadowBuilderOption functions to configure the shadow
//
// Returns:
//   - LightBuilderOption: a function that enables the shadow on a lightImpl
func WithShadow(opts ...ShadowBuilderOption) LightBuilderOption {
	return func(l *lightImpl) {
		l.EnableShadow(opts...)
	}
}
