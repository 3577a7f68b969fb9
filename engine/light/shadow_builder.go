package light

// ShadowBuilderOption is a functional option used to configure a Shadow during construction.
type ShadowBuilderOption func(*Shadow)

// WithCascades sets the cascade count. The count is clamped the same way SetCascadeCount does.
//
// Parameters:
//   - n: the number of cascades
//
// Returns:
//   - ShadowBuilderOption: a function that sets the cascade count on the shadow
func WithCascades(n int) ShadowBuilderOption {
	return func(s *Shadow) {
		s.cascadeCount = n
	}
}

// WithCascadeLambda sets the split blend between logarithmic and uniform.
//
// Parameters:
//   - lambda: the blend factor in [0, 1]
//
// Returns:
//   - ShadowBuilderOption: a function that sets the blend factor on the shadow
func WithCascadeLambda(lambda float32) ShadowBuilderOption {
	return func(s *Shadow) {
		s.SetCascadeLambda(lambda)
	}
}

// WithTileSize sets the size of one cascade's atlas tile.
//
// Parameters:
//   - size: the tile width and height in texels
//
// Returns:
//   - ShadowBuilderOption: a function that sets the tile size on the shadow
func WithTileSize(size int) ShadowBuilderOption {
	return func(s *Shadow) {
		s.SetTileSize(size)
	}
}

// WithBias sets the constant and normal depth biases.
//
// Parameters:
//   - bias: the constant depth bias
//   - normalBias: the normal offset in world units
//
// Returns:
//   - ShadowBuilderOption: a function that sets the biases on the shadow
func WithBias(bias, normalBias float32) ShadowBuilderOption {
	return func(s *Shadow) {
		s.bias = bias
		s.normalBias = normalBias
	}
}

// WithPCF sets the percentage-closer filter kernel.
//
// Parameters:
//   - samples: taps per axis
//   - radius: the kernel radius in texels
//
// Returns:
//   - ShadowBuilderOption: a function that sets the filter on the shadow
func WithPCF(samples int, radius float32) ShadowBuilderOption {
	return func(s *Shadow) {
		s.SetPCFSamples(samples)
		s.pcfRadius = radius
	}
}

// WithAutoCam sets whether the cascade cameras are fitted automatically.
//
// Parameters:
//   - enabled: false to place the cascade cameras manually
//
// Returns:
//   - ShadowBuilderOption: a function that sets auto fitting on the shadow
func WithAutoCam(enabled bool) ShadowBuilderOption {
	return func(s *Shadow) {
		s.autoCam = enabled
	}
}
