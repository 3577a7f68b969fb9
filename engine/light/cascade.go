package light

import (
	"github.com/chewxy/math32"
)

// CascadeSplits divides the view depth range [near, far] into n cascades. Each inner boundary
// blends a logarithmic and a uniform split:
//
//	split(i) = lambda·near·(far/near)^(i/n) + (1-lambda)·(near + (far-near)·i/n)
//
// The first and last values are exactly near and far.
//
// Parameters:
//   - near: the view camera's near plane
//   - far: the view camera's far plane
//   - lambda: 1 for fully logarithmic, 0 for fully uniform
//   - n: the cascade count
//
// Returns:
//   - []float32: n+1 increasing boundaries
func CascadeSplits(near, far, lambda float32, n int) []float32 {
	n = max(n, 1)
	splits := make([]float32, n+1)
	splits[0] = near
	for i := 1; i < n; i++ {
		f := float32(i) / float32(n)
		uniform := near + (far-near)*f
		log := uniform
		if near > 0 {
			log = near * math32.Pow(far/near, f)
		}
		splits[i] = lambda*log + (1-lambda)*uniform
	}
	splits[n] = far
	return splits
}

// AtlasGrid returns the tile layout of n cascades: ceil(sqrt(n)) columns and as many rows as
// needed.
func AtlasGrid(n int) (cols, rows int) {
	n = max(n, 1)
	cols = int(math32.Ceil(math32.Sqrt(float32(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}
